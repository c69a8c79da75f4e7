package medium

import (
	"math"

	"github.com/lorasim/simulator/internal/radio"
	"github.com/lorasim/simulator/internal/radio/timing"
)

// captureThresholdDB is the power difference above which the stronger of two
// colliding signals is demodulated correctly. Hard-coded per the LoRa
// capture-effect literature; spreading-factor differences are irrelevant
// here because an identical SF is already a precondition for collision.
const captureThresholdDB = 6.0

// fullCollision reports whether two ended transmissions collide: their
// on-air intervals overlap, they share a direction, their channels are
// frequency-proximate, and they share a spreading factor. All four must
// hold.
func fullCollision(t1, t2 radio.Transmission) bool {
	return timingCollision(t1, t2) &&
		directionCollision(t1, t2) &&
		channelCollision(t1, t2) &&
		sfCollision(t1, t2)
}

func timingCollision(t1, t2 radio.Transmission) bool {
	return t1.Overlaps(t2)
}

func directionCollision(t1, t2 radio.Transmission) bool {
	return t1.Uplink() == t2.Uplink()
}

// channelCollision holds when the two transmissions' centre frequencies are
// at most as far apart as the wider of their two bandwidths tolerates:
// 120 kHz separation for BW500, 60 kHz for BW250, 30 kHz otherwise (BW125).
func channelCollision(t1, t2 radio.Transmission) bool {
	sep := math.Abs(float64(t1.FrequencyHz()) - float64(t2.FrequencyHz()))
	threshold := 30_000.0
	if t1.Bandwidth() == timing.BW500 || t2.Bandwidth() == timing.BW500 {
		threshold = 120_000.0
	} else if t1.Bandwidth() == timing.BW250 || t2.Bandwidth() == timing.BW250 {
		threshold = 60_000.0
	}
	return sep <= threshold
}

func sfCollision(t1, t2 radio.Transmission) bool {
	return t1.SpreadingFactor() == t2.SpreadingFactor()
}

// captureSurvivor compares two colliding transmissions' RSSI as observed at
// one receiver and returns the index (0 or 1) of the survivor, or -1 if
// neither survives (the symmetric interpretation: neither side survives
// when |Δrssi| < 6 dB, otherwise the stronger one does).
func captureSurvivor(rssi1, rssi2 float64) int {
	delta := rssi1 - rssi2
	if math.Abs(delta) < captureThresholdDB {
		return -1
	}
	if delta > 0 {
		return 0
	}
	return 1
}
