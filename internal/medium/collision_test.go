package medium

import (
	"testing"

	"github.com/lorasim/simulator/internal/radio"
	"github.com/lorasim/simulator/internal/radio/geometry"
	"github.com/lorasim/simulator/internal/radio/timing"
)

func makeTx(startMs int64, freqHz uint32, bw timing.Bandwidth, uplink bool) radio.Transmission {
	return radio.NewTransmission(geometry.Position{}, startMs, freqHz, bw, timing.SF7, timing.CR4_5, 14, uplink, []byte("payload-13byte"))
}

// TestChannelCollisionBoundary pins spec's BW125 boundary: 31 kHz
// separation does not collide, 30 kHz does.
func TestChannelCollisionBoundary(t *testing.T) {
	t1 := makeTx(0, 868_100_000, timing.BW125, true)

	noCollide := makeTx(0, 868_131_000, timing.BW125, true)
	if channelCollision(t1, noCollide) {
		t.Errorf("31 kHz separation should not channel-collide at BW125")
	}

	collide := makeTx(0, 868_130_000, timing.BW125, true)
	if !channelCollision(t1, collide) {
		t.Errorf("30 kHz separation should channel-collide at BW125")
	}
}

func TestDirectionNeverCollides(t *testing.T) {
	up := makeTx(0, 868_100_000, timing.BW125, true)
	down := makeTx(0, 868_100_000, timing.BW125, false)
	if fullCollision(up, down) {
		t.Errorf("opposite-direction transmissions must never collide")
	}
}

func TestFullCollisionRequiresAllFourDimensions(t *testing.T) {
	base := makeTx(0, 868_100_000, timing.BW125, true)
	same := makeTx(10, 868_100_000, timing.BW125, true)
	if !fullCollision(base, same) {
		t.Errorf("expected overlapping same-channel same-SF same-direction transmissions to collide")
	}

	differentSF := radio.NewTransmission(geometry.Position{}, 0, 868_100_000, timing.BW125, timing.SF9, timing.CR4_5, 14, true, []byte("x"))
	if fullCollision(base, differentSF) {
		t.Errorf("different spreading factors must never collide")
	}
}

// TestCaptureTieBreak pins spec's capture scenario: 10 dB apart survives,
// 5 dB apart survives neither.
func TestCaptureTieBreak(t *testing.T) {
	if got := captureSurvivor(-100, -110); got != 0 {
		t.Errorf("captureSurvivor(-100, -110) = %d, want 0", got)
	}
	if got := captureSurvivor(-100, -105); got != -1 {
		t.Errorf("captureSurvivor(-100, -105) = %d, want -1 (no survivor)", got)
	}
}

func TestCaptureSurvivorSymmetric(t *testing.T) {
	if got := captureSurvivor(-110, -100); got != 1 {
		t.Errorf("captureSurvivor(-110, -100) = %d, want 1", got)
	}
}
