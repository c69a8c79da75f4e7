package radio

import (
	"hash/fnv"
	"time"

	"github.com/lorasim/simulator/internal/radio/geometry"
	"github.com/lorasim/simulator/internal/radio/timing"
)

// Transmission is an immutable description of one on-air emission. It is
// constructed once by NewTransmission and never mutated afterward; a
// reception derives new ArrivalStats alongside it rather than rewriting any
// of its fields in place.
type Transmission struct {
	startPosition    geometry.Position
	startTimeMs      int64
	frequencyHz      uint32
	bandwidth        timing.Bandwidth
	spreadingFactor  timing.SpreadingFactor
	codeRate         timing.CodeRate
	startingPowerDBm float64
	uplink           bool
	payload          []byte
}

// NewTransmission constructs a Transmission. payload is copied so that the
// caller's buffer can be reused or mutated afterward without affecting this
// value.
func NewTransmission(
	startPosition geometry.Position,
	startTimeMs int64,
	frequencyHz uint32,
	bandwidth timing.Bandwidth,
	sf timing.SpreadingFactor,
	cr timing.CodeRate,
	startingPowerDBm float64,
	uplink bool,
	payload []byte,
) Transmission {
	buf := make([]byte, len(payload))
	copy(buf, payload)
	return Transmission{
		startPosition:    startPosition,
		startTimeMs:      startTimeMs,
		frequencyHz:      frequencyHz,
		bandwidth:        bandwidth,
		spreadingFactor:  sf,
		codeRate:         cr,
		startingPowerDBm: startingPowerDBm,
		uplink:           uplink,
		payload:          buf,
	}
}

func (t Transmission) StartPosition() geometry.Position       { return t.startPosition }
func (t Transmission) StartTimeMs() int64                     { return t.startTimeMs }
func (t Transmission) FrequencyHz() uint32                    { return t.frequencyHz }
func (t Transmission) Bandwidth() timing.Bandwidth             { return t.bandwidth }
func (t Transmission) SpreadingFactor() timing.SpreadingFactor { return t.spreadingFactor }
func (t Transmission) CodeRate() timing.CodeRate               { return t.codeRate }
func (t Transmission) StartingPowerDBm() float64               { return t.startingPowerDBm }
func (t Transmission) Uplink() bool                            { return t.uplink }

// Payload returns a copy of the transmission's payload bytes.
func (t Transmission) Payload() []byte {
	buf := make([]byte, len(t.payload))
	copy(buf, t.payload)
	return buf
}

// TimeOnAir is the duration this transmission occupies the channel.
func (t Transmission) TimeOnAir() time.Duration {
	return timing.TimeOnAir(t.spreadingFactor, t.bandwidth, t.codeRate, len(t.payload))
}

// EndTimeMs is the wall-clock millisecond at which this transmission's
// channel occupancy ends.
func (t Transmission) EndTimeMs() int64 {
	return t.startTimeMs + t.TimeOnAir().Milliseconds()
}

// Ended reports whether this transmission's on-air interval has ended by
// nowMs.
func (t Transmission) Ended(nowMs int64) bool {
	return nowMs >= t.EndTimeMs()
}

// Overlaps reports whether this transmission's on-air interval overlaps
// another's.
func (t Transmission) Overlaps(other Transmission) bool {
	return t.startTimeMs < other.EndTimeMs() && other.startTimeMs < t.EndTimeMs()
}

// ArrivalStats is the per-(transmission, receiver) outcome of a path-loss
// evaluation.
type ArrivalStats struct {
	TimeMs  int64
	RSSIDBm float32
	SNRDB   float32
}

// ReceivedTransmission is a Transmission together with the ArrivalStats
// computed for one particular receiver.
type ReceivedTransmission struct {
	Transmission Transmission
	Arrival      ArrivalStats
}

// ReceivedKey is a comparable, hashable identity for a ReceivedTransmission,
// suitable for use as a map/set key. Go has no native hashable-struct-with-
// slice-field, so the payload is folded into a 64-bit FNV hash rather than
// included verbatim.
type ReceivedKey struct {
	StartTimeMs  int64
	FrequencyHz  uint32
	Bandwidth    timing.Bandwidth
	SF           timing.SpreadingFactor
	Uplink       bool
	PayloadHash  uint64
	ArrivalTime  int64
}

// Key returns a comparable key identifying this reception for set-membership
// use in survivor computation.
func (r ReceivedTransmission) Key() ReceivedKey {
	h := fnv.New64a()
	h.Write(r.Transmission.payload)
	return ReceivedKey{
		StartTimeMs: r.Transmission.startTimeMs,
		FrequencyHz: r.Transmission.frequencyHz,
		Bandwidth:   r.Transmission.bandwidth,
		SF:          r.Transmission.spreadingFactor,
		Uplink:      r.Transmission.uplink,
		PayloadHash: h.Sum64(),
		ArrivalTime: r.Arrival.TimeMs,
	}
}
