package radio

import "github.com/lorasim/simulator/internal/radio/timing"

// Region identifies a regional parameters plan (e.g. "EU868", "US915").
type Region string

// Parameters describes the radio configuration of a transmission or a
// device's receiver. Equality is structural: two Parameters with identical
// fields compare equal with ==. Device.CanReceive matches an arriving
// transmission field by field (frequency, bandwidth, spreading factor),
// not by comparing whole Parameters values.
type Parameters struct {
	Region          Region
	SpreadingFactor timing.SpreadingFactor
	Bandwidth       timing.Bandwidth
	CodeRate        timing.CodeRate
	FrequencyHz     uint32
	DataRate        uint8
}
