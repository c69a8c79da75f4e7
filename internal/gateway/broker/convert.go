package broker

import (
	"time"

	"github.com/lorasim/simulator/internal/radio/timing"
)

func nowMs() int64 { return time.Now().UnixMilli() }

func timingBandwidth(hz uint32) timing.Bandwidth { return timing.Bandwidth(hz) }

func timingSF(sf uint32) timing.SpreadingFactor { return timing.SpreadingFactor(sf) }

// timingCR maps the wire CodeRate enum (1..4 for 4/5..4/8) back to the
// timing package's denominator representation (5..8).
func timingCR(cr int32) timing.CodeRate {
	if cr < 1 || cr > 4 {
		return timing.CR4_5
	}
	return timing.CodeRate(cr + 4)
}
