package traffic

import "math/rand"

// Sampler is the capability shared by all traffic model variants: drawing
// an inter-arrival time in seconds.
type Sampler interface {
	Sample(rng *rand.Rand) float64
}

// Periodic is a fixed inter-arrival period in seconds; it ignores the rng.
type Periodic float64

// Sample returns the fixed period, unaffected by rng.
func (p Periodic) Sample(_ *rand.Rand) float64 { return float64(p) }

// FixedJitter draws Fixed seconds plus a uniform draw from [0, Random)
// seconds, the "regular with jitter" arrival pattern used when no empirical
// distribution file is configured.
type FixedJitter struct {
	Fixed  float64
	Random float64
}

// Sample returns Fixed plus a uniform jitter in [0, Random).
func (f FixedJitter) Sample(rng *rand.Rand) float64 {
	if f.Random <= 0 {
		return f.Fixed
	}
	return f.Fixed + rng.Float64()*f.Random
}

// Empirical wraps an EmpiricalDistribution as a Sampler.
type Empirical struct {
	Distribution *EmpiricalDistribution
}

// Sample draws from the wrapped distribution.
func (e Empirical) Sample(rng *rand.Rand) float64 {
	return e.Distribution.Sample(rng)
}

// Model is the traffic-model sum type: a fixed period ("regular"), a fixed
// period plus uniform jitter, or an empirical distribution ("unregular").
// All three satisfy Sampler; the sample point is the only place the choice
// is resolved.
type Model struct {
	sampler Sampler
}

// NewPeriodicModel builds a Model sampling a fixed period in seconds.
func NewPeriodicModel(periodSeconds float64) Model {
	return Model{sampler: Periodic(periodSeconds)}
}

// NewJitteredModel builds a Model sampling fixedSeconds plus a uniform
// draw from [0, randomSeconds).
func NewJitteredModel(fixedSeconds, randomSeconds float64) Model {
	return Model{sampler: FixedJitter{Fixed: fixedSeconds, Random: randomSeconds}}
}

// NewEmpiricalModel builds a Model sampling from a loaded distribution.
func NewEmpiricalModel(d *EmpiricalDistribution) Model {
	return Model{sampler: Empirical{Distribution: d}}
}

// Sample draws the next inter-arrival time in seconds.
func (m Model) Sample(rng *rand.Rand) float64 {
	return m.sampler.Sample(rng)
}
