// Package traffic implements the empirical and periodic packet-arrival
// models used to schedule device uplinks.
package traffic

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
)

// EmpiricalDistribution is a categorical distribution over a finite set of
// values, each with an associated probability, loaded from a tab- or
// comma-separated two-column file.
type EmpiricalDistribution struct {
	values []float64
	probs  []float64
	cumul  []float64
}

// LoadEmpiricalDistribution reads value/probability pairs from path. The
// separator between the two columns on a line may be a tab or a comma;
// blank lines are skipped. Probabilities must sum to 1 within 1e-9, and the
// value and probability columns must be the same length, or loading fails.
func LoadEmpiricalDistribution(path string) (*EmpiricalDistribution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("traffic: open %s: %w", path, err)
	}
	defer f.Close()
	return parseEmpiricalDistribution(f, path)
}

func parseEmpiricalDistribution(r io.Reader, path string) (*EmpiricalDistribution, error) {
	var values, probs []float64
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var fields []string
		if strings.Contains(line, "\t") {
			fields = strings.Split(line, "\t")
		} else {
			fields = strings.Split(line, ",")
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("traffic: %s:%d: expected 2 columns, got %d", path, lineNo, len(fields))
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("traffic: %s:%d: value: %w", path, lineNo, err)
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("traffic: %s:%d: probability: %w", path, lineNo, err)
		}
		values = append(values, v)
		probs = append(probs, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("traffic: %s: %w", path, err)
	}
	if len(values) != len(probs) {
		return nil, fmt.Errorf("traffic: %s: unequal value/probability column lengths", path)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("traffic: %s: no data rows", path)
	}
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return nil, fmt.Errorf("traffic: %s: probabilities sum to %v, want 1±1e-9", path, sum)
	}

	cumul := make([]float64, len(probs))
	running := 0.0
	for i, p := range probs {
		running += p
		cumul[i] = running
	}
	// Clamp the final entry to exactly 1 so Sample's draw < cumul[last]
	// always holds despite floating-point summation drift.
	cumul[len(cumul)-1] = 1.0

	return &EmpiricalDistribution{values: values, probs: probs, cumul: cumul}, nil
}

// Mean returns the expected value of the distribution.
func (d *EmpiricalDistribution) Mean() float64 {
	m := 0.0
	for i, v := range d.values {
		m += v * d.probs[i]
	}
	return m
}

// Variance returns the distribution's variance.
func (d *EmpiricalDistribution) Variance() float64 {
	mean := d.Mean()
	v := 0.0
	for i, val := range d.values {
		diff := val - mean
		v += diff * diff * d.probs[i]
	}
	return v
}

// StdDev returns the distribution's standard deviation.
func (d *EmpiricalDistribution) StdDev() float64 {
	return math.Sqrt(d.Variance())
}

// Sample draws one value via inverse CDF using a uniform [0,1) draw from
// rng. rng must not be nil.
func (d *EmpiricalDistribution) Sample(rng *rand.Rand) float64 {
	u := rng.Float64()
	for i, c := range d.cumul {
		if u < c {
			return d.values[i]
		}
	}
	return d.values[len(d.values)-1]
}
