package nonaffine

import (
	"fmt"

	"github.com/chewxy/math32"
	"golang.org/x/sync/errgroup"

	"github.com/phil-mansfield/nonaffine/geom"
	"github.com/phil-mansfield/nonaffine/io"
)

// AnomalyThreshold is the value of delta at and above which a result is
// considered suspiciously large.
const AnomalyThreshold float32 = 1.0

// Degenerate is the policy used when no particle has any neighbors.
type Degenerate int

const (
	// ReturnError makes Delta return ErrNoNeighbors.
	ReturnError Degenerate = iota
	// ReturnZero makes Delta return 0.
	ReturnZero
	// ReturnNaN makes Delta return NaN.
	ReturnNaN
)

// ParseDegenerate converts a configuration value to a Degenerate policy.
func ParseDegenerate(s string) (Degenerate, error) {
	switch s {
	case "Error":
		return ReturnError, nil
	case "Zero":
		return ReturnZero, nil
	case "NaN":
		return ReturnNaN, nil
	}
	return ReturnError, fmt.Errorf("Unrecognized degeneracy policy '%s'.", s)
}

type deltaConfig struct {
	threads    int
	strict     bool
	degenerate Degenerate
}

// DeltaOption configures Delta and NewProfile.
type DeltaOption func(*deltaConfig)

// Threads sets the number of goroutines which compute per-particle
// contributions. The result is identical for any value.
func Threads(n int) DeltaOption {
	return func(c *deltaConfig) { c.threads = n }
}

// Strict makes coincident particles in the final snapshot an error. By
// default they produce Inf or NaN contributions.
func Strict() DeltaOption {
	return func(c *deltaConfig) { c.strict = true }
}

// OnDegenerate sets the policy for snapshots where no particle has any
// neighbors.
func OnDegenerate(d Degenerate) DeltaOption {
	return func(c *deltaConfig) { c.degenerate = d }
}

func newDeltaConfig(opts []DeltaOption) *deltaConfig {
	c := &deltaConfig{threads: 1, degenerate: ReturnError}
	for _, opt := range opts {
		opt(c)
	}
	if c.threads < 1 {
		c.threads = 1
	}
	return c
}

// Profile contains the contribution of every particle to delta.
type Profile struct {
	Sums   []float32 // Contribution of each particle. Zero without neighbors.
	Counts []int     // Number of neighbors of each particle.
}

// Delta computes the non-affine displacement between initial and final.
// f must have been built from initial.
func Delta(
	initial, final *io.Snapshot, f *Finder, opts ...DeltaOption,
) (float32, error) {
	c := newDeltaConfig(opts)
	p, err := newProfile(initial, final, f, c)
	if err != nil {
		return 0, err
	}
	return p.Delta(c.degenerate)
}

// NewProfile computes the contribution of every particle to delta.
func NewProfile(
	initial, final *io.Snapshot, f *Finder, opts ...DeltaOption,
) (*Profile, error) {
	return newProfile(initial, final, f, newDeltaConfig(opts))
}

func newProfile(
	initial, final *io.Snapshot, f *Finder, c *deltaConfig,
) (*Profile, error) {
	switch {
	case initial.Empty():
		return nil, &io.LogicError{Msg: fmt.Sprintf(
			"Initial step %d does not match any snapshot.", initial.Step,
		)}
	case final.Empty():
		return nil, &io.LogicError{Msg: fmt.Sprintf(
			"Final step %d does not match any snapshot.", final.Step,
		)}
	case initial.Len() != final.Len():
		return nil, &io.LogicError{Msg: fmt.Sprintf(
			"Initial snapshot has %d particles, but final snapshot has %d.",
			initial.Len(), final.Len(),
		)}
	case f.Len() != initial.Len():
		return nil, &io.LogicError{Msg: fmt.Sprintf(
			"Neighbor finder covers %d particles, but snapshots have %d.",
			f.Len(), initial.Len(),
		)}
	}

	dim := len(f.xs[0])
	for i := range final.Particles {
		if len(final.Particles[i].Xs) != dim {
			return nil, fmt.Errorf(
				"Particle %d has %d coordinates in the final snapshot, "+
					"but %d in the initial snapshot.",
				i, len(final.Particles[i].Xs), dim,
			)
		}
	}

	n := initial.Len()
	p := &Profile{Sums: make([]float32, n), Counts: make([]int, n)}

	threads := c.threads
	if threads > n {
		threads = n
	}
	if threads == 1 {
		if err := p.fill(final, f, 0, n, c.strict); err != nil {
			return nil, err
		}
		return p, nil
	}

	g := new(errgroup.Group)
	chunk := (n + threads - 1) / threads
	for start := 0; start < n; start += chunk {
		start, end := start, start+chunk
		if end > n {
			end = n
		}
		g.Go(func() error { return p.fill(final, f, start, end, c.strict) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}

// fill computes the contributions of particles [start, end).
func (p *Profile) fill(
	final *io.Snapshot, f *Finder, start, end int, strict bool,
) error {
	buf := []Neighbor{}
	for i := start; i < end; i++ {
		buf = f.Neighbors(i, buf[:0])
		p.Counts[i] = len(buf)
		if len(buf) == 0 {
			continue
		}

		xi := final.Particles[i].Xs
		count := float32(len(buf))
		var sum float32
		for _, nb := range buf {
			dF2 := geom.Distance2(xi, final.Particles[nb.Idx].Xs)
			if strict && dF2 == 0 {
				return &NumericError{
					"particles coincide in the final snapshot", i, nb.Idx,
				}
			}
			sum += (1 - nb.D2/dF2) / count
		}
		p.Sums[i] = sum
	}
	return nil
}

// WithNeighbors returns the number of particles with at least one neighbor.
func (p *Profile) WithNeighbors() int {
	n := 0
	for _, c := range p.Counts {
		if c > 0 {
			n++
		}
	}
	return n
}

// Delta reduces the profile to delta. Contributions are summed in particle
// order, so the result does not depend on how the profile was computed.
func (p *Profile) Delta(d Degenerate) (float32, error) {
	var total float32
	n := 0
	for i, sum := range p.Sums {
		if p.Counts[i] == 0 {
			continue
		}
		total += sum
		n++
	}

	if n == 0 {
		switch d {
		case ReturnZero:
			return 0, nil
		case ReturnNaN:
			return math32.NaN(), nil
		default:
			return 0, ErrNoNeighbors
		}
	}

	return total / float32(n), nil
}
