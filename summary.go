package nonaffine

import (
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/phil-mansfield/nonaffine/io"
)

// Summary describes the distribution of per-particle contributions over
// the particles which have neighbors.
type Summary struct {
	Particles, WithNeighbors int
	Mean, StdDev             float64
	Min, Max                 float64
	MeanNeighbors            float64
}

// Summarize computes a Summary of p. Statistics are computed in double
// precision and are meant for reporting, not as a replacement for Delta.
func (p *Profile) Summarize() *Summary {
	s := &Summary{Particles: len(p.Sums)}

	vals := make([]float64, 0, len(p.Sums))
	counts := make([]float64, 0, len(p.Sums))
	for i, sum := range p.Sums {
		if p.Counts[i] == 0 {
			continue
		}
		vals = append(vals, float64(sum))
		counts = append(counts, float64(p.Counts[i]))
	}
	s.WithNeighbors = len(vals)
	if len(vals) == 0 {
		return s
	}

	s.Mean, s.StdDev = stat.MeanStdDev(vals, nil)
	if len(vals) < 2 {
		s.StdDev = 0
	}
	s.Min, s.Max = floats.Min(vals), floats.Max(vals)
	s.MeanNeighbors = stat.Mean(counts, nil)
	return s
}

// WriteProfile writes the neighbor count and contribution of every particle
// to the named file as a text table.
func WriteProfile(fname string, p *Profile) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}

	idxs := make([]float64, len(p.Sums))
	counts := make([]float64, len(p.Sums))
	sums := make([]float64, len(p.Sums))
	for i := range p.Sums {
		idxs[i] = float64(i)
		counts[i] = float64(p.Counts[i])
		sums[i] = float64(p.Sums[i])
	}

	err = io.WriteColumns(
		f, []string{"particle", "neighbors", "contribution"},
		idxs, counts, sums,
	)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
