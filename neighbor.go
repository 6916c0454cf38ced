/*Package nonaffine computes the non-affine displacement of particles between
two snapshots of a trajectory.

For every particle i with neighbors N(i) in the initial snapshot, the
contribution

    sum_{j in N(i)} (1 - d0(i, j)^2 / dF(i, j)^2) / |N(i)|

is computed, where d0 and dF are the initial and final distances between i
and j. Delta is the mean of these contributions over all particles which have
at least one neighbor.
*/
package nonaffine

import (
	"fmt"
	"log"
	"sort"

	"github.com/chewxy/math32"

	"github.com/phil-mansfield/nonaffine/geom"
	"github.com/phil-mansfield/nonaffine/io"
)

const (
	// DefaultCutoff2 is the default squared neighbor distance.
	DefaultCutoff2 float32 = 10.0

	// cellPadding widens grid cells slightly so that single precision
	// rounding in the distance calculation can never place a neighbor
	// outside the adjacent cells.
	cellPadding = 1.001
)

// IndexType selects how a Finder searches for neighbors.
type IndexType int

const (
	// AllPairs compares a particle against every other particle.
	AllPairs IndexType = iota
	// GridIndex only compares particles in adjacent grid cells. The
	// neighbors found are identical to AllPairs.
	GridIndex
)

func (t IndexType) String() string {
	switch t {
	case AllPairs:
		return "AllPairs"
	case GridIndex:
		return "Grid"
	}
	return fmt.Sprintf("IndexType(%d)", int(t))
}

// ParseIndexType converts a configuration value to an IndexType.
func ParseIndexType(s string) (IndexType, error) {
	switch s {
	case "AllPairs":
		return AllPairs, nil
	case "Grid":
		return GridIndex, nil
	}
	return AllPairs, fmt.Errorf("Unrecognized index type '%s'.", s)
}

// Neighbor is a particle within the cutoff of another particle, along with
// the squared distance between the two.
type Neighbor struct {
	Idx int
	D2  float32
}

// Finder finds the neighbors of particles in a reference snapshot. It is
// safe for concurrent use.
type Finder struct {
	Cutoff2 float32
	Index   IndexType

	xs [][]float32
	cl *geom.CellList
}

// FinderOption configures a Finder.
type FinderOption func(*Finder)

// Cutoff2 sets the squared distance below which two particles are
// neighbors.
func Cutoff2(c2 float32) FinderOption {
	return func(f *Finder) { f.Cutoff2 = c2 }
}

// Index sets the neighbor search method.
func Index(t IndexType) FinderOption {
	return func(f *Finder) { f.Index = t }
}

// NewFinder returns a Finder over the positions of snap.
func NewFinder(snap *io.Snapshot, opts ...FinderOption) (*Finder, error) {
	f := &Finder{Cutoff2: DefaultCutoff2, Index: AllPairs}
	for _, opt := range opts {
		opt(f)
	}

	if !(f.Cutoff2 > 0) || math32.IsInf(f.Cutoff2, 1) {
		return nil, fmt.Errorf(
			"Neighbor cutoff must be positive and finite, but is %g.",
			f.Cutoff2,
		)
	} else if snap.Empty() {
		return nil, &io.LogicError{Msg: fmt.Sprintf(
			"Snapshot at step %d contains no particles.", snap.Step,
		)}
	}

	f.xs = make([][]float32, snap.Len())
	dim := len(snap.Particles[0].Xs)
	for i := range snap.Particles {
		f.xs[i] = snap.Particles[i].Xs
		if len(f.xs[i]) != dim {
			return nil, fmt.Errorf(
				"Particle %d has %d coordinates, but particle 0 has %d.",
				i, len(f.xs[i]), dim,
			)
		}
	}

	if f.Index == GridIndex {
		width := float64(math32.Sqrt(f.Cutoff2)) * cellPadding
		maxCells := 8*len(f.xs) + 1024
		cl, ok := geom.NewCellList(f.xs, width, maxCells)
		if ok {
			f.cl = cl
		} else {
			log.Printf(
				"Cannot build a neighbor grid for %d particles in %d "+
					"dimensions. Falling back to AllPairs.", len(f.xs), dim,
			)
			f.Index = AllPairs
		}
	}

	return f, nil
}

// Len returns the number of particles in the reference snapshot.
func (f *Finder) Len() int { return len(f.xs) }

// Neighbors appends to buf every particle j != i whose squared distance to
// i is strictly less than the cutoff, ordered by index.
func (f *Finder) Neighbors(i int, buf []Neighbor) []Neighbor {
	xi := f.xs[i]

	if f.cl == nil {
		for j, xj := range f.xs {
			if j == i {
				continue
			}
			if d2 := geom.Distance2(xi, xj); d2 < f.Cutoff2 {
				buf = append(buf, Neighbor{j, d2})
			}
		}
		return buf
	}

	start := len(buf)
	for _, j := range f.cl.Candidates(i, make([]int, 0, 64)) {
		if j == i {
			continue
		}
		if d2 := geom.Distance2(xi, f.xs[j]); d2 < f.Cutoff2 {
			buf = append(buf, Neighbor{j, d2})
		}
	}
	found := buf[start:]
	sort.Slice(found, func(a, b int) bool {
		return found[a].Idx < found[b].Idx
	})
	return buf
}
