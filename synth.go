package nonaffine

import (
	"fmt"

	"github.com/phil-mansfield/nonaffine/io"
)

// Deformation moves particle i of a reference configuration to its position
// in snapshot s. x holds the reference position on entry and must hold the
// deformed position on exit.
type Deformation func(s, i int, x []float32)

// Dilation uniformly scales positions by (1 + rate*s). This is an affine
// deformation.
func Dilation(rate float32) Deformation {
	return func(s, i int, x []float32) {
		scale := 1 + rate*float32(s)
		for k := range x {
			x[k] *= scale
		}
	}
}

// Shear displaces the first coordinate by rate*s times the second. This is
// an affine deformation.
func Shear(rate float32) Deformation {
	return func(s, i int, x []float32) {
		if len(x) > 1 {
			x[0] += rate * float32(s) * x[1]
		}
	}
}

// Bulge moves a single particle away from the origin by rate*s along each
// axis while every other particle stays put. This is not affine.
func Bulge(particle int, rate float32) Deformation {
	return func(s, i int, x []float32) {
		if i != particle {
			return
		}
		for k := range x {
			x[k] += rate * float32(s)
		}
	}
}

// ParseDeformation converts a name and rate into a Deformation. Bulge moves
// the last corner of the square.
func ParseDeformation(name string, rate float32) (Deformation, error) {
	switch name {
	case "Dilation":
		return Dilation(rate), nil
	case "Shear":
		return Shear(rate), nil
	case "Bulge":
		return Bulge(3, rate), nil
	}
	return nil, fmt.Errorf("Unrecognized deformation '%s'.", name)
}

// SquareTrajectory returns a two-dimensional trajectory of four particles
// placed at the corners of a unit square and deformed by def.
func SquareTrajectory(
	snapshots, interval int, def Deformation,
) (*io.Header, []io.Snapshot) {
	corners := [][2]float32{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

	hd := &io.Header{
		Particles: len(corners),
		Steps:     (snapshots - 1) * interval,
		Interval:  interval,
		Dim:       2,
		Dt:        0.01,
		Range:     1.5,
	}

	snaps := make([]io.Snapshot, snapshots)
	for s := range snaps {
		snaps[s].Step = s * interval
		snaps[s].Particles = make([]io.Particle, len(corners))
		for i, c := range corners {
			x := []float32{c[0], c[1]}
			def(s, i, x)
			snaps[s].Particles[i] = io.Particle{
				Xs: x, CellType: uint16(i % 2), NeighborHint: 3, CoreSize: 0.5,
			}
		}
	}
	return hd, snaps
}
