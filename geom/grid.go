package geom

import (
	"math"
)

// Grid provides an interface for reasoning over a 1D slice as if it were a
// 3D grid.
type Grid struct {
	CellBounds
	Length, Area, Volume int
	uBounds              [3]int
}

// CellBounds represents a bounding box aligned to grid cells.
type CellBounds struct {
	Origin, Width [3]int
}

// NewGrid returns a new Grid instance.
func NewGrid(origin [3]int, width [3]int) *Grid {
	g := &Grid{}
	g.Init(origin, width)
	return g
}

// Init initializes a Grid instance.
func (g *Grid) Init(origin [3]int, width [3]int) {
	g.Origin = origin
	g.Width = width

	g.Length = width[0]
	g.Area = width[0] * width[1]
	g.Volume = width[0] * width[1] * width[2]

	for i := 0; i < 3; i++ {
		g.uBounds[i] = g.Origin[i] + g.Width[i]
	}
}

// Idx returns the grid index corresponding to a set of coordinates.
func (g *Grid) Idx(x, y, z int) int {
	return ((x - g.Origin[0]) + (y-g.Origin[1])*g.Length +
		(z-g.Origin[2])*g.Area)
}

// IdxCheck returns an index and true if the given coordinate are valid and
// false otherwise.
func (g *Grid) IdxCheck(x, y, z int) (idx int, ok bool) {
	if !g.BoundsCheck(x, y, z) {
		return -1, false
	}

	return g.Idx(x, y, z), true
}

// BoundsCheck returns true if the given coordinates are within the Grid and
// false otherwise.
func (g *Grid) BoundsCheck(x, y, z int) bool {
	return (g.Origin[0] <= x && g.Origin[1] <= y && g.Origin[2] <= z) &&
		(x < g.uBounds[0] && y < g.uBounds[1] &&
			z < g.uBounds[2])
}

// Coords returns the x, y, z coordinates of a point from its grid index.
func (g *Grid) Coords(idx int) (x, y, z int) {
	x = idx%g.Length + g.Origin[0]
	y = (idx%g.Area)/g.Length + g.Origin[1]
	z = idx/g.Area + g.Origin[2]
	return x, y, z
}

// CellList bins points of up to three dimensions into cubic cells so that
// all points closer than CellWidth to a given point can be found by looking
// at adjacent cells only.
type CellList struct {
	Grid
	CellWidth float64

	dim    int
	cells  [][3]int // Cell coordinates of each point
	starts []int    // Points of cell c are idxs[starts[c]:starts[c+1]]
	idxs   []int
}

// NewCellList bins pts into cells of width cellWidth. Every point must have
// the same number of dimensions, between one and three. ok is false if the
// points cannot be binned: too many dimensions, non-finite coordinates or a
// grid with more than maxCells cells.
func NewCellList(
	pts [][]float32, cellWidth float64, maxCells int,
) (cl *CellList, ok bool) {
	if len(pts) == 0 || cellWidth <= 0 {
		return nil, false
	}
	dim := len(pts[0])
	if dim < 1 || dim > 3 {
		return nil, false
	}

	cl = &CellList{CellWidth: cellWidth, dim: dim}
	cl.cells = make([][3]int, len(pts))

	lo := [3]int{math.MaxInt32, math.MaxInt32, math.MaxInt32}
	hi := [3]int{math.MinInt32, math.MinInt32, math.MinInt32}
	for i, p := range pts {
		if len(p) != dim || !Finite(p) {
			return nil, false
		}
		for k := 0; k < dim; k++ {
			c := math.Floor(float64(p[k]) / cellWidth)
			if c < math.MinInt32 || c > math.MaxInt32 {
				return nil, false
			}
			cl.cells[i][k] = int(c)
			if cl.cells[i][k] < lo[k] {
				lo[k] = cl.cells[i][k]
			}
			if cl.cells[i][k] > hi[k] {
				hi[k] = cl.cells[i][k]
			}
		}
	}

	var width [3]int
	volume := 1
	for k := 0; k < 3; k++ {
		if k >= dim {
			lo[k], width[k] = 0, 1
			continue
		}
		width[k] = hi[k] - lo[k] + 1
		if width[k] > maxCells || volume > maxCells/width[k] {
			return nil, false
		}
		volume *= width[k]
	}
	cl.Init(lo, width)

	// Counting sort of point indices by cell.
	cl.starts = make([]int, cl.Volume+1)
	for _, c := range cl.cells {
		cl.starts[cl.Idx(c[0], c[1], c[2])+1]++
	}
	for c := 1; c <= cl.Volume; c++ {
		cl.starts[c] += cl.starts[c-1]
	}
	next := make([]int, cl.Volume)
	copy(next, cl.starts[:cl.Volume])
	cl.idxs = make([]int, len(pts))
	for i, c := range cl.cells {
		idx := cl.Idx(c[0], c[1], c[2])
		cl.idxs[next[idx]] = i
		next[idx]++
	}

	return cl, true
}

// Cell returns the points in the cell with the given grid index.
func (cl *CellList) Cell(idx int) []int {
	return cl.idxs[cl.starts[idx]:cl.starts[idx+1]]
}

// Candidates appends to buf every point in the cell of point i and in the
// cells adjacent to it, including i itself. The order is unspecified.
func (cl *CellList) Candidates(i int, buf []int) []int {
	c := cl.cells[i]
	var span [3]int
	for k := 0; k < cl.dim; k++ {
		span[k] = 1
	}

	for dz := -span[2]; dz <= span[2]; dz++ {
		for dy := -span[1]; dy <= span[1]; dy++ {
			for dx := -span[0]; dx <= span[0]; dx++ {
				idx, ok := cl.IdxCheck(c[0]+dx, c[1]+dy, c[2]+dz)
				if !ok {
					continue
				}
				buf = append(buf, cl.Cell(idx)...)
			}
		}
	}
	return buf
}
