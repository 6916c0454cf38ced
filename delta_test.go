package nonaffine

import (
	"bufio"
	"bytes"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/nonaffine/io"
)

// squareDelta writes a square trajectory, decodes it and computes delta
// between steps 0 and 5.
func squareDelta(t *testing.T, def Deformation, opts ...DeltaOption) float32 {
	hd, snaps := SquareTrajectory(5, 5, def)
	buf := &bytes.Buffer{}
	require.NoError(t, io.WriteTrajectory(buf, hd, snaps))

	rd := bufio.NewReader(buf)
	got, err := io.ReadHeader(rd)
	require.NoError(t, err)
	require.Equal(t, hd, got)

	initial, final, err := io.ReadSnapshots(rd, got, 0, 5)
	require.NoError(t, err)

	f, err := NewFinder(initial)
	require.NoError(t, err)
	delta, err := Delta(initial, final, f, opts...)
	require.NoError(t, err)
	return delta
}

func TestSquareTrajectoryHeader(t *testing.T) {
	hd, snaps := SquareTrajectory(5, 5, Dilation(0))
	buf := &bytes.Buffer{}
	require.NoError(t, io.WriteHeader(buf, hd))

	assert.Equal(t, "4\n20\n5\n2\n0.01\n1.5\n", buf.String())
	assert.Len(t, snaps, hd.Snapshots())
}

func TestDeltaAffine(t *testing.T) {
	delta := squareDelta(t, Dilation(1e-4))
	assert.True(t, delta >= 0)
	assert.Less(t, delta, float32(1e-3))

	assert.Equal(t, float32(0), squareDelta(t, Dilation(0)))
}

func TestDeltaNonAffine(t *testing.T) {
	delta := squareDelta(t, Bulge(3, 0.3))

	// Corner 3 moves from (1, 1) to (1.3, 1.3).
	edge := 1 - 1/(0.3*0.3+1.3*1.3)
	diag := 1 - 2/(2*1.3*1.3)
	want := (diag/3 + edge/3 + edge/3 + (diag+2*edge)/3) / 4

	assert.InDelta(t, want, float64(delta), 1e-5)
	assert.Greater(t, delta, float32(0.1))
}

func TestDeltaShear(t *testing.T) {
	delta := squareDelta(t, Shear(0.5))

	// Corners 2 and 3 move to (0.5, 1) and (1.5, 1).
	a := 1 - 1/1.25
	b := 1 - 2/3.25
	c := 1 - 2/1.25
	want := (2*(a+b) + 2*(a+c)) / 12

	assert.InDelta(t, want, float64(delta), 1e-5)
	assert.Greater(t, delta, float32(0.01))
}

func TestParseDeformation(t *testing.T) {
	table := []struct {
		name string
		i    int
		want []float32
	}{
		{"Dilation", 0, []float32{2, 4}},
		{"Shear", 0, []float32{3, 2}},
		{"Bulge", 3, []float32{2, 3}},
		{"Bulge", 2, []float32{1, 2}},
	}

	for j, test := range table {
		def, err := ParseDeformation(test.name, 0.5)
		require.NoError(t, err, "%d)", j)
		x := []float32{1, 2}
		def(2, test.i, x)
		assert.Equal(t, test.want, x, "%d)", j)
	}

	_, err := ParseDeformation("Twist", 0.5)
	assert.Error(t, err)
}

func TestDeltaExact(t *testing.T) {
	initial := snapshotOf([]float32{0}, []float32{1}, []float32{2})
	final := snapshotOf([]float32{0}, []float32{2}, []float32{3})
	f, err := NewFinder(initial, Cutoff2(1.5))
	require.NoError(t, err)

	// Particle 0: (1 - 1/4). Particle 1: ((1 - 1/4) + (1 - 1/1))/2.
	// Particle 2: (1 - 1/1).
	var want float32 = (0.75 + 0.75/2 + 0) / 3
	delta, err := Delta(initial, final, f)
	require.NoError(t, err)
	assert.Equal(t, want, delta)
}

func TestDeltaSkipsIsolatedParticles(t *testing.T) {
	initial := snapshotOf([]float32{0}, []float32{1}, []float32{100})
	final := snapshotOf([]float32{0}, []float32{2}, []float32{500})
	f, err := NewFinder(initial)
	require.NoError(t, err)

	p, err := NewProfile(initial, final, f)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 0}, p.Counts)
	assert.Equal(t, 2, p.WithNeighbors())

	delta, err := p.Delta(ReturnError)
	require.NoError(t, err)
	assert.Equal(t, float32(0.75), delta)
}

func TestDeltaDeterministic(t *testing.T) {
	gen := rand.New(rand.NewSource(6))
	initial := randomSnapshot(gen, 400, 3, 20)
	final := randomSnapshot(gen, 400, 3, 20)

	f, err := NewFinder(initial)
	require.NoError(t, err)
	grid, err := NewFinder(initial, Index(GridIndex))
	require.NoError(t, err)

	want, err := Delta(initial, final, f)
	require.NoError(t, err)
	require.False(t, math32.IsNaN(want))

	for _, threads := range []int{1, 2, 3, 8, 1000} {
		got, err := Delta(initial, final, f, Threads(threads))
		require.NoError(t, err)
		assert.Equal(t, want, got, "%d threads", threads)

		got, err = Delta(initial, final, grid, Threads(threads))
		require.NoError(t, err)
		assert.Equal(t, want, got, "%d threads, grid", threads)
	}
}

func TestDeltaNoNeighbors(t *testing.T) {
	initial := snapshotOf([]float32{0, 0}, []float32{10, 0}, []float32{0, 10})
	final := snapshotOf([]float32{0, 0}, []float32{11, 0}, []float32{0, 11})
	f, err := NewFinder(initial)
	require.NoError(t, err)

	_, err = Delta(initial, final, f)
	assert.True(t, errors.Is(err, ErrNoNeighbors))
	var nErr *NumericError
	assert.ErrorAs(t, err, &nErr)

	delta, err := Delta(initial, final, f, OnDegenerate(ReturnZero))
	require.NoError(t, err)
	assert.Equal(t, float32(0), delta)

	delta, err = Delta(initial, final, f, OnDegenerate(ReturnNaN))
	require.NoError(t, err)
	assert.True(t, math32.IsNaN(delta))
}

func TestDeltaCoincident(t *testing.T) {
	initial := snapshotOf([]float32{0, 0}, []float32{1, 0})
	final := snapshotOf([]float32{0.5, 0}, []float32{0.5, 0})
	f, err := NewFinder(initial)
	require.NoError(t, err)

	delta, err := Delta(initial, final, f)
	require.NoError(t, err)
	assert.True(t, math32.IsInf(delta, -1))

	_, err = Delta(initial, final, f, Strict(), Threads(2))
	var nErr *NumericError
	require.ErrorAs(t, err, &nErr)
	assert.ElementsMatch(t, []int{0, 1}, []int{nErr.I, nErr.J})
}

func TestDeltaLogicErrors(t *testing.T) {
	initial := snapshotOf([]float32{0}, []float32{1})
	f, err := NewFinder(initial)
	require.NoError(t, err)

	table := []*io.Snapshot{
		{Step: 10},
		snapshotOf([]float32{0}),
		snapshotOf([]float32{0}, []float32{1}, []float32{2}),
	}
	for i, final := range table {
		_, err := Delta(initial, final, f)
		var lErr *io.LogicError
		assert.ErrorAs(t, err, &lErr, "%d)", i)
	}

	_, err = Delta(&io.Snapshot{}, initial, f)
	var lErr *io.LogicError
	assert.ErrorAs(t, err, &lErr)

	_, err = Delta(initial, snapshotOf([]float32{0, 1}, []float32{1, 1}), f)
	assert.Error(t, err)
}

func TestDeltaZeroInterval(t *testing.T) {
	hd, snaps := SquareTrajectory(5, 5, Bulge(3, 0.1))
	buf := &bytes.Buffer{}
	require.NoError(t, io.WriteTrajectory(buf, hd, snaps))
	rd := bufio.NewReader(buf)
	_, err := io.ReadHeader(rd)
	require.NoError(t, err)

	initial, final, err := io.ReadSnapshots(rd, hd, 10, 10)
	require.NoError(t, err)

	_, err = SnapshotProfile(initial, final, nil, nil)
	var lErr *io.LogicError
	assert.ErrorAs(t, err, &lErr)
}

func TestSummarize(t *testing.T) {
	hd, snaps := SquareTrajectory(2, 5, Bulge(3, 0.3))
	require.Equal(t, 2, hd.Snapshots())

	p, err := SnapshotProfile(&snaps[0], &snaps[1], nil, nil)
	require.NoError(t, err)
	delta, err := p.Delta(ReturnError)
	require.NoError(t, err)

	s := p.Summarize()
	assert.Equal(t, 4, s.Particles)
	assert.Equal(t, 4, s.WithNeighbors)
	assert.Equal(t, 3.0, s.MeanNeighbors)
	assert.InDelta(t, float64(delta), s.Mean, 1e-6)
	assert.Equal(t, float64(p.Sums[3]), s.Max)
	assert.Equal(t, float64(p.Sums[0]), s.Min)
	assert.True(t, s.StdDev > 0 && !math.IsNaN(s.StdDev))

	empty := (&Profile{Sums: []float32{0}, Counts: []int{0}}).Summarize()
	assert.Equal(t, 0, empty.WithNeighbors)
}

func BenchmarkDelta(b *testing.B) {
	gen := rand.New(rand.NewSource(7))
	initial := randomSnapshot(gen, 2000, 3, 40)
	final := randomSnapshot(gen, 2000, 3, 40)
	f, err := NewFinder(initial, Index(GridIndex))
	if err != nil {
		b.Fatal(err.Error())
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Delta(initial, final, f)
	}
}
