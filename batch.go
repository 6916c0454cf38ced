package nonaffine

import (
	"fmt"
	"log"
	"math"
	"os"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/phil-mansfield/nonaffine/io"
)

// Step is a pair of snapshots to compare.
type Step struct {
	Initial, Interval int
}

// Final returns the step of the final snapshot.
func (s Step) Final() int { return s.Initial + s.Interval }

// ReadSteps reads the first two columns of a text table as initial steps
// and intervals.
func ReadSteps(fname string) ([]Step, error) {
	cols, err := io.ReadColumns(fname, 0, 1)
	if err != nil {
		return nil, err
	}

	steps := make([]Step, len(cols[0]))
	for i := range steps {
		initial, interval := cols[0][i], cols[1][i]
		if !isStep(initial) || !isStep(interval) {
			return nil, fmt.Errorf(
				"Row %d of %s is (%g, %g), but steps must be "+
					"non-negative integers.", i+1, fname, initial, interval,
			)
		}
		steps[i] = Step{int(initial), int(interval)}
	}
	return steps, nil
}

func isStep(x float64) bool {
	return x >= 0 && x == math.Trunc(x) && x <= math.MaxInt32
}

// Batch computes delta for a list of steps within a single trajectory.
type Batch struct {
	Input      string
	Steps      []Step
	FinderOpts []FinderOption
	DeltaOpts  []DeltaOption
	ReadOpts   []io.ReadOption

	Deltas []float32
}

// Run computes delta for every step. The trajectory has no index, so it is
// decoded once per step. Run stops at the first error.
func (b *Batch) Run() error {
	b.Deltas = make([]float32, len(b.Steps))
	for i, step := range b.Steps {
		log.Printf(
			"Step %d/%d: initial step %d, interval %d",
			i+1, len(b.Steps), step.Initial, step.Interval,
		)

		delta, err := DeltaFile(
			b.Input, step, b.FinderOpts, b.DeltaOpts, b.ReadOpts...,
		)
		if err != nil {
			return fmt.Errorf(
				"initial step %d, interval %d: %w",
				step.Initial, step.Interval, err,
			)
		}
		b.Deltas[i] = delta
	}
	return nil
}

// Write writes the steps and deltas to the named file as a text table.
func (b *Batch) Write(fname string) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}

	initials, intervals, deltas := b.columns()
	err = io.WriteColumns(
		f, []string{"initial_step", "interval", "delta"},
		initials, intervals, deltas,
	)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Plot plots delta against interval and saves the figure to fname.
func (b *Batch) Plot(fname string) {
	_, intervals, deltas := b.columns()

	plt.Figure()
	plt.Plot(intervals, deltas, "ok")
	plt.XLabel(`Interval [steps]`, plt.FontSize(16))
	plt.YLabel(`$\Delta$`, plt.FontSize(16))
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)
	plt.Execute()
}

func (b *Batch) columns() (initials, intervals, deltas []float64) {
	initials = make([]float64, len(b.Steps))
	intervals = make([]float64, len(b.Steps))
	deltas = make([]float64, len(b.Steps))
	for i, step := range b.Steps {
		initials[i] = float64(step.Initial)
		intervals[i] = float64(step.Interval)
		if i < len(b.Deltas) {
			deltas[i] = float64(b.Deltas[i])
		}
	}
	return initials, intervals, deltas
}

// DeltaFile opens the named trajectory and computes delta for a single step.
func DeltaFile(
	fname string, step Step,
	fOpts []FinderOption, dOpts []DeltaOption, rOpts ...io.ReadOption,
) (float32, error) {
	p, err := ProfileFile(fname, step, fOpts, dOpts, rOpts...)
	if err != nil {
		return 0, err
	}
	return p.Delta(newDeltaConfig(dOpts).degenerate)
}

// ProfileFile opens the named trajectory and computes the per-particle
// profile for a single step.
func ProfileFile(
	fname string, step Step,
	fOpts []FinderOption, dOpts []DeltaOption, rOpts ...io.ReadOption,
) (*Profile, error) {
	tf, err := io.Open(fname)
	if err != nil {
		return nil, err
	}
	defer tf.Close()

	initial, final, err := tf.ReadSnapshots(step.Initial, step.Final(), rOpts...)
	if err != nil {
		return nil, err
	}
	return SnapshotProfile(initial, final, fOpts, dOpts)
}

// SnapshotProfile builds a Finder over initial and computes the
// per-particle profile.
func SnapshotProfile(
	initial, final *io.Snapshot, fOpts []FinderOption, dOpts []DeltaOption,
) (*Profile, error) {
	if initial.Empty() {
		return nil, &io.LogicError{Msg: fmt.Sprintf(
			"Initial step %d does not match any snapshot.", initial.Step,
		)}
	}
	f, err := NewFinder(initial, fOpts...)
	if err != nil {
		return nil, err
	}
	return NewProfile(initial, final, f, dOpts...)
}
