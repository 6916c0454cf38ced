package io

import (
	"fmt"

	"gopkg.in/gcfg.v1"
)

const (
	ExampleDeltaFile = `[Delta]

#######################
# Required Parameters #
#######################

# Trajectory file. Files ending in .zst, .gz or .lz4 are decompressed on the
# fly.
Input = path/to/trajectory.bin

# Step of the reference snapshot. Must be smaller than the total number of
# steps in the trajectory and must be a multiple of the snapshot interval.
InitialStep = 0

# Number of steps between the reference snapshot and the final snapshot.
Interval = 5

#######################
# Optional Parameters #
#######################

# Squared distance below which two particles are neighbors in the reference
# snapshot. Note that this is a squared distance. Default is 10.
# Cutoff2 = 10

# Neighbor search method. AllPairs compares every pair of particles. Grid
# bins particles into cells first, which is much faster for large snapshots
# and finds exactly the same neighbors.
# Index = AllPairs

# Number of goroutines used to compute per-particle contributions. The result
# does not depend on this value.
# Threads = 1

# If Strict is set, coincident particles in the final snapshot are reported
# as errors instead of producing Inf or NaN.
# Strict = false

# What to do if no particle has any neighbors: Error, Zero or NaN.
# OnDegenerate = Error

# Writes the per-particle contributions to this file.
# ParticleOutput = particles.txt

# Output files which are useful for profiling and debugging.
# ProfileFile = prof.out
# LogFile = log.out`

	ExampleBatchFile = `[Batch]

#######################
# Required Parameters #
#######################

# Trajectory file.
Input = path/to/trajectory.bin

# Text table with two columns: initial step and interval. Lines starting
# with # are ignored.
Steps = path/to/steps.txt

# Results are written here as three columns: initial step, interval, delta.
Output = path/to/deltas.txt

#######################
# Optional Parameters #
#######################

# If set, delta is plotted against interval and saved to this file. This
# requires a working python installation with matplotlib.
# PlotFile = deltas.png

# Cutoff2 = 10
# Index = AllPairs
# Threads = 1
# Strict = false
# OnDegenerate = Error
# ProfileFile = prof.out
# LogFile = log.out`
)

// SharedConfig contains the parameters shared by every mode.
type SharedConfig struct {
	Input string

	Cutoff2      float64
	Index        string
	Threads      int
	Strict       bool
	OnDegenerate string

	LogFile, ProfileFile string
}

func (con *SharedConfig) ValidInput() bool {
	return con.Input != ""
}

func (con *SharedConfig) ValidCutoff2() bool {
	return con.Cutoff2 > 0
}

func (con *SharedConfig) ValidIndex() bool {
	switch con.Index {
	case "AllPairs", "Grid":
		return true
	}
	return false
}

func (con *SharedConfig) ValidThreads() bool {
	return con.Threads > 0
}

func (con *SharedConfig) ValidOnDegenerate() bool {
	switch con.OnDegenerate {
	case "Error", "Zero", "NaN":
		return true
	}
	return false
}

func (con *SharedConfig) ValidLogFile() bool {
	return con.LogFile != ""
}

func (con *SharedConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

// Check returns a descriptive error for the first invalid shared parameter.
func (con *SharedConfig) Check() error {
	switch {
	case !con.ValidInput():
		return fmt.Errorf("Invalid/non-existent 'Input' value.")
	case !con.ValidCutoff2():
		return fmt.Errorf("'Cutoff2' must be positive, but is %g.", con.Cutoff2)
	case !con.ValidIndex():
		return fmt.Errorf(
			"'Index' must be AllPairs or Grid, but is '%s'.", con.Index,
		)
	case !con.ValidThreads():
		return fmt.Errorf("'Threads' must be positive, but is %d.", con.Threads)
	case !con.ValidOnDegenerate():
		return fmt.Errorf(
			"'OnDegenerate' must be Error, Zero or NaN, but is '%s'.",
			con.OnDegenerate,
		)
	}
	return nil
}

func defaultShared() SharedConfig {
	return SharedConfig{
		Cutoff2: 10, Index: "AllPairs", Threads: 1, OnDegenerate: "Error",
	}
}

type DeltaConfig struct {
	SharedConfig

	InitialStep, Interval int

	ParticleOutput string
}

type DeltaWrapper struct {
	Delta DeltaConfig
}

func DefaultDeltaWrapper() *DeltaWrapper {
	con := DeltaConfig{SharedConfig: defaultShared(), InitialStep: -1, Interval: -1}
	return &DeltaWrapper{con}
}

func (con *DeltaConfig) ValidInitialStep() bool {
	return con.InitialStep >= 0
}

func (con *DeltaConfig) ValidInterval() bool {
	return con.Interval >= 0
}

func (con *DeltaConfig) ValidParticleOutput() bool {
	return con.ParticleOutput != ""
}

// Check returns a descriptive error for the first invalid parameter.
func (con *DeltaConfig) Check() error {
	if err := con.SharedConfig.Check(); err != nil {
		return err
	}
	if !con.ValidInitialStep() {
		return fmt.Errorf("Invalid/non-existent 'InitialStep' value.")
	} else if !con.ValidInterval() {
		return fmt.Errorf("Invalid/non-existent 'Interval' value.")
	}
	return nil
}

type BatchConfig struct {
	SharedConfig

	Steps, Output string
	PlotFile      string
}

type BatchWrapper struct {
	Batch BatchConfig
}

func DefaultBatchWrapper() *BatchWrapper {
	return &BatchWrapper{BatchConfig{SharedConfig: defaultShared()}}
}

func (con *BatchConfig) ValidSteps() bool {
	return con.Steps != ""
}

func (con *BatchConfig) ValidOutput() bool {
	return con.Output != ""
}

func (con *BatchConfig) ValidPlotFile() bool {
	return con.PlotFile != ""
}

// Check returns a descriptive error for the first invalid parameter.
func (con *BatchConfig) Check() error {
	if err := con.SharedConfig.Check(); err != nil {
		return err
	}
	if !con.ValidSteps() {
		return fmt.Errorf("Invalid/non-existent 'Steps' value.")
	} else if !con.ValidOutput() {
		return fmt.Errorf("Invalid/non-existent 'Output' value.")
	}
	return nil
}

// ReadDeltaConfig reads and checks a [Delta] configuration file.
func ReadDeltaConfig(fname string) (*DeltaConfig, error) {
	wrap := DefaultDeltaWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	if err := wrap.Delta.Check(); err != nil {
		return nil, err
	}
	return &wrap.Delta, nil
}

// ReadBatchConfig reads and checks a [Batch] configuration file.
func ReadBatchConfig(fname string) (*BatchConfig, error) {
	wrap := DefaultBatchWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	if err := wrap.Batch.Check(); err != nil {
		return nil, err
	}
	return &wrap.Batch, nil
}
