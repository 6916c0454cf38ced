package io

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gcfg.v1"
)

func TestExampleDeltaFile(t *testing.T) {
	wrap := DefaultDeltaWrapper()
	require.NoError(t, gcfg.ReadStringInto(wrap, ExampleDeltaFile))

	con := &wrap.Delta
	require.NoError(t, con.Check())
	assert.Equal(t, "path/to/trajectory.bin", con.Input)
	assert.Equal(t, 0, con.InitialStep)
	assert.Equal(t, 5, con.Interval)
	assert.Equal(t, 10.0, con.Cutoff2)
	assert.Equal(t, "AllPairs", con.Index)
	assert.Equal(t, 1, con.Threads)
	assert.Equal(t, "Error", con.OnDegenerate)
	assert.False(t, con.Strict)
	assert.False(t, con.ValidParticleOutput())
	assert.False(t, con.ValidLogFile())
}

func TestExampleBatchFile(t *testing.T) {
	wrap := DefaultBatchWrapper()
	require.NoError(t, gcfg.ReadStringInto(wrap, ExampleBatchFile))

	con := &wrap.Batch
	require.NoError(t, con.Check())
	assert.Equal(t, "path/to/steps.txt", con.Steps)
	assert.Equal(t, "path/to/deltas.txt", con.Output)
	assert.False(t, con.ValidPlotFile())
}

func TestDeltaConfig(t *testing.T) {
	text := `[Delta]
Input = traj.zst
InitialStep = 100
Interval = 50
Cutoff2 = 7.5625
Index = Grid
Threads = 4
Strict = true
OnDegenerate = NaN
ParticleOutput = out.txt`

	wrap := DefaultDeltaWrapper()
	require.NoError(t, gcfg.ReadStringInto(wrap, text))

	con := &wrap.Delta
	require.NoError(t, con.Check())
	assert.Equal(t, "traj.zst", con.Input)
	assert.Equal(t, 100, con.InitialStep)
	assert.Equal(t, 50, con.Interval)
	assert.Equal(t, 7.5625, con.Cutoff2)
	assert.Equal(t, "Grid", con.Index)
	assert.Equal(t, 4, con.Threads)
	assert.True(t, con.Strict)
	assert.Equal(t, "NaN", con.OnDegenerate)
	assert.Equal(t, "out.txt", con.ParticleOutput)
}

func TestConfigCheck(t *testing.T) {
	table := []string{
		"[Delta]\nInitialStep = 0\nInterval = 5",
		"[Delta]\nInput = a\nInterval = 5",
		"[Delta]\nInput = a\nInitialStep = 0",
		"[Delta]\nInput = a\nInitialStep = 0\nInterval = 5\nCutoff2 = 0",
		"[Delta]\nInput = a\nInitialStep = 0\nInterval = 5\nIndex = KDTree",
		"[Delta]\nInput = a\nInitialStep = 0\nInterval = 5\nThreads = 0",
		"[Delta]\nInput = a\nInitialStep = 0\nInterval = 5\nOnDegenerate = Panic",
	}

	for i, text := range table {
		wrap := DefaultDeltaWrapper()
		require.NoError(t, gcfg.ReadStringInto(wrap, text), "%d)", i)
		assert.Error(t, wrap.Delta.Check(), "%d)", i)
	}

	wrap := DefaultBatchWrapper()
	require.NoError(t, gcfg.ReadStringInto(wrap, "[Batch]\nInput = a\nSteps = b"))
	assert.Error(t, wrap.Batch.Check())
}
