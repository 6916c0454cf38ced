package io

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressionOf(t *testing.T) {
	table := []struct {
		fname string
		c     Compression
	}{
		{"traj.bin", None},
		{"traj", None},
		{"traj.bin.zst", Zstd},
		{"traj.ZST", Zstd},
		{"dir.gz/traj.gz", Gzip},
		{"traj.lz4", LZ4},
	}

	for i, test := range table {
		assert.Equal(t, test.c, CompressionOf(test.fname), "%d) %s", i, test.fname)
	}
}

func TestOpen(t *testing.T) {
	hd := &Header{5, 40, 10, 3, 0.01, 1.5}
	snaps := testTrajectory(hd)
	dir := t.TempDir()

	for _, name := range []string{"traj.bin", "traj.zst", "traj.gz", "traj.lz4"} {
		fname := filepath.Join(dir, name)

		w, err := Create(fname)
		require.NoError(t, err, name)
		require.NoError(t, WriteTrajectory(w, hd, snaps), name)
		require.NoError(t, w.Close(), name)

		tf, err := Open(fname)
		require.NoError(t, err, name)
		assert.Equal(t, hd, tf.Header, name)
		assert.Equal(t, fname, tf.Name, name)

		initial, final, err := tf.ReadSnapshots(10, 40)
		require.NoError(t, err, name)
		assert.Equal(t, &snaps[1], initial, name)
		assert.Equal(t, &snaps[4], final, name)
		assert.NoError(t, tf.Close(), name)
	}
}

func TestOpenCompressedSize(t *testing.T) {
	hd := &Header{200, 20, 5, 3, 0.01, 1.5}
	snaps := testTrajectory(hd)
	dir := t.TempDir()

	raw, zst := filepath.Join(dir, "traj.bin"), filepath.Join(dir, "traj.zst")
	for _, fname := range []string{raw, zst} {
		w, err := Create(fname)
		require.NoError(t, err)
		require.NoError(t, WriteTrajectory(w, hd, snaps))
		require.NoError(t, w.Close())
	}

	rawInfo, err := os.Stat(raw)
	require.NoError(t, err)
	zstInfo, err := os.Stat(zst)
	require.NoError(t, err)

	hBytes := int64(len("200\n20\n5\n3\n0.01\n1.5\n"))
	assert.Equal(t, hBytes+BinarySize(hd), rawInfo.Size())
	assert.Less(t, zstInfo.Size(), rawInfo.Size())
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.bin"))
	assert.True(t, os.IsNotExist(err))

	bad := filepath.Join(dir, "bad.bin")
	require.NoError(t, os.WriteFile(bad, []byte("4\n20\n"), 0644))
	_, err = Open(bad)
	var ioErr *IOError
	assert.ErrorAs(t, err, &ioErr)

	notZstd := filepath.Join(dir, "bad.gz")
	require.NoError(t, os.WriteFile(notZstd, []byte("4\n20\n5\n"), 0644))
	_, err = Open(notZstd)
	assert.Error(t, err)
}
