package io

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a trajectory file is compressed.
type Compression int

const (
	None Compression = iota
	Zstd
	Gzip
	LZ4
)

// CompressionOf returns the compression implied by a file's extension:
// .zst, .gz and .lz4 are recognized.
func CompressionOf(fname string) Compression {
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".zst", ".zstd":
		return Zstd
	case ".gz":
		return Gzip
	case ".lz4":
		return LZ4
	}
	return None
}

// File is a trajectory whose header has already been read.
type File struct {
	Header *Header
	Name   string

	rd      *bufio.Reader
	closers []io.Closer
}

// Open opens the named trajectory, decompressing it if its extension calls
// for it, and reads its header.
func Open(fname string) (*File, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}

	tf, err := NewFile(f, CompressionOf(fname))
	if err != nil {
		f.Close()
		return nil, err
	}
	tf.Name = fname
	tf.closers = append(tf.closers, f)
	return tf, nil
}

// NewFile reads the header of a trajectory stored in r. Closing the returned
// File does not close r.
func NewFile(r io.Reader, c Compression) (*File, error) {
	tf := &File{}

	switch c {
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		rc := dec.IOReadCloser()
		tf.closers = append(tf.closers, rc)
		r = rc
	case Gzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		tf.closers = append(tf.closers, gz)
		r = gz
	case LZ4:
		r = lz4.NewReader(r)
	}

	tf.rd = bufio.NewReader(r)
	hd, err := ReadHeader(tf.rd)
	if err != nil {
		tf.Close()
		return nil, err
	}
	tf.Header = hd
	return tf, nil
}

// ReadSnapshots decodes the rest of the file. See the package-level
// ReadSnapshots. A File can only be read once.
func (tf *File) ReadSnapshots(
	initialStep, finalStep int, opts ...ReadOption,
) (initial, final *Snapshot, err error) {
	return ReadSnapshots(tf.rd, tf.Header, initialStep, finalStep, opts...)
}

// Close releases the decompressor and the underlying file, if any.
func (tf *File) Close() error {
	var first error
	for _, c := range tf.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	tf.closers = nil
	return first
}

// Create creates the named file and returns a writer which compresses its
// input according to the file's extension. The caller must Close the
// returned writer.
func Create(fname string) (io.WriteCloser, error) {
	f, err := os.Create(fname)
	if err != nil {
		return nil, err
	}
	return newWriter(f, CompressionOf(fname))
}

// compressedWriter closes the compressor before the file.
type compressedWriter struct {
	io.Writer
	bw    *bufio.Writer
	comp  io.Closer
	under io.Closer
}

func newWriter(f *os.File, c Compression) (io.WriteCloser, error) {
	cw := &compressedWriter{under: f}

	var w io.Writer = f
	switch c {
	case Zstd:
		enc, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		cw.comp, w = enc, enc
	case Gzip:
		gz := gzip.NewWriter(f)
		cw.comp, w = gz, gz
	case LZ4:
		lw := lz4.NewWriter(f)
		cw.comp, w = lw, lw
	}

	cw.bw = bufio.NewWriter(w)
	cw.Writer = cw.bw
	return cw, nil
}

func (cw *compressedWriter) Close() error {
	err := cw.bw.Flush()
	if cw.comp != nil {
		if cerr := cw.comp.Close(); err == nil {
			err = cerr
		}
	}
	if ferr := cw.under.Close(); err == nil {
		err = ferr
	}
	return err
}
