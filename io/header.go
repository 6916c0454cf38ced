package io

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Header contains the simulation-wide parameters stored in the six text lines
// at the top of a trajectory file.
type Header struct {
	Particles int     // Number of particles in each snapshot
	Steps     int     // Total number of simulation steps
	Interval  int     // Steps between two stored snapshots
	Dim       int     // Spatial dimensions of each position
	Dt        float32 // Timestep. Unused, but part of the layout.
	Range     float32 // Interaction range. Unused, but part of the layout.
}

// headerFields lists the header lines in file order.
var headerFields = []string{
	"particle_count", "total_steps", "snapshot_interval",
	"dimensions", "timestep", "interaction_range",
}

// Snapshots returns the number of snapshots stored after the header.
func (hd *Header) Snapshots() int {
	return hd.Steps/hd.Interval + 1
}

// RecordSize returns the size in bytes of a single particle record.
func (hd *Header) RecordSize() int {
	return floatSize*hd.Dim + auxSize*DefaultAuxFields + floatSize
}

// BinarySize returns the number of bytes which follow the header.
func BinarySize(hd *Header) int64 {
	return int64(hd.Snapshots()) * int64(hd.Particles) * int64(hd.RecordSize())
}

// ReadHeader reads the six header lines from rd. rd is left positioned at
// the first byte of the binary section, so the same reader must be passed
// on to ReadSnapshots.
func ReadHeader(rd *bufio.Reader) (*Header, error) {
	hd := &Header{}
	ints := []*int{&hd.Particles, &hd.Steps, &hd.Interval, &hd.Dim}
	floats := []*float32{&hd.Dt, &hd.Range}

	for i, field := range headerFields {
		line, err := rd.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, &IOError{field, -1, -1, err}
		}
		text := strings.TrimSpace(line)

		if i < len(ints) {
			n, err := strconv.ParseUint(text, 10, strconv.IntSize-1)
			if err != nil {
				return nil, &ParseError{field, i + 1, text, err}
			}
			*ints[i] = int(n)
		} else {
			x, err := strconv.ParseFloat(text, 32)
			if err != nil {
				return nil, &ParseError{field, i + 1, text, err}
			}
			*floats[i-len(ints)] = float32(x)
		}
	}

	if err := hd.Check(); err != nil {
		return nil, err
	}
	return hd, nil
}

// Check returns an error if hd does not describe a usable layout: a count
// which must be positive is not, or a snapshot is too large to address.
func (hd *Header) Check() error {
	positive := []struct{ line, val int }{
		{1, hd.Particles}, {3, hd.Interval}, {4, hd.Dim},
	}
	for _, f := range positive {
		if f.val <= 0 {
			return fieldError(f.line, f.val, "must be positive")
		}
	}
	if hd.Steps < 0 {
		return fieldError(2, hd.Steps, "must not be negative")
	}

	maxDim := (math.MaxInt - auxSize*DefaultAuxFields - floatSize) / floatSize
	if hd.Dim > maxDim {
		return fieldError(4, hd.Dim, "record size overflows int")
	} else if hd.Particles > math.MaxInt/hd.RecordSize() {
		return fieldError(1, hd.Particles, "snapshot size overflows int")
	}
	return nil
}

func fieldError(line, val int, msg string) error {
	return &ParseError{
		headerFields[line-1], line, strconv.Itoa(val), errors.New(msg),
	}
}

// WriteHeader writes hd to w in the text layout understood by ReadHeader.
func WriteHeader(w io.Writer, hd *Header) error {
	_, err := fmt.Fprintf(
		w, "%d\n%d\n%d\n%d\n%s\n%s\n",
		hd.Particles, hd.Steps, hd.Interval, hd.Dim,
		strconv.FormatFloat(float64(hd.Dt), 'g', -1, 32),
		strconv.FormatFloat(float64(hd.Range), 'g', -1, 32),
	)
	return err
}
