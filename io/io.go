package io

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

/*
The binary section of a trajectory follows the six header lines directly and
contains Header.Snapshots() snapshots. Each snapshot is Header.Particles
fixed-size records laid out as:

    |-- 1 --||-- 2 --||-- 3 --||-- 4 --|

    1 - ([Dim]float32) Position.
    2 - (uint16) Cell type.
    3 - (uint16) Neighbor hint. Not used by the delta calculation.
    4 - (float32) Core size.

There is no index and there are no length prefixes, so every record of every
snapshot must be consumed in order.
*/

const (
	floatSize = 4
	auxSize   = 2

	// DefaultAuxFields is the number of uint16 fields in a record written
	// by the current producer.
	DefaultAuxFields = 2

	// Upper bounds on buffers sized from header values before the bytes
	// backing them have been read.
	maxBlock    = 1 << 10
	maxPrealloc = 1 << 16
)

// Order is the byte order of every binary value in a trajectory. Producers
// write native little-endian values on all of the machines these files
// come from.
var Order = binary.LittleEndian

// Field names used in IOErrors.
const (
	FieldPosition = "position component"
	FieldAux      = "auxiliary field"
	FieldCoreSize = "core size"
)

// Particle is a single decoded particle record.
type Particle struct {
	Xs           []float32 // len(Xs) == Header.Dim
	CellType     uint16
	NeighborHint uint16
	CoreSize     float32
}

// Snapshot holds every particle at one recorded step. Particle indices are
// the order the records appear in the stream.
type Snapshot struct {
	Step      int
	Particles []Particle
}

// Len returns the number of particles in the snapshot.
func (s *Snapshot) Len() int { return len(s.Particles) }

// Empty returns true if the requested step was never found in the stream.
func (s *Snapshot) Empty() bool { return len(s.Particles) == 0 }

// ReadOption changes how ReadSnapshots interprets records.
type ReadOption func(*decoder)

// AuxFields sets the number of uint16 fields expected in each record. Only
// DefaultAuxFields is supported. Any other value makes ReadSnapshots return
// a ProtocolError: smaller values immediately, larger values at the first
// extra field of the first record.
func AuxFields(n int) ReadOption {
	return func(d *decoder) { d.aux = n }
}

// decoder walks the binary section one record at a time.
type decoder struct {
	rd  io.Reader
	hd  *Header
	aux int

	block          []byte // Position components
	small          [floatSize]byte
	snap, particle int
	off            int // Bytes of the current record read so far
}

// ReadSnapshots decodes the binary section of a trajectory from rd and
// returns the snapshots at initialStep and finalStep. rd must be positioned
// directly after the header, e.g. the *bufio.Reader given to ReadHeader.
//
// A step which never occurs in the trajectory results in a Snapshot with no
// particles. If both steps are equal, only the initial snapshot is filled.
func ReadSnapshots(
	rd io.Reader, hd *Header, initialStep, finalStep int, opts ...ReadOption,
) (initial, final *Snapshot, err error) {
	if err := hd.Check(); err != nil {
		return nil, nil, err
	}

	if initialStep < 0 || finalStep < 0 {
		return nil, nil, logicErrorf(
			"steps must be non-negative, got %d and %d.",
			initialStep, finalStep,
		)
	} else if initialStep >= hd.Steps {
		return nil, nil, logicErrorf(
			"initial step %d leaves no room to evolve in a trajectory "+
				"of %d steps.", initialStep, hd.Steps,
		)
	}

	d := &decoder{rd: rd, hd: hd, aux: DefaultAuxFields}
	for _, opt := range opts {
		opt(d)
	}
	if d.aux < DefaultAuxFields {
		return nil, nil, &ProtocolError{-1, -1, d.aux, d.aux}
	}
	d.block = make([]byte, floatSize*min(hd.Dim, maxBlock))

	initial = &Snapshot{Step: initialStep}
	final = &Snapshot{Step: finalStep}

	for d.snap = 0; d.snap < hd.Snapshots(); d.snap++ {
		step := d.snap * hd.Interval

		var target *Snapshot
		switch step {
		case initialStep:
			target = initial
		case finalStep:
			target = final
		}

		if target == nil {
			if err := d.skip(); err != nil {
				return nil, nil, err
			}
		} else if err := d.snapshot(target); err != nil {
			return nil, nil, err
		}
	}

	return initial, final, nil
}

// skip consumes a snapshot without keeping any of it.
func (d *decoder) skip() error {
	var p Particle
	for d.particle = 0; d.particle < d.hd.Particles; d.particle++ {
		if err := d.record(&p, nil); err != nil {
			return err
		}
	}
	return nil
}

// snapshot decodes a full snapshot into s. All positions share a single
// backing array. Storage grows with the bytes actually read, so a header
// which overstates the size of a truncated file ends in an IOError.
func (d *decoder) snapshot(s *Snapshot) error {
	dim := d.hd.Dim
	s.Particles = make([]Particle, 0, min(d.hd.Particles, maxPrealloc))
	xs := make([]float32, 0, min(d.hd.Particles*dim, maxPrealloc))

	for d.particle = 0; d.particle < d.hd.Particles; d.particle++ {
		s.Particles = append(s.Particles, Particle{})
		if err := d.record(&s.Particles[d.particle], &xs); err != nil {
			return err
		}
	}

	for i := range s.Particles {
		s.Particles[i].Xs = xs[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return nil
}

// record reads one record into p. Positions are appended to xs, which is
// nil if the record is being skipped.
func (d *decoder) record(p *Particle, xs *[]float32) error {
	d.off = 0

	for k := 0; k < d.hd.Dim; {
		b := d.block[:floatSize*min(d.hd.Dim-k, maxBlock)]
		if err := d.read(FieldPosition, b); err != nil {
			return err
		}
		if xs != nil {
			for j := 0; j < len(b); j += floatSize {
				*xs = append(*xs, float32frombytes(b[j:]))
			}
		}
		k += len(b) / floatSize
	}

	for k := 0; k < d.aux; k++ {
		if k >= DefaultAuxFields {
			return &ProtocolError{d.snap, d.particle, k, d.aux}
		}
		if err := d.read(FieldAux, d.small[:auxSize]); err != nil {
			return err
		}
		if k == 0 {
			p.CellType = Order.Uint16(d.small[:])
		} else {
			p.NeighborHint = Order.Uint16(d.small[:])
		}
	}

	if err := d.read(FieldCoreSize, d.small[:floatSize]); err != nil {
		return err
	}
	p.CoreSize = float32frombytes(d.small[:])
	return nil
}

// read fills b from the stream. A stream which ends part way through a
// record is reported as io.ErrUnexpectedEOF.
func (d *decoder) read(field string, b []byte) error {
	n, err := io.ReadFull(d.rd, b)
	d.off += n
	if err != nil {
		if err == io.EOF && d.off > 0 {
			err = io.ErrUnexpectedEOF
		}
		return &IOError{field, d.snap, d.particle, err}
	}
	return nil
}

func float32frombytes(b []byte) float32 {
	return math.Float32frombits(Order.Uint32(b))
}

// WriteSnapshot appends the records of s to w using the layout read by
// ReadSnapshots.
func WriteSnapshot(w io.Writer, hd *Header, s *Snapshot) error {
	if len(s.Particles) != hd.Particles {
		return fmt.Errorf(
			"Snapshot at step %d has %d particles, but the header "+
				"requires %d.", s.Step, len(s.Particles), hd.Particles,
		)
	}

	buf := make([]byte, hd.RecordSize())
	for i := range s.Particles {
		p := &s.Particles[i]
		if len(p.Xs) != hd.Dim {
			return fmt.Errorf(
				"Particle %d at step %d has %d coordinates, but the "+
					"header requires %d.", i, s.Step, len(p.Xs), hd.Dim,
			)
		}

		off := 0
		for _, x := range p.Xs {
			Order.PutUint32(buf[off:], math.Float32bits(x))
			off += floatSize
		}
		Order.PutUint16(buf[off:], p.CellType)
		Order.PutUint16(buf[off+auxSize:], p.NeighborHint)
		off += auxSize * DefaultAuxFields
		Order.PutUint32(buf[off:], math.Float32bits(p.CoreSize))

		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// WriteTrajectory writes a header followed by every snapshot in snaps. There
// must be exactly hd.Snapshots() of them, ordered by step.
func WriteTrajectory(w io.Writer, hd *Header, snaps []Snapshot) error {
	if len(snaps) != hd.Snapshots() {
		return fmt.Errorf(
			"Header describes %d snapshots, but %d were given.",
			hd.Snapshots(), len(snaps),
		)
	}

	if err := WriteHeader(w, hd); err != nil {
		return err
	}
	for i := range snaps {
		if err := WriteSnapshot(w, hd, &snaps[i]); err != nil {
			return err
		}
	}
	return nil
}
