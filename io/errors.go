package io

import (
	"fmt"
)

// IOError is returned when the trajectory ends before a field could be read.
// Field names the value being read so that truncated files are easy to
// diagnose.
type IOError struct {
	Field              string
	Snapshot, Particle int // -1 while reading the header
	Err                error
}

func (e *IOError) Error() string {
	if e.Snapshot < 0 {
		return fmt.Sprintf("reading header %s: %s", e.Field, e.Err.Error())
	}
	return fmt.Sprintf(
		"reading %s of particle %d in snapshot %d: %s",
		e.Field, e.Particle, e.Snapshot, e.Err.Error(),
	)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError is returned when a header line cannot be converted to the type
// of its field.
type ParseError struct {
	Field string
	Line  int
	Text  string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf(
		"header line %d (%s): cannot parse %q: %s",
		e.Line, e.Field, e.Text, e.Err.Error(),
	)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ProtocolError signals a record layout this package does not understand,
// i.e. a trajectory written by a different version of the producer.
type ProtocolError struct {
	Snapshot, Particle int // -1 if rejected before any record was read
	AuxField           int
	AuxFields          int // Auxiliary fields per record expected by the reader
}

func (e *ProtocolError) Error() string {
	if e.Snapshot < 0 {
		return fmt.Sprintf(
			"unsupported record version: %d auxiliary fields per record, "+
				"but %d are required", e.AuxFields, DefaultAuxFields,
		)
	}
	return fmt.Sprintf(
		"unsupported record version: auxiliary field %d of particle %d "+
			"in snapshot %d", e.AuxField, e.Particle, e.Snapshot,
	)
}

// LogicError is returned when the requested steps are inconsistent with the
// trajectory.
type LogicError struct {
	Msg string
}

func (e *LogicError) Error() string { return e.Msg }

func logicErrorf(format string, args ...interface{}) error {
	return &LogicError{fmt.Sprintf(format, args...)}
}
