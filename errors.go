package nonaffine

import (
	"fmt"
)

// NumericError reports a degenerate input which would otherwise turn into
// a division by zero.
type NumericError struct {
	Msg  string
	I, J int // Particles involved, or -1
}

func (e *NumericError) Error() string {
	if e.I < 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s (particles %d and %d)", e.Msg, e.I, e.J)
}

var (
	// ErrNoNeighbors is returned by Delta when no particle has a neighbor
	// in the initial snapshot.
	ErrNoNeighbors = &NumericError{"no particle has any neighbors", -1, -1}
)
