package vector

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector's length does not match
	// the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrLengthMismatch is returned when the number of vectors does not match
	// the number of metadata records.
	ErrLengthMismatch = errors.New("vector/record count mismatch")

	// ErrCorruptIndex is returned when persisted index artifacts are
	// inconsistent or unreadable. Callers must fall back to an explicitly
	// empty index rather than run with partially-loaded state.
	ErrCorruptIndex = errors.New("corrupt index")
)
