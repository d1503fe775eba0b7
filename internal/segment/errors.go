package segment

import "errors"

var (
	// ErrInvalidInput is returned for zero-sized buffers, mismatched buffer
	// dimensions, degenerate geometry, or an empty region of interest.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoRegionFound is returned when masking and contour extraction find
	// no region with positive area.
	ErrNoRegionFound = errors.New("no region found")

	// ErrEmptyMask is returned when a measured mask has no set pixels.
	ErrEmptyMask = errors.New("no object detected")
)

// Status values reported to callers for pipeline results.
const (
	StatusOK            = "ok"
	StatusInvalidInput  = "invalid_input"
	StatusNoRegionFound = "no_region_found"
	StatusEmptyMask     = "empty_mask"
	StatusError         = "error"
)

// Kind classifies err into one of the Status values.
func Kind(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrInvalidInput):
		return StatusInvalidInput
	case errors.Is(err, ErrNoRegionFound):
		return StatusNoRegionFound
	case errors.Is(err, ErrEmptyMask):
		return StatusEmptyMask
	default:
		return StatusError
	}
}

// Recoverable reports whether err is one of the pipeline's typed results
// that abort only the current cycle.
func Recoverable(err error) bool {
	switch Kind(err) {
	case StatusInvalidInput, StatusNoRegionFound, StatusEmptyMask:
		return true
	}
	return false
}
