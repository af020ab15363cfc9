package xword

import (
	"golang.org/x/exp/constraints"
)

// MaxGridDimension is the hard ceiling on grid width and height. It is
// enforced before any per-cell allocation loop runs, so a maliciously
// declared huge header can never force unbounded allocation.
const MaxGridDimension = 100

// checkGridSize validates declared grid dimensions against the hard
// MaxGridDimension ceiling and an optional tighter per-call limit. It is
// generic over the integer width the source format declares dimensions in
// (uint8 for the binary header, int elsewhere).
func checkGridSize[T constraints.Integer](format Format, code ErrorCode, width, height T, limit *GridSize) error {
	w, h := int(width), int(height)
	if w < 1 || h < 1 {
		return errf(format, code, "invalid grid dimensions %dx%d: both must be positive", w, h)
	}
	maxW, maxH := MaxGridDimension, MaxGridDimension
	if limit != nil {
		if limit.Width > 0 && limit.Width < maxW {
			maxW = limit.Width
		}
		if limit.Height > 0 && limit.Height < maxH {
			maxH = limit.Height
		}
	}
	if w > maxW || h > maxH {
		return errf(format, code, "grid dimensions %dx%d exceed maximum %dx%d", w, h, maxW, maxH)
	}
	return nil
}

// guard runs fn, converting any escaped panic into a typed decode error.
// It is the boundary of last resort mandated for every decoder: no raw
// index or nil fault may ever reach a caller.
func guard[T any](format Format, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = errf(format, CodeInvalidFile, "internal decode fault: %v", r)
		}
	}()
	return fn()
}
