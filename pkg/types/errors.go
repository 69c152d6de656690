package types

import "errors"

// Boundary error kinds. Everything raised by this package wraps one of these,
// so callers can branch with errors.Is regardless of the wrapping depth.
var (
	// ErrInvalidInput indicates malformed caller input: bad currency codes,
	// inverted bounds, non-positive limits, missing spend constraints.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPrecisionViolation indicates an arithmetic operation that cannot be
	// performed at the requested scale, such as a division by zero that the
	// input domain could not exclude.
	ErrPrecisionViolation = errors.New("precision violation")
)
