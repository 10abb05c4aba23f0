package domain

import "errors"

var (
	// ErrNotFound: a referenced location or item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation: the change would break a weight ceiling or an
	// item lifecycle rule. Nothing is written.
	ErrValidation = errors.New("validation failed")
	// ErrConflict: a concurrent commit touched the same records; the
	// caller may retry the whole operation.
	ErrConflict = errors.New("concurrent modification")
	// ErrNoCapacity: no empty location in any non-saturated bay can
	// take the requested weight.
	ErrNoCapacity = errors.New("no location with sufficient capacity")
	// ErrCodeMismatch: a scanned code does not match the value the
	// confirmation flow expects at its current step.
	ErrCodeMismatch = errors.New("scanned code mismatch")
)
