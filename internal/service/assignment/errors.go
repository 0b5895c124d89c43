package assignment

import "errors"

// Sentinel errors for the assignment service layer.
var (
	// ErrNotFound means no assignment exists for the (experiment, user) pair.
	ErrNotFound = errors.New("assignment not found")

	// ErrInvalidSplit means the experiment's variant set cannot serve
	// traffic (no variants or broken weights). Nothing is allocated.
	ErrInvalidSplit = errors.New("experiment variants cannot serve traffic")

	// ErrConflict is surfaced only if race resolution itself fails: the
	// insert reported a conflict but the winning row cannot be read back.
	ErrConflict = errors.New("assignment conflict could not be resolved")
)
