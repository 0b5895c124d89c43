package experiment

import "errors"

// Sentinel errors for the experiment service layer.
var (
	ErrNotFound          = errors.New("experiment not found")
	ErrNameTaken         = errors.New("experiment name already in use")
	ErrInvalidInput      = errors.New("invalid experiment definition")
	ErrInvalidSplit      = errors.New("invalid variant traffic allocation")
	ErrInvalidTransition = errors.New("invalid status transition")
)
