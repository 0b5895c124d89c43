package event

import "errors"

// Sentinel errors for the event service layer.
var (
	ErrMissingUserID = errors.New("event user_id is required")
	ErrMissingType   = errors.New("event type is required")
)
