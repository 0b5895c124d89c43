package domain

import (
	"time"
)

// Event is a timestamped user action, optionally attributed to an experiment
// and variant via the user's assignment at recording time. Events are
// append-only and immutable; attribution is snapshotted at write time and
// never re-evaluated against later-created assignments.
type Event struct {
	ID     string `json:"event_id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`
	Type   string `json:"type" db:"type"`

	// ExperimentID and VariantID are nil when the event was recorded for a
	// user with no assignment in the requested experiment. Such events are
	// kept for audit but excluded from that experiment's analysis.
	ExperimentID *string `json:"experiment_id" db:"experiment_id"`
	VariantID    *string `json:"variant_id" db:"variant_id"`

	Timestamp  time.Time  `json:"timestamp" db:"occurred_at"`
	Properties Properties `json:"properties" db:"properties"`
}

// Attributed reports whether the event carries experiment context.
func (e *Event) Attributed() bool {
	return e.ExperimentID != nil && e.VariantID != nil
}
