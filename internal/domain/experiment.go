package domain

import (
	"time"
)

// ExperimentStatus enumerates the lifecycle states of an experiment.
type ExperimentStatus string

const (
	ExperimentDraft     ExperimentStatus = "DRAFT"
	ExperimentRunning   ExperimentStatus = "RUNNING"
	ExperimentPaused    ExperimentStatus = "PAUSED"
	ExperimentCompleted ExperimentStatus = "COMPLETED"
	ExperimentArchived  ExperimentStatus = "ARCHIVED"
)

// Valid reports whether s is a known experiment status.
func (s ExperimentStatus) Valid() bool {
	switch s {
	case ExperimentDraft, ExperimentRunning, ExperimentPaused, ExperimentCompleted, ExperimentArchived:
		return true
	}
	return false
}

// IsTerminal returns true if the experiment is in a final state.
func (s ExperimentStatus) IsTerminal() bool {
	return s == ExperimentCompleted || s == ExperimentArchived
}

// Experiment represents a named A/B test with a set of variants.
// The identifier is immutable once created; variants are fixed at creation
// time (no mid-flight re-splitting).
type Experiment struct {
	ID                string           `json:"experiment_id" db:"id"`
	Name              string           `json:"name" db:"name"`
	Description       string           `json:"description" db:"description"`
	Status            ExperimentStatus `json:"status" db:"status"`
	PrimaryMetricName string           `json:"primary_metric_name" db:"primary_metric_name"`

	TargetDurationDays float64 `json:"target_duration_days" db:"target_duration_days"`
	TargetSignificance float64 `json:"target_statistical_significance" db:"target_statistical_significance"`

	StartTime *time.Time `json:"start_time" db:"start_time"`
	EndTime   *time.Time `json:"end_time" db:"end_time"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`

	// Variants in declared order. Order is significant: the allocator walks
	// cumulative traffic ranges in this order, and the first variant is the
	// baseline for comparative metrics unless one is flagged as control.
	Variants []Variant `json:"variants"`
}

// ControlVariant returns the variant flagged as control, or the first
// declared variant when none is flagged. Returns nil for an experiment
// with no variants.
func (e *Experiment) ControlVariant() *Variant {
	for i := range e.Variants {
		if e.Variants[i].IsControl {
			return &e.Variants[i]
		}
	}
	if len(e.Variants) > 0 {
		return &e.Variants[0]
	}
	return nil
}

// Variant is one treatment arm of an experiment with a fixed traffic share.
type Variant struct {
	ID             string     `json:"variant_id" db:"id"`
	ExperimentID   string     `json:"experiment_id" db:"experiment_id"`
	Name           string     `json:"variant_name" db:"name"`
	TrafficPercent float64    `json:"traffic_allocation_percent" db:"traffic_percent"`
	IsControl      bool       `json:"is_control" db:"is_control"`
	Config         Properties `json:"configuration,omitempty" db:"config"`
}

// Assignment is the durable, one-time binding of a (experiment, user) pair
// to a variant. At most one assignment ever exists per pair; the timestamp
// is set once server-side and never updated.
type Assignment struct {
	ExperimentID string    `json:"experiment_id" db:"experiment_id"`
	UserID       string    `json:"user_id" db:"user_id"`
	VariantID    string    `json:"variant_id" db:"variant_id"`
	AssignedAt   time.Time `json:"assignment_timestamp" db:"assigned_at"`
}
