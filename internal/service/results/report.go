package results

import (
	"time"

	"github.com/ignite/experiment-engine/internal/domain"
)

// Comparison holds the executive-summary metrics of a variant against the
// experiment's baseline.
type Comparison struct {
	BaselineVariantID  string  `json:"baseline_variant_id"`
	AbsoluteDifference float64 `json:"absolute_difference"`
	RelativeLift       float64 `json:"relative_lift"`
}

// VariantResult holds the per-variant statistics of a report.
type VariantResult struct {
	VariantID          string         `json:"variant_id"`
	VariantName        string         `json:"variant_name"`
	IsControl          bool           `json:"is_control"`
	TrafficPercent     float64        `json:"traffic_allocation_percent"`
	TotalAssignedUsers int            `json:"total_assigned_users"`
	ConversionCount    int            `json:"conversion_count"`
	ConversionRate     float64        `json:"conversion_rate"`
	EventCounts        map[string]int `json:"event_counts"`
	TotalRevenue       float64        `json:"total_revenue"`

	// VsBaseline is nil for the baseline variant itself.
	VsBaseline *Comparison `json:"vs_baseline,omitempty"`
}

// Report is the full statistics projection for one experiment.
type Report struct {
	ExperimentID      string                  `json:"experiment_id"`
	Name              string                  `json:"name"`
	Description       string                  `json:"description"`
	Status            domain.ExperimentStatus `json:"status"`
	PrimaryMetricName string                  `json:"primary_metric_name"`
	StartTime         *time.Time              `json:"start_time"`
	EndTime           *time.Time              `json:"end_time"`
	DaysRunning       int                     `json:"experiment_days_running"`

	TotalVariants          int     `json:"total_variants"`
	TotalEvents            int     `json:"total_events"`
	TotalUsersInExperiment int     `json:"total_users_in_experiment"`
	GlobalConversionRate   float64 `json:"global_conversion_rate"`

	Variants []VariantResult `json:"variant_stats"`
}

// daysRunning mirrors the experiment-overview semantics: days between start
// and end once the experiment has ended, otherwise days since start.
func daysRunning(e *domain.Experiment, now time.Time) int {
	if e.StartTime == nil {
		return 0
	}
	ref := now
	if e.EndTime != nil && now.After(*e.EndTime) {
		ref = *e.EndTime
	}
	if ref.Before(*e.StartTime) {
		return 0
	}
	return int(ref.Sub(*e.StartTime).Hours() / 24)
}
