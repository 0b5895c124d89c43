package results

import (
	"context"
	"time"

	"github.com/ignite/experiment-engine/internal/domain"
)

// Filter narrows which events qualify for aggregation.
type Filter struct {
	// EventType, when set, restricts qualifying events to this type and
	// makes it the conversion event.
	EventType string

	// Start and End bound the event occurrence window, inclusive on both
	// ends. Either may be nil.
	Start *time.Time
	End   *time.Time

	// RevenueProperty names the numeric event property summed into
	// total_revenue. Empty selects the default ("price").
	RevenueProperty string
}

// Validate checks the filter for contradictions.
func (f Filter) Validate() error {
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return ErrInvalidWindow
	}
	return nil
}

// JoinedEvent pairs a qualifying event with the assignment that owns it.
type JoinedEvent struct {
	Event      domain.Event
	Assignment domain.Assignment
}

// Snapshot is a consistent read of an experiment's assignments and
// qualifying events, taken at a single point in time.
type Snapshot struct {
	Assignments []domain.Assignment
	Events      []JoinedEvent
}

// Store defines the read-only data access contract for aggregation.
//
// Implementations must produce both collections from one storage snapshot
// (a single read-only transaction) so an assignment created mid-computation
// cannot make an event qualify without its assignment being counted. Events
// must already be restricted server-side to those whose occurrence is
// strictly after the owning assignment's timestamp and that pass the filter.
type Store interface {
	Snapshot(ctx context.Context, experimentID string, f Filter) (*Snapshot, error)
}

// ExperimentSource resolves experiment metadata for the report header.
type ExperimentSource interface {
	GetWithVariants(ctx context.Context, id string) (*domain.Experiment, error)
}
