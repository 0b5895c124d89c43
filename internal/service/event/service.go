package event

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/experiment-engine/internal/domain"
	"github.com/ignite/experiment-engine/internal/service/assignment"
)

// Service implements event recording and attribution.
type Service struct {
	events      Store
	assignments AssignmentSource
	now         func() time.Time
}

// NewService creates an event service.
func NewService(events Store, assignments AssignmentSource) *Service {
	return &Service{events: events, assignments: assignments, now: time.Now}
}

// RecordInput holds the fields for recording a new event.
type RecordInput struct {
	UserID       string            `json:"user_id"`
	Type         string            `json:"type"`
	Timestamp    *time.Time        `json:"timestamp"`
	Properties   domain.Properties `json:"properties"`
	ExperimentID string            `json:"experiment_id"`
}

// Record persists an event, enriched with the user's assignment context in
// the given experiment when one exists. An event for an unassigned user is
// stored unattributed rather than rejected, so raw behavioral data is never
// silently lost; it is simply excluded from that experiment's analysis.
func (s *Service) Record(ctx context.Context, input RecordInput) (*domain.Event, error) {
	if input.UserID == "" {
		return nil, ErrMissingUserID
	}
	if input.Type == "" {
		return nil, ErrMissingType
	}

	e := &domain.Event{
		ID:         uuid.New().String(),
		UserID:     input.UserID,
		Type:       input.Type,
		Properties: input.Properties,
	}
	if input.Timestamp != nil {
		e.Timestamp = input.Timestamp.UTC()
	} else {
		e.Timestamp = s.now().UTC()
	}
	if e.Properties == nil {
		e.Properties = domain.Properties{}
	}

	if input.ExperimentID != "" {
		a, err := s.assignments.Find(ctx, input.ExperimentID, input.UserID)
		switch {
		case err == nil:
			expID, variantID := a.ExperimentID, a.VariantID
			e.ExperimentID = &expID
			e.VariantID = &variantID
		case errors.Is(err, assignment.ErrNotFound):
			// No assignment: record unattributed, never allocate here.
			log.Printf("[event.Service] user %s has no assignment in experiment %s, recording unattributed",
				input.UserID, input.ExperimentID)
		default:
			return nil, fmt.Errorf("lookup assignment: %w", err)
		}
	}

	stored, err := s.events.Append(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}
	return stored, nil
}
