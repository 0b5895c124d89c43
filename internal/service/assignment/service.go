package assignment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ignite/experiment-engine/internal/allocator"
	"github.com/ignite/experiment-engine/internal/domain"
)

// Service implements get-or-create assignment semantics.
type Service struct {
	store       Store
	experiments ExperimentSource
	now         func() time.Time
}

// NewService creates an assignment service.
func NewService(store Store, experiments ExperimentSource) *Service {
	return &Service{store: store, experiments: experiments, now: time.Now}
}

// GetOrCreate returns the user's assignment in the experiment, allocating
// and persisting one on first contact.
//
// The idempotent path returns the stored row unchanged: no allocation
// recomputation, no timestamp update. On the allocation path the experiment
// configuration is validated before anything is written, so an invalid
// experiment never produces a partial side effect. If two requests race,
// both converge on the row that won the store's uniqueness check.
func (s *Service) GetOrCreate(ctx context.Context, experimentID, userID string) (*domain.Assignment, error) {
	existing, err := s.store.Find(ctx, experimentID, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find assignment: %w", err)
	}

	exp, err := s.experiments.GetWithVariants(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	if err := allocator.ValidateSplit(exp.Variants); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSplit, err)
	}

	variantID, err := allocator.Allocate(experimentID, userID, exp.Variants)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSplit, err)
	}

	created, winner, err := s.store.InsertIfAbsent(ctx, &domain.Assignment{
		ExperimentID: experimentID,
		UserID:       userID,
		VariantID:    variantID,
		AssignedAt:   s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	if winner == nil {
		return nil, ErrConflict
	}
	if !created {
		// Lost a first-request race; the stored row is authoritative.
		log.Printf("[assignment.Service] user %s already assigned in experiment %s, returning winner %s",
			userID, experimentID, winner.VariantID)
	}
	return winner, nil
}

// Get returns the existing assignment without ever allocating one.
// Event attribution uses this path.
func (s *Service) Get(ctx context.Context, experimentID, userID string) (*domain.Assignment, error) {
	return s.store.Find(ctx, experimentID, userID)
}
