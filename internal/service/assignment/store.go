package assignment

import (
	"context"

	"github.com/ignite/experiment-engine/internal/domain"
)

// Store defines the data access contract for assignments.
// Implementations must be safe for concurrent use.
type Store interface {
	// Find returns the assignment for the pair, or ErrNotFound.
	Find(ctx context.Context, experimentID, userID string) (*domain.Assignment, error)

	// InsertIfAbsent atomically inserts the assignment unless one already
	// exists for the (experiment, user) pair. The uniqueness constraint at
	// the storage layer is the single source of truth for who won a race:
	// on conflict the implementation returns created=false and the row
	// that actually persisted.
	InsertIfAbsent(ctx context.Context, a *domain.Assignment) (created bool, winner *domain.Assignment, err error)
}

// ExperimentSource resolves experiments for allocation. Satisfied by
// experiment.Repository.
type ExperimentSource interface {
	GetWithVariants(ctx context.Context, id string) (*domain.Experiment, error)
}
