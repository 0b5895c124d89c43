package event

import (
	"context"

	"github.com/ignite/experiment-engine/internal/domain"
)

// Store defines the append-only data access contract for events.
type Store interface {
	// Append persists a new event and returns the stored row.
	Append(ctx context.Context, e *domain.Event) (*domain.Event, error)
}

// AssignmentSource is the read-only assignment lookup used for
// attribution. Satisfied by assignment.Store.
type AssignmentSource interface {
	Find(ctx context.Context, experimentID, userID string) (*domain.Assignment, error)
}
