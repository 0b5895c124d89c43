package experiment

import (
	"context"

	"github.com/ignite/experiment-engine/internal/domain"
)

// Repository defines the data access contract for experiments.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Create inserts an experiment together with its variants in a single
	// transaction. Returns ErrNameTaken if the name is already in use.
	Create(ctx context.Context, e *domain.Experiment) error

	// GetWithVariants returns an experiment and its variants in declared
	// order. Returns ErrNotFound if it doesn't exist.
	GetWithVariants(ctx context.Context, id string) (*domain.Experiment, error)

	// UpdateStatus transitions an experiment's status and refreshes
	// updated_at. Returns ErrNotFound for an unknown experiment.
	UpdateStatus(ctx context.Context, id string, status domain.ExperimentStatus) error
}
