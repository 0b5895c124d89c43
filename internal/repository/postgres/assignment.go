package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/experiment-engine/internal/domain"
	"github.com/ignite/experiment-engine/internal/service/assignment"
)

// AssignmentRepo implements assignment.Store against PostgreSQL. The
// composite primary key on (user_id, experiment_id) is the arbiter for
// concurrent first-assignment races.
type AssignmentRepo struct{ db *sql.DB }

// NewAssignmentRepo creates a Postgres-backed assignment store.
func NewAssignmentRepo(db *sql.DB) *AssignmentRepo { return &AssignmentRepo{db: db} }

func (r *AssignmentRepo) Find(ctx context.Context, experimentID, userID string) (*domain.Assignment, error) {
	a := &domain.Assignment{}
	err := r.db.QueryRowContext(ctx, `
		SELECT experiment_id, user_id, variant_id, assigned_at
		FROM assignments
		WHERE experiment_id = $1 AND user_id = $2
	`, experimentID, userID).Scan(&a.ExperimentID, &a.UserID, &a.VariantID, &a.AssignedAt)
	if err == sql.ErrNoRows {
		return nil, assignment.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return a, nil
}

// InsertIfAbsent inserts with ON CONFLICT DO NOTHING. When the insert is
// suppressed by the primary key, the row that won the race is read back and
// returned, so callers never observe two different variants for one user.
func (r *AssignmentRepo) InsertIfAbsent(ctx context.Context, a *domain.Assignment) (bool, *domain.Assignment, error) {
	stored := &domain.Assignment{}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO assignments (experiment_id, user_id, variant_id, assigned_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, experiment_id) DO NOTHING
		RETURNING experiment_id, user_id, variant_id, assigned_at
	`, a.ExperimentID, a.UserID, a.VariantID, a.AssignedAt).
		Scan(&stored.ExperimentID, &stored.UserID, &stored.VariantID, &stored.AssignedAt)
	if err == nil {
		return true, stored, nil
	}
	if err != sql.ErrNoRows {
		return false, nil, fmt.Errorf("insert assignment: %w", err)
	}

	// Conflict: another request won. Re-read the durable row.
	winner, err := r.Find(ctx, a.ExperimentID, a.UserID)
	if err != nil {
		return false, nil, fmt.Errorf("%w: %v", assignment.ErrConflict, err)
	}
	return false, winner, nil
}
