// Package postgres implements the service-layer store interfaces against
// PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/experiment-engine/internal/domain"
	"github.com/ignite/experiment-engine/internal/service/experiment"
)

const uniqueViolation = "23505"

// ExperimentRepo implements experiment.Repository against PostgreSQL.
type ExperimentRepo struct{ db *sql.DB }

// NewExperimentRepo creates a Postgres-backed experiment repository.
func NewExperimentRepo(db *sql.DB) *ExperimentRepo { return &ExperimentRepo{db: db} }

func (r *ExperimentRepo) Create(ctx context.Context, e *domain.Experiment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create experiment: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO experiments
			(id, name, description, status, primary_metric_name,
			 target_duration_days, target_statistical_significance,
			 start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, e.ID, e.Name, e.Description, e.Status, e.PrimaryMetricName,
		e.TargetDurationDays, e.TargetSignificance,
		e.StartTime, e.EndTime, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return experiment.ErrNameTaken
		}
		return fmt.Errorf("insert experiment: %w", err)
	}

	for i, v := range e.Variants {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO variants
				(id, experiment_id, name, traffic_percent, is_control, position, config)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, v.ID, e.ID, v.Name, v.TrafficPercent, v.IsControl, i, v.Config)
		if err != nil {
			return fmt.Errorf("insert variant %q: %w", v.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create experiment: %w", err)
	}
	return nil
}

func (r *ExperimentRepo) GetWithVariants(ctx context.Context, id string) (*domain.Experiment, error) {
	e := &domain.Experiment{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(description,''), status, primary_metric_name,
		       target_duration_days, target_statistical_significance,
		       start_time, end_time, created_at, updated_at
		FROM experiments
		WHERE id = $1
	`, id).Scan(
		&e.ID, &e.Name, &e.Description, &e.Status, &e.PrimaryMetricName,
		&e.TargetDurationDays, &e.TargetSignificance,
		&e.StartTime, &e.EndTime, &e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, experiment.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get experiment: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, experiment_id, name, traffic_percent, is_control, config
		FROM variants
		WHERE experiment_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.ExperimentID, &v.Name, &v.TrafficPercent, &v.IsControl, &v.Config); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		e.Variants = append(e.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variants: %w", err)
	}
	return e, nil
}

func (r *ExperimentRepo) UpdateStatus(ctx context.Context, id string, status domain.ExperimentStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE experiments SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("update experiment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update experiment status: %w", err)
	}
	if n == 0 {
		return experiment.ErrNotFound
	}
	return nil
}
