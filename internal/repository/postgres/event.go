package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/experiment-engine/internal/domain"
	"github.com/ignite/experiment-engine/internal/service/results"
)

// EventRepo implements event.Store against PostgreSQL.
type EventRepo struct{ db *sql.DB }

// NewEventRepo creates a Postgres-backed event store.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, user_id, type, experiment_id, variant_id, occurred_at, properties)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.UserID, e.Type, e.ExperimentID, e.VariantID, e.Timestamp, e.Properties)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return e, nil
}

// ResultsRepo implements results.Store against PostgreSQL.
type ResultsRepo struct{ db *sql.DB }

// NewResultsRepo creates a Postgres-backed results store.
func NewResultsRepo(db *sql.DB) *ResultsRepo { return &ResultsRepo{db: db} }

// Snapshot reads assignments and qualifying events inside one repeatable-read
// read-only transaction, so the aggregation sees a single point-in-time view
// even while writers keep appending. The events query joins each event to
// the owning assignment and applies the post-assignment ordering rule
// (strictly after) plus the optional type and inclusive window filters
// server-side.
func (r *ResultsRepo) Snapshot(ctx context.Context, experimentID string, f results.Filter) (*results.Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	snap := &results.Snapshot{}

	rows, err := tx.QueryContext(ctx, `
		SELECT experiment_id, user_id, variant_id, assigned_at
		FROM assignments
		WHERE experiment_id = $1
	`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(&a.ExperimentID, &a.UserID, &a.VariantID, &a.AssignedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		snap.Assignments = append(snap.Assignments, a)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close assignments: %w", err)
	}

	q := `
		SELECT e.id, e.user_id, e.type, e.experiment_id, e.variant_id, e.occurred_at, e.properties,
		       a.experiment_id, a.user_id, a.variant_id, a.assigned_at
		FROM events e
		JOIN assignments a
		  ON a.experiment_id = e.experiment_id AND a.user_id = e.user_id
		WHERE e.experiment_id = $1
		  AND e.occurred_at > a.assigned_at`
	args := []interface{}{experimentID}
	idx := 2
	if f.EventType != "" {
		q += fmt.Sprintf(" AND e.type = $%d", idx)
		args = append(args, f.EventType)
		idx++
	}
	if f.Start != nil {
		q += fmt.Sprintf(" AND e.occurred_at >= $%d", idx)
		args = append(args, *f.Start)
		idx++
	}
	if f.End != nil {
		q += fmt.Sprintf(" AND e.occurred_at <= $%d", idx)
		args = append(args, *f.End)
		idx++
	}
	q += " ORDER BY e.occurred_at"

	rows, err = tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var je results.JoinedEvent
		if err := rows.Scan(
			&je.Event.ID, &je.Event.UserID, &je.Event.Type, &je.Event.ExperimentID,
			&je.Event.VariantID, &je.Event.Timestamp, &je.Event.Properties,
			&je.Assignment.ExperimentID, &je.Assignment.UserID,
			&je.Assignment.VariantID, &je.Assignment.AssignedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		snap.Events = append(snap.Events, je)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snapshot: %w", err)
	}
	return snap, nil
}
