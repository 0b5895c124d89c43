package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/ignite/experiment-engine/internal/domain"
	"github.com/ignite/experiment-engine/internal/service/experiment"
)

func testExp() *domain.Experiment {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Experiment{
		ID:                 "exp-1",
		Name:               "cta-test",
		Description:        "blue vs green",
		Status:             domain.ExperimentDraft,
		PrimaryMetricName:  "purchase",
		TargetDurationDays: 7,
		TargetSignificance: 0.95,
		StartTime:          &now,
		CreatedAt:          now,
		UpdatedAt:          now,
		Variants: []domain.Variant{
			{ID: "v1", ExperimentID: "exp-1", Name: "control", TrafficPercent: 50, IsControl: true},
			{ID: "v2", ExperimentID: "exp-1", Name: "green", TrafficPercent: 50},
		},
	}
}

func TestExperimentCreateTransactional(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewExperimentRepo(db)
	e := testExp()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO experiments`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO variants`).
		WithArgs("v1", "exp-1", "control", 50.0, true, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO variants`).
		WithArgs("v2", "exp-1", "green", 50.0, false, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), e))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExperimentCreateNameTaken(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewExperimentRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO experiments`).
		WillReturnError(&pq.Error{Code: uniqueViolation})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), testExp())
	require.ErrorIs(t, err, experiment.ErrNameTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExperimentCreateVariantFailureRollsBack(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewExperimentRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO experiments`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO variants`).
		WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), testExp())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExperimentGetWithVariantsOrder(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewExperimentRepo(db)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, name, COALESCE\(description,''\), status`).
		WithArgs("exp-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "status", "primary_metric_name",
			"target_duration_days", "target_statistical_significance",
			"start_time", "end_time", "created_at", "updated_at",
		}).AddRow("exp-1", "cta-test", "blue vs green", "RUNNING", "purchase",
			7.0, 0.95, now, nil, now, now))

	mock.ExpectQuery(`SELECT id, experiment_id, name, traffic_percent, is_control, config\s+FROM variants`).
		WithArgs("exp-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "experiment_id", "name", "traffic_percent", "is_control", "config"}).
			AddRow("v1", "exp-1", "control", 30.0, true, []byte(`{}`)).
			AddRow("v2", "exp-1", "green", 70.0, false, []byte(`{"color":"green"}`)))

	e, err := repo.GetWithVariants(context.Background(), "exp-1")
	require.NoError(t, err)
	require.Equal(t, domain.ExperimentRunning, e.Status)
	require.Len(t, e.Variants, 2)
	require.Equal(t, "control", e.Variants[0].Name, "declared order preserved")
	require.Equal(t, "green", e.Variants[1].Config["color"].Str)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExperimentGetNotFound(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewExperimentRepo(db)

	mock.ExpectQuery(`SELECT id, name`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetWithVariants(context.Background(), "ghost")
	require.ErrorIs(t, err, experiment.ErrNotFound)
}

func TestExperimentUpdateStatus(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewExperimentRepo(db)

	mock.ExpectExec(`UPDATE experiments SET status`).
		WithArgs("exp-1", domain.ExperimentRunning).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), "exp-1", domain.ExperimentRunning))

	mock.ExpectExec(`UPDATE experiments SET status`).
		WithArgs("ghost", domain.ExperimentRunning).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateStatus(context.Background(), "ghost", domain.ExperimentRunning)
	require.ErrorIs(t, err, experiment.ErrNotFound)
}
