package experiment

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/experiment-engine/internal/allocator"
	"github.com/ignite/experiment-engine/internal/domain"
)

const (
	defaultTargetDurationDays = 7.0
	defaultTargetSignificance = 0.95
)

// Service implements experiment business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an experiment service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// VariantInput holds the fields for one variant of a new experiment.
type VariantInput struct {
	Name           string            `json:"variant_name"`
	TrafficPercent float64           `json:"traffic_allocation_percent"`
	IsControl      bool              `json:"is_control"`
	Config         domain.Properties `json:"configuration_json,omitempty"`
}

// CreateInput holds the fields for creating a new experiment.
type CreateInput struct {
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	Status             string         `json:"status"`
	PrimaryMetricName  string         `json:"primary_metric_name"`
	TargetDurationDays float64        `json:"target_duration_days"`
	TargetSignificance float64        `json:"target_statistical_significance"`
	StartTime          *time.Time     `json:"start_time"`
	EndTime            *time.Time     `json:"end_time"`
	Variants           []VariantInput `json:"variants"`
}

// Create validates and persists a new experiment with its variants.
// The variant split must sum to 100 within tolerance; variant order is
// preserved as declared.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Experiment, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.PrimaryMetricName == "" {
		return nil, fmt.Errorf("%w: primary_metric_name is required", ErrInvalidInput)
	}

	status := domain.ExperimentStatus(input.Status)
	if input.Status == "" {
		status = domain.ExperimentDraft
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, input.Status)
	}

	now := s.now().UTC()
	e := &domain.Experiment{
		ID:                 uuid.New().String(),
		Name:               input.Name,
		Description:        input.Description,
		Status:             status,
		PrimaryMetricName:  input.PrimaryMetricName,
		TargetDurationDays: input.TargetDurationDays,
		TargetSignificance: input.TargetSignificance,
		StartTime:          input.StartTime,
		EndTime:            input.EndTime,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if e.TargetDurationDays == 0 {
		e.TargetDurationDays = defaultTargetDurationDays
	}
	if e.TargetSignificance == 0 {
		e.TargetSignificance = defaultTargetSignificance
	}
	if e.StartTime == nil {
		e.StartTime = &now
	}

	for _, v := range input.Variants {
		e.Variants = append(e.Variants, domain.Variant{
			ID:             uuid.New().String(),
			ExperimentID:   e.ID,
			Name:           v.Name,
			TrafficPercent: v.TrafficPercent,
			IsControl:      v.IsControl,
			Config:         v.Config,
		})
	}

	if err := allocator.ValidateSplit(e.Variants); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSplit, err)
	}
	seen := make(map[string]bool, len(e.Variants))
	for _, v := range e.Variants {
		if v.Name == "" {
			return nil, fmt.Errorf("%w: variant name is required", ErrInvalidInput)
		}
		if seen[v.Name] {
			return nil, fmt.Errorf("%w: duplicate variant name %q", ErrInvalidInput, v.Name)
		}
		seen[v.Name] = true
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	log.Printf("[experiment.Service] created experiment %s (%s) with %d variants", e.ID, e.Name, len(e.Variants))
	return e, nil
}

// Get returns an experiment with its variants in declared order.
func (s *Service) Get(ctx context.Context, id string) (*domain.Experiment, error) {
	return s.repo.GetWithVariants(ctx, id)
}

// allowedTransitions maps each status to the set of statuses it may move to.
var allowedTransitions = map[domain.ExperimentStatus][]domain.ExperimentStatus{
	domain.ExperimentDraft:     {domain.ExperimentRunning, domain.ExperimentArchived},
	domain.ExperimentRunning:   {domain.ExperimentPaused, domain.ExperimentCompleted},
	domain.ExperimentPaused:    {domain.ExperimentRunning, domain.ExperimentCompleted},
	domain.ExperimentCompleted: {domain.ExperimentArchived},
}

// Transition moves an experiment to the target status, enforcing the
// lifecycle: DRAFT -> RUNNING <-> PAUSED -> COMPLETED -> ARCHIVED.
func (s *Service) Transition(ctx context.Context, id string, target domain.ExperimentStatus) (*domain.Experiment, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, target)
	}
	e, err := s.repo.GetWithVariants(ctx, id)
	if err != nil {
		return nil, err
	}

	ok := false
	for _, next := range allowedTransitions[e.Status] {
		if next == target {
			ok = true
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.Status, target)
	}

	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	e.Status = target
	e.UpdatedAt = s.now().UTC()
	return e, nil
}
