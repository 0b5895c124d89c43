package experiment_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ignite/experiment-engine/internal/domain"
	"github.com/ignite/experiment-engine/internal/service/experiment"
)

// memRepo is an in-memory experiment repository for unit testing.
type memRepo struct {
	mu          sync.Mutex
	experiments map[string]*domain.Experiment
	names       map[string]bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		experiments: make(map[string]*domain.Experiment),
		names:       make(map[string]bool),
	}
}

func (m *memRepo) Create(_ context.Context, e *domain.Experiment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.names[e.Name] {
		return experiment.ErrNameTaken
	}
	cp := *e
	cp.Variants = append([]domain.Variant(nil), e.Variants...)
	m.experiments[cp.ID] = &cp
	m.names[cp.Name] = true
	return nil
}

func (m *memRepo) GetWithVariants(_ context.Context, id string) (*domain.Experiment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.experiments[id]
	if !ok {
		return nil, experiment.ErrNotFound
	}
	cp := *e
	cp.Variants = append([]domain.Variant(nil), e.Variants...)
	return &cp, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id string, status domain.ExperimentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.experiments[id]
	if !ok {
		return experiment.ErrNotFound
	}
	e.Status = status
	return nil
}

func validInput() experiment.CreateInput {
	return experiment.CreateInput{
		Name:              "checkout-button-color",
		Description:       "blue vs green CTA",
		PrimaryMetricName: "purchase",
		Variants: []experiment.VariantInput{
			{Name: "control", TrafficPercent: 50, IsControl: true},
			{Name: "green", TrafficPercent: 50, Config: domain.Properties{"color": domain.String("green")}},
		},
	}
}

func TestCreate(t *testing.T) {
	svc := experiment.NewService(newMemRepo())
	e, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.ID == "" {
		t.Error("experiment ID not set")
	}
	if e.Status != domain.ExperimentDraft {
		t.Errorf("status = %s, want DRAFT default", e.Status)
	}
	if len(e.Variants) != 2 {
		t.Fatalf("variants = %d, want 2", len(e.Variants))
	}
	if e.Variants[0].Name != "control" || e.Variants[1].Name != "green" {
		t.Error("variant declaration order not preserved")
	}
	if e.TargetDurationDays != 7 || e.TargetSignificance != 0.95 {
		t.Errorf("defaults not applied: duration=%v significance=%v", e.TargetDurationDays, e.TargetSignificance)
	}
	if e.StartTime == nil {
		t.Error("start time should default to creation time")
	}
}

func TestCreateRejectsBadSplit(t *testing.T) {
	svc := experiment.NewService(newMemRepo())

	in := validInput()
	in.Variants[0].TrafficPercent = 50
	in.Variants[1].TrafficPercent = 40
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, experiment.ErrInvalidSplit) {
		t.Errorf("sum 90: err = %v, want ErrInvalidSplit", err)
	}

	in = validInput()
	in.Variants[1].TrafficPercent = 60
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, experiment.ErrInvalidSplit) {
		t.Errorf("sum 110: err = %v, want ErrInvalidSplit", err)
	}

	// Slight float drift stays inside the tolerance.
	in = validInput()
	in.Variants[0].TrafficPercent = 33.33
	in.Variants[1].TrafficPercent = 66.675
	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Errorf("sum 100.005: err = %v, want nil (within tolerance)", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := experiment.NewService(newMemRepo())

	in := validInput()
	in.Name = ""
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, experiment.ErrInvalidInput) {
		t.Errorf("missing name: err = %v", err)
	}

	in = validInput()
	in.PrimaryMetricName = ""
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, experiment.ErrInvalidInput) {
		t.Errorf("missing metric: err = %v", err)
	}

	in = validInput()
	in.Variants[1].Name = "control"
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, experiment.ErrInvalidInput) {
		t.Errorf("duplicate variant name: err = %v", err)
	}

	in = validInput()
	in.Variants = nil
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, experiment.ErrInvalidSplit) {
		t.Errorf("no variants: err = %v", err)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	svc := experiment.NewService(newMemRepo())
	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(context.Background(), validInput()); !errors.Is(err, experiment.ErrNameTaken) {
		t.Errorf("second create: err = %v, want ErrNameTaken", err)
	}
}

func TestTransition(t *testing.T) {
	svc := experiment.NewService(newMemRepo())
	e, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	e2, err := svc.Transition(context.Background(), e.ID, domain.ExperimentRunning)
	if err != nil {
		t.Fatalf("DRAFT -> RUNNING: %v", err)
	}
	if e2.Status != domain.ExperimentRunning {
		t.Errorf("status = %s, want RUNNING", e2.Status)
	}

	if _, err := svc.Transition(context.Background(), e.ID, domain.ExperimentDraft); !errors.Is(err, experiment.ErrInvalidTransition) {
		t.Errorf("RUNNING -> DRAFT: err = %v, want ErrInvalidTransition", err)
	}

	if _, err := svc.Transition(context.Background(), e.ID, domain.ExperimentCompleted); err != nil {
		t.Errorf("RUNNING -> COMPLETED: %v", err)
	}
	if _, err := svc.Transition(context.Background(), e.ID, domain.ExperimentRunning); !errors.Is(err, experiment.ErrInvalidTransition) {
		t.Errorf("COMPLETED -> RUNNING: err = %v, want ErrInvalidTransition", err)
	}

	if _, err := svc.Transition(context.Background(), "nope", domain.ExperimentRunning); !errors.Is(err, experiment.ErrNotFound) {
		t.Errorf("unknown experiment: err = %v, want ErrNotFound", err)
	}
}
