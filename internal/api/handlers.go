package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/experiment-engine/internal/domain"
	"github.com/ignite/experiment-engine/internal/pkg/httputil"
	"github.com/ignite/experiment-engine/internal/service/assignment"
	"github.com/ignite/experiment-engine/internal/service/event"
	"github.com/ignite/experiment-engine/internal/service/experiment"
	"github.com/ignite/experiment-engine/internal/service/results"
)

// ReportExporter pushes a computed results report to external storage.
type ReportExporter interface {
	Export(ctx context.Context, report *results.Report) error
}

// Handlers holds the service dependencies for all API endpoints.
type Handlers struct {
	experiments *experiment.Service
	assignments *assignment.Service
	events      *event.Service
	results     *results.Aggregator

	// exporter, when set, receives every computed report asynchronously.
	exporter ReportExporter

	// revenueProperty overrides the default revenue property for results
	// queries that do not name one.
	revenueProperty string
}

// NewHandlers wires the services into the HTTP layer.
func NewHandlers(
	experiments *experiment.Service,
	assignments *assignment.Service,
	events *event.Service,
	aggregator *results.Aggregator,
) *Handlers {
	return &Handlers{
		experiments: experiments,
		assignments: assignments,
		events:      events,
		results:     aggregator,
	}
}

// SetExporter enables asynchronous report export after each results request.
func (h *Handlers) SetExporter(e ReportExporter) {
	h.exporter = e
}

// SetRevenueProperty sets the default event property summed as revenue.
func (h *Handlers) SetRevenueProperty(name string) {
	h.revenueProperty = name
}

// CreateExperiment creates a new experiment with its variants.
//
//	POST /api/experiments
func (h *Handlers) CreateExperiment(w http.ResponseWriter, r *http.Request) {
	var input experiment.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	exp, err := h.experiments.Create(r.Context(), input)
	if err != nil {
		httputil.ServiceError(w, err)
		return
	}
	httputil.Created(w, exp)
}

// GetExperiment returns one experiment with its variants.
//
//	GET /api/experiments/{experimentID}
func (h *Handlers) GetExperiment(w http.ResponseWriter, r *http.Request) {
	exp, err := h.experiments.Get(r.Context(), chi.URLParam(r, "experimentID"))
	if err != nil {
		httputil.ServiceError(w, err)
		return
	}
	httputil.OK(w, exp)
}

// transition is the shared body of the lifecycle action endpoints.
func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, target domain.ExperimentStatus) {
	exp, err := h.experiments.Transition(r.Context(), chi.URLParam(r, "experimentID"), target)
	if err != nil {
		httputil.ServiceError(w, err)
		return
	}
	httputil.OK(w, exp)
}

// StartExperiment moves an experiment to RUNNING.
//
//	POST /api/experiments/{experimentID}/start
func (h *Handlers) StartExperiment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.ExperimentRunning)
}

// PauseExperiment moves a running experiment to PAUSED.
//
//	POST /api/experiments/{experimentID}/pause
func (h *Handlers) PauseExperiment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.ExperimentPaused)
}

// CompleteExperiment moves an experiment to COMPLETED.
//
//	POST /api/experiments/{experimentID}/complete
func (h *Handlers) CompleteExperiment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.ExperimentCompleted)
}

// ArchiveExperiment moves an experiment to ARCHIVED.
//
//	POST /api/experiments/{experimentID}/archive
func (h *Handlers) ArchiveExperiment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.ExperimentArchived)
}

// GetAssignment returns the user's variant assignment for the experiment,
// allocating one on first contact. Repeated calls always return the same
// assignment.
//
//	GET /api/experiments/{experimentID}/assignment/{userID}
func (h *Handlers) GetAssignment(w http.ResponseWriter, r *http.Request) {
	a, err := h.assignments.GetOrCreate(r.Context(),
		chi.URLParam(r, "experimentID"), chi.URLParam(r, "userID"))
	if err != nil {
		httputil.ServiceError(w, err)
		return
	}
	httputil.OK(w, a)
}

// RecordEvent stores a behavioral event, attributed to the user's variant
// when an experiment_id is supplied and the user is assigned.
//
//	POST /api/events
func (h *Handlers) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var input event.RecordInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	e, err := h.events.Record(r.Context(), input)
	if err != nil {
		httputil.ServiceError(w, err)
		return
	}
	httputil.Created(w, e)
}

// GetResults computes the aggregated results report for an experiment.
// Query parameters:
//
//	event_type       restrict to one event type (defines the conversion event)
//	start_date       RFC 3339 inclusive lower bound on event time
//	end_date         RFC 3339 inclusive upper bound on event time
//	revenue_property event property summed as revenue (default "price")
//
//	GET /api/experiments/{experimentID}/results
func (h *Handlers) GetResults(w http.ResponseWriter, r *http.Request) {
	experimentID := chi.URLParam(r, "experimentID")
	q := r.URL.Query()

	filter := results.Filter{
		EventType:       q.Get("event_type"),
		RevenueProperty: q.Get("revenue_property"),
	}
	if filter.RevenueProperty == "" {
		filter.RevenueProperty = h.revenueProperty
	}

	var err error
	if filter.Start, err = parseTimeParam(q.Get("start_date")); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid start_date: "+err.Error())
		return
	}
	if filter.End, err = parseTimeParam(q.Get("end_date")); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid end_date: "+err.Error())
		return
	}

	report, err := h.results.Compute(r.Context(), experimentID, filter)
	if err != nil {
		httputil.ServiceError(w, err)
		return
	}

	if h.exporter != nil {
		go func(rep *results.Report) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := h.exporter.Export(ctx, rep); err != nil {
				log.Printf("[API] report export failed for %s: %v", rep.ExperimentID, err)
			}
		}(report)
	}

	httputil.OK(w, report)
}

func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
