package results

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/experiment-engine/internal/domain"
)

// DefaultRevenueProperty is the event property summed into total_revenue
// when the caller does not designate one.
const DefaultRevenueProperty = "price"

// Aggregator joins an experiment's assignments and events into a Report.
type Aggregator struct {
	store       Store
	experiments ExperimentSource
	now         func() time.Time
}

// NewAggregator creates a results aggregator.
func NewAggregator(store Store, experiments ExperimentSource) *Aggregator {
	return &Aggregator{store: store, experiments: experiments, now: time.Now}
}

// Compute produces the statistics report for an experiment.
//
// Qualifying events are those attributed to the experiment, occurring
// strictly after the owning user's assignment, inside the inclusive
// [start, end] window when given, and matching the event-type filter when
// given (that type is then the conversion event). The computation reads
// from a single storage snapshot and writes nothing.
func (a *Aggregator) Compute(ctx context.Context, experimentID string, f Filter) (*Report, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	exp, err := a.experiments.GetWithVariants(ctx, experimentID)
	if err != nil {
		return nil, err
	}

	snap, err := a.store.Snapshot(ctx, experimentID, f)
	if err != nil {
		return nil, fmt.Errorf("snapshot experiment %s: %w", experimentID, err)
	}

	revenueKey := f.RevenueProperty
	if revenueKey == "" {
		revenueKey = DefaultRevenueProperty
	}

	report := &Report{
		ExperimentID:      exp.ID,
		Name:              exp.Name,
		Description:       exp.Description,
		Status:            exp.Status,
		PrimaryMetricName: exp.PrimaryMetricName,
		StartTime:         exp.StartTime,
		EndTime:           exp.EndTime,
		DaysRunning:       daysRunning(exp, a.now().UTC()),
		TotalVariants:     len(exp.Variants),
	}

	// Distinct assigned users per variant.
	assignedUsers := make(map[string]map[string]bool, len(exp.Variants)) // variantID -> userID set
	for _, v := range exp.Variants {
		assignedUsers[v.ID] = make(map[string]bool)
	}
	totalUsers := make(map[string]bool)
	for _, as := range snap.Assignments {
		set, ok := assignedUsers[as.VariantID]
		if !ok {
			// Assignment to a variant the experiment no longer declares
			// should not happen (variants are immutable), skip defensively
			// rather than misattribute.
			continue
		}
		set[as.UserID] = true
		totalUsers[as.UserID] = true
	}

	// Walk qualifying events once, accumulating per-variant counters.
	type counters struct {
		converted map[string]bool
		byType    map[string]int
		revenue   float64
		events    int
	}
	perVariant := make(map[string]*counters, len(exp.Variants))
	for _, v := range exp.Variants {
		perVariant[v.ID] = &counters{converted: make(map[string]bool), byType: make(map[string]int)}
	}

	for _, je := range snap.Events {
		c, ok := perVariant[je.Assignment.VariantID]
		if !ok {
			continue
		}
		// The store contract already excludes pre-assignment events; keep
		// the invariant locally so a buggy store cannot corrupt results.
		if !je.Event.Timestamp.After(je.Assignment.AssignedAt) {
			continue
		}
		c.events++
		c.byType[je.Event.Type]++
		c.revenue += je.Event.Properties.Number(revenueKey)
		c.converted[je.Event.UserID] = true
		report.TotalEvents++
	}

	globalConverted := make(map[string]bool)
	report.Variants = make([]VariantResult, 0, len(exp.Variants))
	for _, v := range exp.Variants {
		c := perVariant[v.ID]
		vr := VariantResult{
			VariantID:          v.ID,
			VariantName:        v.Name,
			IsControl:          v.IsControl,
			TrafficPercent:     v.TrafficPercent,
			TotalAssignedUsers: len(assignedUsers[v.ID]),
			ConversionCount:    len(c.converted),
			EventCounts:        c.byType,
			TotalRevenue:       c.revenue,
		}
		// Never divide by zero: empty variants report a 0.0 rate.
		if vr.TotalAssignedUsers > 0 {
			vr.ConversionRate = float64(vr.ConversionCount) / float64(vr.TotalAssignedUsers)
		}
		for u := range c.converted {
			globalConverted[u] = true
		}
		report.Variants = append(report.Variants, vr)
	}

	report.TotalUsersInExperiment = len(totalUsers)
	if report.TotalUsersInExperiment > 0 {
		report.GlobalConversionRate = float64(len(globalConverted)) / float64(report.TotalUsersInExperiment)
	}

	a.compare(exp, report)
	return report, nil
}

// compare fills in the vs-baseline metrics. The baseline is the variant
// flagged as control, falling back to the first declared variant, so the
// choice is deterministic for any experiment.
func (a *Aggregator) compare(exp *domain.Experiment, report *Report) {
	control := exp.ControlVariant()
	if control == nil {
		return
	}
	var baseline *VariantResult
	for i := range report.Variants {
		if report.Variants[i].VariantID == control.ID {
			baseline = &report.Variants[i]
			break
		}
	}
	if baseline == nil {
		return
	}
	for i := range report.Variants {
		vr := &report.Variants[i]
		if vr.VariantID == baseline.VariantID {
			continue
		}
		cmp := &Comparison{
			BaselineVariantID:  baseline.VariantID,
			AbsoluteDifference: vr.ConversionRate - baseline.ConversionRate,
		}
		if baseline.ConversionRate > 0 {
			cmp.RelativeLift = (vr.ConversionRate - baseline.ConversionRate) / baseline.ConversionRate
		}
		vr.VsBaseline = cmp
	}
}
