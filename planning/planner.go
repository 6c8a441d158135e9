/*
Package planning runs the roster engine against stored catalogs and plans.

PURPOSE:
  The roster package is pure. Planner is the administrative layer around it:
  it loads catalogs and last week's plan, calls the engine, persists the
  result with an optimistic version check, records metrics, and publishes an
  event once the plan is stored.

OPERATIONS:
  Generate         full replacement plan for a week (balance or seed mode),
                   equipment matched afterwards
  AssignEquipment  rerun the matcher over the stored plan
  Edit             manual board edit (move, task, equipment), marked manual
  Report           aggregation report over the stored plan

CONCURRENCY:
  Writes for one (tenant, week) are serialized by the store's version check.
  A losing writer gets a *roster.ConflictError (roster.IsRetryable) and
  nothing is published.

SEE ALSO:
  - roster/store.go: CatalogStore, PlanStore
  - api/handlers.go: HTTP surface
  - api/scheduler.go: Weekly generation
*/
package planning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/warp/roster-engine/metrics"
	"github.com/warp/roster-engine/notify"
	"github.com/warp/roster-engine/roster"
)

// Mode selects the generation algorithm.
type Mode string

const (
	// ModeBalance runs the least-loaded balancer.
	ModeBalance Mode = "balance"
	// ModeSeed runs the column seeder.
	ModeSeed Mode = "seed"
)

// ParseMode accepts "balance" or "seed". Empty means balance.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeBalance:
		return ModeBalance, nil
	case ModeSeed:
		return ModeSeed, nil
	}
	return "", &roster.ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", s)}
}

// Store is what the planner needs from persistence.
type Store interface {
	roster.CatalogStore
	roster.PlanStore
}

// Options configures a Planner. Zero values get no-op defaults.
type Options struct {
	Logger    *slog.Logger
	Metrics   metrics.Collector
	Publisher notify.Publisher
	Report    roster.ReportOptions
	Equipment roster.MatchOptions
	Now       func() time.Time
}

// Planner is safe for concurrent use.
type Planner struct {
	store     Store
	log       *slog.Logger
	metrics   metrics.Collector
	publisher notify.Publisher
	report    roster.ReportOptions
	equipment roster.MatchOptions
	now       func() time.Time
}

func New(store Store, opts Options) *Planner {
	p := &Planner{
		store:     store,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		publisher: opts.Publisher,
		report:    opts.Report,
		equipment: opts.Equipment,
		now:       opts.Now,
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	if p.metrics == nil {
		p.metrics = metrics.NewNop()
	}
	if p.publisher == nil {
		p.publisher = notify.NewNop()
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Outcome is a stored plan plus what the engine could not satisfy.
type Outcome struct {
	Plan        *roster.WeekPlan
	Unscheduled []roster.Unscheduled
	Shortages   []roster.Shortage
	Loads       roster.Loads
}

// =============================================================================
// GENERATE
// =============================================================================

// Generate builds and stores a full replacement plan for week. The previous
// week's stored plan is the rotation history; a missing one means none.
func (p *Planner) Generate(ctx context.Context, tenant roster.TenantID, week roster.WeekKey, mode Mode) (*Outcome, error) {
	if !week.Valid() {
		return nil, fmt.Errorf("%q: %w", week, roster.ErrInvalidWeek)
	}
	started := time.Now()

	catalog, err := roster.LoadCatalog(ctx, p.store, tenant)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	history, err := p.history(ctx, tenant, week)
	if err != nil {
		return nil, err
	}
	current, err := p.currentVersion(ctx, tenant, week)
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	switch mode {
	case ModeSeed:
		res := roster.Seed(week, catalog.Workers(), history, catalog)
		out.Plan, out.Unscheduled = res.Plan, res.Unscheduled
		for _, s := range roster.Priority {
			for range res.Plan.Columns[s] {
				out.Loads.Add(s)
			}
		}
	case ModeBalance:
		res := roster.Balance(week, catalog.Workers(), history)
		plan, err := roster.PlanFromAssignments(week, res.Assignments)
		if err != nil {
			return nil, err
		}
		fillSpecialtyTasks(plan, catalog)
		out.Plan, out.Unscheduled, out.Loads = plan, res.Unscheduled, res.Loads
	default:
		return nil, &roster.ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", mode)}
	}

	match := roster.MatchPlan(out.Plan, catalog, p.equipment)
	roster.ApplyEquipment(out.Plan, match)
	out.Shortages = match.Shortages

	if err := p.save(ctx, tenant, out.Plan, current); err != nil {
		return nil, err
	}

	p.metrics.RecordGeneration(string(mode), out.Plan.Size(), len(out.Unscheduled), time.Since(started).Seconds())
	p.metrics.RecordShortages(len(out.Shortages))
	for _, s := range roster.Priority {
		p.metrics.SetShiftLoad(s.Code(), out.Loads.Of(s))
	}
	p.log.Info("week generated",
		"tenant", tenant,
		"week", week,
		"mode", mode,
		"version", out.Plan.Version,
		"placed", out.Plan.Size(),
		"unscheduled", len(out.Unscheduled),
		"shortages", len(out.Shortages),
	)
	p.publish(ctx, tenant, notify.EventPlanGenerated, out)
	return out, nil
}

// fillSpecialtyTasks gives each placed worker its active specialty task.
func fillSpecialtyTasks(plan *roster.WeekPlan, catalog *roster.Catalog) {
	for id := range plan.History() {
		w, ok := catalog.Worker(id)
		if !ok || w.SpecialtyTask == "" {
			continue
		}
		if t, ok := catalog.Task(w.SpecialtyTask); ok && t.Active {
			plan.Tasks[id] = t.ID
		}
	}
}

func (p *Planner) history(ctx context.Context, tenant roster.TenantID, week roster.WeekKey) (map[roster.WorkerID]roster.Shift, error) {
	prev, err := p.store.GetPlan(ctx, tenant, week.Previous())
	if errors.Is(err, roster.ErrPlanNotFound) {
		return map[roster.WorkerID]roster.Shift{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return prev.History(), nil
}

func (p *Planner) currentVersion(ctx context.Context, tenant roster.TenantID, week roster.WeekKey) (int64, error) {
	plan, err := p.store.GetPlan(ctx, tenant, week)
	if errors.Is(err, roster.ErrPlanNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return plan.Version, nil
}

// =============================================================================
// EQUIPMENT / REPORT
// =============================================================================

// AssignEquipment reruns the matcher over the stored plan and replaces its
// equipment map.
func (p *Planner) AssignEquipment(ctx context.Context, tenant roster.TenantID, week roster.WeekKey) (*Outcome, error) {
	plan, err := p.store.GetPlan(ctx, tenant, week)
	if err != nil {
		return nil, err
	}
	catalog, err := roster.LoadCatalog(ctx, p.store, tenant)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	match := roster.MatchPlan(plan, catalog, p.equipment)
	roster.ApplyEquipment(plan, match)
	if err := p.save(ctx, tenant, plan, plan.Version); err != nil {
		return nil, err
	}
	p.metrics.RecordShortages(len(match.Shortages))

	out := &Outcome{Plan: plan, Shortages: match.Shortages}
	p.log.Info("equipment assigned", "tenant", tenant, "week", week, "matched", len(match.Equipment), "shortages", len(match.Shortages))
	p.publish(ctx, tenant, notify.EventEquipmentAssigned, out)
	return out, nil
}

// Report aggregates the stored plan for week.
func (p *Planner) Report(ctx context.Context, tenant roster.TenantID, week roster.WeekKey) (*roster.Report, error) {
	plan, err := p.store.GetPlan(ctx, tenant, week)
	if err != nil {
		return nil, err
	}
	catalog, err := roster.LoadCatalog(ctx, p.store, tenant)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	rep := roster.BuildReport(week, plan.Assignments(), catalog, p.report)
	for _, w := range rep.Warnings {
		p.metrics.RecordReportWarning(string(w.Code), w.Count)
	}
	return &rep, nil
}

// Plan returns the stored plan for week.
func (p *Planner) Plan(ctx context.Context, tenant roster.TenantID, week roster.WeekKey) (*roster.WeekPlan, error) {
	return p.store.GetPlan(ctx, tenant, week)
}

// =============================================================================
// PERSIST / PUBLISH
// =============================================================================

func (p *Planner) save(ctx context.Context, tenant roster.TenantID, plan *roster.WeekPlan, expected int64) error {
	_, err := p.store.SavePlan(ctx, tenant, plan, expected)
	if roster.IsRetryable(err) {
		p.metrics.RecordConflict()
		p.log.Warn("plan write lost version check", "tenant", tenant, "week", plan.Week, "expected", expected, "error", err)
	}
	return err
}

// publish runs after the plan is stored; a failed publish is logged only.
func (p *Planner) publish(ctx context.Context, tenant roster.TenantID, typ notify.EventType, out *Outcome) {
	e := notify.Event{
		Type:        typ,
		Tenant:      tenant,
		Week:        out.Plan.Week,
		Version:     out.Plan.Version,
		Fingerprint: strconv.FormatUint(out.Plan.Fingerprint(), 16),
		Placed:      out.Plan.Size(),
		Unscheduled: len(out.Unscheduled),
		Shortages:   len(out.Shortages),
		At:          p.now().UTC(),
	}
	if err := p.publisher.Publish(ctx, e); err != nil {
		p.log.Error("publish plan event", "type", typ, "tenant", tenant, "week", e.Week, "error", err)
	}
}
