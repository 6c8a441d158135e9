/*
scheduler.go - Weekly plan generation scheduler

PURPOSE:
  Periodically makes sure next week has a plan for every configured tenant.
  A week that already has a stored plan (generated or hand-edited) is never
  touched; regeneration is always an explicit API call.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Target week is the week after the one containing "now"
  - Each tenant is handled independently; one failure does not stop others
  - Version conflicts mean someone else generated first and count as skipped

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)
  - Tenants, Mode: Who gets a plan and how it is generated

USAGE:
  scheduler := NewWeeklyScheduler(planner, []roster.TenantID{"default"})
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: GeneratePlan endpoint (manual generation)
  - planning/planner.go: Generate
*/
package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/roster-engine/metrics"
	"github.com/warp/roster-engine/planning"
	"github.com/warp/roster-engine/roster"
)

// Scheduler run results, also used as metric labels.
const (
	RunGenerated = "generated"
	RunSkipped   = "skipped"
	RunFailed    = "failed"
)

// WeeklyScheduler generates next week's plan when none exists.
type WeeklyScheduler struct {
	Planner       *planning.Planner
	Tenants       []roster.TenantID
	Mode          planning.Mode
	CheckInterval time.Duration
	Enabled       bool
	Log           *slog.Logger
	Metrics       metrics.Collector
	Now           func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewWeeklyScheduler creates a scheduler with default settings.
func NewWeeklyScheduler(planner *planning.Planner, tenants []roster.TenantID) *WeeklyScheduler {
	return &WeeklyScheduler{
		Planner:       planner,
		Tenants:       tenants,
		Mode:          planning.ModeBalance,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Log:           slog.Default(),
		Metrics:       metrics.NewNop(),
		Now:           time.Now,
	}
}

// Start begins the scheduler.
func (ws *WeeklyScheduler) Start() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !ws.Enabled {
		ws.Log.Info("scheduler disabled, not starting")
		return
	}
	if ws.ticker != nil {
		return
	}

	ws.stop = make(chan struct{})
	ws.ticker = time.NewTicker(ws.CheckInterval)
	ws.wg.Add(1)

	go ws.run()

	ws.Log.Info("scheduler started", "interval", ws.CheckInterval, "tenants", len(ws.Tenants), "mode", ws.Mode)
}

// Stop stops the scheduler and waits for an in-flight check.
func (ws *WeeklyScheduler) Stop() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.ticker != nil {
		ws.ticker.Stop()
		close(ws.stop)
		ws.wg.Wait()
		ws.ticker = nil
		ws.Log.Info("scheduler stopped")
	}
}

func (ws *WeeklyScheduler) run() {
	defer ws.wg.Done()

	// Run immediately on start
	ws.checkAndProcess()

	for {
		select {
		case <-ws.ticker.C:
			ws.checkAndProcess()
		case <-ws.stop:
			return
		}
	}
}

// RunNow triggers an immediate check and returns the per-tenant results.
func (ws *WeeklyScheduler) RunNow() map[roster.TenantID]string {
	return ws.checkAndProcess()
}

// NextRunTime returns when the next scheduled check will occur.
func (ws *WeeklyScheduler) NextRunTime() time.Time {
	return ws.Now().Add(ws.CheckInterval)
}

func (ws *WeeklyScheduler) checkAndProcess() map[roster.TenantID]string {
	ctx := context.Background()
	target := roster.WeekOf(ws.Now()).Next()
	results := make(map[roster.TenantID]string, len(ws.Tenants))

	for _, tenant := range ws.Tenants {
		result := ws.process(ctx, tenant, target)
		results[tenant] = result
		ws.Metrics.RecordSchedulerRun(result)
	}
	ws.Log.Debug("scheduler check complete", "week", target, "results", results)
	return results
}

func (ws *WeeklyScheduler) process(ctx context.Context, tenant roster.TenantID, week roster.WeekKey) string {
	_, err := ws.Planner.Plan(ctx, tenant, week)
	switch {
	case err == nil:
		return RunSkipped
	case !errors.Is(err, roster.ErrPlanNotFound):
		ws.Log.Error("scheduler: load plan", "tenant", tenant, "week", week, "error", err)
		return RunFailed
	}

	out, err := ws.Planner.Generate(ctx, tenant, week, ws.Mode)
	switch {
	case roster.IsRetryable(err):
		return RunSkipped
	case err != nil:
		ws.Log.Error("scheduler: generate", "tenant", tenant, "week", week, "error", err)
		return RunFailed
	}
	ws.Log.Info("scheduler generated week", "tenant", tenant, "week", week, "placed", out.Plan.Size(), "unscheduled", len(out.Unscheduled))
	return RunGenerated
}
