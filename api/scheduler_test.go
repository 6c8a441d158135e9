package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/roster-engine/planning"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/roster/store"
)

var errDiskGone = errors.New("disk gone")

// brokenPlans fails every plan read for one tenant.
type brokenPlans struct {
	*store.Memory
	tenant roster.TenantID
}

func (b brokenPlans) GetPlan(ctx context.Context, tenant roster.TenantID, week roster.WeekKey) (*roster.WeekPlan, error) {
	if tenant == b.tenant {
		return nil, errDiskGone
	}
	return b.Memory.GetPlan(ctx, tenant, week)
}

func newTestScheduler(t *testing.T, s planning.Store, tenants ...roster.TenantID) *WeeklyScheduler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	planner := planning.New(s, planning.Options{Logger: logger, Now: func() time.Time { return testNow }})
	ws := NewWeeklyScheduler(planner, tenants)
	ws.Log = logger
	ws.Now = func() time.Time { return testNow }
	return ws
}

func seedWorker(t *testing.T, m *store.Memory, tenant roster.TenantID) {
	t.Helper()
	require.NoError(t, m.SaveWorker(context.Background(), tenant, roster.Worker{
		ID: "w1", Name: "Ana", Role: "operator",
		Contract: roster.ContractPermanent, Mode: roster.ModeRotating, Active: true,
	}))
}

func TestScheduler_GeneratesNextWeekOnce(t *testing.T) {
	m := store.NewMemory()
	seedWorker(t, m, "default")
	seedWorker(t, m, "acme")
	ws := newTestScheduler(t, m, "default", "acme")

	// WHEN: The scheduler runs on a Wednesday
	results := ws.RunNow()

	// THEN: Next week is generated for each tenant
	assert.Equal(t, map[roster.TenantID]string{"default": RunGenerated, "acme": RunGenerated}, results)
	plan, err := m.GetPlan(context.Background(), "acme", roster.MustParseWeek("2026-03-09"))
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Size())

	// AND: A second run leaves the stored plans alone
	results = ws.RunNow()
	assert.Equal(t, map[roster.TenantID]string{"default": RunSkipped, "acme": RunSkipped}, results)
	plan, err = m.GetPlan(context.Background(), "acme", roster.MustParseWeek("2026-03-09"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), plan.Version)
}

func TestScheduler_TenantFailureIsIsolated(t *testing.T) {
	m := store.NewMemory()
	seedWorker(t, m, "default")
	ws := newTestScheduler(t, brokenPlans{Memory: m, tenant: "acme"}, "acme", "default")

	results := ws.RunNow()

	assert.Equal(t, RunFailed, results["acme"])
	assert.Equal(t, RunGenerated, results["default"])
}

func TestScheduler_StartStop(t *testing.T) {
	m := store.NewMemory()
	seedWorker(t, m, "default")
	ws := newTestScheduler(t, m, "default")
	ws.CheckInterval = time.Hour

	// GIVEN: A started scheduler, which checks immediately
	ws.Start()
	ws.Start()
	ws.Stop()

	// THEN: The first check has completed once Stop returns
	_, err := m.GetPlan(context.Background(), "default", roster.MustParseWeek("2026-03-09"))
	assert.NoError(t, err)
	assert.Equal(t, testNow.Add(time.Hour), ws.NextRunTime())

	// AND: A disabled scheduler never starts
	ws.Enabled = false
	ws.Start()
	ws.Stop()
}
