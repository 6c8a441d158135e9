package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/store/sqlite"
)

const tenant roster.TenantID = "acme"

var week = roster.MustParseWeek("2026-03-02")

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_WorkerRoundTripKeepsAllowedSetSemantics(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	third := roster.ShiftThird
	none := roster.NewShiftSet()
	two := roster.NewShiftSet(roster.ShiftFirst, roster.ShiftThird)
	workers := []roster.Worker{
		{ID: "a", Name: "Ana", Role: "operator", Contract: roster.ContractPermanent, Mode: roster.ModeRotating, Active: true},
		{ID: "b", Name: "Ben", Role: "operator", Contract: roster.ContractFixedTerm, Mode: roster.ModeRotating, AllowedShifts: &none, Active: true},
		{ID: "c", Name: "Cy", Role: "technician", Contract: roster.ContractPermanent, Mode: roster.ModeFixed,
			FixedShift: &third, AllowedShifts: &two, SpecialtyTask: "t-fix", Active: false},
	}
	for _, w := range workers {
		require.NoError(t, s.SaveWorker(ctx, tenant, w))
	}

	got, err := s.ListWorkers(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Nil(t, got[0].AllowedShifts, "absent stays absent")
	require.NotNil(t, got[1].AllowedShifts)
	assert.True(t, got[1].Unschedulable(), "empty stays empty")
	assert.Equal(t, workers[2], got[2])
}

func TestSQLite_SaveWorkerUpserts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	w := roster.Worker{ID: "a", Name: "Ana", Role: "operator", Contract: roster.ContractPermanent, Mode: roster.ModeRotating, Active: true}
	require.NoError(t, s.SaveWorker(ctx, tenant, w))

	w.Name = "Ana B."
	require.NoError(t, s.SaveWorker(ctx, tenant, w))

	got, err := s.ListWorkers(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ana B.", got[0].Name)

	require.NoError(t, s.DeleteWorker(ctx, tenant, "a"))
	assert.ErrorIs(t, s.DeleteWorker(ctx, tenant, "a"), roster.ErrWorkerNotFound)
}

func TestSQLite_TasksEquipmentRoles(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.SaveRole(ctx, tenant, roster.Role{Code: "operator", Name: "Operator", Active: true}))
	tasks := []roster.Task{
		{ID: "t1", Name: "Loading", Roles: []roster.RoleCode{"operator"}, Active: true,
			Equipment: &roster.EquipmentRequirement{Type: "forklift", Variant: "electric"}},
		{ID: "t2", Name: "Dispatch", Roles: []roster.RoleCode{}, Active: false},
	}
	for _, task := range tasks {
		require.NoError(t, s.SaveTask(ctx, tenant, task))
	}
	require.NoError(t, s.SaveEquipment(ctx, tenant, roster.Equipment{ID: "e2", Serial: "B", Type: "forklift", Status: roster.StatusOperational}))
	require.NoError(t, s.SaveEquipment(ctx, tenant, roster.Equipment{ID: "e1", Serial: "A", Type: "forklift", Variant: "electric", Role: "operator", Status: roster.StatusBroken}))

	gotTasks, err := s.ListTasks(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, tasks, gotTasks)

	eq, err := s.ListEquipment(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, eq, 2)
	assert.Equal(t, roster.EquipmentID("e1"), eq[0].ID, "serial order")
	assert.Equal(t, roster.RoleCode("operator"), eq[0].Role)

	err = s.SaveEquipment(ctx, tenant, roster.Equipment{ID: "e3", Serial: "A", Type: "crane", Status: roster.StatusOperational})
	assert.ErrorIs(t, err, roster.ErrInvalidCatalog)

	roles, err := s.ListRoles(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, []roster.Role{{Code: "operator", Name: "Operator", Active: true}}, roles)

	other, err := s.ListTasks(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other, "tenants are isolated")
}

func TestSQLite_PlanRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	plan := roster.NewWeekPlan(week)
	plan.Place("c", roster.ShiftFirst, roster.ProvenanceGenerated)
	plan.Place("a", roster.ShiftFirst, roster.ProvenanceManual)
	plan.Place("b", roster.ShiftThird, roster.ProvenanceGenerated)
	plan.Tasks["c"] = "t1"
	plan.Equipment["c"] = "e1"

	v, err := s.SavePlan(ctx, tenant, plan, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	got, err := s.GetPlan(ctx, tenant, week)
	require.NoError(t, err)
	assert.Equal(t, []roster.WorkerID{"c", "a"}, got.Columns[roster.ShiftFirst], "column order survives")
	assert.Equal(t, plan.Fingerprint(), got.Fingerprint())
	assert.Equal(t, int64(1), got.Version)

	rev1, err := s.Revision(ctx, tenant, week)
	require.NoError(t, err)
	_, err = s.SavePlan(ctx, tenant, got, 1)
	require.NoError(t, err)
	rev2, err := s.Revision(ctx, tenant, week)
	require.NoError(t, err)
	assert.NotEqual(t, rev1, rev2)
}

func TestSQLite_PlanConflict(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.GetPlan(ctx, tenant, week)
	assert.ErrorIs(t, err, roster.ErrPlanNotFound)

	first := roster.NewWeekPlan(week)
	first.Place("a", roster.ShiftFirst, roster.ProvenanceGenerated)
	_, err = s.SavePlan(ctx, tenant, first, 0)
	require.NoError(t, err)

	second := roster.NewWeekPlan(week)
	second.Place("b", roster.ShiftSecond, roster.ProvenanceGenerated)
	_, err = s.SavePlan(ctx, tenant, second, 0)

	var conflict *roster.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, int64(0), conflict.Expected)
	assert.Equal(t, int64(1), conflict.Actual)

	got, err := s.GetPlan(ctx, tenant, week)
	require.NoError(t, err)
	_, ok := got.ShiftOf("a")
	assert.True(t, ok, "losing write left no trace")
	_, ok = got.ShiftOf("b")
	assert.False(t, ok)
}

func TestSQLite_ListWeeksAndReset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for _, w := range []roster.WeekKey{week.Next(), week} {
		_, err := s.SavePlan(ctx, tenant, roster.NewWeekPlan(w), 0)
		require.NoError(t, err)
	}

	weeks, err := s.ListWeeks(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, []roster.WeekKey{week, week.Next()}, weeks)

	require.NoError(t, s.Reset(ctx))
	weeks, err = s.ListWeeks(ctx, tenant)
	require.NoError(t, err)
	assert.Empty(t, weeks)
}
