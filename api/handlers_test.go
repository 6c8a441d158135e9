/*
handlers_test.go - HTTP tests for the roster API

Runs the full router over a SQLite :memory: store: catalogs, generation,
manual edits, reports, exports, tenancy and error mapping.
*/
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/roster-engine/metrics"
	"github.com/warp/roster-engine/planning"
	"github.com/warp/roster-engine/store/sqlite"
)

// Wednesday of the week starting 2026-03-02.
var testNow = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

const testRoster = `{
  "week": "2026-03-02",
  "roles": [{"code": "operator", "name": "Operator"}],
  "workers": [
    {"id": "w1", "name": "Ana", "role": "operator", "shift_mode": "fixed", "fixed_shift": "first", "specialty_task": "load"},
    {"id": "w2", "name": "Ben", "role": "operator"}
  ],
  "tasks": [{"id": "load", "name": "Loading", "roles": ["operator"], "equipment": {"type": "forklift"}}],
  "equipment": [{"id": "e1", "serial": "FL-1", "type": "forklift"}],
  "history": {"w2": "first"}
}`

type testEnv struct {
	handler  *Handler
	router   http.Handler
	registry *prometheus.Registry
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	planner := planning.New(store, planning.Options{
		Logger:  logger,
		Metrics: metrics.NewPrometheus(reg, "roster"),
		Now:     func() time.Time { return testNow },
	})
	h := NewHandler(store, planner, logger)
	h.Now = func() time.Time { return testNow }

	return &testEnv{
		handler:  h,
		router:   NewRouter(h, RouterOptions{Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}),
		registry: reg,
	}
}

// do sends a request; headers are name/value pairs.
func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) importAndGenerate(t *testing.T) GenerateResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/roster", testRoster)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = e.do(t, http.MethodPost, "/api/weeks/2026-03-02/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[GenerateResponse](t, rec)
}

// =============================================================================
// CATALOG TESTS
// =============================================================================

func TestWorkers_CRUD(t *testing.T) {
	env := setupTestEnv(t)

	// GIVEN: A worker created over POST
	rec := env.do(t, http.MethodPost, "/api/workers", map[string]any{"id": "w1", "name": "Ana", "role": "operator"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// WHEN: Listing workers
	rec = env.do(t, http.MethodGet, "/api/workers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	workers := decode[[]map[string]any](t, rec)

	// THEN: Defaults are applied
	require.Len(t, workers, 1)
	assert.Equal(t, "permanent", workers[0]["contract"])
	assert.Equal(t, "rotating", workers[0]["shift_mode"])
	assert.Equal(t, true, workers[0]["active"])

	// AND: Invalid updates are rejected as client errors
	rec = env.do(t, http.MethodPut, "/api/workers/w1", map[string]any{"name": "Ana", "role": "operator", "shift_mode": "fixed"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid", decode[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodDelete, "/api/workers/w1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/workers/w1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCatalog_TasksEquipmentRoles(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/roles", map[string]any{"code": "operator", "name": "Operator"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPut, "/api/tasks/load", map[string]any{"name": "Loading", "roles": []string{"operator"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodPost, "/api/equipment", map[string]any{"id": "e1", "serial": "FL-1", "type": "forklift"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Duplicate serial and unknown status are client errors
	rec = env.do(t, http.MethodPost, "/api/equipment", map[string]any{"id": "e2", "serial": "FL-1", "type": "forklift"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/equipment", map[string]any{"id": "e3", "serial": "FL-3", "type": "forklift", "status": "lost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/equipment", nil)
	units := decode[[]map[string]any](t, rec)
	require.Len(t, units, 1)
	assert.Equal(t, "operational", units[0]["status"])

	rec = env.do(t, http.MethodGet, "/api/roster", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[map[string]any](t, rec)
	assert.Len(t, doc["roles"], 1)
	assert.Len(t, doc["tasks"], 1)
}

func TestTenantIsolation(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/workers", map[string]any{"id": "w1", "role": "operator"}, TenantHeader, "acme")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/workers", nil)
	assert.Empty(t, decode[[]map[string]any](t, rec), "default tenant sees nothing")

	rec = env.do(t, http.MethodGet, "/api/workers", nil, TenantHeader, "acme")
	assert.Len(t, decode[[]map[string]any](t, rec), 1)
}

// =============================================================================
// WEEK TESTS
// =============================================================================

func TestGenerateAndGetPlan(t *testing.T) {
	env := setupTestEnv(t)

	// GIVEN: An imported roster whose history puts w2 on first last week
	resp := env.importAndGenerate(t)

	// THEN: w1 keeps its fixed shift with the forklift, w2 rotates to third
	assert.Equal(t, "balance", resp.Mode)
	assert.Equal(t, int64(1), resp.Plan.Version)
	require.Len(t, resp.Plan.Columns["first"], 1)
	row := resp.Plan.Columns["first"][0]
	assert.Equal(t, PlanRowDTO{WorkerID: "w1", Name: "Ana", TaskID: "load", EquipmentID: "e1", Provenance: "generated"}, row)
	assert.Equal(t, "w2", resp.Plan.Columns["third"][0].WorkerID)
	assert.Empty(t, resp.Plan.Columns["second"])
	assert.Equal(t, map[string]int{"first": 1, "second": 0, "third": 1}, resp.Loads)

	// WHEN: The plan is fetched twice, the second time conditionally
	rec := env.do(t, http.MethodGet, "/api/weeks/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tag := rec.Header().Get("ETag")
	require.NotEmpty(t, tag)
	assert.Equal(t, resp.Plan.Fingerprint, decode[PlanDTO](t, rec).Fingerprint)

	rec = env.do(t, http.MethodGet, "/api/weeks/2026-03-02", nil, "If-None-Match", tag)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/weeks", nil)
	assert.Equal(t, []string{"2026-02-23", "2026-03-02"}, decode[[]string](t, rec))
}

func TestGenerate_ModeSelection(t *testing.T) {
	env := setupTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/roster", testRoster).Code)

	rec := env.do(t, http.MethodPost, "/api/weeks/2026-03-02/generate", map[string]string{"mode": "seed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "seed", decode[GenerateResponse](t, rec).Mode)

	rec = env.do(t, http.MethodPost, "/api/weeks/2026-03-02/generate?mode=balance", map[string]string{"mode": "seed"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[GenerateResponse](t, rec)
	assert.Equal(t, "balance", resp.Mode, "query wins")
	assert.Equal(t, int64(2), resp.Plan.Version)

	rec = env.do(t, http.MethodPost, "/api/weeks/2026-03-02/generate?mode=optimal", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditPlan(t *testing.T) {
	env := setupTestEnv(t)
	env.importAndGenerate(t)

	// WHEN: w2 is moved to second against the current version
	rec := env.do(t, http.MethodPut, "/api/weeks/2026-03-02/workers/w2", map[string]any{"shift": "second", "task": "load", "version": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	plan := decode[PlanDTO](t, rec)

	// THEN: The row is manual and the version bumped
	require.Len(t, plan.Columns["second"], 1)
	assert.Equal(t, "manual", plan.Columns["second"][0].Provenance)
	assert.Equal(t, "load", plan.Columns["second"][0].TaskID)
	assert.Empty(t, plan.Columns["third"])
	assert.Equal(t, int64(2), plan.Version)

	// AND: A stale edit conflicts
	rec = env.do(t, http.MethodPut, "/api/weeks/2026-03-02/workers/w2", map[string]any{"shift": "first", "version": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decode[ErrorResponse](t, rec).Code)

	// AND: Bad input is rejected
	rec = env.do(t, http.MethodPut, "/api/weeks/2026-03-02/workers/w2", map[string]any{"shift": "evening"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPut, "/api/weeks/2026-03-02/workers/ghost", map[string]any{"shift": "first"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssignEquipment(t *testing.T) {
	env := setupTestEnv(t)
	env.importAndGenerate(t)

	// GIVEN: The only forklift goes to maintenance
	rec := env.do(t, http.MethodPut, "/api/equipment/e1", map[string]any{"serial": "FL-1", "type": "forklift", "status": "maintenance"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// WHEN: Equipment is reassigned
	rec = env.do(t, http.MethodPost, "/api/weeks/2026-03-02/equipment", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[GenerateResponse](t, rec)

	// THEN: w1 is short
	require.Len(t, resp.Shortages, 1)
	assert.Equal(t, ShortageDTO{WorkerID: "w1", Shift: "first", TaskID: "load", Type: "forklift", Eligible: 0}, resp.Shortages[0])
	assert.Empty(t, resp.Plan.Columns["first"][0].EquipmentID)
	assert.Nil(t, resp.Loads)
}

func TestGetPlan_ETagFollowsVersion(t *testing.T) {
	env := setupTestEnv(t)
	env.importAndGenerate(t)

	// GIVEN: A client holding the plan and its ETag
	rec := env.do(t, http.MethodGet, "/api/weeks/2026-03-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tag := rec.Header().Get("ETag")
	before := decode[PlanDTO](t, rec)

	// WHEN: Equipment is rerun twice, leaving the board unchanged
	for range 2 {
		rec = env.do(t, http.MethodPost, "/api/weeks/2026-03-02/equipment", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	// THEN: The conditional fetch returns the new version
	rec = env.do(t, http.MethodGet, "/api/weeks/2026-03-02", nil, "If-None-Match", tag)
	require.Equal(t, http.StatusOK, rec.Code)
	after := decode[PlanDTO](t, rec)
	assert.Equal(t, before.Fingerprint, after.Fingerprint)
	assert.Equal(t, int64(3), after.Version)
	assert.NotEqual(t, tag, rec.Header().Get("ETag"))

	// AND: An edit against that version goes through
	rec = env.do(t, http.MethodPut, "/api/weeks/2026-03-02/workers/w2", map[string]any{"shift": "second", "version": after.Version})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(4), decode[PlanDTO](t, rec).Version)
}

func TestGetReport(t *testing.T) {
	env := setupTestEnv(t)
	env.importAndGenerate(t)

	rec := env.do(t, http.MethodGet, "/api/weeks/2026-03-02/report", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rep := decode[ReportDTO](t, rec)

	assert.Equal(t, 2, rep.Total)
	require.Len(t, rep.Totals, 3)
	assert.Equal(t, ShiftTotalDTO{Shift: "first", Label: "Morning", Count: 1, Share: "50.0"}, rep.Totals[0])
	require.Len(t, rep.Warnings, 1)
	assert.Equal(t, "unassigned_tasks", rep.Warnings[0].Code)
	assert.Equal(t, "Loading", rep.Tree[0].Groups[0].Tasks[0].Label)

	tag := rec.Header().Get("ETag")
	rec = env.do(t, http.MethodGet, "/api/weeks/2026-03-02/report", nil, "If-None-Match", tag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestExportXLSX(t *testing.T) {
	env := setupTestEnv(t)
	env.importAndGenerate(t)

	rec := env.do(t, http.MethodGet, "/api/weeks/2026-03-02/export.xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "roster-default-2026-03-02.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Plan", "Report"}, f.GetSheetList())
	v, err := f.GetCellValue("Plan", "A4")
	require.NoError(t, err)
	assert.Equal(t, "Ana", v)
}

func TestWeekErrors(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/weeks/2026-02-30", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/weeks/next", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/weeks/2026-03-02/report", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/roster", `{"workers": [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/roster", `{"workers": [{"id": "w1", "role": "operator", "shift_mode": "fixed"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid", decode[ErrorResponse](t, rec).Code)
}

func TestMetricsAndHealth(t *testing.T) {
	env := setupTestEnv(t)
	env.importAndGenerate(t)

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `roster_planner_generations_total{mode="balance"} 1`)
	assert.Contains(t, rec.Body.String(), `roster_planner_shift_load{shift="third"} 1`)

	rec = env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
