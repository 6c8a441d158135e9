/*
handlers.go - HTTP API handlers for the roster engine

PURPOSE:
  Exposes catalogs, week planning, manual edits, reports and exports over
  REST. Handlers parse and validate HTTP input, delegate to the planner or
  the store, and serialize the result.

ENDPOINTS:
  Catalogs (per tenant):
    GET    /api/workers                List workers
    POST   /api/workers                Create or replace a worker
    PUT    /api/workers/{id}           Create or replace a worker
    DELETE /api/workers/{id}           Delete a worker
    ...    /api/tasks, /api/equipment  Same shape
    GET    /api/roles                  List roles
    POST   /api/roles                  Create or replace a role
    POST   /api/roster                 Import a full roster document
    GET    /api/roster                 Export the catalogs as a roster document

  Weeks ({week} is YYYY-MM-DD, "current" or "next"):
    GET    /api/weeks                          Stored week keys
    GET    /api/weeks/{week}                   Stored plan (ETag)
    POST   /api/weeks/{week}/generate          Generate (balance|seed)
    PUT    /api/weeks/{week}/workers/{id}      Manual edit of one row
    POST   /api/weeks/{week}/equipment         Rerun the equipment matcher
    GET    /api/weeks/{week}/report            Aggregation report (ETag)
    GET    /api/weeks/{week}/export.xlsx       Workbook export

TENANCY:
  The X-Tenant-ID header selects the tenant; absent means "default".

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Plan version conflict (retry with a fresh read)
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/roster-engine/factory"
	"github.com/warp/roster-engine/planning"
	"github.com/warp/roster-engine/render"
	"github.com/warp/roster-engine/roster"
)

const (
	TenantHeader  = "X-Tenant-ID"
	DefaultTenant = roster.TenantID("default")
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence the API needs.
type Store interface {
	planning.Store
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       Store
	Planner     *planning.Planner
	Log         *slog.Logger
	DefaultMode planning.Mode
	Now         func() time.Time

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler over store and planner.
func NewHandler(store Store, planner *planning.Planner, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:       store,
		Planner:     planner,
		Log:         logger,
		DefaultMode: planning.ModeBalance,
		Now:         time.Now,
	}
}

type tenantKey struct{}

// withTenant resolves the tenant header into the request context.
func withTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := roster.TenantID(r.Header.Get(TenantHeader))
		if tenant == "" {
			tenant = DefaultTenant
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tenantKey{}, tenant)))
	})
}

func tenantFrom(r *http.Request) roster.TenantID {
	if t, ok := r.Context().Value(tenantKey{}).(roster.TenantID); ok {
		return t
	}
	return DefaultTenant
}

// weekParam accepts a date key or the aliases "current" and "next".
func (h *Handler) weekParam(r *http.Request) (roster.WeekKey, error) {
	raw := chi.URLParam(r, "week")
	switch raw {
	case "current":
		return roster.WeekOf(h.Now()), nil
	case "next":
		return roster.WeekOf(h.Now()).Next(), nil
	}
	return roster.ParseWeek(raw)
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Store.ListWorkers(r.Context(), tenantFrom(r))
	if err != nil {
		h.writeDomainError(w, "Failed to list workers", err)
		return
	}
	dtos := make([]factory.WorkerJSON, len(workers))
	for i, wk := range workers {
		dtos[i] = factory.WorkerToJSON(wk)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveWorker creates or replaces a worker. On PUT the path id wins.
func (h *Handler) SaveWorker(w http.ResponseWriter, r *http.Request) {
	var req factory.WorkerJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		req.ID = id
	}
	wk, err := factory.WorkerFromJSON(req)
	if err != nil {
		h.writeDomainError(w, "Invalid worker", err)
		return
	}
	if err := h.Store.SaveWorker(r.Context(), tenantFrom(r), wk); err != nil {
		h.writeDomainError(w, "Failed to save worker", err)
		return
	}
	writeJSON(w, saveStatus(r), factory.WorkerToJSON(wk))
}

func (h *Handler) DeleteWorker(w http.ResponseWriter, r *http.Request) {
	id := roster.WorkerID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteWorker(r.Context(), tenantFrom(r), id); err != nil {
		h.writeDomainError(w, "Failed to delete worker", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TASK / EQUIPMENT / ROLE HANDLERS
// =============================================================================

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Store.ListTasks(r.Context(), tenantFrom(r))
	if err != nil {
		h.writeDomainError(w, "Failed to list tasks", err)
		return
	}
	dtos := make([]factory.TaskJSON, len(tasks))
	for i, t := range tasks {
		dtos[i] = factory.TaskToJSON(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SaveTask(w http.ResponseWriter, r *http.Request) {
	var req factory.TaskJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		req.ID = id
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Task id is required", nil)
		return
	}
	t := factory.TaskFromJSON(req)
	if err := h.Store.SaveTask(r.Context(), tenantFrom(r), t); err != nil {
		h.writeDomainError(w, "Failed to save task", err)
		return
	}
	writeJSON(w, saveStatus(r), factory.TaskToJSON(t))
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := roster.TaskID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteTask(r.Context(), tenantFrom(r), id); err != nil {
		h.writeDomainError(w, "Failed to delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	units, err := h.Store.ListEquipment(r.Context(), tenantFrom(r))
	if err != nil {
		h.writeDomainError(w, "Failed to list equipment", err)
		return
	}
	dtos := make([]factory.EquipmentJSON, len(units))
	for i, e := range units {
		dtos[i] = factory.EquipmentToJSON(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SaveEquipment(w http.ResponseWriter, r *http.Request) {
	var req factory.EquipmentJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		req.ID = id
	}
	e, err := factory.EquipmentFromJSON(req)
	if err != nil {
		h.writeDomainError(w, "Invalid equipment", err)
		return
	}
	if e.ID == "" {
		writeError(w, http.StatusBadRequest, "Equipment id is required", nil)
		return
	}
	if err := h.Store.SaveEquipment(r.Context(), tenantFrom(r), e); err != nil {
		h.writeDomainError(w, "Failed to save equipment", err)
		return
	}
	writeJSON(w, saveStatus(r), factory.EquipmentToJSON(e))
}

func (h *Handler) DeleteEquipment(w http.ResponseWriter, r *http.Request) {
	id := roster.EquipmentID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteEquipment(r.Context(), tenantFrom(r), id); err != nil {
		h.writeDomainError(w, "Failed to delete equipment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Store.ListRoles(r.Context(), tenantFrom(r))
	if err != nil {
		h.writeDomainError(w, "Failed to list roles", err)
		return
	}
	dtos := make([]factory.RoleJSON, len(roles))
	for i, role := range roles {
		dtos[i] = factory.RoleToJSON(role)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SaveRole(w http.ResponseWriter, r *http.Request) {
	var req factory.RoleJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "Role code is required", nil)
		return
	}
	role := factory.RoleFromJSON(req)
	if err := h.Store.SaveRole(r.Context(), tenantFrom(r), role); err != nil {
		h.writeDomainError(w, "Failed to save role", err)
		return
	}
	writeJSON(w, http.StatusCreated, factory.RoleToJSON(role))
}

// =============================================================================
// ROSTER IMPORT / EXPORT
// =============================================================================

// ImportRoster saves every record of a roster document, including its
// history as the previous week's plan.
func (h *Handler) ImportRoster(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	doc, err := factory.Parse(body)
	if err != nil {
		if !roster.IsClientError(err) {
			writeError(w, http.StatusBadRequest, "Invalid roster JSON", err)
			return
		}
		h.writeDomainError(w, "Invalid roster", err)
		return
	}
	if err := factory.Import(r.Context(), h.Store, tenantFrom(r), doc); err != nil {
		h.writeDomainError(w, "Failed to import roster", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{
		"roles":     len(doc.Roles),
		"workers":   len(doc.Workers),
		"tasks":     len(doc.Tasks),
		"equipment": len(doc.Equipment),
		"history":   len(doc.History),
	})
}

// ExportRoster returns the tenant's catalogs as a roster document.
func (h *Handler) ExportRoster(w http.ResponseWriter, r *http.Request) {
	catalog, err := roster.LoadCatalog(r.Context(), h.Store, tenantFrom(r))
	if err != nil {
		h.writeDomainError(w, "Failed to load catalog", err)
		return
	}
	doc := factory.ToJSON(&factory.Roster{
		Roles:     catalog.Roles(),
		Workers:   catalog.Workers(),
		Tasks:     catalog.Tasks(),
		Equipment: catalog.EquipmentBySerial(),
	})
	writeJSON(w, http.StatusOK, doc)
}

// =============================================================================
// WEEK HANDLERS
// =============================================================================

func (h *Handler) ListWeeks(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.Store.ListWeeks(r.Context(), tenantFrom(r))
	if err != nil {
		h.writeDomainError(w, "Failed to list weeks", err)
		return
	}
	out := make([]string, len(weeks))
	for i, wk := range weeks {
		out[i] = string(wk)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetPlan returns the stored plan. The ETag is the plan fingerprint.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	week, err := h.weekParam(r)
	if err != nil {
		h.writeDomainError(w, "Invalid week", err)
		return
	}
	tenant := tenantFrom(r)
	plan, err := h.Planner.Plan(r.Context(), tenant, week)
	if err != nil {
		h.writeDomainError(w, "Failed to get plan", err)
		return
	}
	tag := planETag(plan)
	w.Header().Set("ETag", tag)
	if r.Header.Get("If-None-Match") == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	catalog, err := roster.LoadCatalog(r.Context(), h.Store, tenant)
	if err != nil {
		h.writeDomainError(w, "Failed to load catalog", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(tenant, plan, catalog))
}

// GeneratePlan builds and stores a full replacement plan. The mode comes
// from ?mode=, the body, or the server default, in that order.
func (h *Handler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	week, err := h.weekParam(r)
	if err != nil {
		h.writeDomainError(w, "Invalid week", err)
		return
	}
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	raw := r.URL.Query().Get("mode")
	if raw == "" {
		raw = req.Mode
	}
	mode := h.DefaultMode
	if raw != "" {
		if mode, err = planning.ParseMode(raw); err != nil {
			h.writeDomainError(w, "Invalid mode", err)
			return
		}
	}

	tenant := tenantFrom(r)
	out, err := h.Planner.Generate(r.Context(), tenant, week, mode)
	if err != nil {
		h.writeDomainError(w, "Failed to generate plan", err)
		return
	}
	h.writeOutcome(w, r, tenant, mode, out)
}

// EditPlan applies a manual edit to one worker's row.
func (h *Handler) EditPlan(w http.ResponseWriter, r *http.Request) {
	week, err := h.weekParam(r)
	if err != nil {
		h.writeDomainError(w, "Invalid week", err)
		return
	}
	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	edit := planning.Edit{
		Worker:   roster.WorkerID(chi.URLParam(r, "id")),
		Remove:   req.Remove,
		Expected: req.Version,
	}
	if req.Shift != nil {
		s, err := roster.ParseShift(*req.Shift)
		if err != nil {
			h.writeDomainError(w, "Invalid shift", &roster.ValidationError{Field: "shift", Reason: err.Error()})
			return
		}
		edit.Shift = &s
	}
	if req.Task != nil {
		t := roster.TaskID(*req.Task)
		edit.Task = &t
	}
	if req.Equipment != nil {
		e := roster.EquipmentID(*req.Equipment)
		edit.Equipment = &e
	}

	tenant := tenantFrom(r)
	plan, err := h.Planner.Edit(r.Context(), tenant, week, edit)
	if err != nil {
		h.writeDomainError(w, "Failed to edit plan", err)
		return
	}
	catalog, err := roster.LoadCatalog(r.Context(), h.Store, tenant)
	if err != nil {
		h.writeDomainError(w, "Failed to load catalog", err)
		return
	}
	w.Header().Set("ETag", planETag(plan))
	writeJSON(w, http.StatusOK, toPlanDTO(tenant, plan, catalog))
}

// AssignEquipment reruns the matcher over the stored plan.
func (h *Handler) AssignEquipment(w http.ResponseWriter, r *http.Request) {
	week, err := h.weekParam(r)
	if err != nil {
		h.writeDomainError(w, "Invalid week", err)
		return
	}
	tenant := tenantFrom(r)
	out, err := h.Planner.AssignEquipment(r.Context(), tenant, week)
	if err != nil {
		h.writeDomainError(w, "Failed to assign equipment", err)
		return
	}
	h.writeOutcome(w, r, tenant, "", out)
}

func (h *Handler) writeOutcome(w http.ResponseWriter, r *http.Request, tenant roster.TenantID, mode planning.Mode, out *planning.Outcome) {
	catalog, err := roster.LoadCatalog(r.Context(), h.Store, tenant)
	if err != nil {
		h.writeDomainError(w, "Failed to load catalog", err)
		return
	}
	w.Header().Set("ETag", planETag(out.Plan))
	writeJSON(w, http.StatusOK, toGenerateResponse(tenant, mode, out, catalog))
}

// GetReport returns the aggregation report. The ETag is the report fingerprint.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	week, err := h.weekParam(r)
	if err != nil {
		h.writeDomainError(w, "Invalid week", err)
		return
	}
	rep, err := h.Planner.Report(r.Context(), tenantFrom(r), week)
	if err != nil {
		h.writeDomainError(w, "Failed to build report", err)
		return
	}
	tag := etag(rep.Fingerprint())
	w.Header().Set("ETag", tag)
	if r.Header.Get("If-None-Match") == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(rep))
}

// ExportXLSX streams the plan and report as an Excel workbook.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	week, err := h.weekParam(r)
	if err != nil {
		h.writeDomainError(w, "Invalid week", err)
		return
	}
	tenant := tenantFrom(r)
	plan, err := h.Planner.Plan(r.Context(), tenant, week)
	if err != nil {
		h.writeDomainError(w, "Failed to get plan", err)
		return
	}
	rep, err := h.Planner.Report(r.Context(), tenant, week)
	if err != nil {
		h.writeDomainError(w, "Failed to build report", err)
		return
	}
	catalog, err := roster.LoadCatalog(r.Context(), h.Store, tenant)
	if err != nil {
		h.writeDomainError(w, "Failed to load catalog", err)
		return
	}
	f, err := render.Workbook(plan, rep, catalog)
	if err != nil {
		h.writeDomainError(w, "Failed to build workbook", err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="roster-%s-%s.xlsx"`, tenant, week))
	if _, err := f.WriteTo(w); err != nil {
		h.Log.Error("write workbook", "tenant", tenant, "week", week, "error", err)
	}
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps roster error categories to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	resp := ErrorResponse{Error: message, Details: err.Error()}
	status := http.StatusInternalServerError
	switch {
	case roster.IsNotFound(err):
		status, resp.Code = http.StatusNotFound, "not_found"
	case roster.IsRetryable(err):
		status, resp.Code = http.StatusConflict, "conflict"
	case roster.IsClientError(err):
		status, resp.Code = http.StatusBadRequest, "invalid"
	default:
		h.Log.Error(message, "error", err)
	}
	writeJSON(w, status, resp)
}

func saveStatus(r *http.Request) int {
	if r.Method == http.MethodPost {
		return http.StatusCreated
	}
	return http.StatusOK
}
