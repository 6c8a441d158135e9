/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built rosters that populate the store with realistic data and
  generate a first week, each demonstrating one engine behavior.

AVAILABLE SCENARIOS:
  ten-worker:        6 permanent (one fixed night, two restricted), 4 fixed-term;
                     rotation plus load leveling
  forklift-shortage: two loaders, one usable forklift; first in column wins
  mixed-crew:        operators and technicians, an inactive worker, a worker
                     who cannot be scheduled, role-restricted equipment

HOW SCENARIOS WORK:
 1. Reset the store (all tenants)
 2. Import the roster document (roles, workers, tasks, equipment)
 3. Store last week's history as the previous week's plan
 4. Generate the requested week with the server's default mode

USAGE VIA API:
	POST /api/scenarios/load
	{"scenario_id": "ten-worker", "week": "2026-03-02"}

NOTE:
  Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - factory/import.go: Import
  - factory/catalog.go: Roster document types
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/warp/roster-engine/factory"
	"github.com/warp/roster-engine/roster"
)

// equipmentNamespace derives stable equipment ids from serial numbers.
var equipmentNamespace = uuid.MustParse("6f1c7a52-3d0e-4c59-9a51-2b1f0e6b8c11")

// EquipmentID returns the id demo scenarios use for a serial.
func EquipmentID(serial string) string {
	return uuid.NewSHA1(equipmentNamespace, []byte(serial)).String()
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "ten-worker",
		Name:        "Ten Worker Week",
		Description: "Six permanents rotate, four fixed-term workers level the load",
	},
	{
		ID:          "forklift-shortage",
		Name:        "Forklift Shortage",
		Description: "Two loaders on the same shift compete for one working forklift",
	},
	{
		ID:          "mixed-crew",
		Name:        "Mixed Crew",
		Description: "Operators and technicians with inactive and unschedulable workers",
	},
}

var scenarioBuilders = map[string]func() factory.RosterJSON{
	"ten-worker":        tenWorkerRoster,
	"forklift-shortage": forkliftShortageRoster,
	"mixed-crew":        mixedCrewRoster,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store, imports a demo roster and generates a week.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	build, ok := scenarioBuilders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown scenario: "+req.ScenarioID, nil)
		return
	}
	week := roster.WeekOf(h.Now())
	if req.Week != "" {
		var err error
		if week, err = roster.ParseWeek(req.Week); err != nil {
			h.writeDomainError(w, "Invalid week", err)
			return
		}
	}

	doc := build()
	doc.Week = string(week)
	parsed, err := factory.FromJSON(doc)
	if err != nil {
		h.writeDomainError(w, "Invalid scenario roster", err)
		return
	}

	ctx := r.Context()
	tenant := tenantFrom(r)
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := factory.Import(ctx, h.Store, tenant, parsed); err != nil {
		h.writeDomainError(w, "Failed to load scenario", err)
		return
	}
	out, err := h.Planner.Generate(ctx, tenant, week, h.DefaultMode)
	if err != nil {
		h.writeDomainError(w, "Failed to generate scenario week", err)
		return
	}
	catalog, err := roster.LoadCatalog(ctx, h.Store, tenant)
	if err != nil {
		h.writeDomainError(w, "Failed to load catalog", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == req.ScenarioID {
			writeJSON(w, http.StatusOK, LoadScenarioResponse{
				Scenario:  s,
				Generated: toGenerateResponse(tenant, h.DefaultMode, out, catalog),
			})
			return
		}
	}
}

// =============================================================================
// ROSTERS
// =============================================================================

func shifts(codes ...string) *[]string { return &codes }

func inactive() *bool {
	f := false
	return &f
}

func standardRoles() []factory.RoleJSON {
	return []factory.RoleJSON{
		{Code: "operator", Name: "Operator"},
		{Code: "technician", Name: "Technician"},
	}
}

func forklift(serial, variant, status, role string) factory.EquipmentJSON {
	return factory.EquipmentJSON{
		ID:      EquipmentID(serial),
		Serial:  serial,
		Role:    role,
		Type:    "forklift",
		Variant: variant,
		Status:  status,
	}
}

// tenWorkerRoster: with this history the balancer puts p1 on night, rotates
// p2 and p3, steers p4 and p5 inside their sets, and the fixed-term
// workers end at loads 4/3/3.
func tenWorkerRoster() factory.RosterJSON {
	return factory.RosterJSON{
		Roles: standardRoles(),
		Workers: []factory.WorkerJSON{
			{ID: "p1", Name: "Ana Souza", Role: "operator", ShiftMode: "fixed", FixedShift: "third", SpecialtyTask: "load"},
			{ID: "p2", Name: "Ben Okafor", Role: "operator", SpecialtyTask: "load"},
			{ID: "p3", Name: "Cleo Martin", Role: "operator"},
			{ID: "p4", Name: "Dan Ito", Role: "technician", AllowedShifts: shifts("first", "second"), SpecialtyTask: "maint"},
			{ID: "p5", Name: "Eve Laurent", Role: "operator", AllowedShifts: shifts("second", "third")},
			{ID: "p6", Name: "Finn Berg", Role: "technician"},
			{ID: "f1", Name: "Gia Rossi", Role: "operator", Contract: "fixed_term", SpecialtyTask: "pick"},
			{ID: "f2", Name: "Hal Novak", Role: "operator", Contract: "fixed_term"},
			{ID: "f3", Name: "Ines Costa", Role: "operator", Contract: "fixed_term", SpecialtyTask: "load"},
			{ID: "f4", Name: "Jon Meyer", Role: "operator", Contract: "fixed_term"},
		},
		Tasks: []factory.TaskJSON{
			{ID: "load", Name: "Loading", Roles: []string{"operator"}, Equipment: &factory.RequirementJSON{Type: "forklift", Variant: "electric"}},
			{ID: "pick", Name: "Picking", Roles: []string{"operator"}},
			{ID: "maint", Name: "Maintenance", Roles: []string{"technician"}},
		},
		Equipment: []factory.EquipmentJSON{
			forklift("FL-001", "electric", "", ""),
			forklift("FL-002", "electric", "", ""),
			forklift("FL-003", "diesel", "", ""),
		},
		History: map[string]string{"p2": "first", "p3": "third", "p4": "first", "p5": "second"},
	}
}

func forkliftShortageRoster() factory.RosterJSON {
	return factory.RosterJSON{
		Roles: standardRoles(),
		Workers: []factory.WorkerJSON{
			{ID: "a1", Name: "Alex Dumas", Role: "operator", ShiftMode: "fixed", FixedShift: "first", SpecialtyTask: "load"},
			{ID: "a2", Name: "Bo Lindqvist", Role: "operator", ShiftMode: "fixed", FixedShift: "first", SpecialtyTask: "load"},
			{ID: "a3", Name: "Cas Moreau", Role: "operator", ShiftMode: "fixed", FixedShift: "second", SpecialtyTask: "load"},
		},
		Tasks: []factory.TaskJSON{
			{ID: "load", Name: "Loading", Roles: []string{"operator"}, Equipment: &factory.RequirementJSON{Type: "forklift"}},
		},
		Equipment: []factory.EquipmentJSON{
			forklift("FL-101", "electric", "", ""),
			forklift("FL-102", "electric", "broken", ""),
		},
	}
}

func mixedCrewRoster() factory.RosterJSON {
	return factory.RosterJSON{
		Roles: standardRoles(),
		Workers: []factory.WorkerJSON{
			{ID: "m1", Name: "Mara Quinn", Role: "operator", SpecialtyTask: "load"},
			{ID: "m2", Name: "Nils Ek", Role: "operator", Contract: "fixed_term", AllowedShifts: shifts("third")},
			{ID: "m3", Name: "Omar Haddad", Role: "technician", SpecialtyTask: "repair"},
			{ID: "m4", Name: "Pia Wolff", Role: "technician", Contract: "fixed_term", Active: inactive()},
			{ID: "m5", Name: "Quin Lee", Role: "operator", AllowedShifts: shifts()},
			{ID: "m6", Name: "Rae Kim", Role: "technician", Contract: "fixed_term", SpecialtyTask: "repair"},
		},
		Tasks: []factory.TaskJSON{
			{ID: "load", Name: "Loading", Roles: []string{"operator"}, Equipment: &factory.RequirementJSON{Type: "forklift"}},
			{ID: "repair", Name: "Repair", Roles: []string{"technician"}, Equipment: &factory.RequirementJSON{Type: "toolcart"}},
		},
		Equipment: []factory.EquipmentJSON{
			forklift("FL-201", "electric", "", "operator"),
			forklift("FL-202", "diesel", "maintenance", ""),
			{ID: EquipmentID("TC-01"), Serial: "TC-01", Type: "toolcart", Role: "technician"},
			{ID: EquipmentID("TC-02"), Serial: "TC-02", Type: "toolcart", Status: "retired"},
		},
		History: map[string]string{"m1": "second", "m3": "first"},
	}
}
