/*
Package factory provides JSON to Go roster conversion.

PURPOSE:
  Converts JSON roster documents (workers, tasks, equipment, roles and the
  previous week's shifts) into roster types, validating the catalog
  invariants at the boundary so the engine never has to.

JSON SCHEMA:
  {
    "week": "2026-03-02",
    "roles":   [{"code": "operator", "name": "Operator"}],
    "workers": [
      {"id": "w1", "name": "Ana", "role": "operator", "contract": "permanent",
       "shift_mode": "fixed", "fixed_shift": "third", "allowed_shifts": ["third"]}
    ],
    "tasks": [
      {"id": "t1", "name": "Loading", "roles": ["operator"],
       "equipment": {"type": "forklift", "variant": "electric"}}
    ],
    "equipment": [
      {"id": "e1", "serial": "FL-001", "type": "forklift", "variant": "electric",
       "status": "operational"}
    ],
    "history": {"w1": "third"}
  }

DEFAULTS:
  - "active" defaults to true for roles, workers and tasks
  - "contract" defaults to permanent, "shift_mode" to rotating
  - "status" defaults to operational
  - "allowed_shifts" absent means every shift; [] means none

SHIFT NAMES:
  Accepts codes (first/second/third), labels (morning/afternoon/night) or
  1-3, case-insensitively.

SEE ALSO:
  - roster/types.go: Target types
  - roster/catalog.go: ValidateCatalog
  - api/handlers.go: Uses the per-entity converters for request bodies
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RosterJSON is a complete planning input.
type RosterJSON struct {
	Week      string            `json:"week,omitempty"`
	Roles     []RoleJSON        `json:"roles,omitempty"`
	Workers   []WorkerJSON      `json:"workers"`
	Tasks     []TaskJSON        `json:"tasks,omitempty"`
	Equipment []EquipmentJSON   `json:"equipment,omitempty"`
	History   map[string]string `json:"history,omitempty"` // worker id -> shift
}

type RoleJSON struct {
	Code   string `json:"code"`
	Name   string `json:"name,omitempty"`
	Active *bool  `json:"active,omitempty"`
}

type WorkerJSON struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	Contract      string    `json:"contract,omitempty"`
	ShiftMode     string    `json:"shift_mode,omitempty"`
	FixedShift    string    `json:"fixed_shift,omitempty"`
	AllowedShifts *[]string `json:"allowed_shifts,omitempty"` // nil = all shifts
	SpecialtyTask string    `json:"specialty_task,omitempty"`
	Active        *bool     `json:"active,omitempty"`
}

type TaskJSON struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Roles     []string         `json:"roles"`
	Active    *bool            `json:"active,omitempty"`
	Equipment *RequirementJSON `json:"equipment,omitempty"`
}

type RequirementJSON struct {
	Type    string `json:"type"`
	Variant string `json:"variant,omitempty"`
}

type EquipmentJSON struct {
	ID      string `json:"id"`
	Serial  string `json:"serial"`
	Role    string `json:"role,omitempty"`
	Type    string `json:"type"`
	Variant string `json:"variant,omitempty"`
	Status  string `json:"status,omitempty"`
}

// Roster is a parsed and validated RosterJSON.
type Roster struct {
	Week      roster.WeekKey // empty when the document names none
	Roles     []roster.Role
	Workers   []roster.Worker
	Tasks     []roster.Task
	Equipment []roster.Equipment
	History   map[roster.WorkerID]roster.Shift
}

// Catalog indexes the roster's snapshots.
func (r *Roster) Catalog() *roster.Catalog {
	return roster.NewCatalog(r.Workers, r.Tasks, r.Equipment, r.Roles)
}

// =============================================================================
// ROSTER FACTORY
// =============================================================================

// Parse parses and validates a roster document.
func Parse(data []byte) (*Roster, error) {
	var doc RosterJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse roster JSON: %w", err)
	}
	return FromJSON(doc)
}

// FromJSON converts a document to roster types. The whole catalog is
// validated; the first violation is returned.
func FromJSON(doc RosterJSON) (*Roster, error) {
	r := &Roster{History: make(map[roster.WorkerID]roster.Shift, len(doc.History))}

	if doc.Week != "" {
		w, err := roster.ParseWeek(doc.Week)
		if err != nil {
			return nil, err
		}
		r.Week = w
	}
	for _, rj := range doc.Roles {
		r.Roles = append(r.Roles, RoleFromJSON(rj))
	}
	for _, wj := range doc.Workers {
		w, err := WorkerFromJSON(wj)
		if err != nil {
			return nil, err
		}
		r.Workers = append(r.Workers, w)
	}
	for _, tj := range doc.Tasks {
		r.Tasks = append(r.Tasks, TaskFromJSON(tj))
	}
	for _, ej := range doc.Equipment {
		e, err := EquipmentFromJSON(ej)
		if err != nil {
			return nil, err
		}
		r.Equipment = append(r.Equipment, e)
	}
	for id, code := range doc.History {
		s, err := parseShift("history."+id, code)
		if err != nil {
			return nil, err
		}
		r.History[roster.WorkerID(id)] = s
	}

	if err := roster.ValidateCatalog(r.Workers, r.Tasks, r.Equipment, r.Roles); err != nil {
		return nil, err
	}
	return r, nil
}

// ToJSON converts a roster back into its document form.
func ToJSON(r *Roster) RosterJSON {
	doc := RosterJSON{Week: string(r.Week)}
	for _, role := range r.Roles {
		doc.Roles = append(doc.Roles, RoleToJSON(role))
	}
	for _, w := range r.Workers {
		doc.Workers = append(doc.Workers, WorkerToJSON(w))
	}
	for _, t := range r.Tasks {
		doc.Tasks = append(doc.Tasks, TaskToJSON(t))
	}
	for _, e := range r.Equipment {
		doc.Equipment = append(doc.Equipment, EquipmentToJSON(e))
	}
	if len(r.History) > 0 {
		doc.History = make(map[string]string, len(r.History))
		for id, s := range r.History {
			doc.History[string(id)] = s.Code()
		}
	}
	return doc
}

// =============================================================================
// PER-ENTITY CONVERTERS
// =============================================================================

func RoleFromJSON(rj RoleJSON) roster.Role {
	return roster.Role{Code: roster.RoleCode(rj.Code), Name: rj.Name, Active: boolOr(rj.Active, true)}
}

func RoleToJSON(r roster.Role) RoleJSON {
	return RoleJSON{Code: string(r.Code), Name: r.Name, Active: &r.Active}
}

// WorkerFromJSON converts and validates a single worker.
func WorkerFromJSON(wj WorkerJSON) (roster.Worker, error) {
	w := roster.Worker{
		ID:            roster.WorkerID(wj.ID),
		Name:          wj.Name,
		Role:          roster.RoleCode(wj.Role),
		Contract:      roster.ContractKind(wj.Contract),
		Mode:          roster.ShiftMode(wj.ShiftMode),
		SpecialtyTask: roster.TaskID(wj.SpecialtyTask),
		Active:        boolOr(wj.Active, true),
	}
	if w.Contract == "" {
		w.Contract = roster.ContractPermanent
	}
	if w.Mode == "" {
		w.Mode = roster.ModeRotating
	}
	if wj.FixedShift != "" {
		s, err := parseShift("fixed_shift", wj.FixedShift)
		if err != nil {
			return w, err
		}
		w.FixedShift = &s
	}
	if wj.AllowedShifts != nil {
		shifts := make([]roster.Shift, 0, len(*wj.AllowedShifts))
		for _, code := range *wj.AllowedShifts {
			s, err := parseShift("allowed_shifts", code)
			if err != nil {
				return w, err
			}
			shifts = append(shifts, s)
		}
		set := roster.NewShiftSet(shifts...)
		w.AllowedShifts = &set
	}
	if err := w.Validate(); err != nil {
		return w, err
	}
	return w, nil
}

func WorkerToJSON(w roster.Worker) WorkerJSON {
	wj := WorkerJSON{
		ID:            string(w.ID),
		Name:          w.Name,
		Role:          string(w.Role),
		Contract:      string(w.Contract),
		ShiftMode:     string(w.Mode),
		SpecialtyTask: string(w.SpecialtyTask),
		Active:        &w.Active,
	}
	if w.FixedShift != nil {
		wj.FixedShift = w.FixedShift.Code()
	}
	if w.AllowedShifts != nil {
		codes := make([]string, 0, w.AllowedShifts.Len())
		for _, s := range w.AllowedShifts.Members() {
			codes = append(codes, s.Code())
		}
		wj.AllowedShifts = &codes
	}
	return wj
}

func TaskFromJSON(tj TaskJSON) roster.Task {
	t := roster.Task{
		ID:     roster.TaskID(tj.ID),
		Name:   tj.Name,
		Roles:  make([]roster.RoleCode, 0, len(tj.Roles)),
		Active: boolOr(tj.Active, true),
	}
	for _, r := range tj.Roles {
		t.Roles = append(t.Roles, roster.RoleCode(r))
	}
	if tj.Equipment != nil {
		t.Equipment = &roster.EquipmentRequirement{Type: tj.Equipment.Type, Variant: tj.Equipment.Variant}
	}
	return t
}

func TaskToJSON(t roster.Task) TaskJSON {
	tj := TaskJSON{ID: string(t.ID), Name: t.Name, Roles: make([]string, 0, len(t.Roles)), Active: &t.Active}
	for _, r := range t.Roles {
		tj.Roles = append(tj.Roles, string(r))
	}
	if t.Equipment != nil {
		tj.Equipment = &RequirementJSON{Type: t.Equipment.Type, Variant: t.Equipment.Variant}
	}
	return tj
}

// EquipmentFromJSON converts a unit, defaulting its status to operational.
func EquipmentFromJSON(ej EquipmentJSON) (roster.Equipment, error) {
	e := roster.Equipment{
		ID:      roster.EquipmentID(ej.ID),
		Serial:  ej.Serial,
		Role:    roster.RoleCode(ej.Role),
		Type:    ej.Type,
		Variant: ej.Variant,
		Status:  roster.EquipmentStatus(ej.Status),
	}
	switch e.Status {
	case "":
		e.Status = roster.StatusOperational
	case roster.StatusOperational, roster.StatusMaintenance, roster.StatusBroken, roster.StatusRetired:
	default:
		return e, &roster.ValidationError{Field: "equipment.status", Reason: fmt.Sprintf("unknown status %q", ej.Status)}
	}
	if e.Type == "" {
		return e, &roster.ValidationError{Field: "equipment.type", Reason: "required"}
	}
	return e, nil
}

func EquipmentToJSON(e roster.Equipment) EquipmentJSON {
	return EquipmentJSON{
		ID:      string(e.ID),
		Serial:  e.Serial,
		Role:    string(e.Role),
		Type:    e.Type,
		Variant: e.Variant,
		Status:  string(e.Status),
	}
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseShift(field, s string) (roster.Shift, error) {
	shift, err := roster.ParseShift(s)
	if err != nil {
		return 0, &roster.ValidationError{Field: field, Reason: err.Error()}
	}
	return shift, nil
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
