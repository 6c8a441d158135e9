/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Catalog records reuse
  the factory document types so that an imported roster file and the CRUD
  endpoints accept the same shapes.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Catalog:   factory.WorkerJSON, TaskJSON, EquipmentJSON, RoleJSON
  Plans:     PlanDTO, PlanRowDTO, GenerateRequest, GenerateResponse,
             EditRequest, EquipmentResponse
  Reports:   ReportDTO and its tree nodes
  Scenarios: ScenarioDTO, LoadScenarioRequest, LoadScenarioResponse

SHIFT KEYS:
  Shifts are always the codes "first", "second", "third". Maps keyed by shift
  encode with sorted keys; ordered data uses slices in priority order.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/catalog.go: Catalog JSON definitions
*/
package api

import (
	"fmt"

	"github.com/warp/roster-engine/planning"
	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// PLANS
// =============================================================================

// PlanRowDTO is one worker's row in a shift column.
type PlanRowDTO struct {
	WorkerID    string `json:"worker_id"`
	Name        string `json:"name,omitempty"`
	TaskID      string `json:"task_id,omitempty"`
	EquipmentID string `json:"equipment_id,omitempty"`
	Provenance  string `json:"provenance"`
}

// PlanDTO is the board form of a stored week.
type PlanDTO struct {
	Tenant      string                  `json:"tenant"`
	Week        string                  `json:"week"`
	Version     int64                   `json:"version"`
	Fingerprint string                  `json:"fingerprint"`
	Columns     map[string][]PlanRowDTO `json:"columns"`
}

// GenerateRequest selects the generation mode. An empty body uses the
// server default.
type GenerateRequest struct {
	Mode string `json:"mode,omitempty"`
}

type UnscheduledDTO struct {
	WorkerID string `json:"worker_id"`
	Reason   string `json:"reason"`
}

type ShortageDTO struct {
	WorkerID string `json:"worker_id"`
	Shift    string `json:"shift,omitempty"`
	TaskID   string `json:"task_id"`
	Type     string `json:"type"`
	Variant  string `json:"variant,omitempty"`
	Eligible int    `json:"eligible"`
}

// GenerateResponse is returned by generate and equipment runs.
type GenerateResponse struct {
	Plan        PlanDTO          `json:"plan"`
	Mode        string           `json:"mode,omitempty"`
	Unscheduled []UnscheduledDTO `json:"unscheduled"`
	Shortages   []ShortageDTO    `json:"shortages"`
	Loads       map[string]int   `json:"loads,omitempty"`
}

// EditRequest is a manual board edit for one worker. Omitted fields are
// unchanged; "" clears task or equipment.
type EditRequest struct {
	Shift     *string `json:"shift,omitempty"`
	Task      *string `json:"task,omitempty"`
	Equipment *string `json:"equipment,omitempty"`
	Remove    bool    `json:"remove,omitempty"`
	Version   int64   `json:"version,omitempty"` // version the edit was made against
}

// =============================================================================
// REPORTS
// =============================================================================

type ShiftTotalDTO struct {
	Shift string `json:"shift"`
	Label string `json:"label"`
	Count int    `json:"count"`
	Share string `json:"share"` // percent, one decimal place
}

type TaskCountDTO struct {
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Invalid bool   `json:"invalid,omitempty"`
}

type GroupNodeDTO struct {
	Name  string         `json:"name"`
	Total int            `json:"total"`
	Tasks []TaskCountDTO `json:"tasks"`
}

type ShiftNodeDTO struct {
	Shift  string         `json:"shift"`
	Total  int            `json:"total"`
	Groups []GroupNodeDTO `json:"groups"`
}

type WarningDTO struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Count     int      `json:"count"`
	WorkerIDs []string `json:"worker_ids,omitempty"`
}

// ReportDTO is the aggregation report of a week.
type ReportDTO struct {
	Week        string          `json:"week"`
	Total       int             `json:"total"`
	Totals      []ShiftTotalDTO `json:"totals"`
	Tree        []ShiftNodeDTO  `json:"tree"`
	Warnings    []WarningDTO    `json:"warnings"`
	Fingerprint string          `json:"fingerprint"`
}

// =============================================================================
// SCENARIOS / ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
	Week       string `json:"week,omitempty"` // defaults to the current week
}

type LoadScenarioResponse struct {
	Scenario  ScenarioDTO      `json:"scenario"`
	Generated GenerateResponse `json:"generated"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func etag(fp uint64) string { return fmt.Sprintf(`"%016x"`, fp) }

// planETag carries the version too: equipment runs and regenerations can
// bump the version without changing the board.
func planETag(plan *roster.WeekPlan) string {
	return fmt.Sprintf(`"%016x-v%d"`, plan.Fingerprint(), plan.Version)
}

func toPlanDTO(tenant roster.TenantID, plan *roster.WeekPlan, catalog *roster.Catalog) PlanDTO {
	dto := PlanDTO{
		Tenant:      string(tenant),
		Week:        string(plan.Week),
		Version:     plan.Version,
		Fingerprint: fmt.Sprintf("%016x", plan.Fingerprint()),
		Columns:     make(map[string][]PlanRowDTO, len(roster.Priority)),
	}
	for _, s := range roster.Priority {
		rows := make([]PlanRowDTO, 0, len(plan.Columns[s]))
		for _, id := range plan.Columns[s] {
			row := PlanRowDTO{
				WorkerID:    string(id),
				TaskID:      string(plan.Tasks[id]),
				EquipmentID: string(plan.Equipment[id]),
				Provenance:  string(plan.Provenance[id]),
			}
			if row.Provenance == "" {
				row.Provenance = string(roster.ProvenanceGenerated)
			}
			if catalog != nil {
				if w, ok := catalog.Worker(id); ok {
					row.Name = w.Name
				}
			}
			rows = append(rows, row)
		}
		dto.Columns[s.Code()] = rows
	}
	return dto
}

func toGenerateResponse(tenant roster.TenantID, mode planning.Mode, out *planning.Outcome, catalog *roster.Catalog) GenerateResponse {
	resp := GenerateResponse{
		Plan:        toPlanDTO(tenant, out.Plan, catalog),
		Mode:        string(mode),
		Unscheduled: make([]UnscheduledDTO, 0, len(out.Unscheduled)),
		Shortages:   make([]ShortageDTO, 0, len(out.Shortages)),
	}
	for _, u := range out.Unscheduled {
		resp.Unscheduled = append(resp.Unscheduled, UnscheduledDTO{WorkerID: string(u.WorkerID), Reason: string(u.Reason)})
	}
	for _, s := range out.Shortages {
		dto := ShortageDTO{
			WorkerID: string(s.WorkerID),
			TaskID:   string(s.TaskID),
			Type:     s.Requirement.Type,
			Variant:  s.Requirement.Variant,
			Eligible: s.Eligible,
		}
		if s.Shift.Valid() {
			dto.Shift = s.Shift.Code()
		}
		resp.Shortages = append(resp.Shortages, dto)
	}
	if mode != "" {
		resp.Loads = make(map[string]int, len(roster.Priority))
		for _, s := range roster.Priority {
			resp.Loads[s.Code()] = out.Loads.Of(s)
		}
	}
	return resp
}

func toReportDTO(rep *roster.Report) ReportDTO {
	dto := ReportDTO{
		Week:        string(rep.Week),
		Total:       rep.Total,
		Totals:      make([]ShiftTotalDTO, 0, len(rep.Totals)),
		Tree:        make([]ShiftNodeDTO, 0, len(rep.Tree)),
		Warnings:    make([]WarningDTO, 0, len(rep.Warnings)),
		Fingerprint: fmt.Sprintf("%016x", rep.Fingerprint()),
	}
	for _, t := range rep.Totals {
		dto.Totals = append(dto.Totals, ShiftTotalDTO{
			Shift: t.Shift.Code(),
			Label: t.Shift.Label(),
			Count: t.Count,
			Share: t.Share.StringFixed(1),
		})
	}
	for _, sn := range rep.Tree {
		node := ShiftNodeDTO{Shift: sn.Shift.Code(), Total: sn.Total, Groups: make([]GroupNodeDTO, 0, len(sn.Groups))}
		for _, g := range sn.Groups {
			gn := GroupNodeDTO{Name: g.Name, Total: g.Total, Tasks: make([]TaskCountDTO, 0, len(g.Tasks))}
			for _, tc := range g.Tasks {
				gn.Tasks = append(gn.Tasks, TaskCountDTO{Label: tc.Label, Count: tc.Count, Invalid: tc.Invalid})
			}
			node.Groups = append(node.Groups, gn)
		}
		dto.Tree = append(dto.Tree, node)
	}
	for _, w := range rep.Warnings {
		wd := WarningDTO{Code: string(w.Code), Message: w.Message, Count: w.Count}
		for _, id := range w.WorkerIDs {
			wd.WorkerIDs = append(wd.WorkerIDs, string(id))
		}
		dto.Warnings = append(dto.Warnings, wd)
	}
	return dto
}
