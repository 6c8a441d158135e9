package planning

import (
	"context"
	"errors"
	"fmt"

	"github.com/warp/roster-engine/notify"
	"github.com/warp/roster-engine/roster"
)

// Edit is a manual change to one worker's row on the board. Nil fields are
// left as they are; an empty TaskID or EquipmentID clears the field.
type Edit struct {
	Worker    roster.WorkerID
	Shift     *roster.Shift
	Remove    bool
	Task      *roster.TaskID
	Equipment *roster.EquipmentID

	// Expected is the plan version the caller edited. Zero skips the check
	// against the caller's copy; the store still checks the version read here.
	Expected int64
}

// Edit applies a manual change to the stored plan for week and marks the
// worker's placement manual. Edits that would put a worker in two columns or
// hand one unit to two workers of a shift are rejected.
//
// A week with no stored plan starts from an empty board.
func (p *Planner) Edit(ctx context.Context, tenant roster.TenantID, week roster.WeekKey, e Edit) (*roster.WeekPlan, error) {
	if !week.Valid() {
		return nil, fmt.Errorf("%q: %w", week, roster.ErrInvalidWeek)
	}
	plan, err := p.store.GetPlan(ctx, tenant, week)
	switch {
	case errors.Is(err, roster.ErrPlanNotFound):
		plan = roster.NewWeekPlan(week)
	case err != nil:
		return nil, err
	}
	if e.Expected != 0 && e.Expected != plan.Version {
		p.metrics.RecordConflict()
		return nil, &roster.ConflictError{Tenant: tenant, Week: week, Expected: e.Expected, Actual: plan.Version}
	}

	catalog, err := roster.LoadCatalog(ctx, p.store, tenant)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if err := applyEdit(plan, catalog, e); err != nil {
		return nil, err
	}
	if err := p.save(ctx, tenant, plan, plan.Version); err != nil {
		return nil, err
	}

	p.log.Info("plan edited", "tenant", tenant, "week", week, "worker", e.Worker, "version", plan.Version)
	p.publish(ctx, tenant, notify.EventPlanEdited, &Outcome{Plan: plan})
	return plan, nil
}

func applyEdit(plan *roster.WeekPlan, catalog *roster.Catalog, e Edit) error {
	w, ok := catalog.Worker(e.Worker)
	if !ok {
		return fmt.Errorf("%s: %w", e.Worker, roster.ErrWorkerNotFound)
	}
	if e.Remove {
		plan.Remove(w.ID)
		return nil
	}

	current, placed := plan.ShiftOf(w.ID)
	if e.Shift != nil {
		s := *e.Shift
		if !s.Valid() {
			return &roster.ValidationError{Field: "shift", Reason: fmt.Sprintf("invalid shift %d", int(s))}
		}
		if !w.Allows(s) {
			return &roster.ValidationError{Field: "shift", Reason: fmt.Sprintf("%s is not allowed for %s", s, w.ID)}
		}
		if !placed || current != s {
			// Equipment claims are per shift; a moved worker keeps only its task.
			task := plan.Tasks[w.ID]
			plan.Remove(w.ID)
			if task != "" {
				plan.Tasks[w.ID] = task
			}
			plan.Place(w.ID, s, roster.ProvenanceManual)
			current, placed = s, true
		}
	}
	if !placed {
		return &roster.ValidationError{Field: "shift", Reason: fmt.Sprintf("%s is not on the board", w.ID)}
	}
	plan.Provenance[w.ID] = roster.ProvenanceManual

	if e.Task != nil {
		if err := setTask(plan, catalog, w, *e.Task); err != nil {
			return err
		}
	}
	if e.Equipment != nil {
		if err := setEquipment(plan, catalog, current, w, *e.Equipment); err != nil {
			return err
		}
	}
	return plan.Validate()
}

func setTask(plan *roster.WeekPlan, catalog *roster.Catalog, w roster.Worker, id roster.TaskID) error {
	if id == "" {
		delete(plan.Tasks, w.ID)
		return nil
	}
	t, ok := catalog.Task(id)
	if !ok {
		return fmt.Errorf("%s: %w", id, roster.ErrTaskNotFound)
	}
	if !t.Active {
		return &roster.ValidationError{Field: "task", Reason: fmt.Sprintf("%s is inactive", id)}
	}
	plan.Tasks[w.ID] = t.ID
	return nil
}

func setEquipment(plan *roster.WeekPlan, catalog *roster.Catalog, shift roster.Shift, w roster.Worker, id roster.EquipmentID) error {
	if id == "" {
		delete(plan.Equipment, w.ID)
		return nil
	}
	unit, ok := catalog.Equipment(id)
	if !ok {
		return fmt.Errorf("%s: %w", id, roster.ErrEquipmentNotFound)
	}
	if unit.Status != roster.StatusOperational {
		return &roster.ValidationError{Field: "equipment", Reason: fmt.Sprintf("%s is %s", unit.Serial, unit.Status)}
	}
	if unit.Role != "" && unit.Role != w.Role {
		return &roster.ValidationError{Field: "equipment", Reason: fmt.Sprintf("%s is restricted to %s", unit.Serial, unit.Role)}
	}
	for _, other := range plan.Columns[shift] {
		if other != w.ID && plan.Equipment[other] == id {
			return &roster.ValidationError{Field: "equipment", Reason: fmt.Sprintf("%s already used by %s on %s", unit.Serial, other, shift)}
		}
	}
	plan.Equipment[w.ID] = id
	return nil
}
