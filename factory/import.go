package factory

import (
	"context"
	"errors"

	"github.com/warp/roster-engine/roster"
)

// Store receives an imported roster.
type Store interface {
	roster.CatalogStore
	roster.PlanStore
}

// Import saves every record of r for tenant. When r names a week and
// carries history, the history is stored as the previous week's plan so
// that generation picks it up; an existing plan for that week is replaced.
func Import(ctx context.Context, s Store, tenant roster.TenantID, r *Roster) error {
	for _, role := range r.Roles {
		if err := s.SaveRole(ctx, tenant, role); err != nil {
			return err
		}
	}
	for _, w := range r.Workers {
		if err := s.SaveWorker(ctx, tenant, w); err != nil {
			return err
		}
	}
	for _, t := range r.Tasks {
		if err := s.SaveTask(ctx, tenant, t); err != nil {
			return err
		}
	}
	for _, e := range r.Equipment {
		if err := s.SaveEquipment(ctx, tenant, e); err != nil {
			return err
		}
	}
	if r.Week == "" || len(r.History) == 0 {
		return nil
	}

	prev := r.HistoryPlan()
	var expected int64
	switch existing, err := s.GetPlan(ctx, tenant, prev.Week); {
	case err == nil:
		expected = existing.Version
	case !errors.Is(err, roster.ErrPlanNotFound):
		return err
	}
	_, err := s.SavePlan(ctx, tenant, prev, expected)
	return err
}

// HistoryPlan returns the history as a plan for the week before r.Week.
// Columns follow worker order.
func (r *Roster) HistoryPlan() *roster.WeekPlan {
	prev := roster.NewWeekPlan(r.Week.Previous())
	for _, s := range roster.Priority {
		for _, w := range r.Workers {
			if placed, ok := r.History[w.ID]; ok && placed == s {
				prev.Place(w.ID, s, roster.ProvenanceGenerated)
			}
		}
	}
	return prev
}
