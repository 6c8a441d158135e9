/*
store.go - Persistence interfaces consumed by the planner

The engine never touches storage. These interfaces describe what the
administrative layer provides: catalogs keyed by tenant, and week plans keyed
by (tenant, week).

PLAN WRITES:
  Plans are replaced wholesale, never merged. SavePlan takes the version the
  caller last read (0 for "expect no plan") and fails with a *ConflictError
  when another writer got there first. On success the stored version is
  returned and the plan's Version field updated.

IMPLEMENTATIONS:
  - roster/store/memory.go: in-memory (tests, dev)
  - store/sqlite/sqlite.go: SQLite
*/
package roster

import "context"

// CatalogStore persists the long-lived catalogs.
type CatalogStore interface {
	SaveWorker(ctx context.Context, tenant TenantID, w Worker) error
	DeleteWorker(ctx context.Context, tenant TenantID, id WorkerID) error
	ListWorkers(ctx context.Context, tenant TenantID) ([]Worker, error)

	SaveTask(ctx context.Context, tenant TenantID, t Task) error
	DeleteTask(ctx context.Context, tenant TenantID, id TaskID) error
	ListTasks(ctx context.Context, tenant TenantID) ([]Task, error)

	SaveEquipment(ctx context.Context, tenant TenantID, e Equipment) error
	DeleteEquipment(ctx context.Context, tenant TenantID, id EquipmentID) error
	ListEquipment(ctx context.Context, tenant TenantID) ([]Equipment, error)

	SaveRole(ctx context.Context, tenant TenantID, r Role) error
	ListRoles(ctx context.Context, tenant TenantID) ([]Role, error)
}

// PlanStore persists week plans with optimistic concurrency.
type PlanStore interface {
	// GetPlan returns ErrPlanNotFound when nothing is stored.
	GetPlan(ctx context.Context, tenant TenantID, week WeekKey) (*WeekPlan, error)

	// SavePlan replaces the stored plan if its version equals expected.
	SavePlan(ctx context.Context, tenant TenantID, plan *WeekPlan, expected int64) (int64, error)

	// ListWeeks returns stored week keys in ascending order.
	ListWeeks(ctx context.Context, tenant TenantID) ([]WeekKey, error)
}

// LoadCatalog reads all four catalogs for tenant and indexes them.
func LoadCatalog(ctx context.Context, s CatalogStore, tenant TenantID) (*Catalog, error) {
	workers, err := s.ListWorkers(ctx, tenant)
	if err != nil {
		return nil, err
	}
	tasks, err := s.ListTasks(ctx, tenant)
	if err != nil {
		return nil, err
	}
	equipment, err := s.ListEquipment(ctx, tenant)
	if err != nil {
		return nil, err
	}
	roles, err := s.ListRoles(ctx, tenant)
	if err != nil {
		return nil, err
	}
	return NewCatalog(workers, tasks, equipment, roles), nil
}
