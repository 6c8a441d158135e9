// Package store provides in-process implementations of the roster storage
// interfaces.
package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements roster.CatalogStore and roster.PlanStore.
//
// Catalog writes are rare and go through one RWMutex. Plans are read and
// written per (tenant, week) by the scheduler and API concurrently, so they
// live in an xsync.Map and version checks happen inside Compute.
type Memory struct {
	mu       sync.RWMutex
	catalogs map[roster.TenantID]*tenantCatalog
	plans    *xsync.Map[planKey, *roster.WeekPlan]
}

type tenantCatalog struct {
	workers   map[roster.WorkerID]roster.Worker
	tasks     map[roster.TaskID]roster.Task
	equipment map[roster.EquipmentID]roster.Equipment
	roles     map[roster.RoleCode]roster.Role
}

type planKey struct {
	Tenant roster.TenantID
	Week   roster.WeekKey
}

func NewMemory() *Memory {
	return &Memory{
		catalogs: make(map[roster.TenantID]*tenantCatalog),
		plans:    xsync.NewMap[planKey, *roster.WeekPlan](),
	}
}

func (m *Memory) tenantLocked(tenant roster.TenantID) *tenantCatalog {
	c, ok := m.catalogs[tenant]
	if !ok {
		c = &tenantCatalog{
			workers:   make(map[roster.WorkerID]roster.Worker),
			tasks:     make(map[roster.TaskID]roster.Task),
			equipment: make(map[roster.EquipmentID]roster.Equipment),
			roles:     make(map[roster.RoleCode]roster.Role),
		}
		m.catalogs[tenant] = c
	}
	return c
}

// =============================================================================
// CATALOGS
// =============================================================================

func (m *Memory) SaveWorker(_ context.Context, tenant roster.TenantID, w roster.Worker) error {
	if err := w.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenantLocked(tenant).workers[w.ID] = w
	return nil
}

func (m *Memory) DeleteWorker(_ context.Context, tenant roster.TenantID, id roster.WorkerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.tenantLocked(tenant)
	if _, ok := c.workers[id]; !ok {
		return roster.ErrWorkerNotFound
	}
	delete(c.workers, id)
	return nil
}

// ListWorkers returns workers ordered by id.
func (m *Memory) ListWorkers(_ context.Context, tenant roster.TenantID) ([]roster.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.catalogs[tenant]
	if !ok {
		return nil, nil
	}
	return sortedValues(c.workers, func(w roster.Worker) roster.WorkerID { return w.ID }), nil
}

func (m *Memory) SaveTask(_ context.Context, tenant roster.TenantID, t roster.Task) error {
	if t.ID == "" {
		return &roster.ValidationError{Field: "task.id", Reason: "required"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenantLocked(tenant).tasks[t.ID] = t
	return nil
}

func (m *Memory) DeleteTask(_ context.Context, tenant roster.TenantID, id roster.TaskID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.tenantLocked(tenant)
	if _, ok := c.tasks[id]; !ok {
		return roster.ErrTaskNotFound
	}
	delete(c.tasks, id)
	return nil
}

func (m *Memory) ListTasks(_ context.Context, tenant roster.TenantID) ([]roster.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.catalogs[tenant]
	if !ok {
		return nil, nil
	}
	return sortedValues(c.tasks, func(t roster.Task) roster.TaskID { return t.ID }), nil
}

func (m *Memory) SaveEquipment(_ context.Context, tenant roster.TenantID, e roster.Equipment) error {
	if e.ID == "" {
		return &roster.ValidationError{Field: "equipment.id", Reason: "required"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.tenantLocked(tenant)
	for _, other := range c.equipment {
		if other.ID != e.ID && other.Serial == e.Serial {
			return &roster.ValidationError{Field: "equipment.serial", Reason: "duplicate " + e.Serial}
		}
	}
	c.equipment[e.ID] = e
	return nil
}

func (m *Memory) DeleteEquipment(_ context.Context, tenant roster.TenantID, id roster.EquipmentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.tenantLocked(tenant)
	if _, ok := c.equipment[id]; !ok {
		return roster.ErrEquipmentNotFound
	}
	delete(c.equipment, id)
	return nil
}

func (m *Memory) ListEquipment(_ context.Context, tenant roster.TenantID) ([]roster.Equipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.catalogs[tenant]
	if !ok {
		return nil, nil
	}
	return sortedValues(c.equipment, func(e roster.Equipment) roster.EquipmentID { return e.ID }), nil
}

func (m *Memory) SaveRole(_ context.Context, tenant roster.TenantID, r roster.Role) error {
	if r.Code == "" {
		return &roster.ValidationError{Field: "role.code", Reason: "required"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenantLocked(tenant).roles[r.Code] = r
	return nil
}

func (m *Memory) ListRoles(_ context.Context, tenant roster.TenantID) ([]roster.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.catalogs[tenant]
	if !ok {
		return nil, nil
	}
	return sortedValues(c.roles, func(r roster.Role) roster.RoleCode { return r.Code }), nil
}

func sortedValues[K cmp.Ordered, V any](m map[K]V, key func(V) K) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b V) int { return cmp.Compare(key(a), key(b)) })
	return out
}

// =============================================================================
// PLANS
// =============================================================================

// GetPlan returns a copy of the stored plan.
func (m *Memory) GetPlan(_ context.Context, tenant roster.TenantID, week roster.WeekKey) (*roster.WeekPlan, error) {
	p, ok := m.plans.Load(planKey{Tenant: tenant, Week: week})
	if !ok {
		return nil, roster.ErrPlanNotFound
	}
	return p.Clone(), nil
}

// SavePlan stores a copy of plan when the stored version matches expected.
func (m *Memory) SavePlan(_ context.Context, tenant roster.TenantID, plan *roster.WeekPlan, expected int64) (int64, error) {
	if err := plan.Validate(); err != nil {
		return 0, err
	}
	k := planKey{Tenant: tenant, Week: plan.Week}

	var conflict *roster.ConflictError
	stored, _ := m.plans.Compute(k, func(old *roster.WeekPlan, loaded bool) (*roster.WeekPlan, xsync.ComputeOp) {
		var current int64
		if loaded {
			current = old.Version
		}
		if current != expected {
			conflict = &roster.ConflictError{Tenant: tenant, Week: plan.Week, Expected: expected, Actual: current}
			return old, xsync.CancelOp
		}
		next := plan.Clone()
		next.Version = current + 1
		return next, xsync.UpdateOp
	})
	if conflict != nil {
		return 0, conflict
	}
	plan.Version = stored.Version
	return stored.Version, nil
}

// ListWeeks returns the tenant's stored weeks, oldest first.
func (m *Memory) ListWeeks(_ context.Context, tenant roster.TenantID) ([]roster.WeekKey, error) {
	var weeks []roster.WeekKey
	m.plans.Range(func(k planKey, _ *roster.WeekPlan) bool {
		if k.Tenant == tenant {
			weeks = append(weeks, k.Week)
		}
		return true
	})
	slices.Sort(weeks)
	return weeks, nil
}

// Reset clears all data (for testing/demo).
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogs = make(map[roster.TenantID]*tenantCatalog)
	m.plans.Clear()
	return nil
}

var (
	_ roster.CatalogStore = (*Memory)(nil)
	_ roster.PlanStore    = (*Memory)(nil)
)
