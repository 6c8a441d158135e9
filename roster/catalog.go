package roster

import (
	"cmp"
	"slices"
)

// =============================================================================
// CATALOG - read-only indexed view built once per invocation
// =============================================================================

// Catalog indexes workers, tasks, equipment and roles by id. It is built once
// from snapshots and never mutated afterwards, so one Catalog can be shared by
// every step of a pipeline (and across goroutines).
type Catalog struct {
	workers   []Worker
	tasks     []Task
	equipment []Equipment // sorted by serial ascending
	roles     []Role

	workerByID    map[WorkerID]*Worker
	taskByID      map[TaskID]*Task
	equipmentByID map[EquipmentID]*Equipment
	roleByCode    map[RoleCode]*Role
}

// NewCatalog copies the given snapshots into a new index. Later duplicates of
// an id shadow earlier ones in lookups; use ValidateCatalog to reject them.
func NewCatalog(workers []Worker, tasks []Task, equipment []Equipment, roles []Role) *Catalog {
	c := &Catalog{
		workers:       slices.Clone(workers),
		tasks:         slices.Clone(tasks),
		equipment:     slices.Clone(equipment),
		roles:         slices.Clone(roles),
		workerByID:    make(map[WorkerID]*Worker, len(workers)),
		taskByID:      make(map[TaskID]*Task, len(tasks)),
		equipmentByID: make(map[EquipmentID]*Equipment, len(equipment)),
		roleByCode:    make(map[RoleCode]*Role, len(roles)),
	}
	slices.SortStableFunc(c.equipment, func(a, b Equipment) int {
		if n := cmp.Compare(a.Serial, b.Serial); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, b.ID)
	})
	for i := range c.workers {
		c.workerByID[c.workers[i].ID] = &c.workers[i]
	}
	for i := range c.tasks {
		c.taskByID[c.tasks[i].ID] = &c.tasks[i]
	}
	for i := range c.equipment {
		c.equipmentByID[c.equipment[i].ID] = &c.equipment[i]
	}
	for i := range c.roles {
		c.roleByCode[c.roles[i].Code] = &c.roles[i]
	}
	return c
}

func (c *Catalog) Worker(id WorkerID) (Worker, bool) {
	w, ok := c.workerByID[id]
	if !ok {
		return Worker{}, false
	}
	return *w, true
}

func (c *Catalog) Task(id TaskID) (Task, bool) {
	t, ok := c.taskByID[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

func (c *Catalog) Equipment(id EquipmentID) (Equipment, bool) {
	e, ok := c.equipmentByID[id]
	if !ok {
		return Equipment{}, false
	}
	return *e, true
}

func (c *Catalog) Role(code RoleCode) (Role, bool) {
	r, ok := c.roleByCode[code]
	if !ok {
		return Role{}, false
	}
	return *r, true
}

// Workers returns the workers in input order.
func (c *Catalog) Workers() []Worker { return slices.Clone(c.workers) }

// Tasks returns the tasks in input order.
func (c *Catalog) Tasks() []Task { return slices.Clone(c.tasks) }

// EquipmentBySerial returns all equipment sorted by serial ascending.
func (c *Catalog) EquipmentBySerial() []Equipment { return slices.Clone(c.equipment) }

// Roles returns the roles in input order.
func (c *Catalog) Roles() []Role { return slices.Clone(c.roles) }

// ActiveWorkers returns active workers in input order.
func (c *Catalog) ActiveWorkers() []Worker {
	out := make([]Worker, 0, len(c.workers))
	for _, w := range c.workers {
		if w.Active {
			out = append(out, w)
		}
	}
	return out
}

// AllowedTaskNames returns the names of active tasks permitted for group,
// keyed for membership tests.
func (c *Catalog) AllowedTaskNames(group string) map[string]bool {
	names := make(map[string]bool)
	for _, t := range c.tasks {
		if t.Active && t.Permits(RoleCode(group)) {
			names[t.Name] = true
		}
	}
	return names
}

// ValidateCatalog checks the cross-record invariants: unique ids, unique
// equipment serials, per-worker invariants, and references to known roles and
// tasks when those catalogs are non-empty.
func ValidateCatalog(workers []Worker, tasks []Task, equipment []Equipment, roles []Role) error {
	roleCodes := make(map[RoleCode]bool, len(roles))
	for _, r := range roles {
		if r.Code == "" {
			return &ValidationError{Field: "role.code", Reason: "required"}
		}
		if roleCodes[r.Code] {
			return &ValidationError{Field: "role.code", Reason: "duplicate " + string(r.Code)}
		}
		roleCodes[r.Code] = true
	}
	knownRole := func(code RoleCode) bool { return len(roles) == 0 || roleCodes[code] }

	taskIDs := make(map[TaskID]bool, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			return &ValidationError{Field: "task.id", Reason: "required"}
		}
		if taskIDs[t.ID] {
			return &ValidationError{Field: "task.id", Reason: "duplicate " + string(t.ID)}
		}
		taskIDs[t.ID] = true
		for _, code := range t.Roles {
			if !knownRole(code) {
				return &ValidationError{Field: "task.roles", Reason: "unknown role " + string(code)}
			}
		}
		if t.Equipment != nil && t.Equipment.Type == "" {
			return &ValidationError{Field: "task.equipment.type", Reason: "required when equipment is set"}
		}
	}

	workerIDs := make(map[WorkerID]bool, len(workers))
	for _, w := range workers {
		if err := w.Validate(); err != nil {
			return err
		}
		if workerIDs[w.ID] {
			return &ValidationError{Field: "worker.id", Reason: "duplicate " + string(w.ID)}
		}
		workerIDs[w.ID] = true
		if !knownRole(w.Role) {
			return &ValidationError{Field: "worker.role", Reason: "unknown role " + string(w.Role)}
		}
		if w.SpecialtyTask != "" && len(tasks) > 0 && !taskIDs[w.SpecialtyTask] {
			return &ValidationError{Field: "worker.specialty_task", Reason: "unknown task " + string(w.SpecialtyTask)}
		}
	}

	equipmentIDs := make(map[EquipmentID]bool, len(equipment))
	serials := make(map[string]bool, len(equipment))
	for _, e := range equipment {
		if e.ID == "" {
			return &ValidationError{Field: "equipment.id", Reason: "required"}
		}
		if equipmentIDs[e.ID] {
			return &ValidationError{Field: "equipment.id", Reason: "duplicate " + string(e.ID)}
		}
		equipmentIDs[e.ID] = true
		if serials[e.Serial] {
			return &ValidationError{Field: "equipment.serial", Reason: "duplicate " + e.Serial}
		}
		serials[e.Serial] = true
		if e.Role != "" && !knownRole(e.Role) {
			return &ValidationError{Field: "equipment.role", Reason: "unknown role " + string(e.Role)}
		}
	}
	return nil
}
