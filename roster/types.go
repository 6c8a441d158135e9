package roster

import (
	"fmt"
	"slices"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WorkerID string
type TaskID string
type EquipmentID string
type RoleCode string
type TenantID string

// =============================================================================
// WORKER
// =============================================================================

type ContractKind string

const (
	ContractPermanent ContractKind = "permanent"
	ContractFixedTerm ContractKind = "fixed_term"
)

type ShiftMode string

const (
	ModeRotating ShiftMode = "rotating"
	ModeFixed    ShiftMode = "fixed"
)

// Worker is a person who can be scheduled. Role doubles as the reporting group.
type Worker struct {
	ID       WorkerID
	Name     string
	Role     RoleCode
	Contract ContractKind
	Mode     ShiftMode

	// FixedShift is only meaningful when Mode is ModeFixed.
	FixedShift *Shift

	// AllowedShifts nil means every shift is allowed. A non-nil empty set
	// means the worker cannot be scheduled at all.
	AllowedShifts *ShiftSet

	SpecialtyTask TaskID // empty = none
	Active        bool
}

// Allows reports whether s is permitted for w.
func (w Worker) Allows(s Shift) bool {
	if w.AllowedShifts == nil {
		return s.Valid()
	}
	return w.AllowedShifts.Contains(s)
}

// Pool returns the permitted shifts in priority order.
func (w Worker) Pool() []Shift {
	if w.AllowedShifts == nil {
		return Priority.Shifts()
	}
	return w.AllowedShifts.Members()
}

// Unschedulable reports whether the worker has a present but empty allowed set.
func (w Worker) Unschedulable() bool {
	return w.AllowedShifts != nil && w.AllowedShifts.Empty()
}

// Group is the reporting group for the worker.
func (w Worker) Group() string { return string(w.Role) }

// Validate checks the invariants the engine relies on.
func (w Worker) Validate() error {
	if w.ID == "" {
		return &ValidationError{Field: "id", Reason: "required"}
	}
	switch w.Contract {
	case ContractPermanent, ContractFixedTerm:
	default:
		return &ValidationError{Field: "contract", Reason: fmt.Sprintf("unknown contract kind %q", w.Contract)}
	}
	switch w.Mode {
	case ModeRotating:
	case ModeFixed:
		if w.FixedShift == nil || !w.FixedShift.Valid() {
			return &ValidationError{Field: "fixed_shift", Reason: "required when shift mode is fixed"}
		}
		if !w.Allows(*w.FixedShift) {
			return &ValidationError{Field: "fixed_shift", Reason: fmt.Sprintf("%s is not in allowed shifts %s", *w.FixedShift, *w.AllowedShifts)}
		}
	default:
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown shift mode %q", w.Mode)}
	}
	return nil
}

// =============================================================================
// TASK / EQUIPMENT / ROLE
// =============================================================================

// EquipmentRequirement names the equipment a task needs. Empty Variant
// accepts any variant of Type.
type EquipmentRequirement struct {
	Type    string
	Variant string
}

type Task struct {
	ID        TaskID
	Name      string
	Roles     []RoleCode
	Active    bool
	Equipment *EquipmentRequirement
}

// Permits reports whether workers of role may perform the task.
func (t Task) Permits(role RoleCode) bool { return slices.Contains(t.Roles, role) }

type EquipmentStatus string

const (
	StatusOperational EquipmentStatus = "operational"
	StatusMaintenance EquipmentStatus = "maintenance"
	StatusBroken      EquipmentStatus = "broken"
	StatusRetired     EquipmentStatus = "retired"
)

type Equipment struct {
	ID      EquipmentID
	Serial  string
	Role    RoleCode // empty = usable by any role
	Type    string
	Variant string
	Status  EquipmentStatus
}

// Fits reports whether the unit satisfies req for a worker of role.
func (e Equipment) Fits(req EquipmentRequirement, role RoleCode) bool {
	if e.Status != StatusOperational || e.Type != req.Type {
		return false
	}
	if req.Variant != "" && e.Variant != req.Variant {
		return false
	}
	return e.Role == "" || e.Role == role
}

type Role struct {
	Code   RoleCode
	Name   string
	Active bool
}

// =============================================================================
// ASSIGNMENT
// =============================================================================

type Provenance string

const (
	ProvenanceGenerated Provenance = "generated"
	ProvenanceManual    Provenance = "manual"
)

// Assignment is the flat form of one worker's placement for a week.
type Assignment struct {
	WorkerID   WorkerID
	Week       WeekKey
	Shift      Shift
	TaskID     TaskID // empty = no task
	Provenance Provenance
}

// UnscheduledReason explains why a worker received no shift.
type UnscheduledReason string

const (
	ReasonEmptyAllowedSet   UnscheduledReason = "empty_allowed_set"
	ReasonRotationExhausted UnscheduledReason = "rotation_exhausted"
)

// Unscheduled records a worker the generator could not place.
type Unscheduled struct {
	WorkerID WorkerID
	Reason   UnscheduledReason
}

// =============================================================================
// WEEK PLAN
// =============================================================================

// WeekPlan is the board form of a week: ordered columns per shift plus the
// task and equipment maps. A worker appears in at most one column.
type WeekPlan struct {
	Week       WeekKey
	Columns    map[Shift][]WorkerID
	Tasks      map[WorkerID]TaskID
	Equipment  map[WorkerID]EquipmentID
	Provenance map[WorkerID]Provenance

	// Version is maintained by PlanStore implementations for optimistic
	// concurrency. Zero means never saved.
	Version int64
}

// NewWeekPlan returns an empty plan for week.
func NewWeekPlan(week WeekKey) *WeekPlan {
	return &WeekPlan{
		Week:       week,
		Columns:    make(map[Shift][]WorkerID, 3),
		Tasks:      make(map[WorkerID]TaskID),
		Equipment:  make(map[WorkerID]EquipmentID),
		Provenance: make(map[WorkerID]Provenance),
	}
}

// Place appends worker to the column of s.
func (p *WeekPlan) Place(worker WorkerID, s Shift, prov Provenance) {
	p.Columns[s] = append(p.Columns[s], worker)
	p.Provenance[worker] = prov
}

// ShiftOf returns the column the worker is in.
func (p *WeekPlan) ShiftOf(worker WorkerID) (Shift, bool) {
	for _, s := range Priority {
		if slices.Contains(p.Columns[s], worker) {
			return s, true
		}
	}
	return 0, false
}

// Remove takes worker out of every column and clears its task and equipment.
func (p *WeekPlan) Remove(worker WorkerID) {
	for s, col := range p.Columns {
		p.Columns[s] = slices.DeleteFunc(col, func(id WorkerID) bool { return id == worker })
	}
	delete(p.Tasks, worker)
	delete(p.Equipment, worker)
	delete(p.Provenance, worker)
}

// History returns the worker -> shift map used as the next week's input.
func (p *WeekPlan) History() map[WorkerID]Shift {
	h := make(map[WorkerID]Shift)
	if p == nil {
		return h
	}
	for _, s := range Priority {
		for _, id := range p.Columns[s] {
			h[id] = s
		}
	}
	return h
}

// Size returns the number of placed workers.
func (p *WeekPlan) Size() int {
	n := 0
	for _, col := range p.Columns {
		n += len(col)
	}
	return n
}

// Validate checks the one-column-per-worker invariant and shift keys.
func (p *WeekPlan) Validate() error {
	seen := make(map[WorkerID]Shift)
	for s, col := range p.Columns {
		if !s.Valid() {
			return &ValidationError{Field: "columns", Reason: fmt.Sprintf("invalid shift %d", int(s))}
		}
		for _, id := range col {
			if prev, dup := seen[id]; dup {
				return &DuplicateAssignmentError{WorkerID: id, First: prev, Second: s}
			}
			seen[id] = s
		}
	}
	return nil
}

// Assignments flattens the plan in priority order, column order within a shift.
func (p *WeekPlan) Assignments() []Assignment {
	out := make([]Assignment, 0, p.Size())
	for _, s := range Priority {
		for _, id := range p.Columns[s] {
			prov := p.Provenance[id]
			if prov == "" {
				prov = ProvenanceGenerated
			}
			out = append(out, Assignment{
				WorkerID:   id,
				Week:       p.Week,
				Shift:      s,
				TaskID:     p.Tasks[id],
				Provenance: prov,
			})
		}
	}
	return out
}

// Clone returns a deep copy.
func (p *WeekPlan) Clone() *WeekPlan {
	c := NewWeekPlan(p.Week)
	c.Version = p.Version
	for s, col := range p.Columns {
		c.Columns[s] = slices.Clone(col)
	}
	for k, v := range p.Tasks {
		c.Tasks[k] = v
	}
	for k, v := range p.Equipment {
		c.Equipment[k] = v
	}
	for k, v := range p.Provenance {
		c.Provenance[k] = v
	}
	return c
}

// PlanFromAssignments builds a board from flat assignments. Assignments for a
// different week are rejected, as are duplicate workers.
func PlanFromAssignments(week WeekKey, assignments []Assignment) (*WeekPlan, error) {
	p := NewWeekPlan(week)
	for _, a := range assignments {
		if a.Week != week {
			return nil, fmt.Errorf("assignment for %s in plan for %s: %w", a.Week, week, ErrInvalidWeek)
		}
		if prev, dup := p.ShiftOf(a.WorkerID); dup {
			return nil, &DuplicateAssignmentError{WorkerID: a.WorkerID, First: prev, Second: a.Shift}
		}
		if !a.Shift.Valid() {
			return nil, &ValidationError{Field: "shift", Reason: fmt.Sprintf("assignment for %s has invalid shift", a.WorkerID)}
		}
		p.Place(a.WorkerID, a.Shift, a.Provenance)
		if a.TaskID != "" {
			p.Tasks[a.WorkerID] = a.TaskID
		}
	}
	return p, nil
}
