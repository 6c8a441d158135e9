/*
equipment.go - Greedy equipment matcher

ALGORITHM:
  Workers are processed in the given column order. That order is a fairness
  contract: earlier workers get first pick.

  For each worker:
    1. No task, unknown task, or task without an equipment requirement -> none
    2. Eligible = operational units of the required type (and variant, when
       one is required) whose role restriction is empty or the worker's role,
       in ascending serial order
    3. Take the first eligible unit not yet claimed in this pass, else record
       a shortage

  This is single-pass greedy bipartite matching, not maximum matching: a
  later worker can go unmatched even though a different order would have
  matched everyone.

CLAIMS:
  MatchShift uses a fresh claim set per call. MatchPlan runs every shift in
  priority order and resets claims between shifts unless SharedPool is set.

  A nil catalog knows no tasks, so nothing is matched.
*/
package roster

// Shortage records a worker whose task needs equipment that could not be
// provided.
type Shortage struct {
	WorkerID    WorkerID
	Shift       Shift // zero when produced by MatchShift
	TaskID      TaskID
	Requirement EquipmentRequirement
	Eligible    int // eligible units before claims were applied
}

// MatchResult is the output of MatchShift and MatchPlan.
type MatchResult struct {
	Equipment map[WorkerID]EquipmentID
	Shortages []Shortage
}

// MatchOptions tunes MatchPlan.
type MatchOptions struct {
	// SharedPool keeps claims across shifts, for callers whose equipment is
	// shared by all three shifts of a week.
	SharedPool bool
}

type matcher struct {
	catalog *Catalog
	claimed map[EquipmentID]bool
	result  MatchResult
}

func newMatcher(catalog *Catalog) *matcher {
	if catalog == nil {
		catalog = NewCatalog(nil, nil, nil, nil)
	}
	return &matcher{
		catalog: catalog,
		claimed: make(map[EquipmentID]bool),
		result:  MatchResult{Equipment: make(map[WorkerID]EquipmentID)},
	}
}

// MatchShift assigns equipment to one shift's column.
func MatchShift(column []WorkerID, tasks map[WorkerID]TaskID, catalog *Catalog) MatchResult {
	m := newMatcher(catalog)
	m.run(0, column, tasks)
	return m.result
}

// MatchPlan assigns equipment to every column of plan. The plan is not
// modified; apply the result with ApplyEquipment.
func MatchPlan(plan *WeekPlan, catalog *Catalog, opts MatchOptions) MatchResult {
	m := newMatcher(catalog)
	for _, s := range Priority {
		if !opts.SharedPool {
			m.claimed = make(map[EquipmentID]bool)
		}
		m.run(s, plan.Columns[s], plan.Tasks)
	}
	return m.result
}

// ApplyEquipment replaces the plan's equipment map with the match result.
func ApplyEquipment(plan *WeekPlan, res MatchResult) {
	plan.Equipment = make(map[WorkerID]EquipmentID, len(res.Equipment))
	for w, e := range res.Equipment {
		plan.Equipment[w] = e
	}
}

func (m *matcher) run(shift Shift, column []WorkerID, tasks map[WorkerID]TaskID) {
	for _, id := range column {
		taskID := tasks[id]
		if taskID == "" {
			continue
		}
		task, ok := m.catalog.Task(taskID)
		if !ok || task.Equipment == nil {
			continue
		}
		var role RoleCode
		if w, ok := m.catalog.Worker(id); ok {
			role = w.Role
		}

		eligible := 0
		picked := EquipmentID("")
		for _, e := range m.catalog.equipment {
			if !e.Fits(*task.Equipment, role) {
				continue
			}
			eligible++
			if picked == "" && !m.claimed[e.ID] {
				picked = e.ID
			}
		}
		if picked == "" {
			m.result.Shortages = append(m.result.Shortages, Shortage{
				WorkerID:    id,
				Shift:       shift,
				TaskID:      taskID,
				Requirement: *task.Equipment,
				Eligible:    eligible,
			})
			continue
		}
		m.claimed[picked] = true
		m.result.Equipment[id] = picked
	}
}
