package roster

// SeedResult is the output of Seed.
type SeedResult struct {
	Plan        *WeekPlan
	Unscheduled []Unscheduled
}

// Seed pre-populates a week's board from rotation history.
//
// For each active worker the desired shift is Next(previous), or the first
// priority shift without history. It is reconciled against the allowed set:
//
//	desired allowed                   -> desired
//	exactly one allowed shift         -> that shift
//	two allowed, previous among them  -> the other one (forced alternation)
//	otherwise                         -> first allowed shift along the rotation
//	                                     chain starting at desired
//
// A worker for whom nothing is found stays off the board and is reported in
// Unscheduled. Specialty tasks are pre-filled only when the task is active in
// the catalog. Equipment is never set here. A repeated worker id is seated
// once, at its first occurrence.
func Seed(week WeekKey, workers []Worker, history map[WorkerID]Shift, catalog *Catalog) SeedResult {
	res := SeedResult{Plan: NewWeekPlan(week)}
	seen := make(map[WorkerID]bool, len(workers))
	for _, w := range workers {
		if !w.Active || seen[w.ID] {
			continue
		}
		seen[w.ID] = true
		s, reason, ok := reconcile(w, history)
		if !ok {
			res.Unscheduled = append(res.Unscheduled, Unscheduled{WorkerID: w.ID, Reason: reason})
			continue
		}
		res.Plan.Place(w.ID, s, ProvenanceGenerated)
		if w.SpecialtyTask == "" || catalog == nil {
			continue
		}
		if t, found := catalog.Task(w.SpecialtyTask); found && t.Active {
			res.Plan.Tasks[w.ID] = t.ID
		}
	}
	return res
}

func reconcile(w Worker, history map[WorkerID]Shift) (Shift, UnscheduledReason, bool) {
	desired := rotationTarget(w.ID, history)
	if w.Allows(desired) {
		return desired, "", true
	}
	if w.Unschedulable() {
		return 0, ReasonEmptyAllowedSet, false
	}

	members := w.Pool()
	switch len(members) {
	case 1:
		return members[0], "", true
	case 2:
		if prev, ok := history[w.ID]; ok {
			switch prev {
			case members[0]:
				return members[1], "", true
			case members[1]:
				return members[0], "", true
			}
		}
	}

	s := desired
	for range CycleLength {
		if w.Allows(s) {
			return s, "", true
		}
		s = Next(s)
	}
	return 0, ReasonRotationExhausted, false
}
