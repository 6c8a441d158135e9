/*
balancer.go - Least-loaded weekly shift balancer

ALGORITHM:
  Workers are split into two passes, in input order within each pass:

  1. Permanent workers lock in their shift first:
     - Fixed mode: the fixed shift
     - Rotating:   Next(previous shift), or the first priority shift without history
     If that candidate is outside the allowed set, the least-loaded allowed
     shift is used instead.

  2. Fixed-term workers level the load: each takes the least-loaded shift
     from its allowed set (all shifts when unrestricted).

  Ties always go to the earlier shift in Priority. Every placement
  increments that shift's load counter, so the result is a deterministic
  streaming greedy assignment: no backtracking, no global optimum.

DUPLICATES:
  A worker id that appears more than once is placed at its first
  occurrence only, so the result never seats a worker twice.

UNSCHEDULABLE WORKERS:
  A worker whose allowed set is present but empty receives no assignment and
  is returned in BalanceResult.Unscheduled for the caller to surface.
*/
package roster

// BalanceResult is the output of Balance.
type BalanceResult struct {
	Assignments []Assignment
	Unscheduled []Unscheduled
	Loads       Loads
}

// Balance assigns one shift per active worker for week.
// history maps worker id to last week's shift and may be partial.
func Balance(week WeekKey, workers []Worker, history map[WorkerID]Shift) BalanceResult {
	var (
		stable   []Worker
		flexible []Worker
		res      = BalanceResult{Assignments: make([]Assignment, 0, len(workers))}
		seen     = make(map[WorkerID]bool, len(workers))
	)
	for _, w := range workers {
		if !w.Active || seen[w.ID] {
			continue
		}
		seen[w.ID] = true
		if w.Contract == ContractPermanent {
			stable = append(stable, w)
		} else {
			flexible = append(flexible, w)
		}
	}

	place := func(w Worker, s Shift) {
		res.Assignments = append(res.Assignments, Assignment{
			WorkerID:   w.ID,
			Week:       week,
			Shift:      s,
			Provenance: ProvenanceGenerated,
		})
		res.Loads.Add(s)
	}

	for _, w := range stable {
		candidate := stableCandidate(w, history)
		if !w.Allows(candidate) {
			least, ok := res.Loads.Least(w.Pool())
			if !ok {
				res.Unscheduled = append(res.Unscheduled, Unscheduled{WorkerID: w.ID, Reason: ReasonEmptyAllowedSet})
				continue
			}
			candidate = least
		}
		place(w, candidate)
	}

	for _, w := range flexible {
		s, ok := res.Loads.Least(w.Pool())
		if !ok {
			res.Unscheduled = append(res.Unscheduled, Unscheduled{WorkerID: w.ID, Reason: ReasonEmptyAllowedSet})
			continue
		}
		place(w, s)
	}

	return res
}

// stableCandidate is the shift a permanent worker wants before constraints.
// A fixed-mode worker without a fixed shift is treated as rotating.
func stableCandidate(w Worker, history map[WorkerID]Shift) Shift {
	if w.Mode == ModeFixed && w.FixedShift != nil && w.FixedShift.Valid() {
		return *w.FixedShift
	}
	return rotationTarget(w.ID, history)
}

// rotationTarget applies the rotation rule to the worker's history.
func rotationTarget(id WorkerID, history map[WorkerID]Shift) Shift {
	prev, ok := history[id]
	if !ok || !prev.Valid() {
		return Priority.First()
	}
	return Next(prev)
}
