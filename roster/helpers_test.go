package roster_test

import (
	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// TEST BUILDERS
// =============================================================================

var testWeek = roster.MustParseWeek("2026-03-02")

func shiftPtr(s roster.Shift) *roster.Shift { return &s }

func allowed(shifts ...roster.Shift) *roster.ShiftSet {
	set := roster.NewShiftSet(shifts...)
	return &set
}

func permanent(id string) roster.Worker {
	return roster.Worker{
		ID:       roster.WorkerID(id),
		Name:     id,
		Role:     "operator",
		Contract: roster.ContractPermanent,
		Mode:     roster.ModeRotating,
		Active:   true,
	}
}

func fixedTerm(id string) roster.Worker {
	w := permanent(id)
	w.Contract = roster.ContractFixedTerm
	return w
}

func fixedOn(w roster.Worker, s roster.Shift) roster.Worker {
	w.Mode = roster.ModeFixed
	w.FixedShift = shiftPtr(s)
	return w
}

func withAllowed(w roster.Worker, shifts ...roster.Shift) roster.Worker {
	w.AllowedShifts = allowed(shifts...)
	return w
}

func shiftsByWorker(as []roster.Assignment) map[roster.WorkerID]roster.Shift {
	m := make(map[roster.WorkerID]roster.Shift, len(as))
	for _, a := range as {
		m[a.WorkerID] = a.Shift
	}
	return m
}
