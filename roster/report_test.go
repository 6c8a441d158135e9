package roster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/roster-engine/roster"
)

func worker(id string, role roster.RoleCode) roster.Worker {
	w := permanent(id)
	w.Role = role
	return w
}

func reportCatalog(workers ...roster.Worker) *roster.Catalog {
	tasks := []roster.Task{
		{ID: "t-press", Name: "Press", Roles: []roster.RoleCode{"operator"}, Active: true},
		{ID: "t-fix", Name: "Repair", Roles: []roster.RoleCode{"technician"}, Active: true},
		{ID: "t-pack", Name: "Packing", Roles: []roster.RoleCode{"operator", "technician"}, Active: true},
		{ID: "t-retired", Name: "Retired", Roles: []roster.RoleCode{"operator"}, Active: false},
	}
	return roster.NewCatalog(workers, tasks, nil, nil)
}

func assign(id string, s roster.Shift, task roster.TaskID) roster.Assignment {
	return roster.Assignment{WorkerID: roster.WorkerID(id), Week: testWeek, Shift: s, TaskID: task}
}

func leafSum(r roster.Report) int {
	n := 0
	for _, s := range r.Tree {
		for _, g := range s.Groups {
			for _, t := range g.Tasks {
				n += t.Count
			}
		}
	}
	return n
}

func TestBuildReport_TreeLabelsAndWarnings(t *testing.T) {
	// GIVEN: A week with valid, invalid, unassigned and unknown-worker rows
	cat := reportCatalog(
		worker("o1", "operator"), worker("o2", "operator"),
		worker("t1", "technician"), worker("m1", "maintenance"),
	)
	assignments := []roster.Assignment{
		assign("o1", roster.ShiftFirst, "t-press"),
		assign("o2", roster.ShiftFirst, "t-press"),
		assign("t1", roster.ShiftFirst, "t-press"), // not a technician task
		assign("m1", roster.ShiftSecond, ""),
		assign("ghost", roster.ShiftThird, "t-fix"),
		assign("ghost2", roster.ShiftThird, "t-nope"),
	}

	// WHEN: Building the report
	rep := roster.BuildReport(testWeek, assignments, cat, roster.ReportOptions{})

	// THEN: Totals and shares
	require.Len(t, rep.Totals, 3)
	assert.Equal(t, 6, rep.Total)
	assert.Equal(t, 3, rep.Totals[0].Count)
	assert.Equal(t, "50.0", rep.Totals[0].Share.StringFixed(1))
	assert.Equal(t, "16.7", rep.Totals[1].Share.StringFixed(1))
	assert.Equal(t, "33.3", rep.Totals[2].Share.StringFixed(1))

	// AND: The tree keeps canonical groups first and labels invalid tasks
	require.Len(t, rep.Tree, 3)
	first := rep.Tree[0]
	assert.Equal(t, roster.ShiftFirst, first.Shift)
	require.Len(t, first.Groups, 2)
	assert.Equal(t, "operator", first.Groups[0].Name)
	assert.Equal(t, []roster.TaskCount{{Label: "Press", Count: 2}}, first.Groups[0].Tasks)
	assert.Equal(t, "technician", first.Groups[1].Name)
	assert.Equal(t, []roster.TaskCount{{Label: "Press (invalid)", Count: 1, Invalid: true}}, first.Groups[1].Tasks)

	second := rep.Tree[1]
	require.Len(t, second.Groups, 1)
	assert.Equal(t, "maintenance", second.Groups[0].Name)
	assert.Equal(t, roster.LabelUnassigned, second.Groups[0].Tasks[0].Label)

	third := rep.Tree[2]
	require.Len(t, third.Groups, 1)
	assert.Equal(t, roster.GroupUnknown, third.Groups[0].Name)
	assert.Equal(t, []roster.TaskCount{
		{Label: "Repair", Count: 1},
		{Label: "t-nope (invalid)", Count: 1, Invalid: true},
	}, third.Groups[0].Tasks)

	// AND: Warnings are reported, not raised
	unknown, ok := rep.Warning(roster.WarnUnknownWorkers)
	require.True(t, ok)
	assert.Equal(t, []roster.WorkerID{"ghost", "ghost2"}, unknown.WorkerIDs)
	invalid, ok := rep.Warning(roster.WarnInvalidTasks)
	require.True(t, ok)
	assert.Equal(t, 2, invalid.Count)
	unassigned, ok := rep.Warning(roster.WarnUnassignedTasks)
	require.True(t, ok)
	assert.Equal(t, 1, unassigned.Count)
	_, ok = rep.Warning(roster.WarnUnscheduledWorkers)
	assert.False(t, ok)
}

func TestBuildReport_ConservesCounts(t *testing.T) {
	cat := reportCatalog(worker("a", "operator"), worker("b", "technician"))
	assignments := []roster.Assignment{
		assign("a", roster.ShiftFirst, "t-pack"),
		assign("b", roster.ShiftFirst, "t-fix"),
		assign("c", roster.ShiftSecond, ""),
		assign("d", roster.ShiftThird, "t-retired"),
		assign("e", roster.ShiftThird, "t-pack"),
	}

	rep := roster.BuildReport(testWeek, assignments, cat, roster.ReportOptions{})

	sum := 0
	for _, tot := range rep.Totals {
		sum += tot.Count
	}
	assert.Equal(t, len(assignments), sum)
	assert.Equal(t, len(assignments), leafSum(rep))
	for i, node := range rep.Tree {
		assert.Equal(t, rep.Totals[i].Count, node.Total)
	}
}

func TestBuildReport_InactiveTaskIsInvalidForKnownWorker(t *testing.T) {
	cat := reportCatalog(worker("a", "operator"))

	rep := roster.BuildReport(testWeek, []roster.Assignment{assign("a", roster.ShiftSecond, "t-retired")}, cat, roster.ReportOptions{})

	tasks := rep.Tree[1].Groups[0].Tasks
	assert.Equal(t, "Retired (invalid)", tasks[0].Label)
	assert.True(t, tasks[0].Invalid)
}

func TestBuildReport_GroupOrdering(t *testing.T) {
	cat := reportCatalog(
		worker("z", "zeta"), worker("a", "alpha"),
		worker("t", "technician"), worker("o", "operator"),
	)
	assignments := []roster.Assignment{
		assign("ghost", roster.ShiftFirst, ""),
		assign("z", roster.ShiftFirst, ""),
		assign("a", roster.ShiftFirst, ""),
		assign("t", roster.ShiftFirst, ""),
		assign("o", roster.ShiftFirst, ""),
	}
	names := func(rep roster.Report) []string {
		var out []string
		for _, g := range rep.Tree[0].Groups {
			out = append(out, g.Name)
		}
		return out
	}

	def := roster.BuildReport(testWeek, assignments, cat, roster.ReportOptions{})
	assert.Equal(t, []string{"operator", "technician", "alpha", "zeta", roster.GroupUnknown}, names(def))

	custom := roster.BuildReport(testWeek, assignments, cat, roster.ReportOptions{GroupOrder: []string{"zeta", "technician"}})
	assert.Equal(t, []string{"zeta", "technician", "alpha", "operator", roster.GroupUnknown}, names(custom))
}

func TestBuildReport_TasksSortByCountThenLabel(t *testing.T) {
	cat := reportCatalog(worker("a", "operator"), worker("b", "operator"), worker("c", "operator"), worker("d", "operator"))
	assignments := []roster.Assignment{
		assign("a", roster.ShiftFirst, "t-press"),
		assign("b", roster.ShiftFirst, "t-pack"),
		assign("c", roster.ShiftFirst, "t-pack"),
		assign("d", roster.ShiftFirst, ""),
	}

	rep := roster.BuildReport(testWeek, assignments, cat, roster.ReportOptions{})

	assert.Equal(t, []roster.TaskCount{
		{Label: "Packing", Count: 2},
		{Label: "Press", Count: 1},
		{Label: roster.LabelUnassigned, Count: 1},
	}, rep.Tree[0].Groups[0].Tasks)
}

func TestBuildReport_EmptyWeek(t *testing.T) {
	rep := roster.BuildReport(testWeek, nil, reportCatalog(), roster.ReportOptions{})

	assert.Equal(t, 0, rep.Total)
	require.Len(t, rep.Tree, 3)
	for _, tot := range rep.Totals {
		assert.True(t, tot.Share.IsZero())
	}
	assert.Empty(t, rep.Warnings)
}

func TestBuildReport_UnscheduledWorkersWarning(t *testing.T) {
	gone := worker("gone", "operator")
	gone.Active = false
	cat := reportCatalog(worker("a", "operator"), worker("b", "operator"), gone)

	rep := roster.BuildReport(testWeek, []roster.Assignment{assign("a", roster.ShiftFirst, "t-press")}, cat, roster.ReportOptions{})

	w, ok := rep.Warning(roster.WarnUnscheduledWorkers)
	require.True(t, ok)
	assert.Equal(t, []roster.WorkerID{"b"}, w.WorkerIDs)
}

func TestBuildReport_Deterministic(t *testing.T) {
	cat := reportCatalog(worker("a", "operator"), worker("b", "technician"), worker("c", "qa"))
	assignments := []roster.Assignment{
		assign("a", roster.ShiftFirst, "t-pack"),
		assign("b", roster.ShiftSecond, "t-fix"),
		assign("c", roster.ShiftSecond, "t-pack"),
		assign("x", roster.ShiftThird, "t-press"),
	}

	first := roster.BuildReport(testWeek, assignments, cat, roster.ReportOptions{})
	for range 10 {
		again := roster.BuildReport(testWeek, assignments, cat, roster.ReportOptions{})
		assert.Equal(t, first.Fingerprint(), again.Fingerprint())
		assert.Equal(t, first.Tree, again.Tree)
	}
}

func TestBuildReport_RoleNamedUnknownStaysApartFromUnknownWorkers(t *testing.T) {
	// GIVEN: A known worker whose role code is "Unknown" and a catalog miss
	cat := reportCatalog(worker("u1", roster.RoleCode(roster.GroupUnknown)), worker("z1", "zeta"))
	assignments := []roster.Assignment{
		assign("ghost", roster.ShiftFirst, ""),
		assign("u1", roster.ShiftFirst, ""),
		assign("z1", roster.ShiftFirst, ""),
	}

	rep := roster.BuildReport(testWeek, assignments, cat, roster.ReportOptions{})

	// THEN: The role sorts alphabetically; the catalog miss is its own last group
	groups := rep.Tree[0].Groups
	require.Len(t, groups, 3)
	assert.Equal(t, roster.GroupUnknown, groups[0].Name)
	assert.Equal(t, 1, groups[0].Total)
	assert.Equal(t, "zeta", groups[1].Name)
	assert.Equal(t, roster.GroupUnknown, groups[2].Name)
	assert.Equal(t, 1, groups[2].Total)

	unknown, ok := rep.Warning(roster.WarnUnknownWorkers)
	require.True(t, ok)
	assert.Equal(t, []roster.WorkerID{"ghost"}, unknown.WorkerIDs)
}

func TestBuildReport_NilCatalog(t *testing.T) {
	assignments := []roster.Assignment{
		assign("a", roster.ShiftFirst, "t-press"),
		assign("b", roster.ShiftSecond, ""),
	}

	rep := roster.BuildReport(testWeek, assignments, nil, roster.ReportOptions{})

	assert.Equal(t, 2, rep.Total)
	assert.Equal(t, len(assignments), leafSum(rep))
	assert.Equal(t, roster.GroupUnknown, rep.Tree[0].Groups[0].Name)
	assert.Equal(t, []roster.TaskCount{{Label: "t-press (invalid)", Count: 1, Invalid: true}}, rep.Tree[0].Groups[0].Tasks)
	unknown, ok := rep.Warning(roster.WarnUnknownWorkers)
	require.True(t, ok)
	assert.Equal(t, 2, unknown.Count)
}
