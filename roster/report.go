/*
report.go - Aggregation reporter

OUTPUT:
  Totals   per-shift counts (all three shifts, priority order) with share %
  Tree     shift -> group -> task label -> count
  Warnings advisory data-integrity findings; never fatal

ORDERING:
  Shifts:  priority order
  Groups:  canonical groups (ReportOptions.GroupOrder) first in that order,
           then other groups alphabetically, "Unknown" always last
  Tasks:   count descending, then label ascending

TASK LABELS:
  no task                              -> "Unassigned"
  task not allowed for worker's group  -> "<task> (invalid)"
  otherwise                            -> task name

  A task id missing from the catalog is reported by its id and counted
  invalid. Assignments of unknown workers are grouped under "Unknown" and
  their task is not checked against any group. That bucket is kept apart
  from a role that happens to be named "Unknown". A nil catalog makes
  every worker unknown.

INVARIANT:
  Sum of leaf counts == sum of shift totals == len(assignments).
*/
package roster

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	GroupUnknown    = "Unknown"
	LabelUnassigned = "Unassigned"
	invalidSuffix   = " (invalid)"
)

// DefaultGroupOrder is the canonical group order used when none is configured.
var DefaultGroupOrder = []string{"operator", "technician"}

type WarningCode string

const (
	WarnUnknownWorkers     WarningCode = "unknown_workers"
	WarnInvalidTasks       WarningCode = "invalid_tasks"
	WarnUnassignedTasks    WarningCode = "unassigned_tasks"
	WarnUnscheduledWorkers WarningCode = "unscheduled_workers"
)

// Warning is an advisory integrity finding.
type Warning struct {
	Code      WarningCode
	Message   string
	Count     int
	WorkerIDs []WorkerID
}

// ReportOptions tunes BuildReport.
type ReportOptions struct {
	GroupOrder []string
}

type TaskCount struct {
	Label   string
	Count   int
	Invalid bool
}

type GroupNode struct {
	Name  string
	Total int
	Tasks []TaskCount
}

type ShiftNode struct {
	Shift  Shift
	Total  int
	Groups []GroupNode
}

type ShiftTotal struct {
	Shift Shift
	Count int
	Share decimal.Decimal // percent of all assignments, one decimal place
}

// Report summarises one finalised week.
type Report struct {
	Week     WeekKey
	Total    int
	Totals   []ShiftTotal
	Tree     []ShiftNode
	Warnings []Warning
}

// Warning returns the warning with code, if present.
func (r *Report) Warning(code WarningCode) (Warning, bool) {
	for _, w := range r.Warnings {
		if w.Code == code {
			return w, true
		}
	}
	return Warning{}, false
}

// groupKey separates the unknown-worker bucket from a role of the same name.
type groupKey struct {
	name    string
	unknown bool
}

// BuildReport tallies assignments into a report.
func BuildReport(week WeekKey, assignments []Assignment, catalog *Catalog, opts ReportOptions) Report {
	if catalog == nil {
		catalog = NewCatalog(nil, nil, nil, nil)
	}
	groupOrder := opts.GroupOrder
	if groupOrder == nil {
		groupOrder = DefaultGroupOrder
	}

	type tally map[groupKey]map[string]int // group -> label -> count
	var (
		byShift      = make(map[Shift]tally, 3)
		invalidLabel = make(map[string]bool)
		allowed      = make(map[string]map[string]bool)
		unknown      []WorkerID
		seenUnknown  = make(map[WorkerID]bool)
		assigned     = make(map[WorkerID]bool, len(assignments))
		invalidCount int
		unassigned   int
	)

	for _, a := range assignments {
		assigned[a.WorkerID] = true
		group := groupKey{name: GroupUnknown, unknown: true}
		w, known := catalog.Worker(a.WorkerID)
		if known {
			group = groupKey{name: w.Group()}
		} else if !seenUnknown[a.WorkerID] {
			seenUnknown[a.WorkerID] = true
			unknown = append(unknown, a.WorkerID)
		}

		label := LabelUnassigned
		switch {
		case a.TaskID == "":
			unassigned++
		default:
			name := string(a.TaskID)
			task, found := catalog.Task(a.TaskID)
			if found {
				name = task.Name
			}
			label = name
			if known {
				names, ok := allowed[group.name]
				if !ok {
					names = catalog.AllowedTaskNames(group.name)
					allowed[group.name] = names
				}
				if !found || !names[name] {
					label = name + invalidSuffix
					invalidLabel[label] = true
					invalidCount++
				}
			} else if !found {
				label = name + invalidSuffix
				invalidLabel[label] = true
				invalidCount++
			}
		}

		t, ok := byShift[a.Shift]
		if !ok {
			t = make(tally)
			byShift[a.Shift] = t
		}
		if t[group] == nil {
			t[group] = make(map[string]int)
		}
		t[group][label]++
	}

	rep := Report{Week: week, Total: len(assignments)}
	var stray []Shift
	for s := range byShift {
		if !s.Valid() {
			stray = append(stray, s)
		}
	}
	slices.Sort(stray)
	shifts := append(Priority.Shifts(), stray...)
	for _, s := range shifts {
		node := ShiftNode{Shift: s}
		for _, group := range sortGroups(byShift[s], groupOrder) {
			g := GroupNode{Name: group.name}
			for label, n := range byShift[s][group] {
				g.Tasks = append(g.Tasks, TaskCount{Label: label, Count: n, Invalid: invalidLabel[label]})
				g.Total += n
			}
			slices.SortFunc(g.Tasks, func(a, b TaskCount) int {
				if a.Count != b.Count {
					return cmp.Compare(b.Count, a.Count)
				}
				return cmp.Compare(a.Label, b.Label)
			})
			node.Total += g.Total
			node.Groups = append(node.Groups, g)
		}
		rep.Tree = append(rep.Tree, node)
		rep.Totals = append(rep.Totals, ShiftTotal{Shift: s, Count: node.Total, Share: share(node.Total, rep.Total)})
	}

	if len(unknown) > 0 {
		rep.Warnings = append(rep.Warnings, Warning{
			Code:      WarnUnknownWorkers,
			Message:   fmt.Sprintf("%d assignment(s) reference unknown workers: %s", len(unknown), joinIDs(unknown)),
			Count:     len(unknown),
			WorkerIDs: unknown,
		})
	}
	if invalidCount > 0 {
		rep.Warnings = append(rep.Warnings, Warning{
			Code:    WarnInvalidTasks,
			Message: fmt.Sprintf("%d assignment(s) carry a task not allowed for the worker's group", invalidCount),
			Count:   invalidCount,
		})
	}
	if unassigned > 0 {
		rep.Warnings = append(rep.Warnings, Warning{
			Code:    WarnUnassignedTasks,
			Message: fmt.Sprintf("%d assignment(s) have no task", unassigned),
			Count:   unassigned,
		})
	}

	var missing []WorkerID
	for _, w := range catalog.ActiveWorkers() {
		if !assigned[w.ID] {
			missing = append(missing, w.ID)
		}
	}
	if len(missing) > 0 {
		rep.Warnings = append(rep.Warnings, Warning{
			Code:      WarnUnscheduledWorkers,
			Message:   fmt.Sprintf("%d active worker(s) have no shift: %s", len(missing), joinIDs(missing)),
			Count:     len(missing),
			WorkerIDs: missing,
		})
	}
	return rep
}

func sortGroups(t map[groupKey]map[string]int, order []string) []groupKey {
	rank := make(map[string]int, len(order))
	for i, g := range order {
		if _, dup := rank[g]; !dup {
			rank[g] = i
		}
	}
	groups := make([]groupKey, 0, len(t))
	for g := range t {
		groups = append(groups, g)
	}
	slices.SortFunc(groups, func(a, b groupKey) int {
		if a.unknown != b.unknown {
			if a.unknown {
				return 1
			}
			return -1
		}
		ra, ka := rank[a.name]
		rb, kb := rank[b.name]
		switch {
		case ka && kb:
			return cmp.Compare(ra, rb)
		case ka:
			return -1
		case kb:
			return 1
		}
		return cmp.Compare(a.name, b.name)
	})
	return groups
}

func share(n, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(n)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(1)
}

func joinIDs(ids []WorkerID) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = string(id)
	}
	return strings.Join(s, ", ")
}
