/*
Package roster provides the roster assignment engine.

PURPOSE:
  This package assigns workers to one of three recurring shifts for a planning
  week, attaches equipment to task-bearing assignments, and summarises the
  result into an auditable report. Every function here is a pure computation
  over snapshots passed in by the caller: no I/O, no logging, no shared state.

KEY CONCEPTS IN THIS FILE (shift.go):
  - Shift: one of three daily work periods
  - Order: the explicit total order used for every tie-break
  - Next: the rotation rule (first -> third -> second -> first)
  - ShiftSet: a small set of shifts used for worker constraints
  - Loads: per-shift occupancy counters used while generating

PIPELINE:
  Balance or Seed  ->  (manual edits)  ->  MatchPlan  ->  BuildReport

SEE ALSO:
  - balancer.go: least-loaded shift balancer
  - seeder.go: column seeding with forced alternation
  - equipment.go: greedy equipment matcher
  - report.go: aggregation reporter
*/
package roster

import (
	"fmt"
	"strings"
)

// =============================================================================
// SHIFT
// =============================================================================

// Shift is one of the three recurring work periods. The zero value is not a
// valid shift.
type Shift int

const (
	ShiftFirst Shift = iota + 1
	ShiftSecond
	ShiftThird
)

// Code returns the stable machine-readable code used in JSON and storage.
func (s Shift) Code() string {
	switch s {
	case ShiftFirst:
		return "first"
	case ShiftSecond:
		return "second"
	case ShiftThird:
		return "third"
	default:
		return ""
	}
}

// Label returns the display label.
func (s Shift) Label() string {
	switch s {
	case ShiftFirst:
		return "Morning"
	case ShiftSecond:
		return "Afternoon"
	case ShiftThird:
		return "Night"
	default:
		return "Unknown"
	}
}

func (s Shift) String() string {
	if c := s.Code(); c != "" {
		return c
	}
	return fmt.Sprintf("shift(%d)", int(s))
}

// Valid reports whether s is one of the three shifts.
func (s Shift) Valid() bool { return s >= ShiftFirst && s <= ShiftThird }

// ParseShift accepts a shift code or label, case-insensitively.
func ParseShift(s string) (Shift, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first", "morning", "1":
		return ShiftFirst, nil
	case "second", "afternoon", "2":
		return ShiftSecond, nil
	case "third", "night", "3":
		return ShiftThird, nil
	}
	return 0, fmt.Errorf("unknown shift %q", s)
}

func (s Shift) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid shift %d", int(s))
	}
	return []byte(s.Code()), nil
}

func (s *Shift) UnmarshalText(b []byte) error {
	v, err := ParseShift(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// =============================================================================
// PRIORITY ORDER - the single tie-break order for balancing and reconciliation
// =============================================================================

// Order is a total order over the three shifts. Earlier entries win ties.
type Order [3]Shift

// Priority is the order used everywhere in the engine: first < second < third.
var Priority = Order{ShiftFirst, ShiftSecond, ShiftThird}

// Shifts returns the shifts in order.
func (o Order) Shifts() []Shift { return []Shift{o[0], o[1], o[2]} }

// Rank returns the position of s in the order, or -1 if s is not a shift.
func (o Order) Rank(s Shift) int {
	for i, v := range o {
		if v == s {
			return i
		}
	}
	return -1
}

// Less reports whether a precedes b.
func (o Order) Less(a, b Shift) bool { return o.Rank(a) < o.Rank(b) }

// Compare returns -1, 0 or +1, for use with slices.SortFunc.
func (o Order) Compare(a, b Shift) int {
	ra, rb := o.Rank(a), o.Rank(b)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	default:
		return 0
	}
}

// First returns the highest-priority shift.
func (o Order) First() Shift { return o[0] }

// =============================================================================
// ROTATION RULE
// =============================================================================

// Next returns the shift a rotating worker moves to after s.
// The cycle is first -> third -> second -> first. Unknown input maps to the
// first priority shift.
func Next(s Shift) Shift {
	switch s {
	case ShiftFirst:
		return ShiftThird
	case ShiftThird:
		return ShiftSecond
	case ShiftSecond:
		return ShiftFirst
	default:
		return Priority.First()
	}
}

// CycleLength is the number of steps after which Next returns to its input.
const CycleLength = 3

// =============================================================================
// SHIFT SET
// =============================================================================

// ShiftSet is a set of shifts stored as a bitmask.
type ShiftSet uint8

// NewShiftSet builds a set from the given shifts. Invalid shifts are ignored.
func NewShiftSet(shifts ...Shift) ShiftSet {
	var set ShiftSet
	for _, s := range shifts {
		set = set.With(s)
	}
	return set
}

// AllShifts contains every shift.
var AllShifts = NewShiftSet(ShiftFirst, ShiftSecond, ShiftThird)

func shiftBit(s Shift) ShiftSet {
	if !s.Valid() {
		return 0
	}
	return 1 << uint(s-1)
}

func (ss ShiftSet) With(s Shift) ShiftSet  { return ss | shiftBit(s) }
func (ss ShiftSet) Contains(s Shift) bool { return s.Valid() && ss&shiftBit(s) != 0 }
func (ss ShiftSet) Empty() bool           { return ss&AllShifts == 0 }

// Len returns the number of members.
func (ss ShiftSet) Len() int {
	n := 0
	for _, s := range Priority {
		if ss.Contains(s) {
			n++
		}
	}
	return n
}

// Members returns the members in priority order.
func (ss ShiftSet) Members() []Shift {
	out := make([]Shift, 0, 3)
	for _, s := range Priority {
		if ss.Contains(s) {
			out = append(out, s)
		}
	}
	return out
}

func (ss ShiftSet) String() string {
	codes := make([]string, 0, 3)
	for _, s := range ss.Members() {
		codes = append(codes, s.Code())
	}
	return "{" + strings.Join(codes, ",") + "}"
}

// =============================================================================
// LOAD COUNTERS
// =============================================================================

// Loads counts workers placed on each shift during one generation pass.
type Loads [3]int

// Of returns the count for s.
func (l Loads) Of(s Shift) int {
	if r := Priority.Rank(s); r >= 0 {
		return l[r]
	}
	return 0
}

// Add increments the counter for s.
func (l *Loads) Add(s Shift) {
	if r := Priority.Rank(s); r >= 0 {
		l[r]++
	}
}

// Least returns the member of pool with the lowest load, ties broken by
// priority order. ok is false when pool is empty.
func (l Loads) Least(pool []Shift) (best Shift, ok bool) {
	for _, s := range pool {
		if !s.Valid() {
			continue
		}
		if !ok || l.Of(s) < l.Of(best) || (l.Of(s) == l.Of(best) && Priority.Less(s, best)) {
			best, ok = s, true
		}
	}
	return best, ok
}

// Spread returns max-min across the three shifts.
func (l Loads) Spread() int {
	lo, hi := l[0], l[0]
	for _, v := range l[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return hi - lo
}

// Total returns the sum of all counters.
func (l Loads) Total() int { return l[0] + l[1] + l[2] }
