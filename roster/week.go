package roster

import (
	"fmt"
	"time"
)

// =============================================================================
// WEEK KEY - first calendar day of a planning week, YYYY-MM-DD
// =============================================================================

const weekLayout = "2006-01-02"

// WeekKey identifies a planning week by its first day. The textual form sorts
// chronologically.
type WeekKey string

// ParseWeek validates s as a YYYY-MM-DD date.
func ParseWeek(s string) (WeekKey, error) {
	t, err := time.Parse(weekLayout, s)
	if err != nil {
		return "", fmt.Errorf("%q: %w", s, ErrInvalidWeek)
	}
	return WeekKey(t.Format(weekLayout)), nil
}

// MustParseWeek is ParseWeek for tests and constants.
func MustParseWeek(s string) WeekKey {
	w, err := ParseWeek(s)
	if err != nil {
		panic(err)
	}
	return w
}

// WeekOf returns the key of the Monday-started week containing t.
func WeekOf(t time.Time) WeekKey {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(t.Weekday()) + 6) % 7
	return WeekKey(t.AddDate(0, 0, -offset).Format(weekLayout))
}

// Start returns the first day of the week. Invalid keys return the zero time.
func (w WeekKey) Start() time.Time {
	t, _ := time.Parse(weekLayout, string(w))
	return t
}

func (w WeekKey) Valid() bool {
	_, err := time.Parse(weekLayout, string(w))
	return err == nil
}

func (w WeekKey) Previous() WeekKey { return WeekKey(w.Start().AddDate(0, 0, -7).Format(weekLayout)) }
func (w WeekKey) Next() WeekKey     { return WeekKey(w.Start().AddDate(0, 0, 7).Format(weekLayout)) }

// Days returns the seven dates of the week.
func (w WeekKey) Days() []time.Time {
	start := w.Start()
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

func (w WeekKey) String() string { return string(w) }
