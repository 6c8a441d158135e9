package roster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/roster-engine/roster"
)

func TestNext_Cycle(t *testing.T) {
	assert.Equal(t, roster.ShiftThird, roster.Next(roster.ShiftFirst))
	assert.Equal(t, roster.ShiftSecond, roster.Next(roster.ShiftThird))
	assert.Equal(t, roster.ShiftFirst, roster.Next(roster.ShiftSecond))

	for _, s := range roster.Priority.Shifts() {
		got := s
		for range roster.CycleLength {
			got = roster.Next(got)
		}
		assert.Equal(t, s, got, "three steps from %s should return to it", s)
	}
}

func TestNext_UnknownDefaultsToFirstPriority(t *testing.T) {
	assert.Equal(t, roster.ShiftFirst, roster.Next(roster.Shift(0)))
}

func TestPriority_IsExplicitTotalOrder(t *testing.T) {
	p := roster.Priority
	assert.Equal(t, []roster.Shift{roster.ShiftFirst, roster.ShiftSecond, roster.ShiftThird}, p.Shifts())
	assert.True(t, p.Less(roster.ShiftFirst, roster.ShiftSecond))
	assert.True(t, p.Less(roster.ShiftSecond, roster.ShiftThird))
	assert.False(t, p.Less(roster.ShiftThird, roster.ShiftFirst))
	assert.Equal(t, 0, p.Rank(roster.ShiftFirst))
	assert.Equal(t, 2, p.Rank(roster.ShiftThird))
	assert.Equal(t, -1, p.Rank(roster.Shift(9)))
	assert.Equal(t, -1, p.Compare(roster.ShiftFirst, roster.ShiftThird))
	assert.Equal(t, 0, p.Compare(roster.ShiftSecond, roster.ShiftSecond))
	assert.Equal(t, roster.ShiftFirst, p.First())
}

func TestParseShift(t *testing.T) {
	for in, want := range map[string]roster.Shift{
		"first": roster.ShiftFirst, "Afternoon": roster.ShiftSecond, " NIGHT ": roster.ShiftThird, "3": roster.ShiftThird,
	} {
		got, err := roster.ParseShift(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := roster.ParseShift("fourth")
	assert.Error(t, err)
}

func TestShift_TextRoundTripRejectsInvalid(t *testing.T) {
	b, err := roster.ShiftSecond.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))

	_, err = roster.Shift(0).MarshalText()
	assert.Error(t, err)
}

func TestShiftSet(t *testing.T) {
	set := roster.NewShiftSet(roster.ShiftThird, roster.ShiftFirst)
	assert.True(t, set.Contains(roster.ShiftFirst))
	assert.False(t, set.Contains(roster.ShiftSecond))
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []roster.Shift{roster.ShiftFirst, roster.ShiftThird}, set.Members())
	assert.Equal(t, "{first,third}", set.String())

	assert.True(t, roster.NewShiftSet().Empty())
	assert.True(t, roster.NewShiftSet(roster.Shift(7)).Empty(), "invalid shifts are ignored")
	assert.Equal(t, 3, roster.AllShifts.Len())
}

func TestLoads_LeastBreaksTiesByPriority(t *testing.T) {
	var l roster.Loads
	s, ok := l.Least(roster.Priority.Shifts())
	require.True(t, ok)
	assert.Equal(t, roster.ShiftFirst, s)

	l.Add(roster.ShiftFirst)
	s, _ = l.Least([]roster.Shift{roster.ShiftThird, roster.ShiftFirst, roster.ShiftSecond})
	assert.Equal(t, roster.ShiftSecond, s, "pool order must not matter")

	_, ok = l.Least(nil)
	assert.False(t, ok)

	l.Add(roster.ShiftFirst)
	l.Add(roster.ShiftThird)
	assert.Equal(t, 2, l.Spread())
	assert.Equal(t, 3, l.Total())
}
