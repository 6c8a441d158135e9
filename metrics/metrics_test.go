package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop_DoesNotPanic(t *testing.T) {
	var c Collector = NewNop()

	require.NotPanics(t, func() {
		c.RecordGeneration("balance", 10, 1, 0.01)
		c.RecordShortages(0)
		c.SetShiftLoad("first", 4)
		c.RecordConflict()
		c.RecordReportWarning("unknown_workers", 2)
		c.RecordSchedulerRun("skipped")
	})
}

func TestPrometheus_RegistersLazily(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = NewPrometheus(reg, "test")

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}

func TestPrometheus_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheus(reg, "test")

	c.RecordGeneration("balance", 10, 1, 0.02)
	c.RecordGeneration("seed", 8, 0, 0.01)
	c.RecordShortages(3)
	c.SetShiftLoad("first", 4)
	c.SetShiftLoad("first", 5)
	c.RecordConflict()
	c.RecordReportWarning("invalid_tasks", 2)
	c.RecordSchedulerRun("generated")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.generations.WithLabelValues("balance")))
	assert.Equal(t, 18.0, testutil.ToFloat64(c.placed))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.unscheduled))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.shortages))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.shiftLoad.WithLabelValues("first")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.conflicts))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.reportWarnings.WithLabelValues("invalid_tasks")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.schedulerRuns.WithLabelValues("generated")))

	n, err := testutil.GatherAndCount(reg, "test_planner_generations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
