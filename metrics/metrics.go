// Package metrics records planning activity. Collector is implemented by a
// no-op type and a Prometheus-backed type.
package metrics

// Collector receives planning measurements. Implementations must be safe for
// concurrent use.
type Collector interface {
	// RecordGeneration is called once per generated week.
	RecordGeneration(mode string, placed, unscheduled int, seconds float64)

	// RecordShortages counts workers whose task needed equipment that could
	// not be provided.
	RecordShortages(n int)

	// SetShiftLoad reports the head count of one shift of the latest plan.
	SetShiftLoad(shift string, n int)

	// RecordConflict counts plan writes rejected by a version check.
	RecordConflict()

	// RecordReportWarning counts report warnings by code.
	RecordReportWarning(code string, n int)

	// RecordSchedulerRun counts scheduler ticks per tenant by result
	// (generated, skipped, failed).
	RecordSchedulerRun(result string)
}

// Nop discards all metrics.
type Nop struct{}

var _ Collector = (*Nop)(nil)

func NewNop() *Nop { return &Nop{} }

func (*Nop) RecordGeneration(string, int, int, float64) {}
func (*Nop) RecordShortages(int)                        {}
func (*Nop) SetShiftLoad(string, int)                   {}
func (*Nop) RecordConflict()                            {}
func (*Nop) RecordReportWarning(string, int)            {}
func (*Nop) RecordSchedulerRun(string)                  {}
