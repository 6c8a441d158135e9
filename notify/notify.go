/*
Package notify publishes plan lifecycle events.

SUBJECTS:
  <prefix>.<tenant>.<event type>, e.g. "roster.acme.plan.generated"

  Consumers subscribe with wildcards: "roster.*.plan.>" for every tenant.

PAYLOAD:
  JSON-encoded Event. Delivery is fire-and-forget (core NATS); a plan is
  persisted before its event is published, so a lost event never loses a
  plan, and consumers re-read the plan by (tenant, week, version).
*/
package notify

import (
	"context"
	"time"

	"github.com/warp/roster-engine/roster"
)

type EventType string

const (
	EventPlanGenerated     EventType = "plan.generated"
	EventPlanEdited        EventType = "plan.edited"
	EventEquipmentAssigned EventType = "plan.equipment_assigned"
)

// Event describes a stored plan change.
type Event struct {
	Type        EventType       `json:"type"`
	Tenant      roster.TenantID `json:"tenant"`
	Week        roster.WeekKey  `json:"week"`
	Version     int64           `json:"version"`
	Fingerprint string          `json:"fingerprint"`
	Placed      int             `json:"placed"`
	Unscheduled int             `json:"unscheduled,omitempty"`
	Shortages   int             `json:"shortages,omitempty"`
	At          time.Time       `json:"at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func NewNop() *Nop { return &Nop{} }

func (*Nop) Publish(context.Context, Event) error { return nil }
func (*Nop) Close() error                         { return nil }
