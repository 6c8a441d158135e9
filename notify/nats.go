package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "roster"

// NATSPublisher publishes events on core NATS subjects.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	owned  bool
}

var _ Publisher = (*NATSPublisher)(nil)

// NewNATS wraps an existing connection. Close leaves the connection open.
func NewNATS(conn *nats.Conn, prefix string) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Connect dials url and returns a publisher that owns the connection.
func Connect(url, prefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("roster-engine"),
		nats.Timeout(2*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	p := NewNATS(conn, prefix)
	p.owned = true
	return p, nil
}

// Subject returns the subject an event is published on.
func (p *NATSPublisher) Subject(e Event) string {
	return p.prefix + "." + string(e.Tenant) + "." + string(e.Type)
}

func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := p.conn.Publish(p.Subject(e), data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

// Close drains an owned connection.
func (p *NATSPublisher) Close() error {
	if !p.owned {
		return nil
	}
	return p.conn.Drain()
}
