package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"origination_backend/platform/logger"

	"github.com/nats-io/nats.go"
)

// NATSConfig holds the connection settings for the NATS publisher.
type NATSConfig struct {
	URL            string
	SubjectPrefix  string
	Name           string
	ConnectTimeout time.Duration
}

// natsConn is the slice of *nats.Conn the publisher uses. It exists so
// the reconnect-and-retry path can be exercised without a live broker.
type natsConn interface {
	Publish(subject string, data []byte) error
	IsConnected() bool
	Close()
}

// NATSPublisher publishes domain events to NATS, fire-and-forget.
// The connection is process-wide, lazily established on first publish,
// and safe for concurrent use by multiple in-flight orchestration runs.
// A publish that fails on a closed connection is retried exactly once
// after a reconnect; a second failure drops the event with a log line.
type NATSPublisher struct {
	cfg     NATSConfig
	log     *logger.Logger
	dial    func() (natsConn, error)
	mu      sync.Mutex
	conn    natsConn
	retries atomic.Int64
}

// NewNATSPublisher creates a publisher. No connection is made until the
// first publish, so a missing broker does not block startup.
func NewNATSPublisher(cfg NATSConfig, log *logger.Logger) *NATSPublisher {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "origination"
	}
	if cfg.Name == "" {
		cfg.Name = "pre-orchestrator"
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	p := &NATSPublisher{cfg: cfg, log: log}
	p.dial = func() (natsConn, error) {
		return nats.Connect(p.cfg.URL,
			nats.Name(p.cfg.Name),
			nats.Timeout(p.cfg.ConnectTimeout),
		)
	}
	return p
}

// Publish marshals the event and sends it to "<prefix>.<event-name>".
// Errors are logged and returned for telemetry, but callers treat
// publishing as best-effort and never abort a run on them.
func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	subject := p.cfg.SubjectPrefix + "." + event.EventName()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.EventName(), err)
	}

	if err := p.publish(subject, payload); err != nil {
		// One reconnect-and-retry, then drop with a log line.
		p.retries.Add(1)
		p.reconnect()
		if err = p.publish(subject, payload); err != nil {
			p.log.EventDropped(subject, err)
			return err
		}
	}

	p.log.EventPublished(subject)
	return nil
}

// Retries returns the cumulative number of publish retry attempts.
func (p *NATSPublisher) Retries() int64 {
	return p.retries.Load()
}

// Close tears down the process-wide connection on shutdown.
func (p *NATSPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

func (p *NATSPublisher) publish(subject string, payload []byte) error {
	conn, err := p.connection()
	if err != nil {
		return err
	}
	return conn.Publish(subject, payload)
}

// connection returns the shared connection, establishing it if needed.
func (p *NATSPublisher) connection() (natsConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil && p.conn.IsConnected() {
		return p.conn, nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}

	conn, err := p.dial()
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	p.conn = conn
	p.log.Info("connected to NATS", "url", p.cfg.URL)
	return conn, nil
}

func (p *NATSPublisher) reconnect() {
	p.mu.Lock()
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	p.mu.Unlock()
}

// MemoryPublisher records published events in memory. Used in tests and
// when no broker is configured.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryPublisher creates an empty in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish appends the event to the in-memory record.
func (p *MemoryPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Retries always reports zero: in-memory publishing cannot fail.
func (p *MemoryPublisher) Retries() int64 { return 0 }

// Events returns a copy of the recorded events in publish order.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Names returns the EventName of each recorded event in publish order.
func (p *MemoryPublisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, e := range p.events {
		names = append(names, e.EventName())
	}
	return names
}
