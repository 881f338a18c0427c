package events

import (
	"context"
	"errors"
	"testing"

	"origination_backend/platform/logger"
)

func TestMemoryPublisher_PreservesEmissionOrder(t *testing.T) {
	pub := NewMemoryPublisher()
	ctx := context.Background()

	sequence := []Event{
		LeadCaptured{BaseEvent: NewBaseEvent("t-1"), LeadID: "lead-1", Source: "landing", Consent: true},
		ModalitySelected{BaseEvent: NewBaseEvent("t-1"), LeadID: "lead-1", GenerationModality: "AUTO_LOCAL"},
		ViabilityRequested{BaseEvent: NewBaseEvent("t-1"), LeadID: "lead-1"},
		ViabilityCompleted{BaseEvent: NewBaseEvent("t-1"), LeadID: "lead-1", KWhYearPerKWp: 1380, PerformanceRatio: 0.8},
		SystemSized{BaseEvent: NewBaseEvent("t-1"), LeadID: "lead-1", KWp: 5, TierCode: "T115", BandCode: "S", ExpectedKWhYear: 6900},
		RecommendationBundleCreated{BaseEvent: NewBaseEvent("t-1"), LeadID: "lead-1", OffersCount: 3, TierCode: "T115", BandCode: "S"},
	}
	for _, event := range sequence {
		if err := pub.Publish(ctx, event); err != nil {
			t.Fatalf("publish %s: %v", event.EventName(), err)
		}
	}

	want := []string{
		"lead.captured.v1",
		"generation.modality.selected.v1",
		"viability.requested.v1",
		"viability.completed.v1",
		"system.sized.v1",
		"recommendation.bundle.created.v1",
	}
	got := pub.Names()
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d]: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestBaseEvent_CarriesTraceAndTimestamp(t *testing.T) {
	base := NewBaseEvent("trace-9")
	if base.TraceID != "trace-9" {
		t.Errorf("expected trace-9, got %s", base.TraceID)
	}
	if base.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}
	if base.Timestamp.Location() != base.Timestamp.UTC().Location() {
		t.Error("timestamps are recorded in UTC")
	}
}

func testLogger() *logger.Logger {
	return logger.New("development")
}

type fakeConn struct {
	publishErr error
	connected  bool
	closed     bool
	subjects   []string
}

func (c *fakeConn) Publish(subject string, _ []byte) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.subjects = append(c.subjects, subject)
	return nil
}

func (c *fakeConn) IsConnected() bool { return c.connected }

func (c *fakeConn) Close() { c.closed = true }

// newNATSPublisherWithConns wires a publisher to a scripted sequence of
// connections, one per dial. Dialing past the end of the sequence fails.
func newNATSPublisherWithConns(dials *int, conns ...*fakeConn) *NATSPublisher {
	pub := NewNATSPublisher(NATSConfig{URL: "nats://unused:4222"}, testLogger())
	pub.dial = func() (natsConn, error) {
		if *dials >= len(conns) {
			return nil, errors.New("broker unreachable")
		}
		conn := conns[*dials]
		*dials++
		return conn, nil
	}
	return pub
}

func TestNATSPublisher_ReusesHealthyConnection(t *testing.T) {
	dials := 0
	conn := &fakeConn{connected: true}
	pub := newNATSPublisherWithConns(&dials, conn)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := pub.Publish(ctx, LeadCaptured{BaseEvent: NewBaseEvent("t-1"), LeadID: "lead-1"}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	if dials != 1 {
		t.Errorf("expected a single dial, got %d", dials)
	}
	if got := pub.Retries(); got != 0 {
		t.Errorf("expected 0 retries, got %d", got)
	}
	if len(conn.subjects) != 2 || conn.subjects[0] != "origination.lead.captured.v1" {
		t.Errorf("unexpected subjects %v", conn.subjects)
	}
}

func TestNATSPublisher_ReconnectsAndRetriesExactlyOnce(t *testing.T) {
	dials := 0
	broken := &fakeConn{connected: true, publishErr: errors.New("connection closed")}
	healthy := &fakeConn{connected: true}
	pub := newNATSPublisherWithConns(&dials, broken, healthy)

	err := pub.Publish(context.Background(), LeadCaptured{BaseEvent: NewBaseEvent("t-1"), LeadID: "lead-1"})
	if err != nil {
		t.Fatalf("expected the retry to deliver the event, got %v", err)
	}

	if got := pub.Retries(); got != 1 {
		t.Errorf("expected 1 retry, got %d", got)
	}
	if dials != 2 {
		t.Errorf("expected a reconnect dial, got %d dials", dials)
	}
	if !broken.closed {
		t.Error("expected the broken connection to be closed")
	}
	if len(healthy.subjects) != 1 || healthy.subjects[0] != "origination.lead.captured.v1" {
		t.Errorf("unexpected subjects %v", healthy.subjects)
	}
}

func TestNATSPublisher_DropsEventAfterSecondFailure(t *testing.T) {
	dials := 0
	cause := errors.New("connection closed")
	first := &fakeConn{connected: true, publishErr: cause}
	second := &fakeConn{connected: true, publishErr: cause}
	pub := newNATSPublisherWithConns(&dials, first, second)

	err := pub.Publish(context.Background(), LeadCaptured{BaseEvent: NewBaseEvent("t-1"), LeadID: "lead-1"})
	if err == nil {
		t.Fatal("expected the dropped event to surface an error for telemetry")
	}

	if got := pub.Retries(); got != 1 {
		t.Errorf("expected exactly 1 retry, got %d", got)
	}
	if dials != 2 {
		t.Errorf("expected 2 dials, got %d", dials)
	}

	// A later publish against a recovered broker must not be poisoned.
	recovered := &fakeConn{connected: true}
	pub.dial = func() (natsConn, error) { return recovered, nil }
	if err := pub.Publish(context.Background(), ViabilityRequested{BaseEvent: NewBaseEvent("t-1"), LeadID: "lead-1"}); err != nil {
		t.Fatalf("publish after recovery: %v", err)
	}
	if len(recovered.subjects) != 1 || recovered.subjects[0] != "origination.viability.requested.v1" {
		t.Errorf("unexpected subjects %v", recovered.subjects)
	}
}

func TestNATSPublisher_UnreachableBrokerCountsOneRetry(t *testing.T) {
	dials := 0
	pub := newNATSPublisherWithConns(&dials)

	err := pub.Publish(context.Background(), LeadCaptured{BaseEvent: NewBaseEvent("t-1"), LeadID: "lead-1"})
	if err == nil {
		t.Fatal("expected an error when the broker is unreachable")
	}
	if got := pub.Retries(); got != 1 {
		t.Errorf("expected 1 retry, got %d", got)
	}
}
