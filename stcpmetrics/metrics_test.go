package stcpmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/basilisk-net/stcp"
)

func TestCollectorReapsDoneConnections(t *testing.T) {
	c := NewCollector(prometheus.Labels{"instance": "test"})

	cfg := stcp.NewConfig(stcp.WithISSSource(stcp.DeterministicISS))
	cb := stcp.NewControlBlock(stcp.RoleActive, cfg)
	c.Add(cb)

	// Drive the handshake to ESTABLISHED using fabricated peer segments,
	// the same way handshake_test.go exercises ControlBlock without a
	// live peer.
	if _, err := cb.BeginActiveOpen(); err != nil {
		t.Fatalf("BeginActiveOpen: %v", err)
	}
	if _, err := cb.HandleSynSentSegment(stcp.Header{
		Flags: stcp.FlagSYN | stcp.FlagACK, Ack: 2, Seq: 1000, Window: 100,
	}); err != nil {
		t.Fatalf("HandleSynSentSegment: %v", err)
	}

	metrics := make(chan prometheus.Metric, 16)
	c.Collect(metrics)
	close(metrics)
	if countMetrics(metrics) == 0 {
		t.Fatal("expected metrics for a live ESTABLISHED connection")
	}

	if !cb.HandleAppClose() {
		t.Fatal("HandleAppClose should be admitted in ESTABLISHED")
	}
	if _, _, ok := cb.PendingPayload(); !ok {
		t.Fatal("expected the deferred FIN to be ready to send")
	}
	if _, _, _, err := cb.Receive(stcp.Header{
		Seq: 1001, Ack: 3, Flags: stcp.FlagFIN | stcp.FlagACK, Window: 100,
	}, nil); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if cb.State() != stcp.StateTimeWait {
		t.Fatalf("state = %v, want TIME_WAIT", cb.State())
	}
	cb.Timeout()
	if !cb.Done() {
		t.Fatal("expected Timeout to drive TIME_WAIT to CLOSED_FINAL")
	}

	metrics = make(chan prometheus.Metric, 16)
	c.Collect(metrics)
	close(metrics)
	if n := countMetrics(metrics); n != 0 {
		t.Errorf("expected a CLOSED_FINAL connection to be reaped, got %d metrics", n)
	}
}

func countMetrics(ch <-chan prometheus.Metric) int {
	n := 0
	for range ch {
		n++
	}
	return n
}
