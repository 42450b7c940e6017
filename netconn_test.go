package stcp

import (
	"context"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStreamNetConnRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	sa := NewStreamNetConn(a)
	sb := NewStreamNetConn(b)

	h := Header{SrcPort: 1234, DstPort: 80, Seq: 10, Ack: 20, Flags: flagSynAck, Window: 3072}
	payload := []byte("hello stcp")

	errc := make(chan error, 1)
	go func() { errc <- sa.SendSegment(context.Background(), h, payload) }()

	gotH, gotPayload, err := sb.RecvSegment(context.Background())
	if err != nil {
		t.Fatalf("RecvSegment: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("SendSegment: %v", err)
	}
	if diff := cmp.Diff(h, gotH); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if string(gotPayload) != string(payload) {
		t.Errorf("payload = %q, want %q", gotPayload, payload)
	}
}

func TestStreamNetConnRoundTripNoPayload(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	sa := NewStreamNetConn(a)
	sb := NewStreamNetConn(b)

	h := Header{SrcPort: 1, DstPort: 2, Seq: 1, Ack: 1, Flags: FlagACK, Window: 100}

	errc := make(chan error, 1)
	go func() { errc <- sa.SendSegment(context.Background(), h, nil) }()

	gotH, gotPayload, err := sb.RecvSegment(context.Background())
	if err != nil {
		t.Fatalf("RecvSegment: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("SendSegment: %v", err)
	}
	if diff := cmp.Diff(h, gotH); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if len(gotPayload) != 0 {
		t.Errorf("payload = %q, want empty", gotPayload)
	}
}
