package stcp

import (
	"context"
	"io"
	"time"
)

// segment is a header paired with its payload, as exchanged over a
// ChanNetConn.
type segment struct {
	h       Header
	payload []byte
}

// ChanNetConn is an in-memory, directly-wired NetConn used to connect two
// Engines in tests without a real socket, grounded on the channel-pair
// harness pattern used throughout the teacher's own _test.go files (two
// ends driven from goroutines, connected by buffered channels rather than
// a loopback socket).
type ChanNetConn struct {
	out chan<- segment
	in  <-chan segment

	// pending holds a segment already pulled off in by a ChanMultiplexer's
	// Wait, so RecvSegment hands it back instead of blocking on in a
	// second time for the same event.
	pending *segment
}

// NewChanPipe returns two ends of an in-memory full-duplex pipe, suitable
// for handing one to each of a pair of Engines under test.
func NewChanPipe(buffer int) (a, b *ChanNetConn) {
	ab := make(chan segment, buffer)
	ba := make(chan segment, buffer)
	a = &ChanNetConn{out: ab, in: ba}
	b = &ChanNetConn{out: ba, in: ab}
	return a, b
}

// SendSegment implements NetConn.
func (c *ChanNetConn) SendSegment(ctx context.Context, h Header, payload []byte) error {
	cp := append([]byte(nil), payload...)
	select {
	case c.out <- segment{h: h, payload: cp}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecvSegment implements NetConn.
func (c *ChanNetConn) RecvSegment(ctx context.Context) (Header, []byte, error) {
	if c.pending != nil {
		s := *c.pending
		c.pending = nil
		return s.h, s.payload, nil
	}
	select {
	case s := <-c.in:
		return s.h, s.payload, nil
	case <-ctx.Done():
		return Header{}, nil, ctx.Err()
	}
}

// ChanAppChannel is an in-memory AppChannel backed by byte-slice
// channels, the application-side counterpart to ChanNetConn.
type ChanAppChannel struct {
	outbound  chan []byte
	closeReq  chan struct{}
	closeOnce bool
	inbound   chan []byte
	eof       chan struct{}

	// pending mirrors ChanNetConn.pending: a value a ChanMultiplexer's
	// Wait already pulled off outbound, waiting for the matching
	// ReadOutbound call.
	pending *[]byte
}

// NewChanAppChannel allocates a ChanAppChannel. Writes submitted via
// Write are what Engine.Run later reads as ReadOutbound; bytes the engine
// delivers via WriteInbound are what Read later returns.
func NewChanAppChannel(buffer int) *ChanAppChannel {
	return &ChanAppChannel{
		outbound: make(chan []byte, buffer),
		closeReq: make(chan struct{}),
		inbound:  make(chan []byte, buffer),
		eof:      make(chan struct{}),
	}
}

// Write submits data for transmission, i.e. a future ReadOutbound call.
func (a *ChanAppChannel) Write(p []byte) (int, error) {
	cp := append([]byte(nil), p...)
	a.outbound <- cp
	return len(p), nil
}

// RequestClose signals that the application has no more data to send.
// ChanMultiplexer.Wait surfaces it to Engine.Run as EventAppClose;
// ReadOutbound returns io.EOF for it when no data is waiting.
func (a *ChanAppChannel) RequestClose() {
	if !a.closeOnce {
		a.closeOnce = true
		close(a.closeReq)
	}
}

// ReadOutbound implements AppChannel.
func (a *ChanAppChannel) ReadOutbound(max int) ([]byte, error) {
	var data []byte
	if a.pending != nil {
		data = *a.pending
		a.pending = nil
	} else {
		select {
		case data = <-a.outbound:
		case <-a.closeReq:
			return nil, io.EOF
		default:
			return nil, nil
		}
	}
	if max > 0 && len(data) > max {
		// Keep the remainder for the next ReadOutbound; Wait reports it
		// as EventAppData.
		rest := data[max:]
		a.pending = &rest
		return data[:max], nil
	}
	return data, nil
}

// WriteInbound implements AppChannel.
func (a *ChanAppChannel) WriteInbound(data []byte) error {
	cp := append([]byte(nil), data...)
	a.inbound <- cp
	return nil
}

// CloseInbound implements AppChannel.
func (a *ChanAppChannel) CloseInbound() error {
	close(a.eof)
	return nil
}

// Read returns the next chunk of bytes the engine has delivered, or
// io.EOF once the peer's FIN has been processed and all prior chunks
// drained.
func (a *ChanAppChannel) Read() ([]byte, error) {
	select {
	case data := <-a.inbound:
		return data, nil
	case <-a.eof:
		select {
		case data := <-a.inbound:
			return data, nil
		default:
			return nil, io.EOF
		}
	}
}

// ChanMultiplexer is a Multiplexer over a ChanNetConn and a
// ChanAppChannel, used by tests in place of a real poller.
type ChanMultiplexer struct {
	nc  *ChanNetConn
	app *ChanAppChannel
}

// NewChanMultiplexer builds a Multiplexer that wakes on network segments,
// pending outbound application data, an application close request, or
// deadline expiry.
func NewChanMultiplexer(nc *ChanNetConn, app *ChanAppChannel) *ChanMultiplexer {
	return &ChanMultiplexer{nc: nc, app: app}
}

// Wait implements Multiplexer.
func (m *ChanMultiplexer) Wait(ctx context.Context, deadline time.Time) (Event, error) {
	if m.app.pending != nil {
		return EventAppData, nil
	}
	var timerC <-chan time.Time
	if !deadline.IsZero() {
		t := time.NewTimer(time.Until(deadline))
		defer t.Stop()
		timerC = t.C
	}
	select {
	case s := <-m.nc.in:
		m.nc.pending = &s
		return EventNetworkData, nil
	case data := <-m.app.outbound:
		// The select already consumed the value; hand it straight to
		// ReadOutbound instead of a second channel read, since Engine
		// always follows EventAppData with exactly one ReadOutbound call.
		m.app.pending = &data
		return EventAppData, nil
	case <-m.app.closeReq:
		return EventAppClose, nil
	case <-timerC:
		return EventTimeout, nil
	case <-ctx.Done():
		return EventNone, ctx.Err()
	}
}
