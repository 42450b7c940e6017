package main

import (
	"context"

	"github.com/basilisk-net/stcp"
)

type netSegment struct {
	h       stcp.Header
	payload []byte
	err     error
}

// netConnReader wraps a stcp.NetConn whose RecvSegment blocks (a real
// socket) with a background pump, so stdioMultiplexer.Wait has something
// to select on, the same bridge stdioAppChannel uses for stdin.
type netConnReader struct {
	nc       stcp.NetConn
	segments chan netSegment
	errs     chan error
	pending  *netSegment
}

func newNetConnReader(ctx context.Context, nc stcp.NetConn) *netConnReader {
	r := &netConnReader{
		nc:       nc,
		segments: make(chan netSegment, 16),
		errs:     make(chan error, 1),
	}
	go r.pump(ctx)
	return r
}

func (r *netConnReader) pump(ctx context.Context) {
	for {
		h, payload, err := r.nc.RecvSegment(ctx)
		if err != nil {
			r.errs <- err
			return
		}
		r.segments <- netSegment{h: h, payload: payload}
	}
}

// RecvSegment implements stcp.NetConn, returning whatever Wait already
// cached.
func (r *netConnReader) RecvSegment(ctx context.Context) (stcp.Header, []byte, error) {
	if r.pending != nil {
		s := *r.pending
		r.pending = nil
		return s.h, s.payload, s.err
	}
	select {
	case s := <-r.segments:
		return s.h, s.payload, nil
	case err := <-r.errs:
		return stcp.Header{}, nil, err
	case <-ctx.Done():
		return stcp.Header{}, nil, ctx.Err()
	}
}

// SendSegment implements stcp.NetConn by delegating straight through.
func (r *netConnReader) SendSegment(ctx context.Context, h stcp.Header, payload []byte) error {
	return r.nc.SendSegment(ctx, h, payload)
}
