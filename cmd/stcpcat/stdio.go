package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/basilisk-net/stcp"
)

// stdioAppChannel adapts the process's stdin/stdout to stcp.AppChannel,
// the CLI counterpart to the in-memory ChanAppChannel used by tests. A
// background goroutine pumps blocking stdin reads into a channel, the
// same bridge pattern stcp.ChanNetConn/ChanMultiplexer use internally,
// since a Multiplexer's Wait cannot itself block inside a blocking Read.
type stdioAppChannel struct {
	in  chan []byte
	err chan error
	out *bufio.Writer

	pending *[]byte
	eof     bool
}

func newStdioAppChannel() *stdioAppChannel {
	a := &stdioAppChannel{
		in:  make(chan []byte, 16),
		err: make(chan error, 1),
		out: bufio.NewWriter(os.Stdout),
	}
	go a.pump()
	return a
}

func (a *stdioAppChannel) pump() {
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, buf[:n])
			a.in <- cp
		}
		if err != nil {
			a.err <- err
			return
		}
	}
}

func (a *stdioAppChannel) ReadOutbound(max int) ([]byte, error) {
	if a.eof {
		return nil, io.EOF
	}
	var data []byte
	if a.pending != nil {
		data = *a.pending
		a.pending = nil
	} else {
		select {
		case data = <-a.in:
		case err := <-a.err:
			a.eof = true
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		default:
			return nil, nil
		}
	}
	if len(data) > max {
		rest := data[max:]
		a.pending = &rest
		data = data[:max]
	}
	return data, nil
}

func (a *stdioAppChannel) WriteInbound(data []byte) error {
	if _, err := a.out.Write(data); err != nil {
		return err
	}
	return a.out.Flush()
}

func (a *stdioAppChannel) CloseInbound() error {
	return a.out.Flush()
}

// stdioMultiplexer is a stcp.Multiplexer over a stdioAppChannel and a
// stcp.NetConn fed by its own background reader, mirroring
// stcp.ChanMultiplexer's select-and-cache approach but for the two real
// I/O sources a CLI actually has.
type stdioMultiplexer struct {
	app *stdioAppChannel
	nc  *netConnReader
}

func newStdioMultiplexer(app *stdioAppChannel, nc *netConnReader) *stdioMultiplexer {
	return &stdioMultiplexer{app: app, nc: nc}
}

func (m *stdioMultiplexer) Wait(ctx context.Context, deadline time.Time) (stcp.Event, error) {
	var timerC <-chan time.Time
	if !deadline.IsZero() {
		t := time.NewTimer(time.Until(deadline))
		defer t.Stop()
		timerC = t.C
	}
	if m.app.pending != nil {
		return stcp.EventAppData, nil
	}
	select {
	case seg := <-m.nc.segments:
		m.nc.pending = &seg
		return stcp.EventNetworkData, nil
	case err := <-m.nc.errs:
		m.nc.pending = &netSegment{err: err}
		return stcp.EventNetworkData, nil
	case data := <-m.app.in:
		m.app.pending = &data
		return stcp.EventAppData, nil
	case err := <-m.app.err:
		m.app.eof = true
		_ = err
		return stcp.EventAppClose, nil
	case <-timerC:
		return stcp.EventTimeout, nil
	case <-ctx.Done():
		return stcp.EventNone, ctx.Err()
	}
}
