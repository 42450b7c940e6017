package stcp

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

// NetConn is the lossless, ordered packet-delivery substrate the engine
// is layered on top of (spec §2/§9): SendSegment hands a header and
// payload down to be delivered whole and in order; RecvSegment blocks for
// the next one. Implementations adapt a real net.Conn/net.PacketConn or,
// for tests, an in-memory channel pair (see chanconn.go).
type NetConn interface {
	SendSegment(ctx context.Context, h Header, payload []byte) error
	RecvSegment(ctx context.Context) (Header, []byte, error)
}

// AppChannel is the application's byte-stream endpoint (spec §2/§4.4):
// ReadOutbound supplies bytes the application wants sent, returning
// io.EOF once the application has closed its write side; WriteInbound
// delivers bytes received in order; CloseInbound signals end-of-stream
// once the peer's FIN has been processed.
type AppChannel interface {
	ReadOutbound(max int) ([]byte, error)
	WriteInbound(data []byte) error
	CloseInbound() error
}

// Event identifies which collaborator woke the engine's single suspension
// point, per spec §9 design note 2 ("one multiplexer wait per iteration").
type Event uint8

const (
	EventNone Event = iota
	EventNetworkData
	EventAppData
	EventAppClose
	EventTimeout
)

func (e Event) String() string {
	switch e {
	case EventNetworkData:
		return "network-data"
	case EventAppData:
		return "app-data"
	case EventAppClose:
		return "app-close"
	case EventTimeout:
		return "timeout"
	default:
		return "none"
	}
}

// Multiplexer is the engine's single suspension point: Wait blocks until
// one of the network connection, the application channel or deadline is
// ready, or ctx is done. deadline is the zero time when no timer is
// currently armed.
type Multiplexer interface {
	Wait(ctx context.Context, deadline time.Time) (Event, error)
}

// Engine drives one connection's [ControlBlock] through its event loop
// (spec §4.4/§4.5/§9), reading and writing NetConn and AppChannel only in
// response to events the Multiplexer reports. It performs no I/O outside
// of Run; the handshake ([Dial]/[Accept]) and Run together cover the full
// connection lifetime.
//
// Grounded on the run loop shape of soypat-lneto's tcp handler dispatch
// (state-driven handling of one event at a time), adapted from that
// package's interrupt-driven NIC polling to an explicit Multiplexer
// collaborator.
type Engine struct {
	cb  *ControlBlock
	nc  NetConn
	app AppChannel
	mux Multiplexer
	cfg Config
	log *slog.Logger

	deadline time.Time
}

// NewEngine assembles an Engine around an already-established
// ControlBlock (the result of [Dial] or [Accept]) and its collaborators.
func NewEngine(cb *ControlBlock, nc NetConn, app AppChannel, mux Multiplexer, cfg Config) *Engine {
	return &Engine{cb: cb, nc: nc, app: app, mux: mux, cfg: cfg, log: slog.Default()}
}

// SetLogger overrides the default logger.
func (e *Engine) SetLogger(l *slog.Logger) {
	if l != nil {
		e.log = l
	}
}

// ControlBlock exposes the engine's underlying connection state, mainly
// for tests and metrics.
func (e *Engine) ControlBlock() *ControlBlock { return e.cb }

// Run executes the event loop until the connection reaches CLOSED_FINAL
// or ctx is cancelled, per spec §4.4/§4.5/§4.7/§9.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.drain(ctx); err != nil {
		return err
	}
	for !e.cb.Done() {
		ev, err := e.mux.Wait(ctx, e.deadline)
		if err != nil {
			return errors.Wrap(err, "stcp: engine: multiplexer wait")
		}
		if err := e.handle(ctx, ev); err != nil {
			return err
		}
		e.armOrClearDeadline()
		if err := e.drain(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) handle(ctx context.Context, ev Event) error {
	switch ev {
	case EventNetworkData:
		return e.handleNetworkData(ctx)
	case EventAppData:
		return e.handleAppData(ctx)
	case EventAppClose:
		e.cb.HandleAppClose()
		return nil
	case EventTimeout:
		e.cb.Timeout()
		return nil
	default:
		e.log.Debug("spurious multiplexer wakeup", "event", ev)
		return nil
	}
}

func (e *Engine) handleNetworkData(ctx context.Context) error {
	h, payload, err := e.nc.RecvSegment(ctx)
	if err != nil {
		return errors.Wrap(err, "stcp: engine: recv segment")
	}
	deliver, eof, sendAck, err := e.cb.Receive(h, payload)
	if err != nil {
		e.log.Debug("dropping segment", "err", err, "state", e.cb.State())
	}
	if len(deliver) > 0 {
		if err := e.app.WriteInbound(deliver); err != nil {
			return errors.Wrap(err, "stcp: engine: deliver to app")
		}
	}
	if eof {
		if err := e.app.CloseInbound(); err != nil {
			return errors.Wrap(err, "stcp: engine: close app inbound")
		}
	}
	if sendAck {
		ack := Header{Seq: e.cb.snd.nxt, Ack: e.cb.rcv.nxt, Flags: FlagACK, Window: e.cb.localWindow()}
		if err := e.nc.SendSegment(ctx, ack, nil); err != nil {
			return errors.Wrap(err, "stcp: engine: send ack")
		}
	}
	return nil
}

func (e *Engine) handleAppData(ctx context.Context) error {
	data, err := e.app.ReadOutbound(e.cfg.MSS)
	if err != nil {
		if errors.Is(err, io.EOF) {
			e.cb.HandleAppClose()
			return nil
		}
		return errors.Wrap(err, "stcp: engine: read from app")
	}
	if len(data) > 0 {
		e.cb.AdmitWrite(data)
	}
	return nil
}

// drain flushes every segment the control block is currently willing to
// emit, per spec §4.4's "while queue head fits in window" loop.
func (e *Engine) drain(ctx context.Context) error {
	for {
		h, payload, ok := e.cb.PendingPayload()
		if !ok {
			return nil
		}
		if err := e.nc.SendSegment(ctx, h, payload); err != nil {
			return errors.Wrap(err, "stcp: engine: send segment")
		}
	}
}
