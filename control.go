package stcp

import (
	"fmt"
	"log/slog"
	"math/rand"
)

func randomISS() Value { return Value(rand.Intn(256)) }

// Role distinguishes which side of the handshake a ControlBlock plays,
// per spec §4.1.
type Role uint8

const (
	RoleActive Role = iota
	RolePassive
)

func (r Role) String() string {
	if r == RolePassive {
		return "passive"
	}
	return "active"
}

// sendSpace is the send sequence-space triple of spec §3: una <= nxt, with
// wnd the most recently advertised peer receive window.
type sendSpace struct {
	iss Value
	una Value
	nxt Value
	wnd Size
}

// recvSpace is the receive sequence-space pair of spec §3: irs is the
// peer's initial sequence number, nxt the next octet expected in order.
type recvSpace struct {
	irs Value
	nxt Value
}

// ControlBlock is the per-connection state named in spec §3: the two
// sequence spaces, the current [State], the outbound byte queue and the
// bookkeeping needed to drive the four-way close. It performs no I/O of
// its own; every method is a pure state transition over a segment already
// read from, or about to be written to, the network. [Engine] is the
// collaborator that does the actual reading and writing.
//
// Grounded on the ControlBlock/sendSpace/recvSpace split in
// soypat-lneto's tcp/control.go, generalized from that package's
// full-retransmission TCB to the narrower state this engine needs.
type ControlBlock struct {
	role  Role
	state State
	snd   sendSpace
	rcv   recvSpace
	queue sendQueue

	// localFinSeq is the Ack value that confirms our own FIN, valid once
	// finSent is true.
	localFinSeq Value
	finPending  bool // app close requested; send FIN once queue drains.
	finSent     bool

	// deadlineArm is set on entry to TIME_WAIT or LAST_ACK and cleared by
	// ConsumeDeadlineArm, which Engine uses to know when to (re)start the
	// 2*MSL linger timer (spec §5: "deadline equal to close_deadline when
	// in TIME_WAIT or LAST_ACK"; §9 open question 1: "a 2*MSL timer in
	// TIME_WAIT and LAST_ACK only").
	deadlineArm bool

	cfg Config
	log *slog.Logger
}

// enterTimeWait transitions to TIME_WAIT and flags that a fresh 2*MSL
// linger deadline needs arming.
func (cb *ControlBlock) enterTimeWait() {
	cb.setState(StateTimeWait)
	cb.deadlineArm = true
}

// enterLastAck transitions to LAST_ACK and flags that a fresh 2*MSL
// deadline needs arming, per spec §5/§9.
func (cb *ControlBlock) enterLastAck() {
	cb.setState(StateLastAck)
	cb.deadlineArm = true
}

// ConsumeDeadlineArm reports whether TIME_WAIT or LAST_ACK was just
// entered and has not yet had its linger deadline armed, clearing the
// flag on read.
func (cb *ControlBlock) ConsumeDeadlineArm() bool {
	armed := cb.deadlineArm
	cb.deadlineArm = false
	return armed
}

// Timeout processes the 2*MSL linger deadline firing in TIME_WAIT or
// LAST_ACK, transitioning to CLOSED_FINAL. Since the data-phase substrate
// is lossless and there is no retransmission (spec §9 open question 1),
// LAST_ACK's deadline firing simply gives up waiting for the peer's final
// ACK rather than retrying.
func (cb *ControlBlock) Timeout() {
	switch cb.state {
	case StateTimeWait, StateLastAck:
		cb.setState(StateClosedFinal)
	}
}

// NewControlBlock allocates a ControlBlock for the given role. Passive
// control blocks start in LISTEN; active ones start in CLOSED and require
// a call to BeginActiveOpen to reach SYN_SENT, per spec §4.3.
func NewControlBlock(role Role, cfg Config) *ControlBlock {
	cb := &ControlBlock{
		role: role,
		cfg:  cfg,
		log:  slog.Default(),
	}
	cb.snd.iss = cfg.ISSSource()
	cb.snd.una = cb.snd.iss
	cb.snd.nxt = cb.snd.iss
	if role == RolePassive {
		cb.state = StateListen
	} else {
		cb.state = StateClosed
	}
	return cb
}

// SetLogger overrides the default logger, matching the teacher's
// debug.go attach-a-logger convention.
func (cb *ControlBlock) SetLogger(l *slog.Logger) {
	if l != nil {
		cb.log = l
	}
}

func (cb *ControlBlock) trace(msg string, args ...any) {
	cb.log.Debug(msg, args...)
}

// Role returns the connection's handshake role.
func (cb *ControlBlock) Role() Role { return cb.role }

// State returns the current connection state.
func (cb *ControlBlock) State() State { return cb.state }

// Done reports whether the connection has reached CLOSED_FINAL and may be
// torn down by its owner.
func (cb *ControlBlock) Done() bool { return cb.state == StateClosedFinal }

// localWindow is the constant receive window this side advertises.
func (cb *ControlBlock) localWindow() uint16 {
	w := cb.cfg.LocalWindow
	if w > 0xffff {
		w = 0xffff
	}
	return uint16(w)
}

func (cb *ControlBlock) setState(next State) {
	if cb.log != nil {
		cb.trace("state transition", "from", cb.state, "to", next)
	}
	cb.state = next
}

// --- handshake (spec §4.6) ---

// ErrWrongState is returned when a caller invokes a handshake or close
// method from a state that does not admit it.
type ErrWrongState struct {
	Op   string
	Have State
}

func (e *ErrWrongState) Error() string {
	return fmt.Sprintf("stcp: %s: wrong state %s", e.Op, e.Have)
}

// ErrUnexpectedSegment marks a segment dropped under spec §7's
// UnexpectedSegmentInState rule: logged, discarded, no state change.
var ErrUnexpectedSegment = fmt.Errorf("stcp: unexpected segment in state")

// ErrSequenceMismatch marks a segment dropped under spec §7's
// SequenceMismatch rule.
var ErrSequenceMismatch = fmt.Errorf("stcp: sequence mismatch")

// BeginActiveOpen transitions CLOSED -> SYN_SENT and returns the SYN
// segment to send, per spec §4.6 scenario S1.
func (cb *ControlBlock) BeginActiveOpen() (Header, error) {
	if cb.state != StateClosed {
		return Header{}, &ErrWrongState{Op: "BeginActiveOpen", Have: cb.state}
	}
	cb.setState(StateSynSent)
	return Header{
		Seq:    cb.snd.iss,
		Flags:  FlagSYN,
		Window: cb.localWindow(),
	}, nil
}

// HandleSynSentSegment processes a segment received while in SYN_SENT. On
// a valid SYN+ACK it returns the final handshake ACK to send and advances
// to ESTABLISHED.
func (cb *ControlBlock) HandleSynSentSegment(h Header) (Header, error) {
	if cb.state != StateSynSent {
		return Header{}, &ErrWrongState{Op: "HandleSynSentSegment", Have: cb.state}
	}
	if !h.Flags.HasAll(flagSynAck) || h.Ack != Add(cb.snd.iss, 1) {
		cb.trace("unexpected segment in SYN_SENT", "flags", h.Flags)
		return Header{}, ErrUnexpectedSegment
	}
	cb.rcv.irs = h.Seq
	cb.rcv.nxt = Add(h.Seq, 1)
	cb.snd.una = h.Ack
	cb.snd.nxt = h.Ack
	cb.snd.wnd = Size(h.Window)
	cb.setState(StateEstablished)
	return Header{
		Seq:    cb.snd.nxt,
		Ack:    cb.rcv.nxt,
		Flags:  FlagACK,
		Window: cb.localWindow(),
	}, nil
}

// HandleListenSegment processes a segment received while in LISTEN. On a
// valid SYN it returns the SYN+ACK to send and advances to SYN_RCVD.
func (cb *ControlBlock) HandleListenSegment(h Header) (Header, error) {
	if cb.state != StateListen {
		return Header{}, &ErrWrongState{Op: "HandleListenSegment", Have: cb.state}
	}
	if !h.Flags.HasAll(FlagSYN) {
		cb.trace("unexpected segment in LISTEN", "flags", h.Flags)
		return Header{}, ErrUnexpectedSegment
	}
	cb.rcv.irs = h.Seq
	cb.rcv.nxt = Add(h.Seq, 1)
	cb.snd.wnd = Size(h.Window)
	cb.setState(StateSynRcvd)
	return Header{
		Seq:    cb.snd.iss,
		Ack:    cb.rcv.nxt,
		Flags:  flagSynAck,
		Window: cb.localWindow(),
	}, nil
}

// HandleSynRcvdSegment processes a segment received while in SYN_RCVD. On
// a valid ACK it advances to ESTABLISHED.
func (cb *ControlBlock) HandleSynRcvdSegment(h Header) error {
	if cb.state != StateSynRcvd {
		return &ErrWrongState{Op: "HandleSynRcvdSegment", Have: cb.state}
	}
	if !h.Flags.HasAll(FlagACK) || h.Ack != Add(cb.snd.iss, 1) {
		cb.trace("unexpected segment in SYN_RCVD", "flags", h.Flags)
		return ErrUnexpectedSegment
	}
	cb.snd.una = h.Ack
	cb.snd.nxt = h.Ack
	cb.snd.wnd = Size(h.Window)
	cb.setState(StateEstablished)
	return nil
}

// --- data path (spec §4.4) ---

// AdmitWrite queues data for transmission if the current state admits app
// writes, assigning it the sequence range immediately following whatever
// is already queued (spec §3 invariant 3: send_queue's bytes occupy the
// sequence range right after snd_nxt, not yet advanced into it). It
// reports whether the write was admitted; an unadmitted write is the
// caller's to hold or discard per spec §4.3's admission rule.
func (cb *ControlBlock) AdmitWrite(data []byte) bool {
	if !cb.state.AdmitsAppWrite() || len(data) == 0 {
		return false
	}
	seq := Add(cb.snd.nxt, cb.queue.Len())
	cb.queue.push(seq, data)
	return true
}

// PendingPayload returns the next segment ready for transmission, and its
// payload if any: either the head of the send queue, sliced to at most
// MSS bytes and admitted only while it fits the peer's advertised window
// (spec §4.4 invariant 2), or, once the queue is empty and a close is
// pending, the deferred FIN segment (grounded on soypat-lneto's
// queued-FIN-after-drain pattern). ok is false when nothing is eligible
// to send right now.
func (cb *ControlBlock) PendingPayload() (h Header, payload []byte, ok bool) {
	if head := cb.queue.front(); head != nil {
		inFlight := Sizeof(cb.snd.una, cb.snd.nxt)
		if Size(inFlight) >= cb.snd.wnd {
			return Header{}, nil, false
		}
		avail := cb.snd.wnd - inFlight
		n := len(head.data)
		if Size(n) > avail {
			n = int(avail)
		}
		if cb.cfg.MSS > 0 && n > cb.cfg.MSS {
			n = cb.cfg.MSS
		}
		if n == 0 {
			return Header{}, nil, false
		}
		payload = head.data[:n]
		out := Header{Seq: cb.snd.nxt, Ack: cb.rcv.nxt, Flags: FlagACK, Window: cb.localWindow()}
		cb.snd.nxt = Add(cb.snd.nxt, Size(n))
		if n == len(head.data) {
			cb.queue.pop()
		} else {
			head.data = head.data[n:]
			head.seq = cb.snd.nxt
			cb.queue.length -= Size(n)
		}
		return out, payload, true
	}
	if cb.finPending && !cb.finSent {
		inFlight := Sizeof(cb.snd.una, cb.snd.nxt)
		if Size(inFlight) >= cb.snd.wnd {
			return Header{}, nil, false
		}
		h := Header{Seq: cb.snd.nxt, Ack: cb.rcv.nxt, Flags: flagFinAck, Window: cb.localWindow()}
		cb.localFinSeq = Add(cb.snd.nxt, 1)
		cb.snd.nxt = cb.localFinSeq
		cb.finSent = true
		return h, nil, true
	}
	return Header{}, nil, false
}

// HandleAppClose processes an application close request, per spec §4.3's
// admission rule and transition table. It transitions state immediately
// (ESTABLISHED->FIN_WAIT_1, CLOSE_WAIT->LAST_ACK) and marks the FIN as
// pending; the FIN itself is deferred to PendingPayload until the send
// queue has fully drained, so that already-accepted bytes are never lost
// ahead of the connection's own end-of-stream marker.
func (cb *ControlBlock) HandleAppClose() bool {
	if !cb.state.AdmitsAppClose() {
		return false
	}
	switch cb.state {
	case StateEstablished:
		cb.setState(StateFinWait1)
	case StateCloseWait:
		cb.enterLastAck()
	}
	cb.finPending = true
	return true
}

// QueuedLen reports the cumulative bytes still sitting in the send queue.
func (cb *ControlBlock) QueuedLen() Size { return cb.queue.Len() }

// InFlight reports the number of bytes sent but not yet acknowledged,
// i.e. snd_nxt - snd_una (spec §3 invariant 3).
func (cb *ControlBlock) InFlight() Size { return Sizeof(cb.snd.una, cb.snd.nxt) }
