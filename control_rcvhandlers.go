package stcp

// Receive processes a segment received while established or in the
// closing phase (SYN_SENT/SYN_RCVD/LISTEN are handled by the handshake
// methods in control.go instead). It returns any in-order application
// bytes to deliver, whether the peer's FIN was consumed (signalling
// end-of-stream to the application), and whether a bare ACK must be sent
// back. Split per spec §4.5's two-pass rule (ACK processing, then
// payload/FIN processing), mirroring the separate rcvXxx handlers in
// soypat-lneto's tcp/control_rcvhandlers.go.
func (cb *ControlBlock) Receive(h Header, payload []byte) (deliver []byte, eof bool, sendAck bool, err error) {
	switch cb.state {
	case StateClosed, StateListen, StateSynSent, StateSynRcvd, StateClosedFinal:
		cb.trace("receive called outside open states", "state", cb.state)
		return nil, false, false, ErrUnexpectedSegment
	}

	if h.Flags.HasAny(FlagSYN) {
		cb.trace("unexpected SYN after handshake", "state", cb.state)
		return nil, false, false, ErrUnexpectedSegment
	}

	cb.processAck(h)

	if cb.state == StateTimeWait {
		// Stray retransmissions may still arrive while we linger; no
		// further state change is possible from here.
		return nil, false, false, nil
	}

	deliver, mismatch := cb.processPayload(h, payload)
	if mismatch {
		return nil, false, true, ErrSequenceMismatch
	}
	if len(deliver) > 0 {
		sendAck = true
	}

	if h.Flags.HasAny(FlagFIN) {
		finSeq := Add(h.Seq, Size(len(payload)))
		if finSeq != cb.rcv.nxt {
			cb.trace("FIN sequence mismatch", "got", finSeq, "want", cb.rcv.nxt)
			return deliver, false, true, ErrSequenceMismatch
		}
		ok := cb.processFin()
		if !ok {
			return deliver, false, sendAck, ErrUnexpectedSegment
		}
		sendAck = true
		eof = true
	}

	return deliver, eof, sendAck, nil
}

// processAck advances snd_una/peer_win on a valid new ACK and applies the
// "ACK of our own FIN" transitions (spec §4.3: FIN_WAIT_1->FIN_WAIT_2,
// CLOSING->TIME_WAIT, LAST_ACK->CLOSED_FINAL). Stale or duplicate ACKs are
// no-ops, per spec §4.4.
func (cb *ControlBlock) processAck(h Header) {
	if !h.Flags.HasAny(FlagACK) {
		return
	}
	if !Greater(h.Ack, cb.snd.una) {
		return
	}
	cb.snd.una = h.Ack
	cb.snd.wnd = Size(h.Window)

	if !cb.finSent || h.Ack != cb.localFinSeq {
		return
	}
	switch cb.state {
	case StateFinWait1:
		cb.setState(StateFinWait2)
	case StateClosing:
		cb.enterTimeWait()
	case StateLastAck:
		cb.setState(StateClosedFinal)
	}
}

// processPayload delivers in-order application bytes, per spec §4.5. It
// only accepts data while the peer may still legitimately be sending,
// i.e. before the peer's own FIN has been observed. mismatch reports a
// SequenceMismatch: payload present but out of order.
func (cb *ControlBlock) processPayload(h Header, payload []byte) (deliver []byte, mismatch bool) {
	if len(payload) == 0 {
		return nil, false
	}
	switch cb.state {
	case StateEstablished, StateFinWait1, StateFinWait2:
	default:
		cb.trace("unexpected data in state", "state", cb.state)
		return nil, false
	}
	if h.Seq != cb.rcv.nxt {
		cb.trace("sequence mismatch", "got", h.Seq, "want", cb.rcv.nxt)
		return nil, true
	}
	cb.rcv.nxt = Add(cb.rcv.nxt, Size(len(payload)))
	return payload, false
}

// processFin consumes the peer's FIN (one sequence number) and applies
// the matching state transition, per spec §4.3's transition table. It
// reports false if a FIN arrives in a state that does not expect one.
func (cb *ControlBlock) processFin() bool {
	switch cb.state {
	case StateEstablished:
		cb.rcv.nxt = Add(cb.rcv.nxt, 1)
		cb.setState(StateCloseWait)
		return true
	case StateFinWait1:
		cb.rcv.nxt = Add(cb.rcv.nxt, 1)
		cb.setState(StateClosing)
		return true
	case StateFinWait2:
		cb.rcv.nxt = Add(cb.rcv.nxt, 1)
		cb.enterTimeWait()
		return true
	default:
		cb.trace("unexpected FIN in state", "state", cb.state)
		return false
	}
}
