package stcp

import "time"

// armOrClearDeadline starts the 2*MSL linger timer the instant the
// control block enters TIME_WAIT or LAST_ACK (spec §5/§9), and clears it
// once the connection is in neither state, including when LAST_ACK moves
// to CLOSED_FINAL on the ACK of our FIN without Timeout firing.
func (e *Engine) armOrClearDeadline() {
	if e.cb.ConsumeDeadlineArm() {
		e.deadline = currentTime().Add(2 * e.cfg.MSL)
		return
	}
	switch e.cb.State() {
	case StateTimeWait, StateLastAck:
	default:
		e.deadline = time.Time{}
	}
}

// currentTime is time.Now, indirected so deterministic engine tests can
// substitute a fake clock without the Multiplexer needing to know about
// it.
var currentTime = time.Now
