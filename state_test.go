package stcp

import "testing"

func TestStateString(t *testing.T) {
	cases := []struct {
		s    State
		want string
	}{
		{StateClosed, "CLOSED"},
		{StateListen, "LISTEN"},
		{StateSynSent, "SYN_SENT"},
		{StateSynRcvd, "SYN_RCVD"},
		{StateEstablished, "ESTABLISHED"},
		{StateFinWait1, "FIN_WAIT_1"},
		{StateFinWait2, "FIN_WAIT_2"},
		{StateClosing, "CLOSING"},
		{StateCloseWait, "CLOSE_WAIT"},
		{StateLastAck, "LAST_ACK"},
		{StateTimeWait, "TIME_WAIT"},
		{StateClosedFinal, "CLOSED_FINAL"},
		{State(99), "UNKNOWN"},
	}
	for _, c := range cases {
		if got := c.s.String(); got != c.want {
			t.Errorf("State(%d).String() = %q, want %q", c.s, got, c.want)
		}
	}
}

func TestStateIsTerminal(t *testing.T) {
	for s := StateClosed; s <= StateClosedFinal; s++ {
		want := s == StateClosedFinal
		if got := s.IsTerminal(); got != want {
			t.Errorf("%v.IsTerminal() = %v, want %v", s, got, want)
		}
	}
}

func TestStateAdmitsAppWrite(t *testing.T) {
	admits := map[State]bool{
		StateEstablished: true,
		StateCloseWait:   true,
	}
	for s := StateClosed; s <= StateClosedFinal; s++ {
		if got := s.AdmitsAppWrite(); got != admits[s] {
			t.Errorf("%v.AdmitsAppWrite() = %v, want %v", s, got, admits[s])
		}
	}
}

func TestStateAdmitsAppClose(t *testing.T) {
	admits := map[State]bool{
		StateEstablished: true,
		StateCloseWait:   true,
	}
	for s := StateClosed; s <= StateClosedFinal; s++ {
		if got := s.AdmitsAppClose(); got != admits[s] {
			t.Errorf("%v.AdmitsAppClose() = %v, want %v", s, got, admits[s])
		}
	}
}

func TestStateIsClosingPhase(t *testing.T) {
	notClosing := []State{StateClosed, StateListen, StateSynSent, StateSynRcvd, StateEstablished}
	closing := []State{StateFinWait1, StateFinWait2, StateClosing, StateCloseWait, StateLastAck, StateTimeWait, StateClosedFinal}
	for _, s := range notClosing {
		if s.IsClosingPhase() {
			t.Errorf("%v.IsClosingPhase() = true, want false", s)
		}
	}
	for _, s := range closing {
		if !s.IsClosingPhase() {
			t.Errorf("%v.IsClosingPhase() = false, want true", s)
		}
	}
}
