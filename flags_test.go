package stcp

import "testing"

func TestFlagsHasAll(t *testing.T) {
	f := FlagSYN | FlagACK
	if !f.HasAll(FlagSYN) {
		t.Error("expected HasAll(SYN) on SYN|ACK")
	}
	if !f.HasAll(FlagSYN | FlagACK) {
		t.Error("expected HasAll(SYN|ACK) on SYN|ACK")
	}
	if f.HasAll(FlagFIN) {
		t.Error("did not expect HasAll(FIN) on SYN|ACK")
	}
	if f.HasAll(FlagSYN | FlagFIN) {
		t.Error("did not expect HasAll(SYN|FIN) on SYN|ACK")
	}
}

func TestFlagsHasAny(t *testing.T) {
	f := FlagFIN | FlagACK
	if !f.HasAny(FlagFIN) {
		t.Error("expected HasAny(FIN) on FIN|ACK")
	}
	if !f.HasAny(FlagSYN | FlagFIN) {
		t.Error("expected HasAny(SYN|FIN) on FIN|ACK")
	}
	if f.HasAny(FlagSYN | FlagRST) {
		t.Error("did not expect HasAny(SYN|RST) on FIN|ACK")
	}
	if Flags(0).HasAny(FlagACK) {
		t.Error("did not expect HasAny on zero flags")
	}
}

func TestFlagsString(t *testing.T) {
	cases := []struct {
		f    Flags
		want string
	}{
		{0, "[]"},
		{FlagSYN, "[SYN]"},
		{FlagFIN, "[FIN]"},
		{FlagACK, "[ACK]"},
		{FlagRST, "[RST]"},
		{FlagSYN | FlagACK, "[SYN,ACK]"},
		{FlagFIN | FlagACK, "[FIN,ACK]"},
		{FlagFIN | FlagSYN | FlagACK, "[FIN,SYN,ACK]"},
		{FlagPSH | FlagURG, "[PSH,URG]"},
	}
	for _, c := range cases {
		if got := c.f.String(); got != c.want {
			t.Errorf("Flags(%d).String() = %q, want %q", c.f, got, c.want)
		}
	}
}
