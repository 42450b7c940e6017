package stcp

import "testing"

func TestLess(t *testing.T) {
	cases := []struct {
		a, b Value
		want bool
	}{
		{0, 1, true},
		{1, 0, false},
		{0, 0, false},
		{0xffffffff, 0, true},
		{0, 0xffffffff, false},
		{1 << 31, 0, true},
	}
	for _, c := range cases {
		if got := Less(c.a, c.b); got != c.want {
			t.Errorf("Less(%d,%d) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestAddSizeof(t *testing.T) {
	v := Add(0xfffffffe, 4)
	if v != 2 {
		t.Errorf("Add wrapped wrong: got %d want 2", v)
	}
	if got := Sizeof(0xfffffffe, 2); got != 4 {
		t.Errorf("Sizeof across wrap: got %d want 4", got)
	}
}

func TestInWindow(t *testing.T) {
	if !InWindow(5, 0, 10) {
		t.Error("5 should be in [0,10)")
	}
	if InWindow(10, 0, 10) {
		t.Error("10 should not be in [0,10)")
	}
	if InWindow(5, 0, 0) {
		t.Error("zero-size window should contain nothing")
	}
	if !InWindow(2, 0xfffffffe, 10) {
		t.Error("2 should be in a window that wraps past 0")
	}
}
