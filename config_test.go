package stcp

import "testing"

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	if cfg.MSS != DefaultMSS {
		t.Errorf("MSS = %d, want %d", cfg.MSS, DefaultMSS)
	}
	if cfg.MSL != DefaultMSL {
		t.Errorf("MSL = %v, want %v", cfg.MSL, DefaultMSL)
	}
	if cfg.LocalWindow != DefaultLocalWindow {
		t.Errorf("LocalWindow = %d, want %d", cfg.LocalWindow, DefaultLocalWindow)
	}
	if cfg.ISSSource == nil {
		t.Fatal("ISSSource should default to a non-nil source")
	}
}

func TestNewConfigOptions(t *testing.T) {
	cfg := NewConfig(WithMSS(100), WithLocalWindow(512), WithISSSource(DeterministicISS))
	if cfg.MSS != 100 {
		t.Errorf("MSS = %d, want 100", cfg.MSS)
	}
	if cfg.LocalWindow != 512 {
		t.Errorf("LocalWindow = %d, want 512", cfg.LocalWindow)
	}
	if got := cfg.ISSSource(); got != 1 {
		t.Errorf("ISSSource() = %d, want 1", got)
	}
}
