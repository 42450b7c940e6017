package stcp

import "time"

// DefaultMSS is the reference maximum-segment-size constant named in spec
// §6 ("MSS typically 536").
const DefaultMSS = 536

// DefaultLocalWindow is the reference receive window constant named in
// spec §3 ("implementations use 3072 bytes").
const DefaultLocalWindow Size = 3072

// DefaultMSL is the reference maximum-segment-lifetime constant named in
// spec §4.7 ("the reference uses 1 second").
const DefaultMSL = time.Second

// Config bundles the compile-time constants spec §6 assigns to "the
// external collaborator" (MSS, MSL) together with the local receive window
// and the initial-sequence-number source. Modeled as an explicit value
// rather than a package-level constant or build flag, per spec §9 design
// note 1: "model it as a configuration option, not a compile-time switch".
type Config struct {
	// MSS is the maximum payload octets per outbound segment.
	MSS int
	// MSL is the maximum segment lifetime; TIME_WAIT and LAST_ACK linger
	// for up to 2*MSL (spec §4.7).
	MSL time.Duration
	// LocalWindow is the constant receive window advertised in every
	// outbound segment (spec §3).
	LocalWindow Size
	// ISSSource produces the initial send sequence number for a new
	// connection. Defaults to a uniformly random value in [0,255] per spec
	// §3; DeterministicISS below selects the "iss=1" build flag spec §3
	// mentions, exposed here as an option rather than a compile switch.
	ISSSource func() Value
}

// Option configures a Config, in the functional-options style the teacher
// uses for ControlBlock.Open's explicit iss/wnd parameters.
type Option func(*Config)

// WithMSS overrides the default maximum segment size.
func WithMSS(mss int) Option {
	return func(c *Config) { c.MSS = mss }
}

// WithMSL overrides the default maximum segment lifetime.
func WithMSL(msl time.Duration) Option {
	return func(c *Config) { c.MSL = msl }
}

// WithLocalWindow overrides the default advertised receive window.
func WithLocalWindow(w Size) Option {
	return func(c *Config) { c.LocalWindow = w }
}

// WithISSSource overrides the initial-sequence-number source.
func WithISSSource(src func() Value) Option {
	return func(c *Config) { c.ISSSource = src }
}

// DeterministicISS is an ISSSource that always returns 1, for reproducible
// tests, matching the "FIXED_INITNUM" build flag named in spec §3.
func DeterministicISS() Value { return 1 }

// NewConfig builds a Config from the reference defaults, applying opts in
// order.
func NewConfig(opts ...Option) Config {
	cfg := Config{
		MSS:         DefaultMSS,
		MSL:         DefaultMSL,
		LocalWindow: DefaultLocalWindow,
		ISSSource:   randomISS,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
