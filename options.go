package logq

import "time"

// options collects the settings applied by New.
type options struct {
	defaultLevel  Level
	policy        FinalPolicy
	store         Store
	section       string
	loadOnStart   bool
	sinks         []Sink
	diag          Diagnostics
	startupBanner bool
	now           func() time.Time
}

// Option configures a Logger created with New.
type Option func(*options)

func defaultOptions() options {
	return options{
		defaultLevel: LevelDebug,
		policy:       FinalOverridableByFinal,
		section:      DefaultSection,
		diag:         noopDiagnostics{},
		now:          time.Now,
	}
}

// WithDefaultLevel sets the threshold for modules without an explicit level.
func WithDefaultLevel(level Level) Option {
	return func(o *options) {
		if level.Valid() {
			o.defaultLevel = level
		}
	}
}

// WithFinalPolicy selects how final module levels may be replaced.
func WithFinalPolicy(policy FinalPolicy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// WithStore attaches the settings store used to persist module levels.
// When load is true the stored levels are applied before New returns.
func WithStore(store Store, load bool) Option {
	return func(o *options) {
		o.store = store
		o.loadOnStart = load
	}
}

// WithSection changes the settings section module levels are kept in.
func WithSection(name string) Option {
	return func(o *options) {
		if name != "" {
			o.section = name
		}
	}
}

// WithSinks registers sinks in the given order.
func WithSinks(sinks ...Sink) Option {
	return func(o *options) {
		o.sinks = append(o.sinks, sinks...)
	}
}

// WithDiagnostics sets the destination for the logger's own messages.
func WithDiagnostics(diag Diagnostics) Option {
	return func(o *options) {
		if diag != nil {
			o.diag = diag
		}
	}
}

// WithStartupBanner enqueues a "logger startup" line when the logger starts.
func WithStartupBanner(enabled bool) Option {
	return func(o *options) {
		o.startupBanner = enabled
	}
}

// WithClock replaces time.Now for rendered timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
