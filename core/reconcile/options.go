package reconcile

import "time"

// Options holds the tunables of the sync engine. Zero values are normalized
// to the documented defaults so hand-constructed Options behave the same as
// loaded configuration.
type Options struct {
	// Concurrency bounds the fan-out worker pool.
	Concurrency int `mapstructure:"concurrency" default:"5"`

	// Interval is the period between daemon batches.
	Interval time.Duration `mapstructure:"interval" default:"5m"`

	// RunTimeout bounds a single mapping's run including all retries.
	RunTimeout time.Duration `mapstructure:"run_timeout" default:"2m"`

	// BatchSize caps entries per mutation call (provider limit: 100).
	BatchSize int `mapstructure:"batch_size" default:"100"`

	// ManagedTag is the description prefix marking entries owned by this
	// system. Entries without it are foreign and never touched.
	ManagedTag string `mapstructure:"managed_tag" default:"sg2pl:"`

	// MaxAttempts bounds in-place retries of a single provider call.
	MaxAttempts int `mapstructure:"max_attempts" default:"4"`

	// ConflictRetries bounds additional read-diff-apply cycles after a
	// version conflict.
	ConflictRetries int `mapstructure:"conflict_retries" default:"3"`

	// BackoffBase, BackoffCap and BackoffJitter shape the retry delays.
	BackoffBase   time.Duration `mapstructure:"backoff_base" default:"200ms"`
	BackoffCap    time.Duration `mapstructure:"backoff_cap" default:"5s"`
	BackoffJitter time.Duration `mapstructure:"backoff_jitter" default:"250ms"`

	// CapacityWarnPercent is the utilization threshold (in percent of
	// MaxEntries) above which a run reports a capacity warning.
	CapacityWarnPercent int `mapstructure:"capacity_warn_percent" default:"80"`
}

// Normalize returns a copy with zero and nonsense values replaced by
// defaults.
func (o Options) Normalize() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = 5
	}
	if o.Interval <= 0 {
		o.Interval = 5 * time.Minute
	}
	if o.RunTimeout <= 0 {
		o.RunTimeout = 2 * time.Minute
	}
	if o.BatchSize <= 0 || o.BatchSize > 100 {
		o.BatchSize = 100
	}
	if o.ManagedTag == "" {
		o.ManagedTag = "sg2pl:"
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 4
	}
	if o.ConflictRetries <= 0 {
		o.ConflictRetries = 3
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = 200 * time.Millisecond
	}
	if o.BackoffCap <= 0 {
		o.BackoffCap = 5 * time.Second
	}
	if o.BackoffJitter <= 0 {
		o.BackoffJitter = 250 * time.Millisecond
	}
	if o.CapacityWarnPercent <= 0 || o.CapacityWarnPercent > 100 {
		o.CapacityWarnPercent = 80
	}
	return o
}
