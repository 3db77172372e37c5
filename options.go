package clickhousebench

import (
	"github.com/zikwall/clickhouse-bench/src/cx"
	"github.com/zikwall/clickhouse-bench/src/memory"
)

// Options holds harness configuration properties
type Options struct {
	// Debug mode
	isDebug bool
	// Ping the current client after a benchmark in which every trial failed
	isHealthCheckEnabled bool
	// Logger with
	logger cx.Logger
	// Sampler used by RunWithMemory
	sampler memory.Sampler
}

// IsDebug reports whether per-trial logging is on
func (o *Options) IsDebug() bool {
	return o.isDebug
}

// SetDebugMode set debug mode, for logs and errors
func (o *Options) SetDebugMode(isDebug bool) *Options {
	o.isDebug = isDebug
	return o
}

// SetHealthCheckIsEnabled enable/disable revalidation of the shared client after a failed benchmark
func (o *Options) SetHealthCheckIsEnabled(enabled bool) *Options {
	o.isHealthCheckEnabled = enabled
	return o
}

// SetLogger installs a custom implementation of the cx.Logger interface
func (o *Options) SetLogger(logger cx.Logger) *Options {
	o.logger = logger
	return o
}

// Sampler returns the sampler used by RunWithMemory
func (o *Options) Sampler() memory.Sampler {
	return o.sampler
}

// Logger returns the installed logger
func (o *Options) Logger() cx.Logger {
	return o.logger
}

// SetSampler installs a custom implementation of the memory.Sampler interface
func (o *Options) SetSampler(sampler memory.Sampler) *Options {
	o.sampler = sampler
	return o
}

// DefaultOptions returns Options object with default values
func DefaultOptions() *Options {
	return &Options{
		isHealthCheckEnabled: true,
	}
}

// Policy controls how a single benchmark repeats its operation
type Policy struct {
	// Number of trials. Default 10
	iterations int
	// Replace the current client after a failed trial. Default true
	reconnectOnFailure bool
	// Open a new client for every trial and close it afterwards. Default false
	freshConnection bool
}

// Iterations returns the number of trials
func (p *Policy) Iterations() int {
	return p.iterations
}

// SetIterations sets the number of trials, values below one are raised to one
func (p *Policy) SetIterations(iterations int) *Policy {
	if iterations < 1 {
		iterations = 1
	}
	p.iterations = iterations
	return p
}

// ReconnectOnFailure reports whether a failed trial triggers a reconnect
func (p *Policy) ReconnectOnFailure() bool {
	return p.reconnectOnFailure
}

// SetReconnectOnFailure enable/disable reconnecting after a failed trial
func (p *Policy) SetReconnectOnFailure(enabled bool) *Policy {
	p.reconnectOnFailure = enabled
	return p
}

// FreshConnectionPerTrial reports whether every trial gets its own client
func (p *Policy) FreshConnectionPerTrial() bool {
	return p.freshConnection
}

// SetFreshConnectionPerTrial enable/disable a new client per trial
func (p *Policy) SetFreshConnectionPerTrial(enabled bool) *Policy {
	p.freshConnection = enabled
	return p
}

// DefaultPolicy returns Policy object with default values
func DefaultPolicy() *Policy {
	return &Policy{
		iterations:         10,
		reconnectOnFailure: true,
	}
}

// NewPolicy returns the default policy with the given number of trials
func NewPolicy(iterations int) *Policy {
	return DefaultPolicy().SetIterations(iterations)
}
