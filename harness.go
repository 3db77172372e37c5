package clickhousebench

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/zikwall/clickhouse-bench/src/cx"
	"github.com/zikwall/clickhouse-bench/src/memory"
)

// Harness main interface, provides a top-level API.
// Harness owns the current Clickhouse client and replaces it when a trial fails and the policy asks for it.
// Harness never propagates trial errors, they are folded into the returned results.
type Harness interface {
	// Options returns the options associated with harness
	Options() *Options
	// Run times op up to policy.Iterations() times and reduces the successful trials
	Run(ctx context.Context, name string, policy *Policy, op cx.Operation) cx.Result
	// RunWithMemory times a single call of p and samples memory around it
	RunWithMemory(ctx context.Context, name string, p cx.Producer) cx.MemoryResult
	// Client returns the current shared client, nil after Close
	Client() cx.Client
	// Metrics returns connection and failure counters
	Metrics() *Metrics
	// Close releases the current client
	Close() error
}

// Metrics counts what the harness did to its connections
type Metrics struct {
	connects   cx.Countable
	closes     cx.Countable
	reconnects cx.Countable
	revalidate cx.Countable
	failures   cx.Countable
}

func newMetrics() *Metrics {
	return &Metrics{
		connects:   cx.NewCounter(),
		closes:     cx.NewCounter(),
		reconnects: cx.NewCounter(),
		revalidate: cx.NewCounter(),
		failures:   cx.NewCounter(),
	}
}

// Connects returns the number of successfully opened clients
func (m *Metrics) Connects() uint64 {
	return m.connects.Val()
}

// Closes returns the number of clients closed by the harness
func (m *Metrics) Closes() uint64 {
	return m.closes.Val()
}

// Reconnects returns the number of times the shared client was replaced
func (m *Metrics) Reconnects() uint64 {
	return m.reconnects.Val()
}

// Revalidations returns the number of unhealthy shared clients replaced between benchmarks
func (m *Metrics) Revalidations() uint64 {
	return m.revalidate.Val()
}

// Failures returns the number of failed trials
func (m *Metrics) Failures() uint64 {
	return m.failures.Val()
}

// Implementation of the Harness interface
type harnessImpl struct {
	mu        sync.RWMutex
	connector cx.Connector
	client    cx.Client
	options   *Options
	logger    cx.Logger
	sampler   memory.Sampler
	metrics   *Metrics
	// set by a benchmark without a single successful trial, checked before the next shared one
	suspect bool
}

// NewHarness opens the shared client through connector.
// A failure here is fatal for the run and is returned to the caller as is.
func NewHarness(ctx context.Context, connector cx.Connector, options *Options) (Harness, error) {
	h := newHarness(connector, options)
	client, err := connector.Connect(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initial connection")
	}
	h.metrics.connects.Inc()
	h.client = client
	return h, nil
}

// NewHarnessWithClient similar to NewHarness except that the shared client is already opened,
// connector is only used to replace it or to open fresh per-trial clients
func NewHarnessWithClient(client cx.Client, connector cx.Connector, options *Options) Harness {
	h := newHarness(connector, options)
	h.client = client
	return h
}

func newHarness(connector cx.Connector, options *Options) *harnessImpl {
	if options == nil {
		options = DefaultOptions()
	}
	if options.logger == nil {
		options.logger = cx.NewDefaultLogger()
	}
	if options.sampler == nil {
		sampler, err := memory.NewProcessSampler()
		if err != nil {
			options.logger.Logf("process memory is not available, fallback to runtime stats: %v", err)
			sampler = memory.NewRuntimeSampler()
		}
		options.sampler = sampler
	}
	return &harnessImpl{
		connector: connector,
		options:   options,
		logger:    options.logger,
		sampler:   options.sampler,
		metrics:   newMetrics(),
	}
}

// Options return global options object
func (h *harnessImpl) Options() *Options {
	return h.options
}

func (h *harnessImpl) Metrics() *Metrics {
	return h.metrics
}

func (h *harnessImpl) Client() cx.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.client
}

func (h *harnessImpl) Close() error {
	h.mu.Lock()
	client := h.client
	h.client = nil
	h.mu.Unlock()
	if client == nil {
		return nil
	}
	if h.options.isDebug {
		h.logger.Log("close clickhouse client")
	}
	h.metrics.closes.Inc()
	return client.Close()
}

func (h *harnessImpl) Run(ctx context.Context, name string, policy *Policy, op cx.Operation) cx.Result {
	if policy == nil {
		policy = DefaultPolicy()
	}
	iterations := policy.Iterations()
	if iterations < 1 {
		iterations = 1
	}
	if !policy.FreshConnectionPerTrial() {
		h.revalidate(ctx)
	}
	trials := make([]cx.Trial, 0, iterations)
	for i := 0; i < iterations; i++ {
		if ctx.Err() != nil {
			if h.options.isDebug {
				h.logger.Logf("%s: stopped after %d of %d trials: %v", name, i, iterations, ctx.Err())
			}
			break
		}
		var trial cx.Trial
		if policy.FreshConnectionPerTrial() {
			trial = h.freshTrial(ctx, op)
		} else {
			trial = h.sharedTrial(ctx, op)
		}
		trials = append(trials, trial)
		if trial.Ok() {
			continue
		}
		h.metrics.failures.Inc()
		if h.options.isDebug {
			h.logger.Logf("%s: trial %d failed with %s error: %v", name, i+1, cx.ErrorKind(trial.Err), trial.Err)
		}
		// a fresh trial already gets a new client, the last trial has nobody to hand the new one to
		if policy.ReconnectOnFailure() && !policy.FreshConnectionPerTrial() && i < iterations-1 {
			h.reconnect(ctx)
		}
	}
	result := cx.Reduce(name, trials)
	if result.Error && h.options.isHealthCheckEnabled && !policy.FreshConnectionPerTrial() {
		h.mu.Lock()
		h.suspect = true
		h.mu.Unlock()
	}
	return result
}

func (h *harnessImpl) sharedTrial(ctx context.Context, op cx.Operation) cx.Trial {
	client := h.Client()
	if client == nil {
		return cx.Trial{Err: cx.ErrClosed}
	}
	start := time.Now()
	if err := op.Do(ctx, client); err != nil {
		return cx.Trial{Err: err}
	}
	return cx.Trial{Elapsed: elapsedMs(start)}
}

// freshTrial connects outside of the measured interval, the client is closed on every exit path
func (h *harnessImpl) freshTrial(ctx context.Context, op cx.Operation) cx.Trial {
	client, err := h.connector.Connect(ctx)
	if err != nil {
		return cx.Trial{Err: errors.Wrap(err, "connect")}
	}
	h.metrics.connects.Inc()
	defer func() {
		h.metrics.closes.Inc()
		if err := client.Close(); err != nil && h.options.isDebug {
			h.logger.Logf("close per-trial client: %v", err)
		}
	}()
	start := time.Now()
	if err := op.Do(ctx, client); err != nil {
		return cx.Trial{Err: err}
	}
	return cx.Trial{Elapsed: elapsedMs(start)}
}

// reconnect makes exactly one attempt to replace the shared client after a failed trial
func (h *harnessImpl) reconnect(ctx context.Context) {
	if h.replace(ctx) {
		h.metrics.reconnects.Inc()
	}
}

// replace opens a new shared client, a failure keeps the old one
func (h *harnessImpl) replace(ctx context.Context) bool {
	client, err := h.connector.Connect(ctx)
	if err != nil {
		if h.options.isDebug {
			h.logger.Logf("reconnect failed: %v", err)
		}
		return false
	}
	h.metrics.connects.Inc()
	h.mu.Lock()
	old := h.client
	h.client = client
	h.mu.Unlock()
	if old != nil {
		h.metrics.closes.Inc()
		_ = old.Close()
	}
	return true
}

// revalidate pings the shared client before a benchmark when the previous one had no
// successful trial, so one broken connection does not fail every benchmark that follows
func (h *harnessImpl) revalidate(ctx context.Context) {
	h.mu.Lock()
	suspect := h.suspect
	client := h.client
	h.suspect = false
	h.mu.Unlock()
	if !suspect || client == nil || ctx.Err() != nil {
		return
	}
	err := client.Ping(ctx)
	if err == nil {
		return
	}
	if h.options.isDebug {
		h.logger.Logf("shared client is unhealthy (%s error): %v", cx.ErrorKind(err), err)
	}
	if h.replace(ctx) {
		h.metrics.revalidate.Inc()
	}
}

func (h *harnessImpl) RunWithMemory(ctx context.Context, name string, p cx.Producer) cx.MemoryResult {
	memory.Compact()
	before := h.sample()
	start := time.Now()
	value, err := p.Produce(ctx)
	elapsed := elapsedMs(start)
	after := h.sample()
	runtime.KeepAlive(value)
	memory.Compact()
	if err != nil {
		h.metrics.failures.Inc()
		if h.options.isDebug {
			h.logger.Logf("%s: failed with %s error: %v", name, cx.ErrorKind(err), err)
		}
		return cx.MemoryResult{
			Name:     name,
			Error:    true,
			ErrorMsg: err.Error(),
		}
	}
	return cx.MemoryResult{
		Name:       name,
		TimeMs:     elapsed,
		MemoryUsed: int64(after.InUse) - int64(before.InUse),
		PeakMemory: after.Peak,
		PeakDelta:  int64(after.Peak) - int64(before.Peak),
	}
}

// sample never fails a trial, an unreadable sample counts as zero
func (h *harnessImpl) sample() memory.Snapshot {
	snapshot, err := h.sampler.Sample()
	if err != nil {
		h.logger.Logf("sample memory with %s: %v", h.sampler.Name(), err)
		return memory.Snapshot{}
	}
	return snapshot
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond)
}
