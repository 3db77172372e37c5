// Package memory samples memory usage around a measured call.
package memory

import (
	"os"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/process"
)

// Snapshot is the memory state at one point in time, in bytes
type Snapshot struct {
	InUse uint64
	Peak  uint64
}

// Sampler reads the current memory state
type Sampler interface {
	Sample() (Snapshot, error)
	Name() string
}

// Compact asks the runtime to collect garbage and return freed pages to the OS,
// so allocations of earlier work do not leak into the next sample
func Compact() {
	runtime.GC()
	debug.FreeOSMemory()
}

// NewSampler returns the sampler registered under name: "process" or "runtime"
func NewSampler(name string) (Sampler, error) {
	switch name {
	case "", "process":
		return NewProcessSampler()
	case "runtime":
		return NewRuntimeSampler(), nil
	}
	return nil, errors.Errorf("unknown memory sampler %q", name)
}

type runtimeSampler struct{}

// NewRuntimeSampler samples the Go heap: in-use heap spans and heap memory obtained from the OS,
// the latter never shrinks and serves as the peak
func NewRuntimeSampler() Sampler {
	return runtimeSampler{}
}

func (runtimeSampler) Name() string {
	return "runtime"
}

func (runtimeSampler) Sample() (Snapshot, error) {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return Snapshot{
		InUse: stats.HeapInuse,
		Peak:  stats.HeapSys,
	}, nil
}

type processSampler struct {
	mu   sync.Mutex
	proc *process.Process
	peak uint64
}

// NewProcessSampler samples the resident set of the current process.
// The peak is the kernel high water mark where it is reported, otherwise the highest RSS seen.
func NewProcessSampler() (Sampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, errors.Wrap(err, "open current process")
	}
	return &processSampler{proc: proc}, nil
}

func (s *processSampler) Name() string {
	return "process"
}

func (s *processSampler) Sample() (Snapshot, error) {
	info, err := s.proc.MemoryInfo()
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "read process memory")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if info.RSS > s.peak {
		s.peak = info.RSS
	}
	if info.HWM > s.peak {
		s.peak = info.HWM
	}
	return Snapshot{
		InUse: info.RSS,
		Peak:  s.peak,
	}, nil
}
