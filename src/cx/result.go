package cx

// Trial is the outcome of one timed invocation. A trial with a non-nil Err carries no sample.
type Trial struct {
	Elapsed float64
	Err     error
}

func (t Trial) Ok() bool {
	return t.Err == nil
}

// Result aggregates the trials of one named benchmark. Times are in milliseconds.
// Avg, Min and Max are meaningful only when Error is false.
type Result struct {
	Name       string  `json:"name"`
	Avg        float64 `json:"avg_ms"`
	Min        float64 `json:"min_ms"`
	Max        float64 `json:"max_ms"`
	Iterations int     `json:"iterations"`
	Error      bool    `json:"error"`
	ErrorMsg   string  `json:"error_msg,omitempty"`
}

// MemoryResult is the outcome of a single memory sampled trial
type MemoryResult struct {
	Name       string  `json:"name"`
	TimeMs     float64 `json:"time_ms"`
	MemoryUsed int64   `json:"memory_used"`
	PeakMemory uint64  `json:"peak_memory"`
	PeakDelta  int64   `json:"peak_delta"`
	Error      bool    `json:"error"`
	ErrorMsg   string  `json:"error_msg,omitempty"`
}

// Reduce folds trials into a Result using successful trials only,
// failed trials are skipped rather than counted as zero-length samples.
func Reduce(name string, trials []Trial) Result {
	result := Result{Name: name}
	var sum float64
	for _, trial := range trials {
		if !trial.Ok() {
			result.ErrorMsg = trial.Err.Error()
			continue
		}
		if result.Iterations == 0 || trial.Elapsed < result.Min {
			result.Min = trial.Elapsed
		}
		if result.Iterations == 0 || trial.Elapsed > result.Max {
			result.Max = trial.Elapsed
		}
		sum += trial.Elapsed
		result.Iterations++
	}
	if result.Iterations == 0 {
		result.Error = true
		return result
	}
	result.Avg = sum / float64(result.Iterations)
	return result
}
