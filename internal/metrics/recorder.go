package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultWarning ResultLabel = "warning"
	ResultFatal   ResultLabel = "fatal"
)

// Recorder defines observability hooks for generation and stage metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe on the NoopRecorder so callers can inject metrics optionally.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveGenerationDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncGenerationOutcome(outcome string) // outcome: success|failed
	SetGraphSize(nodes, edges int)
	AddPagesRendered(n int)
	AddOutputsWritten(n int)
	IncWatchEvents(n int)
	IncDebounceFlush()
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveGenerationDuration(time.Duration)    {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncGenerationOutcome(string)                {}
func (NoopRecorder) SetGraphSize(int, int)                      {}
func (NoopRecorder) AddPagesRendered(int)                       {}
func (NoopRecorder) AddOutputsWritten(int)                      {}
func (NoopRecorder) IncWatchEvents(int)                         {}
func (NoopRecorder) IncDebounceFlush()                          {}
