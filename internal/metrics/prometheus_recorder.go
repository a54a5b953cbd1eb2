package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once               sync.Once
	stageDuration      *prom.HistogramVec
	generationDuration prom.Histogram
	stageResults       *prom.CounterVec
	generationOutcome  *prom.CounterVec
	graphNodes         prom.Gauge
	graphEdges         prom.Gauge
	pagesRendered      prom.Counter
	outputsWritten     prom.Counter
	watchEvents        prom.Counter
	debounceFlushes    prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitegen",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual generation stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.generationDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitegen",
			Name:      "generation_duration_seconds",
			Help:      "Total generation duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitegen",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.generationOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitegen",
			Name:      "generation_outcomes_total",
			Help:      "Generation outcomes by final status",
		}, []string{"outcome"})
		pr.graphNodes = prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitegen",
			Name:      "graph_nodes",
			Help:      "Node count of the current dependency graph",
		})
		pr.graphEdges = prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitegen",
			Name:      "graph_edges",
			Help:      "Edge count of the current dependency graph",
		})
		pr.pagesRendered = prom.NewCounter(prom.CounterOpts{
			Namespace: "sitegen",
			Name:      "pages_rendered_total",
			Help:      "Total pages rendered across all generations",
		})
		pr.outputsWritten = prom.NewCounter(prom.CounterOpts{
			Namespace: "sitegen",
			Name:      "outputs_written_total",
			Help:      "Total output files written across all generations",
		})
		pr.watchEvents = prom.NewCounter(prom.CounterOpts{
			Namespace: "sitegen",
			Name:      "watch_events_total",
			Help:      "Filesystem events received by the watcher",
		})
		pr.debounceFlushes = prom.NewCounter(prom.CounterOpts{
			Namespace: "sitegen",
			Name:      "debounce_flushes_total",
			Help:      "Quiet-period expirations that released a change batch",
		})
		reg.MustRegister(pr.stageDuration, pr.generationDuration, pr.stageResults,
			pr.generationOutcome, pr.graphNodes, pr.graphEdges, pr.pagesRendered,
			pr.outputsWritten, pr.watchEvents, pr.debounceFlushes)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveGenerationDuration(d time.Duration) {
	if p == nil || p.generationDuration == nil {
		return
	}
	p.generationDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncGenerationOutcome(outcome string) {
	if p == nil || p.generationOutcome == nil {
		return
	}
	p.generationOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetGraphSize(nodes, edges int) {
	if p == nil || p.graphNodes == nil {
		return
	}
	p.graphNodes.Set(float64(nodes))
	p.graphEdges.Set(float64(edges))
}

func (p *PrometheusRecorder) AddPagesRendered(n int) {
	if p == nil || p.pagesRendered == nil {
		return
	}
	p.pagesRendered.Add(float64(n))
}

func (p *PrometheusRecorder) AddOutputsWritten(n int) {
	if p == nil || p.outputsWritten == nil {
		return
	}
	p.outputsWritten.Add(float64(n))
}

func (p *PrometheusRecorder) IncWatchEvents(n int) {
	if p == nil || p.watchEvents == nil {
		return
	}
	p.watchEvents.Add(float64(n))
}

func (p *PrometheusRecorder) IncDebounceFlush() {
	if p == nil || p.debounceFlushes == nil {
		return
	}
	p.debounceFlushes.Inc()
}
