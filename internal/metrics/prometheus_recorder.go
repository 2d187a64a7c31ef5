package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg           *prom.Registry
	stageDuration *prom.HistogramVec
	runDuration   prom.Histogram
	stageResults  *prom.CounterVec
	runOutcome    *prom.CounterVec
	tableRows     prom.Gauge
	tableColumns  prom.Gauge
	lastRun       prom.Gauge
}

// NewPrometheusRecorder constructs and registers the solveplot metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "solveplot",
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual run stages",
		Buckets:   prom.ExponentialBuckets(0.01, 4, 10),
	}, []string{"stage"})
	pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "solveplot",
		Name:      "run_duration_seconds",
		Help:      "Total run duration",
		Buckets:   prom.ExponentialBuckets(0.01, 4, 10),
	})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "solveplot",
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "solveplot",
		Name:      "run_outcomes_total",
		Help:      "Run outcomes by final status",
	}, []string{"outcome"})
	pr.tableRows = prom.NewGauge(prom.GaugeOpts{
		Namespace: "solveplot",
		Name:      "table_rows",
		Help:      "Data rows in the last loaded artifact",
	})
	pr.tableColumns = prom.NewGauge(prom.GaugeOpts{
		Namespace: "solveplot",
		Name:      "table_columns",
		Help:      "Columns in the last loaded artifact",
	})
	pr.lastRun = prom.NewGauge(prom.GaugeOpts{
		Namespace: "solveplot",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run finished",
	})
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcome, pr.tableRows, pr.tableColumns, pr.lastRun)
	return pr
}

// Registry exposes the underlying registry (for tests and textfile export).
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

// WriteTextfile writes all metrics to path in the text exposition format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.reg)
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetTableShape(rows, columns int) {
	if p == nil || p.tableRows == nil {
		return
	}
	p.tableRows.Set(float64(rows))
	p.tableColumns.Set(float64(columns))
}

func (p *PrometheusRecorder) SetLastRun(t time.Time) {
	if p == nil || p.lastRun == nil {
		return
	}
	p.lastRun.Set(float64(t.Unix()))
}
