package pipeline

import (
	"time"

	"git.home.luguber.info/inful/solveplot/internal/metrics"
)

// Observer receives callbacks around stage execution and run lifecycle.
type Observer interface {
	OnStageStart(stage StageName)
	OnStageComplete(stage StageName, duration time.Duration, result StageResult)
	OnRunComplete(report *Report)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnStageStart(_ StageName)                                    {}
func (NoopObserver) OnStageComplete(_ StageName, _ time.Duration, _ StageResult) {}
func (NoopObserver) OnRunComplete(_ *Report)                                     {}

// RecorderObserver adapts metrics.Recorder into an Observer.
type RecorderObserver struct{ Recorder metrics.Recorder }

func (r RecorderObserver) OnStageStart(_ StageName) {}

func (r RecorderObserver) OnStageComplete(stage StageName, d time.Duration, result StageResult) {
	if r.Recorder == nil {
		return
	}
	if result != StageResultSkipped {
		r.Recorder.ObserveStageDuration(string(stage), d)
	}
	r.Recorder.IncStageResult(string(stage), metrics.ResultLabel(result))
}

func (r RecorderObserver) OnRunComplete(report *Report) {
	if r.Recorder == nil {
		return
	}
	r.Recorder.ObserveRunDuration(report.Duration())
	r.Recorder.IncRunOutcome(string(report.Outcome))
	r.Recorder.SetLastRun(report.End)
	if len(report.Columns) > 0 {
		r.Recorder.SetTableShape(report.Rows, len(report.Columns))
	}
}

// MultiObserver fans callbacks out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) OnStageStart(stage StageName) {
	for _, o := range m {
		o.OnStageStart(stage)
	}
}

func (m MultiObserver) OnStageComplete(stage StageName, d time.Duration, result StageResult) {
	for _, o := range m {
		o.OnStageComplete(stage, d, result)
	}
}

func (m MultiObserver) OnRunComplete(report *Report) {
	for _, o := range m {
		o.OnRunComplete(report)
	}
}
