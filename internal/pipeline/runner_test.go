package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu        sync.Mutex
	started   []StageName
	completed map[StageName]StageResult
	report    *Report
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{completed: map[StageName]StageResult{}}
}

func (o *recordingObserver) OnStageStart(s StageName) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, s)
}

func (o *recordingObserver) OnStageComplete(s StageName, _ time.Duration, r StageResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed[s] = r
}

func (o *recordingObserver) OnRunComplete(r *Report) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.report = r
}

func TestRunStagesStopsAtFirstFailure(t *testing.T) {
	var ran []StageName
	mk := func(name StageName, err error) Stage {
		return func(context.Context, *State) error {
			ran = append(ran, name)
			return err
		}
	}
	boom := errors.New("boom")
	stages := NewPipeline().
		Add("generate", mk("generate", boom)).
		Add("build", mk("build", nil)).
		AddIf(false, "never", mk("never", nil)).
		Add(StageLoad, mk(StageLoad, nil)).
		Build()

	obs := newRecordingObserver()
	st := NewState("run-1", &Plan{})
	err := RunStages(context.Background(), st, stages, obs)

	require.Error(t, err)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageName("generate"), se.Stage)
	assert.Equal(t, StageErrorFatal, se.Kind)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []StageName{"generate"}, ran)
	assert.Equal(t, []StageName{"generate"}, obs.started)
	assert.Equal(t, StageResultSkipped, obs.completed["build"])
	assert.Equal(t, StageResultSkipped, obs.completed[StageLoad])

	require.NotNil(t, obs.report)
	assert.Equal(t, OutcomeFailed, st.Report.Outcome)
	assert.Equal(t, StageName("generate"), st.Report.FailedStage)
	assert.Equal(t, []StageName{"generate", "build", StageLoad}, st.Report.Stages)
}

func TestRunStagesSuccess(t *testing.T) {
	stages := NewPipeline().
		Add("a", func(context.Context, *State) error { return nil }).
		Add("b", func(context.Context, *State) error { return nil }).
		Build()
	st := NewState("run-2", &Plan{})
	require.NoError(t, RunStages(context.Background(), st, stages, nil))

	assert.Equal(t, OutcomeSuccess, st.Report.Outcome)
	assert.Equal(t, StageResultSuccess, st.Report.StageResults["b"])
	assert.Contains(t, st.Report.Summary(), "outcome=success")
	assert.Contains(t, st.Report.Summary(), "stages=[a:success b:success]")
}

func TestRunStagesKeepsExistingStageError(t *testing.T) {
	inner := NewFatalStageError("solve", errors.New("exit 2"))
	stages := []StageDef{{Name: StagePipeline, Fn: func(context.Context, *State) error { return inner }}}
	st := NewState("run-3", &Plan{})
	err := RunStages(context.Background(), st, stages, nil)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageName("solve"), se.Stage)
}

func TestRunStagesCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	stages := []StageDef{{Name: "generate", Fn: func(context.Context, *State) error { called = true; return nil }}}
	st := NewState("run-4", &Plan{})
	err := RunStages(ctx, st, stages, nil)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorCanceled, se.Kind)
	assert.False(t, called)
	assert.Equal(t, OutcomeCanceled, st.Report.Outcome)
}
