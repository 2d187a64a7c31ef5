package pipeline

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/solveplot/internal/logfields"
	"git.home.luguber.info/inful/solveplot/internal/observability"
)

// RunStages executes stages in order, recording timing and stopping on the
// first error. Stages after a failure are recorded as skipped and never run.
// The report is finished before returning.
func RunStages(ctx context.Context, st *State, stages []StageDef, obs Observer) error {
	if obs == nil {
		obs = NoopObserver{}
	}
	if st.Report == nil {
		st.Report = NewReport(st.RunID)
	}
	ctx = observability.WithRunID(ctx, st.RunID)

	var runErr *StageError
	for i, def := range stages {
		if err := ctx.Err(); err != nil {
			runErr = NewCanceledStageError(def.Name, err)
			st.Report.AddIssue(runErr)
			st.Report.RecordStage(def.Name, StageResultCanceled, 0)
			obs.OnStageComplete(def.Name, 0, StageResultCanceled)
			skipRemaining(st, stages[i+1:], obs)
			break
		}

		stageCtx := observability.WithStage(ctx, string(def.Name))
		obs.OnStageStart(def.Name)
		observability.DebugContext(stageCtx, "Stage started")

		t0 := time.Now()
		err := def.Fn(stageCtx, st)
		dur := time.Since(t0)

		if err == nil {
			st.Report.RecordStage(def.Name, StageResultSuccess, dur)
			obs.OnStageComplete(def.Name, dur, StageResultSuccess)
			observability.InfoContext(stageCtx, "Stage completed", logfields.Duration(dur))
			continue
		}

		runErr = classifyStageError(ctx, def.Name, err)
		result := StageResultFatal
		if runErr.Kind == StageErrorCanceled {
			result = StageResultCanceled
		}
		st.Report.AddIssue(runErr)
		st.Report.RecordStage(def.Name, result, dur)
		obs.OnStageComplete(def.Name, dur, result)
		observability.ErrorContext(stageCtx, "Stage failed",
			slog.String("result", string(result)), logfields.Duration(dur), logfields.Error(runErr.Err))
		skipRemaining(st, stages[i+1:], obs)
		break
	}

	st.Report.Finish()
	obs.OnRunComplete(st.Report)
	if runErr != nil {
		return runErr
	}
	return nil
}

func classifyStageError(ctx context.Context, name StageName, err error) *StageError {
	var se *StageError
	if stderrors.As(err, &se) {
		return se
	}
	if ctx.Err() != nil || stderrors.Is(err, context.Canceled) {
		return NewCanceledStageError(name, err)
	}
	return NewFatalStageError(name, err)
}

func skipRemaining(st *State, rest []StageDef, obs Observer) {
	for _, def := range rest {
		st.Report.RecordStage(def.Name, StageResultSkipped, 0)
		obs.OnStageComplete(def.Name, 0, StageResultSkipped)
	}
}
