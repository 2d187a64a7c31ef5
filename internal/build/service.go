package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/solveplot/internal/chart"
	"git.home.luguber.info/inful/solveplot/internal/config"
	"git.home.luguber.info/inful/solveplot/internal/pipeline"
	"git.home.luguber.info/inful/solveplot/internal/table"
)

// BuildService executes one run end to end.
type BuildService interface {
	// Run executes the configured stages and returns the result together with
	// the first stage error, if any. The result is never nil.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs of a run.
type BuildRequest struct {
	// Config is the loaded configuration for this run.
	Config *config.Config

	// Plan overrides the plan derived from Config (mode or artifact overrides).
	Plan *pipeline.Plan

	// SkipPipeline runs only the load and render stages against an existing artifact.
	SkipPipeline bool

	// Renderer overrides the renderer chosen from Config.Chart.Renderer.
	Renderer chart.Renderer
}

// BuildResult contains the outcome of a run.
type BuildResult struct {
	Status BuildStatus

	RunID string

	// Report holds per-stage results and timings.
	Report *pipeline.Report

	// Table is the loaded artifact; nil when the load stage did not succeed.
	Table *table.Table

	// Artifact is the resolved path of the tabular artifact.
	Artifact string

	Duration  time.Duration
	StartTime time.Time
	EndTime   time.Time
}

// BuildStatus represents the outcome of a run.
type BuildStatus string

const (
	BuildStatusSuccess   BuildStatus = "success"
	BuildStatusFailed    BuildStatus = "failed"
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsSuccess returns true if the run completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess
}

func statusFor(outcome pipeline.Outcome) BuildStatus {
	switch outcome {
	case pipeline.OutcomeSuccess:
		return BuildStatusSuccess
	case pipeline.OutcomeCanceled:
		return BuildStatusCancelled
	default:
		return BuildStatusFailed
	}
}
