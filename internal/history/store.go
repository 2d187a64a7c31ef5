// Package history persists a summary of every run so past results can be
// listed with "solveplot history".
package history

import (
	"context"
	"time"

	"git.home.luguber.info/inful/solveplot/internal/pipeline"
)

// Run is the persisted summary of one run.
type Run struct {
	ID          string
	Start       time.Time
	End         time.Time
	Outcome     string
	FailedStage string
	Rows        int
	Columns     []string
	Revision    string
	Error       string
	Stages      []StageRecord
}

// StageRecord is the persisted result of one stage.
type StageRecord struct {
	Name     string
	Result   string
	Duration time.Duration
}

// FromReport converts a finished report. runErr may be nil.
func FromReport(r *pipeline.Report, runErr error) Run {
	run := Run{
		ID:          r.RunID,
		Start:       r.Start,
		End:         r.End,
		Outcome:     string(r.Outcome),
		FailedStage: string(r.FailedStage),
		Rows:        r.Rows,
		Columns:     append([]string(nil), r.Columns...),
		Revision:    r.Revision,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	for _, s := range r.Stages {
		run.Stages = append(run.Stages, StageRecord{
			Name:     string(s),
			Result:   string(r.StageResults[s]),
			Duration: r.StageDurations[s],
		})
	}
	return run
}

// Store defines the interface for persisting and retrieving runs.
type Store interface {
	// Record stores a run and its stages.
	Record(ctx context.Context, run Run) error

	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]Run, error)

	// Get returns one run with its stages.
	Get(ctx context.Context, id string) (*Run, error)

	// Close closes the store and releases resources.
	Close() error
}
