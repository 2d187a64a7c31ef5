package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// Outcome is the final result of a run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Issue is one recorded stage failure.
type Issue struct {
	Stage   StageName
	Kind    StageErrorKind
	Message string
}

// Report captures what happened during a run.
type Report struct {
	RunID          string
	Start          time.Time
	End            time.Time
	Stages         []StageName // execution order, including skipped stages
	StageDurations map[StageName]time.Duration
	StageResults   map[StageName]StageResult
	Issues         []Issue
	FailedStage    StageName
	Outcome        Outcome
	Rows           int
	Columns        []string
	Revision       string // source revision of the working directory, when known
}

// NewReport starts a report for runID.
func NewReport(runID string) *Report {
	return &Report{
		RunID:          runID,
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
		StageResults:   make(map[StageName]StageResult),
	}
}

// RecordStage stores the result and duration of a stage.
func (r *Report) RecordStage(stage StageName, result StageResult, d time.Duration) {
	if _, seen := r.StageResults[stage]; !seen {
		r.Stages = append(r.Stages, stage)
	}
	r.StageResults[stage] = result
	r.StageDurations[stage] = d
}

// AddIssue records a stage failure. The first failure is the failed stage.
func (r *Report) AddIssue(se *StageError) {
	r.Issues = append(r.Issues, Issue{Stage: se.Stage, Kind: se.Kind, Message: se.Err.Error()})
	if r.FailedStage == "" {
		r.FailedStage = se.Stage
	}
}

// Finish stamps the end time and derives the outcome.
func (r *Report) Finish() {
	if r.End.IsZero() {
		r.End = time.Now()
	}
	r.Outcome = OutcomeSuccess
	for _, is := range r.Issues {
		if is.Kind == StageErrorCanceled {
			r.Outcome = OutcomeCanceled
			return
		}
		r.Outcome = OutcomeFailed
	}
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// Summary renders a single line human readable summary.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run=%s outcome=%s duration=%s", r.RunID, r.Outcome, r.Duration().Round(time.Millisecond))
	if r.FailedStage != "" {
		fmt.Fprintf(&b, " failed_stage=%s", r.FailedStage)
	}
	if len(r.Columns) > 0 {
		fmt.Fprintf(&b, " rows=%d columns=%d", r.Rows, len(r.Columns))
	}
	parts := make([]string, 0, len(r.Stages))
	for _, s := range r.Stages {
		parts = append(parts, fmt.Sprintf("%s:%s", s, r.StageResults[s]))
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, " stages=[%s]", strings.Join(parts, " "))
	}
	return b.String()
}
