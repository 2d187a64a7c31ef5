package pipeline

import (
	"context"
	"fmt"
)

// Stage is a discrete unit of work in a run.
type Stage func(ctx context.Context, st *State) error

// StageName is a strongly-typed identifier for a stage. External steps use
// their configured step name.
type StageName string

// Built-in stage names.
const (
	StagePipeline StageName = "pipeline" // composite shell command
	StageLoad     StageName = "load"
	StageRender   StageName = "render"
)

// StageErrorKind classifies the outcome of a failed stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Run must abort.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError tags an error with the stage that produced it.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// NewFatalStageError creates a new fatal stage error.
func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func NewCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
	StageResultSkipped  StageResult = "skipped"
)

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline is a fluent builder for ordered stage definitions.
type Pipeline struct{ Defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{Defs: make([]StageDef, 0, 8)} }

// Add appends a stage unconditionally.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.Defs = append(p.Defs, StageDef{Name: name, Fn: fn})
	return p
}

// AddAll appends a list of prepared stage definitions.
func (p *Pipeline) AddAll(defs []StageDef) *Pipeline {
	p.Defs = append(p.Defs, defs...)
	return p
}

// AddIf appends a stage only if cond is true.
func (p *Pipeline) AddIf(cond bool, name StageName, fn Stage) *Pipeline {
	if cond {
		p.Add(name, fn)
	}
	return p
}

// Build returns a copy of the stage definitions slice.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.Defs))
	copy(out, p.Defs)
	return out
}
