package pipeline

import "git.home.luguber.info/inful/solveplot/internal/table"

// State is shared by the stages of one run.
type State struct {
	RunID  string
	Plan   *Plan
	Table  *table.Table // set by the load stage
	Report *Report
}

// NewState prepares the state for a run of plan.
func NewState(runID string, plan *Plan) *State {
	return &State{RunID: runID, Plan: plan, Report: NewReport(runID)}
}
