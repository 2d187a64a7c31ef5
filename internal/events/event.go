// Package events announces finished runs on a NATS JetStream subject so
// dashboards or downstream jobs can react to new results.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"git.home.luguber.info/inful/solveplot/internal/pipeline"
)

// RunEvent is the payload published when a run finishes.
type RunEvent struct {
	RunID       string       `json:"run_id"`
	Outcome     string       `json:"outcome"`
	FailedStage string       `json:"failed_stage,omitempty"`
	Start       time.Time    `json:"start"`
	End         time.Time    `json:"end"`
	DurationMS  int64        `json:"duration_ms"`
	Artifact    string       `json:"artifact,omitempty"`
	Rows        int          `json:"rows"`
	Columns     []string     `json:"columns,omitempty"`
	Revision    string       `json:"revision,omitempty"`
	Error       string       `json:"error,omitempty"`
	Stages      []StageEvent `json:"stages"`
}

// StageEvent is the per-stage part of a RunEvent.
type StageEvent struct {
	Name       string `json:"name"`
	Result     string `json:"result"`
	DurationMS int64  `json:"duration_ms"`
}

// NewRunEvent builds the event for a finished report. runErr may be nil.
func NewRunEvent(r *pipeline.Report, artifact string, runErr error) RunEvent {
	ev := RunEvent{
		RunID:       r.RunID,
		Outcome:     string(r.Outcome),
		FailedStage: string(r.FailedStage),
		Start:       r.Start,
		End:         r.End,
		DurationMS:  r.Duration().Milliseconds(),
		Artifact:    artifact,
		Rows:        r.Rows,
		Columns:     r.Columns,
		Revision:    r.Revision,
		Stages:      make([]StageEvent, 0, len(r.Stages)),
	}
	if runErr != nil {
		ev.Error = runErr.Error()
	}
	for _, s := range r.Stages {
		ev.Stages = append(ev.Stages, StageEvent{
			Name:       string(s),
			Result:     string(r.StageResults[s]),
			DurationMS: r.StageDurations[s].Milliseconds(),
		})
	}
	return ev
}

// Encode marshals the event as JSON.
func (e RunEvent) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

// Publisher announces run events.
type Publisher interface {
	Publish(ctx context.Context, ev RunEvent) error
	Close() error
}

// NoopPublisher drops every event (default when events.nats_url is unset).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, RunEvent) error { return nil }
func (NoopPublisher) Close() error                            { return nil }
