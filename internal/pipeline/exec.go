package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/solveplot/internal/config"
	ferrors "git.home.luguber.info/inful/solveplot/internal/foundation/errors"
	"git.home.luguber.info/inful/solveplot/internal/fsutil"
	"git.home.luguber.info/inful/solveplot/internal/logfields"
	"git.home.luguber.info/inful/solveplot/internal/observability"
)

const (
	stderrTailBytes = 2048
	// waitDelay bounds how long a canceled step may keep its output pipes open
	// through orphaned grandchildren.
	waitDelay = time.Second
)

// Runner turns a plan into stage definitions.
type Runner interface {
	Stages() []StageDef
}

// NewRunner picks the runner matching the plan's mode.
func NewRunner(plan *Plan, stdout, stderr io.Writer) Runner {
	if plan.Mode == config.PipelineModeShell {
		return NewShellRunner(plan).WithOutput(stdout, stderr)
	}
	return NewStepRunner(plan).WithOutput(stdout, stderr)
}

// Run executes only the external steps of r, stopping at the first failure.
func Run(ctx context.Context, runID string, plan *Plan, r Runner) (*Report, error) {
	st := NewState(runID, plan)
	err := RunStages(ctx, st, r.Stages(), nil)
	return st.Report, err
}

// StepRunner runs each configured step as its own process, without a shell.
type StepRunner struct {
	plan   *Plan
	stdout io.Writer
	stderr io.Writer
}

// NewStepRunner creates a runner for plan.
func NewStepRunner(plan *Plan) *StepRunner {
	return &StepRunner{plan: plan, stdout: os.Stdout, stderr: os.Stderr}
}

// WithOutput redirects stdout of non-capturing steps and stderr of all steps.
func (r *StepRunner) WithOutput(stdout, stderr io.Writer) *StepRunner {
	r.stdout, r.stderr = stdout, stderr
	return r
}

// Stages returns one stage per step, named after the step.
func (r *StepRunner) Stages() []StageDef {
	defs := make([]StageDef, 0, len(r.plan.Steps))
	for _, s := range r.plan.Steps {
		defs = append(defs, StageDef{Name: StageName(s.Name), Fn: r.stageFor(s)})
	}
	return defs
}

func (r *StepRunner) stageFor(step config.Step) Stage {
	return func(ctx context.Context, _ *State) error {
		return r.runStep(ctx, step)
	}
}

func (r *StepRunner) runStep(ctx context.Context, step config.Step) error {
	name := StageName(step.Name)
	observability.InfoContext(ctx, "Running step", logfields.Command(shellWords(step)))

	// #nosec G204 -- the command comes from the user's own configuration
	cmd := exec.CommandContext(ctx, step.Command, step.Args...)
	cmd.Dir = r.plan.StepDir(step)
	cmd.WaitDelay = waitDelay
	if len(step.Env) > 0 {
		cmd.Env = append(os.Environ(), sortedEnv(step.Env)...)
	}
	tail := newTailBuffer(stderrTailBytes)
	cmd.Stderr = io.MultiWriter(r.stderr, tail)

	var out *fsutil.AtomicFile
	if step.CaptureStdout {
		var err error
		out, err = fsutil.CreateAtomic(r.plan.ArtifactPath())
		if err != nil {
			return NewFatalStageError(name, ferrors.FileSystemError("failed to prepare artifact").
				WithCause(err).
				WithContext("path", r.plan.ArtifactPath()).
				Build())
		}
		defer out.Abort()
		cmd.Stdout = out.File
	} else {
		cmd.Stdout = r.stdout
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return NewFatalStageError(name, stepError(step, err, tail.String()))
	}

	if out != nil {
		if err := out.Commit(); err != nil {
			return NewFatalStageError(name, ferrors.FileSystemError("failed to write artifact").
				WithCause(err).
				WithContext("path", r.plan.ArtifactPath()).
				Build())
		}
	}
	if err := checkProduces(r.plan, step); err != nil {
		return NewFatalStageError(name, err)
	}
	return nil
}

func stepError(step config.Step, err error, stderrTail string) error {
	b := ferrors.PipelineError(fmt.Sprintf("step %s failed", step.Name)).
		WithCause(err).
		WithContext("step", step.Name)
	var ee *exec.ExitError
	if stderrors.As(err, &ee) {
		b = ferrors.PipelineError(fmt.Sprintf("step %s exited with status %d", step.Name, ee.ExitCode())).
			WithCause(err).
			WithContext("step", step.Name).
			WithContext("exit_code", ee.ExitCode())
	}
	if stderrTail != "" {
		b = b.WithContext("stderr", stderrTail)
	}
	return b.Build()
}

// checkProduces verifies that every artifact the step declares exists.
func checkProduces(plan *Plan, step config.Step) error {
	for _, p := range step.Produces {
		path := p
		if !filepath.IsAbs(path) {
			path = filepath.Join(plan.StepDir(step), p)
		}
		if _, err := os.Stat(path); err != nil {
			return ferrors.PipelineError(fmt.Sprintf("step %s did not produce %s", step.Name, p)).
				WithCause(err).
				WithContext("step", step.Name).
				WithContext("path", path).
				Build()
		}
	}
	return nil
}
