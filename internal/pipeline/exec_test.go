package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/solveplot/internal/config"
	ferrors "git.home.luguber.info/inful/solveplot/internal/foundation/errors"
)

func shStep(name, script string) config.Step {
	return config.Step{Name: name, Command: "sh", Args: []string{"-c", script}}
}

// newPlan builds a plan in a fresh directory whose artifact already holds "old".
func newPlan(t *testing.T, mode config.PipelineMode, steps ...config.Step) *Plan {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out.csv"), []byte("old"), 0o600))
	return &Plan{Mode: mode, Shell: "/bin/sh", Workdir: dir, Artifact: "out.csv", Steps: steps}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(t, err)
	return string(data)
}

func classicSteps(genScript string) []config.Step {
	solve := shStep("solve", `echo solve >> log; printf 't,a,b\n0,1,2\n'`)
	solve.CaptureStdout = true
	return []config.Step{
		shStep("generate", genScript),
		shStep("build", "echo build >> log"),
		solve,
	}
}

func TestStepRunnerSuccess(t *testing.T) {
	plan := newPlan(t, config.PipelineModeSteps, classicSteps("echo generate >> log")...)
	var stdout, stderr bytes.Buffer

	report, err := Run(context.Background(), "run-ok", plan, NewRunner(plan, &stdout, &stderr))
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Equal(t, "t,a,b\n0,1,2\n", readFile(t, plan.ArtifactPath()))
	assert.Equal(t, "generate\nbuild\nsolve\n", readFile(t, filepath.Join(plan.Workdir, "log")))
	assert.Equal(t, []StageName{"generate", "build", "solve"}, report.Stages)
}

func TestStepRunnerGeneratorFailureStopsPipeline(t *testing.T) {
	plan := newPlan(t, config.PipelineModeSteps, classicSteps("echo generate >> log; echo 'bad model' >&2; exit 3")...)
	var stderr bytes.Buffer

	report, err := Run(context.Background(), "run-fail", plan, NewRunner(plan, &bytes.Buffer{}, &stderr))
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageName("generate"), se.Stage)

	ce, ok := ferrors.Find(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.CategoryPipeline, ce.Category())
	code, _ := ce.Context().Get("exit_code")
	assert.Equal(t, 3, code)
	tail, _ := ce.Context().GetString("stderr")
	assert.Equal(t, "bad model", tail)
	assert.Contains(t, stderr.String(), "bad model")

	assert.Equal(t, "generate\n", readFile(t, filepath.Join(plan.Workdir, "log")), "later steps must not run")
	assert.Equal(t, "old", readFile(t, plan.ArtifactPath()), "artifact must not change")
	assert.Equal(t, StageResultSkipped, report.StageResults["build"])
	assert.Equal(t, StageResultSkipped, report.StageResults["solve"])
	assert.Equal(t, 11, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestStepRunnerFailedSolverLeavesArtifact(t *testing.T) {
	solve := shStep("solve", `printf 't,a\n0,'; exit 1`)
	solve.CaptureStdout = true
	plan := newPlan(t, config.PipelineModeSteps, solve)

	_, err := Run(context.Background(), "run-partial", plan, NewRunner(plan, &bytes.Buffer{}, &bytes.Buffer{}))
	require.Error(t, err)
	assert.Equal(t, "old", readFile(t, plan.ArtifactPath()))

	entries, err := os.ReadDir(plan.Workdir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files may remain")
}

func TestStepRunnerMissingCommand(t *testing.T) {
	plan := newPlan(t, config.PipelineModeSteps, config.Step{Name: "generate", Command: "./does-not-exist"})
	_, err := Run(context.Background(), "run-missing", plan, NewStepRunner(plan))
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryPipeline, ferrors.GetCategory(err))
}

func TestStepRunnerProducesCheck(t *testing.T) {
	step := shStep("generate", "touch system.h")
	step.Produces = []string{"system.h", "solver.c"}
	plan := newPlan(t, config.PipelineModeSteps, step)

	_, err := Run(context.Background(), "run-produces", plan, NewStepRunner(plan))
	require.Error(t, err)
	ce, ok := ferrors.Find(err)
	require.True(t, ok)
	assert.Equal(t, "step generate did not produce solver.c", ce.Message())
}

func TestStepRunnerStepDirAndEnv(t *testing.T) {
	step := shStep("generate", `printf '%s' "$MODEL" > model.txt`)
	step.Dir = "models"
	step.Env = map[string]string{"MODEL": "brusselator"}
	plan := newPlan(t, config.PipelineModeSteps, step)
	require.NoError(t, os.Mkdir(filepath.Join(plan.Workdir, "models"), 0o750))

	_, err := Run(context.Background(), "run-env", plan, NewStepRunner(plan))
	require.NoError(t, err)
	assert.Equal(t, "brusselator", readFile(t, filepath.Join(plan.Workdir, "models", "model.txt")))
}

func TestStepRunnerCancellation(t *testing.T) {
	plan := newPlan(t, config.PipelineModeSteps, shStep("generate", "sleep 10"), shStep("build", "echo build >> log"))
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	report, err := Run(ctx, "run-cancel", plan, NewStepRunner(plan))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorCanceled, se.Kind)
	assert.Equal(t, OutcomeCanceled, report.Outcome)
	assert.Equal(t, "", readFile(t, filepath.Join(plan.Workdir, "log")))
}

func TestShellRunnerSuccess(t *testing.T) {
	plan := newPlan(t, config.PipelineModeShell, classicSteps("echo generate >> log")...)

	report, err := Run(context.Background(), "run-shell", plan, NewRunner(plan, &bytes.Buffer{}, &bytes.Buffer{}))
	require.NoError(t, err)
	assert.Equal(t, []StageName{StagePipeline}, report.Stages)
	assert.Equal(t, "t,a,b\n0,1,2\n", readFile(t, plan.ArtifactPath()))
}

func TestShellRunnerGeneratorFailureStopsPipeline(t *testing.T) {
	plan := newPlan(t, config.PipelineModeShell, classicSteps("echo generate >> log; exit 4")...)

	_, err := Run(context.Background(), "run-shell-fail", plan, NewRunner(plan, &bytes.Buffer{}, &bytes.Buffer{}))
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StagePipeline, se.Stage, "shell mode cannot attribute the failing step")

	ce, ok := ferrors.Find(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.CategoryPipeline, ce.Category())
	_, hasStep := ce.Context().Get("step")
	assert.False(t, hasStep)

	assert.Equal(t, "generate\n", readFile(t, filepath.Join(plan.Workdir, "log")))
	assert.Equal(t, "old", readFile(t, plan.ArtifactPath()))
}

func TestCaptureInStepDirWritesWorkdirArtifact(t *testing.T) {
	for _, mode := range []config.PipelineMode{config.PipelineModeSteps, config.PipelineModeShell} {
		t.Run(string(mode), func(t *testing.T) {
			solve := shStep("solve", `printf 't,a\n0,1\n'`)
			solve.Dir = "sub"
			solve.CaptureStdout = true
			plan := newPlan(t, mode, solve)
			require.NoError(t, os.Mkdir(filepath.Join(plan.Workdir, "sub"), 0o750))

			_, err := Run(context.Background(), "run-dir", plan, NewRunner(plan, &bytes.Buffer{}, &bytes.Buffer{}))
			require.NoError(t, err)
			assert.Equal(t, "t,a\n0,1\n", readFile(t, plan.ArtifactPath()))
			assert.NoFileExists(t, filepath.Join(plan.Workdir, "sub", "out.csv"))
		})
	}
}

func TestPlanBuilderOverrides(t *testing.T) {
	cfg := config.Default()
	plan := NewPlanBuilder(cfg).WithMode(config.PipelineModeShell).WithArtifact("/tmp/x.csv").WithMode("").Build()

	assert.Equal(t, config.PipelineModeShell, plan.Mode)
	assert.Equal(t, "/tmp/x.csv", plan.ArtifactPath())
	assert.Equal(t, "./modgen && make && ./solver > /tmp/x.csv", plan.ShellCommand())

	var buf bytes.Buffer
	require.NoError(t, plan.Describe(&buf))
	assert.Contains(t, buf.String(), "3. solve      ./solver > /tmp/x.csv")
	assert.Contains(t, buf.String(), "./modgen && make && ./solver > /tmp/x.csv")

	plan.Steps[0].Command = "changed"
	assert.Equal(t, "./modgen", cfg.Pipeline.Steps[0].Command, "plan must not alias config steps")
}
