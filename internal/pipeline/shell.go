package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strings"

	"git.home.luguber.info/inful/solveplot/internal/config"
	ferrors "git.home.luguber.info/inful/solveplot/internal/foundation/errors"
	"git.home.luguber.info/inful/solveplot/internal/logfields"
	"git.home.luguber.info/inful/solveplot/internal/observability"
)

// ShellRunner runs the whole plan as one "a && b && c > artifact" shell
// command. Only the combined exit status is observed.
type ShellRunner struct {
	plan   *Plan
	stdout io.Writer
	stderr io.Writer
}

// NewShellRunner creates a composite shell runner for plan.
func NewShellRunner(plan *Plan) *ShellRunner {
	return &ShellRunner{plan: plan, stdout: os.Stdout, stderr: os.Stderr}
}

// WithOutput redirects the child's stdout and stderr (stdout only sees
// output that is not redirected into the artifact).
func (r *ShellRunner) WithOutput(stdout, stderr io.Writer) *ShellRunner {
	r.stdout, r.stderr = stdout, stderr
	return r
}

// Stages returns the single composite stage.
func (r *ShellRunner) Stages() []StageDef {
	return []StageDef{{Name: StagePipeline, Fn: r.run}}
}

func (r *ShellRunner) run(ctx context.Context, _ *State) error {
	script := r.plan.ShellCommand()
	observability.InfoContext(ctx, "Running pipeline", logfields.Command(script))

	// #nosec G204 -- the command line comes from the user's own configuration
	cmd := exec.CommandContext(ctx, r.plan.Shell, "-c", script)
	cmd.Dir = r.plan.Workdir
	cmd.WaitDelay = waitDelay
	tail := newTailBuffer(stderrTailBytes)
	cmd.Stdout = r.stdout
	cmd.Stderr = io.MultiWriter(r.stderr, tail)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := ferrors.PipelineError("pipeline command failed").
			WithCause(err).
			WithContext("command", script)
		var ee *exec.ExitError
		if stderrors.As(err, &ee) {
			b = b.WithContext("exit_code", ee.ExitCode())
		}
		if s := tail.String(); s != "" {
			b = b.WithContext("stderr", s)
		}
		return NewFatalStageError(StagePipeline, b.Build())
	}

	for _, s := range r.plan.Steps {
		if err := checkProduces(r.plan, s); err != nil {
			return NewFatalStageError(StagePipeline, err)
		}
	}
	return nil
}

// ShellCommand renders steps as a composite shell command joined with "&&".
// The step with capture_stdout has its stdout redirected to artifact. The
// default steps render as "./modgen && make && ./solver > out.csv".
func ShellCommand(steps []config.Step, artifact string) string {
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		cmd := shellWords(s)
		if len(s.Env) > 0 {
			cmd = envPrefix(s.Env) + " " + cmd
		}
		if s.Dir != "" {
			cmd = fmt.Sprintf("(cd %s && %s)", shellQuote(s.Dir), cmd)
		}
		// Outside the subshell, so the artifact stays relative to the workdir.
		if s.CaptureStdout {
			cmd += " > " + shellQuote(artifact)
		}
		parts = append(parts, cmd)
	}
	return strings.Join(parts, " && ")
}

func shellWords(s config.Step) string {
	words := make([]string, 0, len(s.Args)+1)
	words = append(words, shellQuote(s.Command))
	for _, a := range s.Args {
		words = append(words, shellQuote(a))
	}
	return strings.Join(words, " ")
}

func envPrefix(env map[string]string) string {
	assigns := sortedEnv(env)
	for i, kv := range assigns {
		k, v, _ := strings.Cut(kv, "=")
		assigns[i] = k + "=" + shellQuote(v)
	}
	return strings.Join(assigns, " ")
}

func sortedEnv(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

var safeShellWord = regexp.MustCompile(`^[A-Za-z0-9_./:=@%+,-]+$`)

// shellQuote quotes s for POSIX sh unless it is made only of safe characters.
func shellQuote(s string) string {
	if s != "" && safeShellWord.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
