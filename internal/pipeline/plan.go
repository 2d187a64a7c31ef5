package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/solveplot/internal/config"
)

// Plan is an immutable execution plan derived from config.
type Plan struct {
	Mode     config.PipelineMode
	Shell    string
	Workdir  string
	Artifact string // as configured, relative to Workdir unless absolute
	Steps    []config.Step
}

// ArtifactPath returns the artifact location resolved against Workdir.
func (p *Plan) ArtifactPath() string {
	if filepath.IsAbs(p.Artifact) {
		return p.Artifact
	}
	return filepath.Join(p.Workdir, p.Artifact)
}

// StepDir returns the working directory for step.
func (p *Plan) StepDir(step config.Step) string {
	switch {
	case step.Dir == "":
		return p.Workdir
	case filepath.IsAbs(step.Dir):
		return step.Dir
	default:
		return filepath.Join(p.Workdir, step.Dir)
	}
}

// ShellCommand renders the plan as one composite shell command.
func (p *Plan) ShellCommand() string {
	return ShellCommand(p.Steps, p.Artifact)
}

// Describe writes a human readable listing of the plan.
func (p *Plan) Describe(w io.Writer) error {
	lines := []string{
		fmt.Sprintf("mode:     %s", p.Mode),
		fmt.Sprintf("workdir:  %s", p.Workdir),
		fmt.Sprintf("artifact: %s", p.ArtifactPath()),
		"steps:",
	}
	for i, s := range p.Steps {
		line := fmt.Sprintf("  %d. %-10s %s", i+1, s.Name, shellWords(s))
		if s.CaptureStdout {
			line += " > " + shellQuote(p.Artifact)
		}
		if len(s.Produces) > 0 {
			line += fmt.Sprintf("   (produces %s)", strings.Join(s.Produces, ", "))
		}
		lines = append(lines, line)
	}
	lines = append(lines, "shell:", "  "+p.ShellCommand())
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// PlanBuilder constructs a Plan from config with optional overrides.
type PlanBuilder struct {
	plan Plan
}

// NewPlanBuilder creates a builder with base config.
func NewPlanBuilder(cfg *config.Config) *PlanBuilder {
	steps := make([]config.Step, len(cfg.Pipeline.Steps))
	copy(steps, cfg.Pipeline.Steps)
	return &PlanBuilder{plan: Plan{
		Mode:     cfg.Pipeline.Mode,
		Shell:    cfg.Pipeline.Shell,
		Workdir:  cfg.Workdir,
		Artifact: cfg.Artifact,
		Steps:    steps,
	}}
}

// WithMode overrides the execution mode when mode is non-empty.
func (b *PlanBuilder) WithMode(mode config.PipelineMode) *PlanBuilder {
	if mode != "" {
		b.plan.Mode = mode
	}
	return b
}

// WithArtifact overrides the artifact path when path is non-empty.
func (b *PlanBuilder) WithArtifact(path string) *PlanBuilder {
	if path != "" {
		b.plan.Artifact = path
	}
	return b
}

// Build returns the finished plan.
func (b *PlanBuilder) Build() *Plan {
	p := b.plan
	if p.Workdir == "" {
		p.Workdir = "."
	}
	if p.Shell == "" {
		p.Shell = "/bin/sh"
	}
	if p.Mode == "" {
		p.Mode = config.PipelineModeSteps
	}
	return &p
}
