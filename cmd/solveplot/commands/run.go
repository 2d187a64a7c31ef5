package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/solveplot/internal/build"
	"git.home.luguber.info/inful/solveplot/internal/config"
	"git.home.luguber.info/inful/solveplot/internal/pipeline"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Mode     string `short:"m" help:"Pipeline mode override (steps|shell)"`
	Artifact string `short:"a" help:"Artifact path override" type:"path"`
	ChartFlags
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if err := r.Apply(cfg); err != nil {
		return err
	}
	var mode config.PipelineMode
	if r.Mode != "" {
		if mode, err = config.ParsePipelineMode(r.Mode); err != nil {
			return invalidFlag("mode", err)
		}
	}
	artifact, err := absOrEmpty(r.Artifact)
	if err != nil {
		return invalidFlag("artifact", err)
	}

	plan := pipeline.NewPlanBuilder(cfg).WithMode(mode).WithArtifact(artifact).Build()
	result, err := g.service().Run(g.context(), build.BuildRequest{Config: cfg, Plan: plan})
	printSummary(g, result)
	return err
}

// printSummary writes the one-line outcome to stdout.
func printSummary(g *Global, result *build.BuildResult) {
	if result == nil || result.Report == nil {
		return
	}
	_, _ = fmt.Fprintln(g.stdout(), result.Report.Summary())
}

func absOrEmpty(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	return filepath.Abs(p)
}
