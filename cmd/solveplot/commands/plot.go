package commands

import (
	"git.home.luguber.info/inful/solveplot/internal/build"
	"git.home.luguber.info/inful/solveplot/internal/pipeline"
)

// PlotCmd implements the 'plot' command: load and render only.
type PlotCmd struct {
	Path string `arg:"" optional:"" help:"CSV file to plot (default: the configured artifact)" type:"path"`
	ChartFlags
}

func (p *PlotCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if err := p.Apply(cfg); err != nil {
		return err
	}
	artifact, err := absOrEmpty(p.Path)
	if err != nil {
		return invalidFlag("path", err)
	}

	plan := pipeline.NewPlanBuilder(cfg).WithArtifact(artifact).Build()
	result, err := g.service().Run(g.context(), build.BuildRequest{Config: cfg, Plan: plan, SkipPipeline: true})
	printSummary(g, result)
	return err
}
