package commands

import (
	"git.home.luguber.info/inful/solveplot/internal/config"
	"git.home.luguber.info/inful/solveplot/internal/pipeline"
)

// PlanCmd implements the 'plan' command.
type PlanCmd struct {
	Mode string `short:"m" help:"Pipeline mode override (steps|shell)"`
}

func (p *PlanCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	var mode config.PipelineMode
	if p.Mode != "" {
		if mode, err = config.ParsePipelineMode(p.Mode); err != nil {
			return invalidFlag("mode", err)
		}
	}
	return pipeline.NewPlanBuilder(cfg).WithMode(mode).Build().Describe(g.stdout())
}
