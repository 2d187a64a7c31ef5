package commands

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/solveplot/internal/build"
	"git.home.luguber.info/inful/solveplot/internal/config"
	"git.home.luguber.info/inful/solveplot/internal/pipeline"
	"git.home.luguber.info/inful/solveplot/internal/watch"
)

// WatchCmd implements the 'watch' command: every change of the artifact
// triggers a headless load and render.
type WatchCmd struct {
	Path     string        `arg:"" optional:"" help:"CSV file to watch (default: the configured artifact)" type:"path"`
	Debounce time.Duration `help:"Quiet period before re-rendering" default:"300ms"`
	Export   string        `short:"e" help:"Chart export path" type:"path"`
	Format   string        `short:"f" help:"Export format (png|svg)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	flags := ChartFlags{Renderer: string(config.RendererHeadless), Export: w.Export, Format: w.Format}
	if err := flags.Apply(cfg); err != nil {
		return err
	}
	artifact, err := absOrEmpty(w.Path)
	if err != nil {
		return invalidFlag("path", err)
	}
	plan := pipeline.NewPlanBuilder(cfg).WithArtifact(artifact).Build()
	svc := g.service()

	handler := func(ctx context.Context, _ string) error {
		_, err := svc.Run(ctx, build.BuildRequest{Config: cfg, Plan: plan, SkipPipeline: true})
		return err
	}
	watcher, err := watch.New(plan.ArtifactPath(), handler,
		watch.WithDebounce(w.Debounce), watch.WithInitialRun(true))
	if err != nil {
		return err
	}
	slog.Info("Rendering on change", slog.String("export", cfg.ExportPath()))
	return watcher.Run(g.context())
}
