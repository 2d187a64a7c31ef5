package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/solveplot/internal/build"
	"git.home.luguber.info/inful/solveplot/internal/chart"
	"git.home.luguber.info/inful/solveplot/internal/config"
	ferrors "git.home.luguber.info/inful/solveplot/internal/foundation/errors"
	"git.home.luguber.info/inful/solveplot/internal/observability"
)

// Global carries process-wide dependencies into subcommands.
type Global struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer

	// Interactive opens a chart window. Nil when no display toolkit is linked in.
	Interactive func(title string, opts chart.Options) chart.Renderer
}

func (g *Global) context() context.Context {
	if g.Ctx == nil {
		return context.Background()
	}
	return g.Ctx
}

func (g *Global) stdout() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Global) stderr() io.Writer {
	if g.Stderr == nil {
		return os.Stderr
	}
	return g.Stderr
}

// service returns a build service wired to this process.
func (g *Global) service() *build.DefaultBuildService {
	return build.NewBuildService().
		WithRendererFactory(build.DefaultRendererFactory(g.Interactive)).
		WithOutput(g.stdout(), g.stderr())
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: solveplot.yaml when present)" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run     RunCmd     `cmd:"" default:"withargs" help:"Run the pipeline, then load and plot its output"`
	Plot    PlotCmd    `cmd:"" help:"Load and plot an existing artifact without running the pipeline"`
	Plan    PlanCmd    `cmd:"" help:"Print the configured steps and the equivalent shell command"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	History HistoryCmd `cmd:"" help:"List recorded runs"`
	Watch   WatchCmd   `cmd:"" help:"Re-render the chart headless whenever the artifact changes"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(observability.NewLogger(os.Stderr, level, string(config.LogFormatText)))
	return nil
}

// LoadConfig loads the configuration and applies its logging settings.
func (c *CLI) LoadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.Config)
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level.SlogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(observability.NewLogger(os.Stderr, level, string(cfg.Logging.Format)))
	return cfg, nil
}

// configPath is where init writes and what plan reports.
func (c *CLI) configPath() string {
	if c.Config != "" {
		return c.Config
	}
	return config.DefaultConfigFile
}

// ChartFlags are the renderer overrides shared by run and plot.
type ChartFlags struct {
	Renderer string `short:"r" help:"Renderer (interactive|headless|none)"`
	Export   string `short:"e" help:"Chart export path for the headless renderer" type:"path"`
	Format   string `short:"f" help:"Export format (png|svg)"`
}

// Apply overrides cfg.Chart with the flags that were given.
func (f ChartFlags) Apply(cfg *config.Config) error {
	if f.Renderer != "" {
		r, err := config.ParseRendererKind(f.Renderer)
		if err != nil {
			return invalidFlag("renderer", err)
		}
		cfg.Chart.Renderer = r
	}
	if f.Format != "" {
		format, err := config.ParseChartFormat(f.Format)
		if err != nil {
			return invalidFlag("format", err)
		}
		// Keep the export extension in step with the format.
		if old := "." + string(cfg.Chart.Format); filepath.Ext(cfg.Chart.ExportPath) == old {
			cfg.Chart.ExportPath = strings.TrimSuffix(cfg.Chart.ExportPath, old) + "." + string(format)
		}
		cfg.Chart.Format = format
	}
	if f.Export != "" {
		// Flag paths are relative to the working directory, not the config workdir.
		abs, err := filepath.Abs(f.Export)
		if err != nil {
			return invalidFlag("export", err)
		}
		cfg.Chart.ExportPath = abs
	}
	return nil
}

func invalidFlag(flag string, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid flag value").
		WithContext("flag", "--"+flag).
		Build()
}
