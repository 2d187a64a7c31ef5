package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/solveplot/cmd/solveplot/commands"
	"git.home.luguber.info/inful/solveplot/internal/chart"
	"git.home.luguber.info/inful/solveplot/internal/chart/window"
	ferrors "git.home.luguber.info/inful/solveplot/internal/foundation/errors"
	"git.home.luguber.info/inful/solveplot/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("solveplot"),
		kong.Description("Run the model generator, build and solver, then plot the solver output."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	global := &commands.Global{
		Ctx:    ctx,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Interactive: func(title string, opts chart.Options) chart.Renderer {
			return window.New(title, opts)
		},
	}
	err := parser.Run(global, cli)
	stop()

	ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
