package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	ferrors "git.home.luguber.info/inful/solveplot/internal/foundation/errors"
	"git.home.luguber.info/inful/solveplot/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	ID    string `arg:"" optional:"" help:"Show the stages of one run"`
	Limit int    `short:"n" help:"Number of runs to list" default:"20"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return ferrors.ConfigError("run history is not enabled").
			WithContext("setting", "history.path").
			UserAction().
			Build()
	}

	store, err := history.NewSQLiteStore(cfg.ResolvePath(cfg.History.Path))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := g.context()
	tw := tabwriter.NewWriter(g.stdout(), 0, 4, 2, ' ', 0)

	if h.ID != "" {
		run, err := store.Get(ctx, h.ID)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(tw, "run\t%s\noutcome\t%s\nstarted\t%s\nduration\t%s\n",
			run.ID, run.Outcome, run.Start.Format(time.RFC3339), run.End.Sub(run.Start).Round(time.Millisecond))
		if run.Revision != "" {
			_, _ = fmt.Fprintf(tw, "revision\t%s\n", run.Revision)
		}
		if run.Error != "" {
			_, _ = fmt.Fprintf(tw, "error\t%s\n", run.Error)
		}
		_, _ = fmt.Fprintln(tw, "\nSTAGE\tRESULT\tDURATION")
		for _, s := range run.Stages {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Result, s.Duration.Round(time.Millisecond))
		}
		return tw.Flush()
	}

	runs, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(g.stdout(), "No runs recorded")
		return nil
	}
	_, _ = fmt.Fprintln(tw, "ID\tSTARTED\tOUTCOME\tFAILED STAGE\tROWS\tDURATION")
	for _, r := range runs {
		failed := r.FailedStage
		if failed == "" {
			failed = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.Start.Format(time.RFC3339), r.Outcome, failed, r.Rows, r.End.Sub(r.Start).Round(time.Millisecond))
	}
	return tw.Flush()
}
