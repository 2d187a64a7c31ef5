// Package chart draws a loaded table as a line chart: the first column on the
// x axis and one line per remaining column.
package chart

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/solveplot/internal/table"
)

// Renderer presents a table. Interactive implementations block until the
// viewer is dismissed; headless ones return once the image is written.
type Renderer interface {
	Render(ctx context.Context, tbl *table.Table) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, tbl *table.Table) error

func (f RendererFunc) Render(ctx context.Context, tbl *table.Table) error { return f(ctx, tbl) }

// NoopRenderer validates that the table is plottable and draws nothing.
type NoopRenderer struct {
	Options Options
}

func (n *NoopRenderer) Render(_ context.Context, tbl *table.Table) error {
	if _, err := LineChart(tbl, n.Options); err != nil {
		return err
	}
	slog.Debug("NoopRenderer skipping render", slog.Int("rows", tbl.NumRows()))
	return nil
}
