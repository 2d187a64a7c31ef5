package chart

import (
	"bytes"
	"context"
	"log/slog"

	ferrors "git.home.luguber.info/inful/solveplot/internal/foundation/errors"
	"git.home.luguber.info/inful/solveplot/internal/fsutil"
	"git.home.luguber.info/inful/solveplot/internal/table"
)

// HeadlessRenderer exports the chart to a file instead of showing it.
type HeadlessRenderer struct {
	Path    string
	Format  Format
	Options Options
}

// NewHeadlessRenderer returns a renderer writing format to path.
func NewHeadlessRenderer(path string, format Format, opts Options) *HeadlessRenderer {
	return &HeadlessRenderer{Path: path, Format: format, Options: opts}
}

func (h *HeadlessRenderer) Render(ctx context.Context, tbl *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, tbl, h.Options, h.Format); err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(h.Path, buf.Bytes()); err != nil {
		return ferrors.FileSystemError("failed to write chart").
			WithCause(err).
			WithContext("path", h.Path).
			Build()
	}
	slog.Info("Chart exported", slog.String("path", h.Path), slog.String("format", string(h.Format)), slog.Int("bytes", buf.Len()))
	return nil
}
