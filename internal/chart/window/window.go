// Package window shows a chart in a desktop window. It is kept apart from
// package chart so headless builds and tests never touch a graphics driver.
package window

import (
	"bytes"
	"context"
	"image/png"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"

	"git.home.luguber.info/inful/solveplot/internal/chart"
	ferrors "git.home.luguber.info/inful/solveplot/internal/foundation/errors"
	"git.home.luguber.info/inful/solveplot/internal/table"
)

// AppID identifies the application to the desktop environment.
const AppID = "info.luguber.solveplot"

// Renderer opens a window with the chart and blocks until it is closed.
type Renderer struct {
	Title   string
	Options chart.Options
}

// New returns an interactive renderer.
func New(title string, opts chart.Options) *Renderer {
	if title == "" {
		title = "solveplot"
	}
	return &Renderer{Title: title, Options: opts}
}

func (r *Renderer) Render(ctx context.Context, tbl *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := chart.Encode(&buf, tbl, r.Options, chart.FormatPNG); err != nil {
		return err
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return ferrors.InternalError("failed to decode rendered chart").WithCause(err).Build()
	}

	a := app.NewWithID(AppID)
	w := a.NewWindow(r.Title)
	width, height := r.Options.Pixels()
	w.Resize(fyne.NewSize(float32(width), float32(height)))

	im := canvas.NewImageFromImage(img)
	im.FillMode = canvas.ImageFillContain
	im.SetMinSize(fyne.NewSize(float32(width)/2, float32(height)/2))
	w.SetContent(im)

	// a canceled run closes the window so ShowAndRun returns
	stop := context.AfterFunc(ctx, func() {
		fyne.Do(func() { w.Close() })
	})
	defer stop()

	slog.Debug("Showing chart window", slog.Int("width", width), slog.Int("height", height))
	w.ShowAndRun()
	return ctx.Err()
}
