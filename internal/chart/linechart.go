package chart

import (
	"fmt"
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"

	ferrors "git.home.luguber.info/inful/solveplot/internal/foundation/errors"
	"git.home.luguber.info/inful/solveplot/internal/table"
)

// Format is an export image format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// Options controls figure geometry and layout.
type Options struct {
	Title      string
	WidthIn    float64
	HeightIn   float64
	DPI        float64
	AutoLayout bool
}

// DefaultOptions is a 7 x 3.5 inch figure at 100 dpi with automatic layout.
func DefaultOptions() Options {
	return Options{WidthIn: 7, HeightIn: 3.5, DPI: 100, AutoLayout: true}
}

// Pixels returns the canvas size in pixels.
func (o Options) Pixels() (width, height int) {
	o = o.withDefaults()
	return int(math.Round(o.WidthIn * o.DPI)), int(math.Round(o.HeightIn * o.DPI))
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.WidthIn <= 0 {
		o.WidthIn = d.WidthIn
	}
	if o.HeightIn <= 0 {
		o.HeightIn = d.HeightIn
	}
	if o.DPI <= 0 {
		o.DPI = d.DPI
	}
	return o
}

// LineChart builds the chart for tbl. It fails with a plot error when the
// table has fewer than two columns or no finite data point.
func LineChart(tbl *table.Table, opts Options) (*gochart.Chart, error) {
	if tbl == nil || tbl.NumColumns() < 2 {
		n := 0
		if tbl != nil {
			n = tbl.NumColumns()
		}
		return nil, ferrors.PlotError("table has fewer than two columns").
			WithContext("columns", n).Build()
	}

	opts = opts.withDefaults()
	xr, yr := newExtent(), newExtent()
	var series []gochart.Series
	for _, s := range tbl.Series() {
		if len(s.X) == 0 {
			continue
		}
		for i := range s.X {
			xr.add(s.X[i])
			yr.add(s.Y[i])
		}
		style := gochart.Style{StrokeWidth: 1.5}
		xs, ys := s.X, s.Y
		if len(xs) == 1 {
			// a lone point has no segment to stroke
			style.DotWidth = 3
			xs, ys = []float64{xs[0], xs[0]}, []float64{ys[0], ys[0]}
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   style,
		})
	}
	if len(series) == 0 {
		return nil, ferrors.PlotError("table has no data to plot").
			WithContext("rows", tbl.NumRows()).Build()
	}

	width, height := opts.Pixels()
	ch := &gochart.Chart{
		Title:  opts.Title,
		Width:  width,
		Height: height,
		DPI:    opts.DPI,
		XAxis: gochart.XAxis{
			Range: xr.rangeFor(false),
		},
		YAxis: gochart.YAxis{
			Range: yr.rangeFor(opts.AutoLayout),
		},
		Series: series,
	}
	if opts.AutoLayout {
		ch.Background = gochart.Style{Padding: gochart.Box{Top: 20, Left: 16, Right: 16, Bottom: 12}}
		ch.XAxis.Name = tbl.Columns[0]
		if len(series) == 1 {
			ch.YAxis.Name = tbl.Columns[1]
		}
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(ch)}
	return ch, nil
}

// Encode renders tbl as an image in the given format.
func Encode(w io.Writer, tbl *table.Table, opts Options, format Format) error {
	ch, err := LineChart(tbl, opts)
	if err != nil {
		return err
	}
	provider := gochart.PNG
	switch format {
	case FormatPNG, "":
	case FormatSVG:
		provider = gochart.SVG
	default:
		return ferrors.ValidationError(fmt.Sprintf("unsupported chart format %q", format)).Build()
	}
	if err := ch.Render(provider, w); err != nil {
		return ferrors.PlotError("failed to draw chart").WithCause(err).Build()
	}
	return nil
}

type extent struct {
	min, max float64
}

func newExtent() *extent {
	return &extent{min: math.Inf(1), max: math.Inf(-1)}
}

func (e *extent) add(v float64) {
	e.min = math.Min(e.min, v)
	e.max = math.Max(e.max, v)
}

// rangeFor returns an explicit axis range. A degenerate extent is widened so
// the axis always has a non-zero span; margin adds 5% head room on each side.
func (e *extent) rangeFor(margin bool) *gochart.ContinuousRange {
	lo, hi := e.min, e.max
	if hi <= lo {
		pad := math.Max(math.Abs(lo)*0.05, 1)
		return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	}
	if margin {
		pad := (hi - lo) * 0.05
		lo, hi = lo-pad, hi+pad
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}
