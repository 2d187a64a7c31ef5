package chart

import (
	"bytes"
	"context"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gochart "github.com/wcharczuk/go-chart/v2"

	ferrors "git.home.luguber.info/inful/solveplot/internal/foundation/errors"
	"git.home.luguber.info/inful/solveplot/internal/table"
)

func scenarioTable() *table.Table {
	return &table.Table{
		Columns: []string{"t", "a", "b"},
		Rows:    [][]float64{{0, 1, 2}, {1, 2, 3}, {2, 3, 5}},
	}
}

func TestLoadedCSVRendersTwoSeries(t *testing.T) {
	tbl, err := table.Parse(strings.NewReader("t,a,b\n0,1,2\n1,3,4\n2,5,6\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, []string{"t", "a", "b"}, tbl.Columns)

	ch, err := LineChart(tbl, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, ch.Series, 2)

	a := ch.Series[0].(gochart.ContinuousSeries)
	b := ch.Series[1].(gochart.ContinuousSeries)
	assert.Equal(t, "a", a.Name)
	assert.Equal(t, "b", b.Name)
	assert.Equal(t, []float64{0, 1, 2}, a.XValues)
	assert.Equal(t, []float64{1, 3, 5}, a.YValues)
	assert.Equal(t, []float64{2, 4, 6}, b.YValues)

	var buf bytes.Buffer
	require.NoError(t, ch.Render(gochart.PNG, &buf))
	assert.NotZero(t, buf.Len())
}

func TestLineChartOneSeriesPerColumn(t *testing.T) {
	ch, err := LineChart(scenarioTable(), DefaultOptions())
	require.NoError(t, err)

	require.Len(t, ch.Series, 2)
	names := []string{ch.Series[0].GetName(), ch.Series[1].GetName()}
	assert.Equal(t, []string{"a", "b"}, names)
	assert.Equal(t, 700, ch.Width)
	assert.Equal(t, 350, ch.Height)
	assert.Equal(t, "t", ch.XAxis.Name)

	xs := ch.Series[0].(gochart.ContinuousSeries).XValues
	assert.Equal(t, []float64{0, 1, 2}, xs)
}

func TestLineChartRejectsSingleColumn(t *testing.T) {
	tbl := &table.Table{Columns: []string{"t"}, Rows: [][]float64{{0}, {1}}}
	_, err := LineChart(tbl, DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryPlot, ferrors.GetCategory(err))
}

func TestLineChartRejectsEmptyData(t *testing.T) {
	cases := map[string]*table.Table{
		"nil":       nil,
		"no rows":   {Columns: []string{"t", "a"}},
		"all empty": {Columns: []string{"t", "a"}, Rows: [][]float64{{0, math.NaN()}}},
	}
	for name, tbl := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LineChart(tbl, DefaultOptions())
			require.Error(t, err)
			assert.Equal(t, ferrors.CategoryPlot, ferrors.GetCategory(err))
		})
	}
}

func TestLineChartDegenerateRanges(t *testing.T) {
	tbl := &table.Table{Columns: []string{"t", "a"}, Rows: [][]float64{{5, 7}}}
	ch, err := LineChart(tbl, DefaultOptions())
	require.NoError(t, err)

	xr := ch.XAxis.Range.(*gochart.ContinuousRange)
	assert.Less(t, xr.Min, 5.0)
	assert.Greater(t, xr.Max, 5.0)

	var buf bytes.Buffer
	require.NoError(t, ch.Render(gochart.PNG, &buf))
}

func TestEncodePNGSize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, scenarioTable(), DefaultOptions(), FormatPNG))

	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, 700, cfg.Width)
	assert.Equal(t, 350, cfg.Height)
}

func TestEncodeSVG(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Title = "concentrations"
	require.NoError(t, Encode(&buf, scenarioTable(), opts, FormatSVG))
	assert.True(t, strings.Contains(buf.String(), "<svg"))
}

func TestEncodeUnknownFormat(t *testing.T) {
	err := Encode(&bytes.Buffer{}, scenarioTable(), DefaultOptions(), Format("gif"))
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryValidation, ferrors.GetCategory(err))
}

func TestHeadlessRendererWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	r := NewHeadlessRenderer(path, FormatPNG, Options{WidthIn: 4, HeightIn: 2, DPI: 50})
	require.NoError(t, r.Render(context.Background(), scenarioTable()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 100, cfg.Height)
}

func TestHeadlessRendererPlotErrorLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	r := NewHeadlessRenderer(path, FormatPNG, DefaultOptions())
	err := r.Render(context.Background(), &table.Table{Columns: []string{"t"}})
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNoopRendererValidates(t *testing.T) {
	r := &NoopRenderer{Options: DefaultOptions()}
	require.NoError(t, r.Render(context.Background(), scenarioTable()))
	require.Error(t, r.Render(context.Background(), &table.Table{Columns: []string{"t"}}))
}
