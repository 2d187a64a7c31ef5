// Package report writes a standalone HTML summary of a run: outcome, stage
// timings, per-series statistics and the exported chart.
package report

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"git.home.luguber.info/inful/solveplot/internal/fsutil"
	"git.home.luguber.info/inful/solveplot/internal/pipeline"
	"git.home.luguber.info/inful/solveplot/internal/table"
)

// Input is everything a report is built from. Table and ChartPath are optional.
type Input struct {
	Report    *pipeline.Report
	Table     *table.Table
	Artifact  string
	ChartPath string
	Title     string
}

// SeriesStats summarizes one plotted column.
type SeriesStats struct {
	Name   string
	Points int
	Min    float64
	Max    float64
	Last   float64
}

// Stats computes per-series statistics over finite points.
func Stats(tbl *table.Table) []SeriesStats {
	if tbl == nil {
		return nil
	}
	series := tbl.Series()
	out := make([]SeriesStats, 0, len(series))
	for _, s := range series {
		st := SeriesStats{Name: s.Name, Points: len(s.Y), Min: math.NaN(), Max: math.NaN(), Last: math.NaN()}
		for i, y := range s.Y {
			if i == 0 || y < st.Min {
				st.Min = y
			}
			if i == 0 || y > st.Max {
				st.Max = y
			}
			st.Last = y
		}
		out = append(out, st)
	}
	return out
}

// Markdown renders the report body as GitHub flavored markdown. Paths in the
// output are made relative to dir when possible.
func Markdown(in Input, dir string) string {
	p := message.NewPrinter(language.English)
	r := in.Report
	title := in.Title
	if title == "" {
		title = "solveplot run " + r.RunID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escape(title))
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Run | `%s` |\n", r.RunID)
	fmt.Fprintf(&b, "| Outcome | **%s** |\n", r.Outcome)
	if r.FailedStage != "" {
		fmt.Fprintf(&b, "| Failed stage | `%s` |\n", r.FailedStage)
	}
	fmt.Fprintf(&b, "| Started | %s |\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(&b, "| Duration | %s |\n", r.Duration().Round(time.Millisecond))
	if r.Revision != "" {
		fmt.Fprintf(&b, "| Revision | `%s` |\n", r.Revision)
	}
	if in.Artifact != "" {
		fmt.Fprintf(&b, "| Artifact | `%s` |\n", relTo(dir, in.Artifact))
	}
	if len(r.Columns) > 0 {
		fmt.Fprintf(&b, "| Rows | %s |\n", p.Sprintf("%d", r.Rows))
	}

	b.WriteString("\n## Stages\n\n| Stage | Result | Duration |\n|---|---|---:|\n")
	for _, s := range r.Stages {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", escape(string(s)), r.StageResults[s], r.StageDurations[s].Round(time.Millisecond))
	}
	for _, is := range r.Issues {
		fmt.Fprintf(&b, "\n> **%s** in `%s`: %s\n", is.Kind, is.Stage, escape(is.Message))
	}

	if stats := Stats(in.Table); len(stats) > 0 {
		fmt.Fprintf(&b, "\n## Series\n\nx axis: `%s`\n\n| Series | Points | Min | Max | Last |\n|---|---:|---:|---:|---:|\n", in.Table.Columns[0])
		for _, st := range stats {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				escape(st.Name), p.Sprintf("%d", st.Points), number(p, st.Min), number(p, st.Max), number(p, st.Last))
		}
	}

	if in.ChartPath != "" {
		fmt.Fprintf(&b, "\n## Chart\n\n![chart](%s)\n", relTo(dir, in.ChartPath))
	}
	return b.String()
}

// HTML converts the markdown report into a complete HTML document.
func HTML(in Input, dir string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(in, dir)), &body); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	var doc bytes.Buffer
	doc.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&doc, "<title>solveplot %s</title>\n", html.EscapeString(in.Report.RunID))
	doc.WriteString("<style>body{font-family:sans-serif;max-width:60em;margin:2em auto}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.2em .6em}img{max-width:100%}</style>\n")
	doc.WriteString("</head>\n<body>\n")
	doc.Write(body.Bytes())
	doc.WriteString("</body>\n</html>\n")
	return doc.Bytes(), nil
}

// Write renders the HTML report to path atomically.
func Write(path string, in Input) error {
	data, err := HTML(in, filepath.Dir(path))
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data)
}

func number(p *message.Printer, v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	if v != 0 && (math.Abs(v) >= 1e9 || math.Abs(v) < 1e-3) {
		return fmt.Sprintf("%.4g", v)
	}
	return p.Sprintf("%.4f", v)
}

func relTo(dir, path string) string {
	if dir == "" {
		return filepath.ToSlash(path)
	}
	absDir, err1 := filepath.Abs(dir)
	absPath, err2 := filepath.Abs(path)
	if err1 != nil || err2 != nil {
		return filepath.ToSlash(path)
	}
	if rel, err := filepath.Rel(absDir, absPath); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

var mdEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`", "<", "&lt;", ">", "&gt;")

func escape(s string) string { return mdEscaper.Replace(s) }
