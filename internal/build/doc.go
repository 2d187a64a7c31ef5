// Package build runs a complete solveplot pass: the external pipeline, the
// load of its artifact and the chart render, followed by best-effort
// bookkeeping (metrics textfile, run history, run event, HTML report).
//
// All entry points (run, plot, watch) route through BuildService.
package build
