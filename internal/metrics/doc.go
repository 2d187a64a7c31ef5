// Package metrics records run and stage metrics for solveplot.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics cost nothing unless configured:
//
//	recorder := metrics.NewPrometheusRecorder(nil)
//	svc := build.NewBuildService().WithRecorder(recorder)
//
// solveplot is a one-shot process, so there is no scrape endpoint. When
// metrics.textfile is configured the registry is written in the Prometheus
// text exposition format for node_exporter's textfile collector.
package metrics
