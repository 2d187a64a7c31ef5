// Package errors provides the classified error primitives used across solveplot.
//
// Every failure that can end a run is reported as a ClassifiedError carrying a
// category, a severity and structured context. The categories mirror the
// failure taxonomy of the pipeline:
//
//   - CategoryPipeline: an external step (generator, build, solver) failed
//   - CategoryNotFound: the tabular artifact is missing when it is loaded
//   - CategoryParse: the artifact exists but is malformed
//   - CategoryPlot: the table cannot be plotted (fewer than two columns, no data)
//
// plus config, validation, filesystem, runtime and internal for the ambient
// concerns. The CLI adapter maps categories to process exit codes.
//
// Example usage:
//
//	err := errors.PipelineError("external step failed").
//		WithContext("stage", "generate").
//		WithContext("exit_code", 2).
//		Build()
package errors
