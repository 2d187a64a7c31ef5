package config

import "git.home.luguber.info/inful/solveplot/internal/foundation/normalization"

// PipelineMode selects how the external steps are executed.
type PipelineMode string

const (
	// PipelineModeSteps runs each step as its own process and stops at the first failure.
	PipelineModeSteps PipelineMode = "steps"
	// PipelineModeShell runs all steps as one "a && b && c > artifact" shell command.
	PipelineModeShell PipelineMode = "shell"
)

var pipelineModeNormalizer = normalization.NewNormalizer("pipeline mode", map[string]PipelineMode{
	"steps": PipelineModeSteps,
	"shell": PipelineModeShell,
}, PipelineModeSteps)

// ParsePipelineMode parses a pipeline mode; empty input yields the default.
func ParsePipelineMode(raw string) (PipelineMode, error) {
	return pipelineModeNormalizer.Parse(raw)
}

// RendererKind selects the chart renderer.
type RendererKind string

const (
	RendererInteractive RendererKind = "interactive"
	RendererHeadless    RendererKind = "headless"
	RendererNone        RendererKind = "none"
)

var rendererNormalizer = normalization.NewNormalizer("renderer", map[string]RendererKind{
	"interactive": RendererInteractive,
	"headless":    RendererHeadless,
	"none":        RendererNone,
}, RendererInteractive)

func ParseRendererKind(raw string) (RendererKind, error) {
	return rendererNormalizer.Parse(raw)
}

// ChartFormat is the export image format.
type ChartFormat string

const (
	FormatPNG ChartFormat = "png"
	FormatSVG ChartFormat = "svg"
)

var formatNormalizer = normalization.NewNormalizer("chart format", map[string]ChartFormat{
	"png": FormatPNG,
	"svg": FormatSVG,
}, FormatPNG)

func ParseChartFormat(raw string) (ChartFormat, error) {
	return formatNormalizer.Parse(raw)
}
