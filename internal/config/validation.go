package config

import (
	"fmt"
	"slices"

	ferrors "git.home.luguber.info/inful/solveplot/internal/foundation/errors"
)

// ValidateConfig checks a defaulted configuration.
func ValidateConfig(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

// ReservedStepNames are the built-in stage names a step may not use.
var ReservedStepNames = []string{"pipeline", "load", "render"}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateSteps(); err != nil {
		return err
	}
	return cv.validateChart()
}

func (cv *configurationValidator) validateSteps() error {
	steps := cv.config.Pipeline.Steps
	seen := make(map[string]struct{}, len(steps))
	captures := 0
	for i, s := range steps {
		if s.Name == "" {
			return invalid(fmt.Sprintf("step %d has no name", i), "pipeline.steps")
		}
		if slices.Contains(ReservedStepNames, s.Name) {
			return invalid(fmt.Sprintf("step name %q is reserved", s.Name), "pipeline.steps")
		}
		if _, dup := seen[s.Name]; dup {
			return invalid(fmt.Sprintf("duplicate step name %q", s.Name), "pipeline.steps")
		}
		seen[s.Name] = struct{}{}
		if s.Command == "" {
			return invalid(fmt.Sprintf("step %q has no command", s.Name), "pipeline.steps")
		}
		if s.CaptureStdout {
			captures++
		}
	}
	if captures > 1 {
		return invalid("at most one step may set capture_stdout", "pipeline.steps")
	}
	if cv.config.Artifact == "" {
		return invalid("artifact path must not be empty", "artifact")
	}
	return nil
}

func (cv *configurationValidator) validateChart() error {
	c := cv.config.Chart
	if c.WidthIn <= 0 || c.HeightIn <= 0 {
		return invalid("figure size must be positive", "chart")
	}
	if c.DPI <= 0 {
		return invalid("dpi must be positive", "chart.dpi")
	}
	return nil
}

func invalid(msg, field string) error {
	return ferrors.ConfigError(msg).WithContext("field", field).Build()
}

func wrapDomain(domain string, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid "+domain+" configuration").
		WithContext("domain", domain).Fatal().UserAction().Build()
}
