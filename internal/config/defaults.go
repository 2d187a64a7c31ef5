package config

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// PipelineDefaultApplier fills in the generate/build/solve chain.
type PipelineDefaultApplier struct{}

func (p *PipelineDefaultApplier) Domain() string { return "pipeline" }

func (p *PipelineDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Workdir == "" {
		cfg.Workdir = "."
	}
	if cfg.Artifact == "" {
		cfg.Artifact = "out.csv"
	}
	mode, err := ParsePipelineMode(string(cfg.Pipeline.Mode))
	if err != nil {
		return err
	}
	cfg.Pipeline.Mode = mode
	if cfg.Pipeline.Shell == "" {
		cfg.Pipeline.Shell = "/bin/sh"
	}
	if len(cfg.Pipeline.Steps) == 0 {
		cfg.Pipeline.Steps = DefaultSteps()
	}
	return nil
}

// DefaultSteps is the classic ./modgen && make && ./solver > artifact chain.
func DefaultSteps() []Step {
	return []Step{
		{Name: "generate", Command: "./modgen"},
		{Name: "build", Command: "make"},
		{Name: "solve", Command: "./solver", CaptureStdout: true},
	}
}

// ChartDefaultApplier handles chart defaults.
type ChartDefaultApplier struct{}

func (c *ChartDefaultApplier) Domain() string { return "chart" }

func (c *ChartDefaultApplier) ApplyDefaults(cfg *Config) error {
	r, err := ParseRendererKind(string(cfg.Chart.Renderer))
	if err != nil {
		return err
	}
	cfg.Chart.Renderer = r

	f, err := ParseChartFormat(string(cfg.Chart.Format))
	if err != nil {
		return err
	}
	cfg.Chart.Format = f

	if cfg.Chart.WidthIn == 0 {
		cfg.Chart.WidthIn = 7
	}
	if cfg.Chart.HeightIn == 0 {
		cfg.Chart.HeightIn = 3.5
	}
	if cfg.Chart.DPI == 0 {
		cfg.Chart.DPI = 100
	}
	if cfg.Chart.AutoLayout == nil {
		on := true
		cfg.Chart.AutoLayout = &on
	}
	if cfg.Chart.ExportPath == "" {
		cfg.Chart.ExportPath = "out." + string(cfg.Chart.Format)
	}
	return nil
}

// AmbientDefaultApplier covers logging and the optional side channels.
type AmbientDefaultApplier struct{}

func (a *AmbientDefaultApplier) Domain() string { return "ambient" }

func (a *AmbientDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = "solveplot.runs"
	}
	return nil
}

var defaultAppliers = []DefaultApplier{
	&PipelineDefaultApplier{},
	&ChartDefaultApplier{},
	&AmbientDefaultApplier{},
}

func applyDefaults(cfg *Config) error {
	for _, applier := range defaultAppliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return wrapDomain(applier.Domain(), err)
		}
	}
	return nil
}
