package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/solveplot/internal/foundation/errors"
)

// DefaultConfigFile is picked up from the working directory when no --config is given.
const DefaultConfigFile = "solveplot.yaml"

// Config is the complete solveplot configuration.
type Config struct {
	Workdir  string         `yaml:"workdir"`
	Artifact string         `yaml:"artifact"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Chart    ChartConfig    `yaml:"chart"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	History  HistoryConfig  `yaml:"history"`
	Events   EventsConfig   `yaml:"events"`
}

// PipelineConfig describes the external steps that produce the artifact.
type PipelineConfig struct {
	Mode  PipelineMode `yaml:"mode"`
	Shell string       `yaml:"shell,omitempty"`
	Steps []Step       `yaml:"steps"`
}

// Step is one external command of the pipeline.
type Step struct {
	Name          string            `yaml:"name"`
	Command       string            `yaml:"command"`
	Args          []string          `yaml:"args,omitempty"`
	Dir           string            `yaml:"dir,omitempty"`
	Env           map[string]string `yaml:"env,omitempty"`
	CaptureStdout bool              `yaml:"capture_stdout,omitempty"` // stdout becomes the artifact
	Produces      []string          `yaml:"produces,omitempty"`
}

// ChartConfig controls how the loaded table is drawn.
type ChartConfig struct {
	Renderer   RendererKind `yaml:"renderer"`
	Title      string       `yaml:"title,omitempty"`
	WidthIn    float64      `yaml:"width_in"`
	HeightIn   float64      `yaml:"height_in"`
	DPI        float64      `yaml:"dpi"`
	AutoLayout *bool        `yaml:"auto_layout,omitempty"`
	ExportPath string       `yaml:"export_path,omitempty"`
	Format     ChartFormat  `yaml:"format"`
	ReportPath string       `yaml:"report_path,omitempty"`
}

// UseAutoLayout reports whether automatic layout is enabled (default true).
func (c ChartConfig) UseAutoLayout() bool {
	return c.AutoLayout == nil || *c.AutoLayout
}

// LoggingConfig selects log level and handler format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig enables the Prometheus textfile export when Textfile is set.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// HistoryConfig enables the SQLite run history when Path is set.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// EventsConfig enables run event publishing when NATSURL is set.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// ArtifactPath returns the artifact location resolved against Workdir.
func (c *Config) ArtifactPath() string {
	return c.ResolvePath(c.Artifact)
}

// ExportPath returns the chart export location resolved against Workdir.
func (c *Config) ExportPath() string {
	return c.ResolvePath(c.Chart.ExportPath)
}

// ResolvePath resolves a relative path against Workdir. Empty stays empty.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Workdir, p)
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", configPath).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).Fatal().Build()
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").
			WithContext("path", configPath).Fatal().Build()
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	// A relative workdir is relative to the config file, not the caller.
	if !filepath.IsAbs(cfg.Workdir) {
		cfg.Workdir = filepath.Join(filepath.Dir(configPath), cfg.Workdir)
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configPath when given, otherwise DefaultConfigFile in
// the working directory when present, otherwise the built-in defaults.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath != "" {
		return Load(configPath)
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return Load(DefaultConfigFile)
	}
	loadEnvFiles(".")
	return Default(), nil
}

// Default returns the built-in configuration: ./modgen && make && ./solver > out.csv,
// plotted interactively at 7x3.5 inches.
func Default() *Config {
	cfg := &Config{}
	// Defaults on an empty config cannot fail.
	_ = applyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	example := Default()
	example.History.Path = "solveplot-history.db"
	example.Chart.ReportPath = "report.html"

	data, err := yaml.Marshal(example)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal example config").Build()
	}

	header := fmt.Sprintf("# solveplot configuration\n# a relative workdir resolves against this file's directory\n# mode: %v, renderer: %v, format: %v\n",
		pipelineModeNormalizer.ValidKeys(), rendererNormalizer.ValidKeys(), formatNormalizer.ValidKeys())
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).Fatal().Build()
	}
	return nil
}
