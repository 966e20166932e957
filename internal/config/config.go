// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/rlfscan/internal/dom"
	"github.com/xkilldash9x/rlfscan/internal/failures"
	"github.com/xkilldash9x/rlfscan/internal/rlg"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Database() DatabaseConfig
	Browser() BrowserConfig
	Analysis() AnalysisConfig
	Output() OutputConfig

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserConcurrency(int)

	// Analysis Setters
	SetAnalysisWidths(min, max, step int)

	// Output Setters
	SetOutputDir(string)
	SetOutputFormats([]string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	DatabaseCfg DatabaseConfig `mapstructure:"database" yaml:"database"`
	BrowserCfg  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	AnalysisCfg AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	OutputCfg   OutputConfig   `mapstructure:"output" yaml:"output"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Database() DatabaseConfig { return c.DatabaseCfg }
func (c *Config) Browser() BrowserConfig   { return c.BrowserCfg }
func (c *Config) Analysis() AnalysisConfig { return c.AnalysisCfg }
func (c *Config) Output() OutputConfig     { return c.OutputCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool)   { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserConcurrency(n int) { c.BrowserCfg.Concurrency = n }

func (c *Config) SetAnalysisWidths(min, max, step int) {
	c.AnalysisCfg.MinWidth = min
	c.AnalysisCfg.MaxWidth = max
	c.AnalysisCfg.Step = step
}

func (c *Config) SetOutputDir(dir string)           { c.OutputCfg.Dir = dir }
func (c *Config) SetOutputFormats(formats []string) { c.OutputCfg.Formats = formats }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DatabaseConfig holds the database connection details. Persistence is
// skipped when URL is empty.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// BrowserConfig holds settings for the headless browser that renders each
// viewport width.
type BrowserConfig struct {
	Headless       bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath       string        `mapstructure:"exec_path" yaml:"exec_path"`
	Args           []string      `mapstructure:"args" yaml:"args"`
	Concurrency    int           `mapstructure:"concurrency" yaml:"concurrency"`
	RatePerSecond  float64       `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	ViewportHeight int           `mapstructure:"viewport_height" yaml:"viewport_height"`
	SettleTime     time.Duration `mapstructure:"settle_time" yaml:"settle_time"`
	CaptureTimeout time.Duration `mapstructure:"capture_timeout" yaml:"capture_timeout"`
}

// AnalysisConfig holds the width sweep and the detector tolerances.
type AnalysisConfig struct {
	MinWidth            int            `mapstructure:"min_width" yaml:"min_width"`
	MaxWidth            int            `mapstructure:"max_width" yaml:"max_width"`
	Step                int            `mapstructure:"step" yaml:"step"`
	Tolerances          rlg.Tolerances `mapstructure:"tolerances" yaml:"tolerances"`
	RowThreshold        int            `mapstructure:"row_threshold" yaml:"row_threshold"`
	SmallRangeThreshold int            `mapstructure:"smallrange_threshold" yaml:"smallrange_threshold"`
	ExcludedDisplay     []string       `mapstructure:"excluded_display" yaml:"excluded_display"`
}

// Widths enumerates the sweep from MinWidth to MaxWidth. MaxWidth is always
// included so the widest layout is captured even when the step overshoots.
func (a AnalysisConfig) Widths() []int {
	step := a.Step
	if step < 1 {
		step = 1
	}
	var out []int
	for w := a.MinWidth; w <= a.MaxWidth; w += step {
		out = append(out, w)
	}
	if len(out) > 0 && out[len(out)-1] != a.MaxWidth {
		out = append(out, a.MaxWidth)
	}
	return out
}

// DetectOptions returns the detector thresholds.
func (a AnalysisConfig) DetectOptions() failures.Options {
	return failures.Options{
		RowThreshold:        a.RowThreshold,
		SmallRangeThreshold: a.SmallRangeThreshold,
	}
}

// DOMOptions returns the snapshot indexing options.
func (a AnalysisConfig) DOMOptions() dom.Options {
	return dom.Options{ExcludedDisplay: a.ExcludedDisplay}
}

// OutputConfig controls which reports are written and where.
type OutputConfig struct {
	Dir     string   `mapstructure:"dir" yaml:"dir"`
	Formats []string `mapstructure:"formats" yaml:"formats"`
	// Table prints a summary table of the failures to stdout.
	Table bool `mapstructure:"table" yaml:"table"`
}

// SupportedFormats lists the report formats the reporting package writes.
var SupportedFormats = []string{"csv", "text", "json"}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "rlfscan")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.concurrency", 4)
	v.SetDefault("browser.rate_per_second", 0.0)
	v.SetDefault("browser.viewport_height", 1000)
	v.SetDefault("browser.settle_time", "500ms")
	v.SetDefault("browser.capture_timeout", "60s")

	// -- Analysis --
	v.SetDefault("analysis.min_width", 320)
	v.SetDefault("analysis.max_width", 1400)
	v.SetDefault("analysis.step", 1)
	v.SetDefault("analysis.tolerances.collision", 1.0)
	v.SetDefault("analysis.tolerances.protrusion", 1.0)
	v.SetDefault("analysis.tolerances.equivalent_parent", 2.0)
	v.SetDefault("analysis.tolerances.smallrange", 3.0)
	v.SetDefault("analysis.row_threshold", 3)
	v.SetDefault("analysis.smallrange_threshold", 5)
	v.SetDefault("analysis.excluded_display", []string{"inline"})

	// -- Output --
	v.SetDefault("output.dir", "reports")
	v.SetDefault("output.formats", []string{"csv"})
	v.SetDefault("output.table", true)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	v.BindEnv("database.url", "RLFSCAN_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Manually load the URL if Unmarshal didn't pick it up
	if cfg.DatabaseCfg.URL == "" {
		cfg.DatabaseCfg.URL = os.Getenv("RLFSCAN_DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.BrowserCfg.Concurrency <= 0 {
		return fmt.Errorf("browser.concurrency must be a positive integer")
	}
	if c.BrowserCfg.RatePerSecond < 0 {
		return fmt.Errorf("browser.rate_per_second must not be negative")
	}
	if err := c.AnalysisCfg.Validate(); err != nil {
		return fmt.Errorf("analysis configuration invalid: %w", err)
	}
	for _, f := range c.OutputCfg.Formats {
		if !isSupportedFormat(f) {
			return fmt.Errorf("output.formats: unsupported format %q (want one of %s)",
				f, strings.Join(SupportedFormats, ", "))
		}
	}
	return nil
}

// Validate checks the width sweep, tolerances and thresholds.
func (a *AnalysisConfig) Validate() error {
	if a.MinWidth <= 0 {
		return fmt.Errorf("analysis.min_width must be a positive integer")
	}
	if a.MaxWidth < a.MinWidth {
		return fmt.Errorf("analysis.max_width must not be less than analysis.min_width")
	}
	if a.Step <= 0 {
		return fmt.Errorf("analysis.step must be a positive integer")
	}
	t := a.Tolerances
	if t.Collision < 0 || t.Protrusion < 0 || t.EquivalentParent < 0 || t.SmallRange < 0 {
		return fmt.Errorf("analysis.tolerances must not be negative")
	}
	if a.RowThreshold < 2 {
		return fmt.Errorf("analysis.row_threshold must be at least 2")
	}
	if a.SmallRangeThreshold <= 0 {
		return fmt.Errorf("analysis.smallrange_threshold must be a positive integer")
	}
	return nil
}

func isSupportedFormat(f string) bool {
	for _, s := range SupportedFormats {
		if strings.EqualFold(s, f) {
			return true
		}
	}
	return false
}
