package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure. Filter selections are per invocation and
// never stored here.
type Global struct {
	// Dataset layout
	RangeColumn   string `mapstructure:"range_column" yaml:"range_column"`
	OutcomeColumn string `mapstructure:"outcome_column" yaml:"outcome_column"`

	// Input decoding
	InputFormat        string `mapstructure:"input_format" yaml:"input_format"`
	Delimiter          string `mapstructure:"delimiter" yaml:"delimiter"`
	Encoding           string `mapstructure:"encoding" yaml:"encoding"`
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	SheetName          string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex         int    `mapstructure:"sheet_index" yaml:"sheet_index"`

	// Output
	HeadRows            int    `mapstructure:"head_rows" yaml:"head_rows"`
	ReportFormat        string `mapstructure:"report_format" yaml:"report_format"`
	OutputDir           string `mapstructure:"output_dir" yaml:"output_dir"`
	ProcessedFile       string `mapstructure:"processed_file" yaml:"processed_file"`
	RawOutcomeFile      string `mapstructure:"raw_outcome_file" yaml:"raw_outcome_file"`
	FilteredOutcomeFile string `mapstructure:"filtered_outcome_file" yaml:"filtered_outcome_file"`

	CacheMaxCost int64 `mapstructure:"cache_max_cost" yaml:"cache_max_cost"`

	// Logging
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogEncoding string `mapstructure:"log_encoding" yaml:"log_encoding"`
}

const dirName = ".telefilter"

// Defaults returns the built-in configuration.
func Defaults() *Global {
	return &Global{
		RangeColumn:         "age",
		OutcomeColumn:       "y",
		InputFormat:         "auto",
		Delimiter:           ";",
		Encoding:            "utf-8",
		SheetIndex:          1,
		HeadRows:            5,
		ReportFormat:        "md",
		OutputDir:           ".",
		ProcessedFile:       "bank_processed.xlsx",
		RawOutcomeFile:      "bank_raw_y.xlsx",
		FilteredOutcomeFile: "bank_y.xlsx",
		CacheMaxCost:        64 << 20,
		LogLevel:            "warn",
		LogEncoding:         "json",
	}
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.telefilter/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, dirName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TELEFILTER")
	v.AutomaticEnv()

	// Defaults
	d := Defaults()
	v.SetDefault("range_column", d.RangeColumn)
	v.SetDefault("outcome_column", d.OutcomeColumn)
	v.SetDefault("input_format", d.InputFormat)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("encoding", d.Encoding)
	v.SetDefault("decimal_separator", d.DecimalSeparator)
	v.SetDefault("thousands_separator", d.ThousandsSeparator)
	v.SetDefault("sheet_name", d.SheetName)
	v.SetDefault("sheet_index", d.SheetIndex)
	v.SetDefault("head_rows", d.HeadRows)
	v.SetDefault("report_format", d.ReportFormat)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("processed_file", d.ProcessedFile)
	v.SetDefault("raw_outcome_file", d.RawOutcomeFile)
	v.SetDefault("filtered_outcome_file", d.FilteredOutcomeFile)
	v.SetDefault("cache_max_cost", d.CacheMaxCost)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_encoding", d.LogEncoding)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, dirName)
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks values that would otherwise fail deep inside the pipeline.
func (c *Global) Validate() error {
	if len([]rune(c.Delimiter)) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	for key, s := range map[string]string{"decimal_separator": c.DecimalSeparator, "thousands_separator": c.ThousandsSeparator} {
		if len([]rune(s)) > 1 {
			return fmt.Errorf("%s must be at most one character, got %q", key, s)
		}
	}
	if c.SheetIndex < 0 {
		return fmt.Errorf("sheet_index must be >= 1, got %d", c.SheetIndex)
	}
	if c.HeadRows < 0 {
		return fmt.Errorf("head_rows must be >= 0, got %d", c.HeadRows)
	}
	switch c.ReportFormat {
	case "md", "markdown", "json":
	default:
		return fmt.Errorf("unsupported report_format: %s (use md|json)", c.ReportFormat)
	}
	return nil
}
