package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/testnetstats/internal/model"
)

// DefaultSerializationErrorPrefix marks repair failures that print-errors hides.
const DefaultSerializationErrorPrefix = "Serialization error"

// Config holds all runtime configuration for a netstats run.
type Config struct {
	ConfigPath  string
	DSN         string
	LogFormat   string // "text" or "json"
	LogLevel    string
	PaymentType string // "single-node" or "merkle"

	LogPath    string
	ParquetOut string
	SQLitePath string
	Force      bool

	TestnetPath              string
	OutputPath               string
	SerializationErrorPrefix string
	// SerializationErrorPrefixSet is true when the prefix was given on the
	// command line, where an empty value disables the filter.
	SerializationErrorPrefixSet bool
}

// yamlConfig is the on-disk YAML structure. Every field is optional.
type yamlConfig struct {
	PaymentType              string `yaml:"payment_type"`
	LogFormat                string `yaml:"log_format"`
	LogLevel                 string `yaml:"log_level"`
	ParquetOut               string `yaml:"parquet_out"`
	SQLitePath               string `yaml:"sqlite_path"`
	SerializationErrorPrefix string `yaml:"serialization_error_prefix"`
}

// LoadFromFile reads a YAML config file and fills in any field that was not
// already set from the command line.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	fill(&c.PaymentType, yc.PaymentType)
	fill(&c.LogFormat, yc.LogFormat)
	fill(&c.LogLevel, yc.LogLevel)
	fill(&c.ParquetOut, yc.ParquetOut)
	fill(&c.SQLitePath, yc.SQLitePath)
	if !c.SerializationErrorPrefixSet {
		fill(&c.SerializationErrorPrefix, yc.SerializationErrorPrefix)
	}
	if c.PaymentType != "" {
		if _, err := model.ParsePaymentType(c.PaymentType); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
	}
	return nil
}

func fill(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// ApplyDefaults sets defaults for fields left empty by flags and the config file.
func (c *Config) ApplyDefaults() {
	fill(&c.LogFormat, "text")
	fill(&c.LogLevel, "info")
	if !c.SerializationErrorPrefixSet {
		fill(&c.SerializationErrorPrefix, DefaultSerializationErrorPrefix)
	}
}

// Payment returns the validated payment type.
func (c *Config) Payment() (model.PaymentType, error) {
	if c.PaymentType == "" {
		return "", fmt.Errorf("--payment-type is required")
	}
	return model.ParsePaymentType(c.PaymentType)
}

// ValidateUploads checks the fields needed to parse an upload log.
func (c *Config) ValidateUploads() error {
	if c.LogPath == "" {
		return fmt.Errorf("log file path is required")
	}
	if _, err := c.Payment(); err != nil {
		return err
	}
	return nil
}

// ValidateTestnet checks that --path names an existing directory.
func (c *Config) ValidateTestnet() error {
	if c.TestnetPath == "" {
		return fmt.Errorf("--path is required")
	}
	info, err := os.Stat(c.TestnetPath)
	if err != nil {
		return fmt.Errorf("testnet directory %q does not exist", c.TestnetPath)
	}
	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", c.TestnetPath)
	}
	return nil
}

// ValidateDSN checks that a Postgres connection string is available.
func (c *Config) ValidateDSN() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn or NETSTATS_DB_URL is required")
	}
	return nil
}
