package util

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDecimals  = 2
	DefaultPrecision = 16
	DefaultSeed      = 179757
	// DefaultMaxCallDepth keeps runaway recursion from exhausting the Go stack.
	DefaultMaxCallDepth = 1024
)

type Configuration struct {
	Version   string `toml:"-" yaml:"-"`
	BuildDate string `toml:"-" yaml:"-"`
	Commit    string `toml:"-" yaml:"-"`

	// Decimals is the number of decimal places shown when a number is printed.
	Decimals int32 `toml:"decimals" yaml:"decimals"`
	// Precision is the scale of division results.
	Precision        int32  `toml:"precision" yaml:"precision"`
	CurrentDirectory string `toml:"current_directory" yaml:"current_directory"`
	Seed             int64  `toml:"seed" yaml:"seed"`
	// MaxIterations bounds the iterations of a single loop; 0 means unbounded.
	MaxIterations int64 `toml:"max_iterations" yaml:"max_iterations"`
	MaxCallDepth  int   `toml:"max_call_depth" yaml:"max_call_depth"`
	SQLEnabled    bool  `toml:"sql_enabled" yaml:"sql_enabled"`

	DebugJsonAST bool `toml:"debug_json_ast" yaml:"debug_json_ast"`
	DebugTxtAST  bool `toml:"debug_txt_ast" yaml:"debug_txt_ast"`
}

func DefaultConfiguration() Configuration {
	cwd, _ := os.Getwd()
	return Configuration{
		Decimals:         DefaultDecimals,
		Precision:        DefaultPrecision,
		CurrentDirectory: cwd,
		Seed:             DefaultSeed,
		MaxCallDepth:     DefaultMaxCallDepth,
	}
}

// LoadConfiguration reads a TOML or YAML file, chosen by extension, over the
// defaults.
func LoadConfiguration(path string) (Configuration, error) {
	config := DefaultConfiguration()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &config); err != nil {
			return config, fmt.Errorf("failed to read configuration '%s': %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return config, fmt.Errorf("failed to read configuration '%s': %w", path, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("failed to read configuration '%s': %w", path, err)
		}
	default:
		return config, fmt.Errorf("unsupported configuration format '%s'", filepath.Ext(path))
	}

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid configuration '%s': %w", path, err)
	}

	slog.Debug("configuration loaded",
		slog.String("path", path),
		slog.Any("decimals", config.Decimals),
		slog.Any("precision", config.Precision),
		slog.Any("seed", config.Seed),
		slog.Bool("sql", config.SQLEnabled))
	return config, nil
}

func (c Configuration) Validate() error {
	if c.Decimals < 0 {
		return fmt.Errorf("decimals must not be negative, got %d", c.Decimals)
	}
	if c.Precision < 0 {
		return fmt.Errorf("precision must not be negative, got %d", c.Precision)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must not be negative, got %d", c.MaxIterations)
	}
	if c.MaxCallDepth < 0 {
		return fmt.Errorf("max_call_depth must not be negative, got %d", c.MaxCallDepth)
	}
	return nil
}
