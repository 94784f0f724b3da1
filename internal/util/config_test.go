package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestDefaultConfiguration(t *testing.T) {
	config := DefaultConfiguration()
	if config.Decimals != 2 || config.Precision != 16 || config.Seed != 179757 {
		t.Errorf("unexpected defaults: %+v", config)
	}
	if config.SQLEnabled {
		t.Errorf("SQL should be disabled by default")
	}
}

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "salinas.toml", "decimals = 4\nprecision = 8\nseed = 42\nsql_enabled = true\nmax_iterations = 1000\n"},
		{"yaml", "salinas.yaml", "decimals: 4\nprecision: 8\nseed: 42\nsql_enabled: true\nmax_iterations: 1000\n"},
		{"yml", "salinas.yml", "decimals: 4\nprecision: 8\nseed: 42\nsql_enabled: true\nmax_iterations: 1000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.Decimals != 4 || config.Precision != 8 || config.Seed != 42 {
				t.Errorf("unexpected configuration: %+v", config)
			}
			if !config.SQLEnabled || config.MaxIterations != 1000 {
				t.Errorf("unexpected configuration: %+v", config)
			}
		})
	}
}

func TestLoadConfigurationKeepsDefaults(t *testing.T) {
	config, err := LoadConfiguration(writeFile(t, "partial.toml", "decimals = 0\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Decimals != 0 {
		t.Errorf("expected decimals 0, got %d", config.Decimals)
	}
	if config.Precision != DefaultPrecision || config.Seed != DefaultSeed {
		t.Errorf("expected defaults to survive, got %+v", config)
	}
}

func TestLoadConfigurationErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		expected string
	}{
		{"unsupported", "salinas.ini", "decimals=2", "unsupported configuration format"},
		{"bad toml", "bad.toml", "decimals = [", "failed to read configuration"},
		{"bad yaml", "bad.yaml", "decimals: [1, 2", "failed to read configuration"},
		{"negative", "neg.toml", "precision = -1", "precision must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfiguration(writeFile(t, tt.file, tt.content))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.expected) {
				t.Errorf("expected error containing %q, got %q", tt.expected, err.Error())
			}
		})
	}
}

func TestGetContextLines(t *testing.T) {
	src := "a = 1\nb = 2\nc = ) 3"
	out := GetContextLines(src, 3, 5, "unexpected here")

	expected := "       1 | a = 1\n" +
		"       2 | b = 2\n" +
		"  >    3 | c = ) 3\n" +
		strings.Repeat(" ", 15) + "^ unexpected here"
	if out != expected {
		t.Errorf("unexpected context:\n%s\nexpected:\n%s", out, expected)
	}
}

func TestGetLineAndColumn(t *testing.T) {
	line, col := GetLineAndColumn("ab\ncd", 4)
	if line != 2 || col != 2 {
		t.Errorf("expected 2:2, got %d:%d", line, col)
	}
}
