// Package config loads chansync settings from defaults, an optional YAML
// file and CHANSYNC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"
)

// EnvPrefix is the prefix for environment overrides, e.g. CHANSYNC_DB_PATH.
const EnvPrefix = "CHANSYNC_"

// DefaultFile is read when no explicit config path is given and it exists.
const DefaultFile = "chansync.yaml"

// Config holds runtime settings.
type Config struct {
	DBPath      string `koanf:"db_path"`
	LogLevel    string `koanf:"log_level"`
	LogFormat   string `koanf:"log_format"`
	MetricsFile string `koanf:"metrics_file"`
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"text", "json"}
)

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DBPath:    "chansync.db",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load builds a Config. path names a YAML file that must exist; if empty,
// DefaultFile is used when present. Environment variables override file
// values.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	def := Default()
	for key, val := range map[string]any{
		"db_path":      def.DBPath,
		"log_level":    def.LogLevel,
		"log_format":   def.LogFormat,
		"metrics_file": def.MetricsFile,
	} {
		if err := k.Set(key, val); err != nil {
			return Config{}, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings.
func (c Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path must not be empty"))
	}
	if !lo.Contains(validLevels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("invalid log_level %q: must be one of %v", c.LogLevel, validLevels))
	}
	if !lo.Contains(validFormats, c.LogFormat) {
		errs = append(errs, fmt.Errorf("invalid log_format %q: must be one of %v", c.LogFormat, validFormats))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level. Unknown values map to info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
