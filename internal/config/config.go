// Package config loads settings from flag defaults, an optional YAML file,
// STUDYDECK_* environment variables and explicitly set flags, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment overrides, e.g. STUDYDECK_DB_PATH.
const EnvPrefix = "STUDYDECK_"

// Config represents the application configuration.
type Config struct {
	DB      DBConfig      `koanf:"db"`
	Sources SourcesConfig `koanf:"sources"`
	HTTP    HTTPConfig    `koanf:"http"`
	Log     LogConfig     `koanf:"log"`
	Plan    PlanConfig    `koanf:"plan"`
	Review  ReviewConfig  `koanf:"review"`
	Focus   FocusConfig   `koanf:"focus"`
}

type DBConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type SourcesConfig struct {
	Dir   string `koanf:"dir" validate:"required"` // where git sources are checked out
	Watch bool   `koanf:"watch"`                   // resync local sources on change while serving
}

type HTTPConfig struct {
	Addr string `koanf:"addr" validate:"required,hostname_port"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// SlogLevel converts the configured level name.
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type PlanConfig struct {
	Hours float64 `koanf:"hours" validate:"gt=0,lte=24"` // study hours per day
}

type ReviewConfig struct {
	Shuffle bool          `koanf:"shuffle"`
	Relearn time.Duration `koanf:"relearn" validate:"gt=0"`
}

// FocusConfig holds the focus/break cycle lengths.
type FocusConfig struct {
	Work   time.Duration `koanf:"work" validate:"gt=0"`
	Short  time.Duration `koanf:"short" validate:"gt=0"`
	Long   time.Duration `koanf:"long" validate:"gt=0"`
	Every  int           `koanf:"every" validate:"gt=0"`
	Cycles int           `koanf:"cycles" validate:"gt=0"`
}

// RegisterFlags declares every setting on fs. The flag defaults are the
// configuration defaults. Flag names use '-' where keys use '.'.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "Path to a YAML config file")
	fs.String("db-path", "studydeck.db", "Path to the SQLite database file")
	fs.String("sources-dir", "repos", "Directory git sources are cloned into")
	fs.Bool("sources-watch", false, "Resync local sources when their notes change while serving")
	fs.String("http-addr", "localhost:8080", "Address the web UI listens on")
	fs.String("log-level", "info", "Log level: debug, info, warn or error")
	fs.Float64("plan-hours", 3, "Study hours available per day")
	fs.Bool("review-shuffle", true, "Shuffle review sessions")
	fs.Duration("review-relearn", 10*time.Minute, "Delay before a failed card is due again")
	fs.Duration("focus-work", 25*time.Minute, "Length of a focus session")
	fs.Duration("focus-short", 5*time.Minute, "Length of a short break")
	fs.Duration("focus-long", 15*time.Minute, "Length of a long break")
	fs.Int("focus-every", 4, "Take a long break after this many focus sessions")
	fs.Int("focus-cycles", 4, "Number of focus sessions in a run")
}

// Load builds the configuration from a parsed FlagSet on which
// RegisterFlags was called. A .env file in the working directory is read
// into the environment first; variables already set win.
func Load(fs *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")

	path, _ := fs.GetString("config")
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Defaults fill keys nothing else set; changed flags override everything.
	if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, flagKey(fs)), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config validation failed: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// envKey maps STUDYDECK_DB_PATH to db.path.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
}

// flagKey maps --db-path to db.path. The config flag itself is not a key.
func flagKey(fs *pflag.FlagSet) func(*pflag.Flag) (string, interface{}) {
	return func(f *pflag.Flag) (string, interface{}) {
		if f.Name == "config" {
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "."), posflag.FlagVal(fs, f)
	}
}
