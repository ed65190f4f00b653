package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return Load(fs)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.Path != "studydeck.db" {
		t.Errorf("db.path = %q", cfg.DB.Path)
	}
	if cfg.Plan.Hours != 3 {
		t.Errorf("plan.hours = %v, want 3", cfg.Plan.Hours)
	}
	if !cfg.Review.Shuffle {
		t.Error("review.shuffle should default to true")
	}
	if cfg.Review.Relearn != 10*time.Minute {
		t.Errorf("review.relearn = %v", cfg.Review.Relearn)
	}
	if cfg.Focus.Work != 25*time.Minute || cfg.Focus.Every != 4 {
		t.Errorf("unexpected focus defaults %+v", cfg.Focus)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studydeck.yaml")
	yaml := "db:\n  path: from-file.db\nplan:\n  hours: 5\nlog:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STUDYDECK_PLAN_HOURS", "6")
	t.Setenv("STUDYDECK_REVIEW_SHUFFLE", "false")

	cfg, err := load(t, "--config", path, "--log-level", "warn")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.Path != "from-file.db" {
		t.Errorf("file value lost: db.path = %q", cfg.DB.Path)
	}
	if cfg.Plan.Hours != 6 {
		t.Errorf("env should override file: plan.hours = %v", cfg.Plan.Hours)
	}
	if cfg.Review.Shuffle {
		t.Error("env should override flag default for review.shuffle")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("changed flag should win: log.level = %q", cfg.Log.Level)
	}
	if cfg.Log.SlogLevel() != slog.LevelWarn {
		t.Errorf("SlogLevel() = %v", cfg.Log.SlogLevel())
	}
}

func TestLoadInvalid(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{"log level", []string{"--log-level", "loud"}, "Level"},
		{"zero hours", []string{"--plan-hours", "0"}, "Hours"},
		{"too many hours", []string{"--plan-hours", "25"}, "Hours"},
		{"no long break", []string{"--focus-every", "0"}, "Every"},
		{"empty db", []string{"--db-path", ""}, "Path"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := load(t, tc.args...)
			if err == nil {
				t.Fatal("Expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %s", err, tc.want)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("STUDYDECK_HTTP_ADDR=localhost:9999\nSTUDYDECK_SOURCES_WATCH=true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	// godotenv sets real variables; register them for cleanup.
	t.Setenv("STUDYDECK_HTTP_ADDR", "")
	os.Unsetenv("STUDYDECK_HTTP_ADDR")
	t.Setenv("STUDYDECK_SOURCES_WATCH", "")
	os.Unsetenv("STUDYDECK_SOURCES_WATCH")

	cfg, err := load(t)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != "localhost:9999" || !cfg.Sources.Watch {
		t.Errorf("dotenv values not applied: %+v %+v", cfg.HTTP, cfg.Sources)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := load(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}
