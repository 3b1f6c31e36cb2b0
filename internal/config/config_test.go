package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.Dataset.ToneFile != "gdelt_us_politics_tone_and_topics_long.csv" {
		t.Errorf("unexpected tone file %q", cfg.Dataset.ToneFile)
	}

	if cfg.Server.Port != 8600 {
		t.Errorf("expected port 8600, got %d", cfg.Server.Port)
	}

	if cfg.Defaults.Window != 30 {
		t.Errorf("expected window 30, got %d", cfg.Defaults.Window)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
server:
  port: 9000
defaults:
  window: 7
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Defaults.Window != 7 {
		t.Errorf("expected window 7, got %d", cfg.Defaults.Window)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected default host, got %q", cfg.Server.Host)
	}
	if cfg.Defaults.ShareOutlet != "NYTimes" {
		t.Errorf("expected default share outlet, got %q", cfg.Defaults.ShareOutlet)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Dataset.ShareFile == "" {
		t.Error("expected share file to be populated from file")
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	t.Setenv("MEDIALENS_PORT", "9100")
	t.Setenv("MEDIALENS_DATA_DIR", "/tmp/lens-data")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("expected env port 9100, got %d", cfg.Server.Port)
	}
	if cfg.GetDataDir() != "/tmp/lens-data" {
		t.Errorf("expected env data dir, got %q", cfg.GetDataDir())
	}

	t.Setenv("MEDIALENS_PORT", "not-a-port")
	if _, err := Load(path); err == nil {
		t.Error("expected an error for a malformed MEDIALENS_PORT")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := parse(DefaultConfigYAML)
		if err != nil {
			t.Fatalf("failed to parse default config: %v", err)
		}
		return cfg
	}

	cfg := base()
	cfg.Server.Port = 0
	if err := cfg.Validate(); !errors.Is(err, ErrBadPort) {
		t.Errorf("expected ErrBadPort, got %v", err)
	}

	cfg = base()
	cfg.Defaults.Window = 13
	if err := cfg.Validate(); !errors.Is(err, ErrBadWindow) {
		t.Errorf("expected ErrBadWindow, got %v", err)
	}

	cfg = base()
	cfg.Defaults.YearFrom = 2024
	cfg.Defaults.YearTo = 2020
	if err := cfg.Validate(); !errors.Is(err, ErrBadYearRange) {
		t.Errorf("expected ErrBadYearRange, got %v", err)
	}

	cfg = base()
	cfg.Retry.MaxAttempts = 0
	if err := cfg.Validate(); !errors.Is(err, ErrBadRetry) {
		t.Errorf("expected ErrBadRetry, got %v", err)
	}

	cfg = base()
	cfg.Retry.MaxDelayMs = 10
	if err := cfg.Validate(); !errors.Is(err, ErrBadRetry) {
		t.Errorf("expected ErrBadRetry for inverted delays, got %v", err)
	}
}

func TestRetryDelay(t *testing.T) {
	r := Retry{MaxAttempts: 3, InitialDelayMs: 500, MaxDelayMs: 8000, BackoffMultiplier: 2.0}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{2, 2 * time.Second},
		{10, 8 * time.Second},
	}
	for _, c := range cases {
		if got := r.Delay(c.attempt); got != c.want {
			t.Errorf("Delay(%d): expected %v, got %v", c.attempt, c.want, got)
		}
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
	if cfg.ToneFilePath() != filepath.Join("/custom/path", cfg.Dataset.ToneFile) {
		t.Errorf("unexpected tone path %q", cfg.ToneFilePath())
	}
}
