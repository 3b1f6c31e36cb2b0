package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"medialens/internal/dataset"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// Validation sentinels. Wrapped with detail at the call site.
var (
	ErrBadPort      = errors.New("server port out of range")
	ErrBadWindow    = errors.New("smoothing window not an allowed size")
	ErrBadYearRange = errors.New("year range inverted")
	ErrBadRetry     = errors.New("invalid retry settings")
)

type Config struct {
	Dataset  Dataset  `yaml:"dataset"`
	Output   Output   `yaml:"output"`
	Server   Server   `yaml:"server"`
	Defaults Defaults `yaml:"defaults"`
	Retry    Retry    `yaml:"retry"`
	Logging  Logging  `yaml:"logging"`
}

type Dataset struct {
	ToneFile  string `yaml:"tone_file"`
	ShareFile string `yaml:"share_file"`
	SourceURL string `yaml:"source_url"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	RefreshSchedule string `yaml:"refresh_schedule"`
}

// Defaults seeds the dashboard filters before the user touches them.
type Defaults struct {
	Window      int    `yaml:"window"`
	YearFrom    int    `yaml:"year_from"`
	YearTo      int    `yaml:"year_to"`
	ShareOutlet string `yaml:"share_outlet"`
	DiveTopic   string `yaml:"dive_topic"`
}

type Retry struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for medialens.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "medialens")
}

// DataDir returns the XDG data directory for medialens.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "medialens")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/medialens/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'medialens init' to create a default config",
		xdgConfig,
	)
}

// Load reads, parses and validates a config YAML file.
// Environment overrides (MEDIALENS_*) are applied after parsing.
func Load(path string) (*Config, error) {
	// Load .env if present; a missing file is fine.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Dataset: Dataset{
			ToneFile:  dataset.ToneFileName,
			ShareFile: dataset.ShareFileName,
		},
		Server: Server{
			Host: "127.0.0.1",
			Port: 8600,
		},
		Defaults: Defaults{
			Window:      dataset.DefaultWindow,
			YearFrom:    2017,
			YearTo:      2025,
			ShareOutlet: "NYTimes",
			DiveTopic:   "Elections",
		},
		Retry: Retry{
			MaxAttempts:       3,
			InitialDelayMs:    500,
			MaxDelayMs:        8000,
			BackoffMultiplier: 2.0,
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// applyEnv overlays MEDIALENS_* environment variables on the parsed config.
func (c *Config) applyEnv() error {
	if v := os.Getenv("MEDIALENS_DATA_DIR"); v != "" {
		c.Output.DataDir = v
	}
	if v := os.Getenv("MEDIALENS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MEDIALENS_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("MEDIALENS_SOURCE_URL"); v != "" {
		c.Dataset.SourceURL = v
	}
	return nil
}

// Validate checks the parts of the config that would otherwise fail
// deep inside a command.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrBadPort, c.Server.Port)
	}
	if !dataset.ValidWindow(c.Defaults.Window) {
		return fmt.Errorf("%w: %d", ErrBadWindow, c.Defaults.Window)
	}
	if c.Defaults.YearFrom > c.Defaults.YearTo {
		return fmt.Errorf("%w: %d..%d", ErrBadYearRange, c.Defaults.YearFrom, c.Defaults.YearTo)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts %d", ErrBadRetry, c.Retry.MaxAttempts)
	}
	if c.Retry.InitialDelayMs < 1 || c.Retry.MaxDelayMs < c.Retry.InitialDelayMs {
		return fmt.Errorf("%w: delays %dms..%dms", ErrBadRetry, c.Retry.InitialDelayMs, c.Retry.MaxDelayMs)
	}
	if c.Retry.BackoffMultiplier < 1 {
		return fmt.Errorf("%w: backoff_multiplier %g", ErrBadRetry, c.Retry.BackoffMultiplier)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// ToneFilePath returns the on-disk location of the long-format CSV.
func (c *Config) ToneFilePath() string {
	return filepath.Join(c.GetDataDir(), c.Dataset.ToneFile)
}

// ShareFilePath returns the on-disk location of the topic-share CSV.
func (c *Config) ShareFilePath() string {
	return filepath.Join(c.GetDataDir(), c.Dataset.ShareFile)
}

// Addr returns the host:port string the HTTP server binds to.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Delay returns how long to wait before retry number attempt (0-based),
// growing exponentially up to the configured ceiling.
func (r Retry) Delay(attempt int) time.Duration {
	ms := float64(r.InitialDelayMs) * math.Pow(r.BackoffMultiplier, float64(attempt))
	if ms > float64(r.MaxDelayMs) {
		ms = float64(r.MaxDelayMs)
	}
	return time.Duration(ms) * time.Millisecond
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
