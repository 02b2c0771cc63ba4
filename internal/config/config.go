package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/cptspacemanspiff/battery-log/internal/collector"
)

const (
	minIntervalSeconds = 1
	maxIntervalSeconds = 86400
	minChartWidth      = 200
	maxChartWidth      = 8000
	minChartHeight     = 100
	maxChartHeight     = 4000
)

var plotUnits = []string{"hours", "minutes", "seconds"}

type Config struct {
	Sampler SamplerConfig `toml:"sampler"`
	Plot    PlotConfig    `toml:"plot"`
}

type SamplerConfig struct {
	IntervalSeconds int      `toml:"interval_seconds"`
	LogDir          string   `toml:"log_dir"`
	Source          string   `toml:"source"`
	Command         []string `toml:"command"`
	DBusSignal      bool     `toml:"dbus_signal"`
	SampleOnWake    bool     `toml:"sample_on_wake"`
}

type PlotConfig struct {
	Unit   string `toml:"unit"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

func DefaultConfig() *Config {
	return &Config{
		Sampler: SamplerConfig{
			IntervalSeconds: 60,
			Source:          collector.SourcePMSet,
			Command:         slices.Clone(collector.DefaultPMSetCommand),
		},
		Plot: PlotConfig{
			Unit:   "hours",
			Width:  1200,
			Height: 320,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/battery-log/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "battery-log", "config.toml"), nil
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return NormalizeAndValidate(cfg)
}

// LoadOrDefault loads path, or DefaultPath when path is empty. Only a
// missing file at the default location falls back to DefaultConfig.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	path, err := DefaultPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

func NormalizeAndValidate(cfg *Config) (*Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	sanitized := *cfg
	sanitized.Sampler.Command = slices.Clone(cfg.Sampler.Command)

	if err := validateRange("sampler.interval_seconds", sanitized.Sampler.IntervalSeconds, minIntervalSeconds, maxIntervalSeconds); err != nil {
		return nil, err
	}

	if dir := strings.TrimSpace(sanitized.Sampler.LogDir); dir != "" {
		sanitized.Sampler.LogDir = filepath.Clean(dir)
	} else {
		sanitized.Sampler.LogDir = ""
	}

	sanitized.Sampler.Source = strings.ToLower(strings.TrimSpace(sanitized.Sampler.Source))
	if !slices.Contains(collector.SourceNames(), sanitized.Sampler.Source) {
		return nil, fmt.Errorf("sampler.source must be one of %s, got %q", strings.Join(collector.SourceNames(), ", "), cfg.Sampler.Source)
	}
	if sanitized.Sampler.Source == collector.SourcePMSet {
		if len(sanitized.Sampler.Command) == 0 || strings.TrimSpace(sanitized.Sampler.Command[0]) == "" {
			return nil, fmt.Errorf("sampler.command must not be empty for source %q", collector.SourcePMSet)
		}
	}

	sanitized.Plot.Unit = strings.ToLower(strings.TrimSpace(sanitized.Plot.Unit))
	if !slices.Contains(plotUnits, sanitized.Plot.Unit) {
		return nil, fmt.Errorf("plot.unit must be one of %s, got %q", strings.Join(plotUnits, ", "), cfg.Plot.Unit)
	}
	if err := validateRange("plot.width", sanitized.Plot.Width, minChartWidth, maxChartWidth); err != nil {
		return nil, err
	}
	if err := validateRange("plot.height", sanitized.Plot.Height, minChartHeight, maxChartHeight); err != nil {
		return nil, err
	}

	return &sanitized, nil
}

func Save(path string, cfg *Config) error {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return fmt.Errorf("config path must not be empty")
	}

	sanitized, err := NormalizeAndValidate(cfg)
	if err != nil {
		return err
	}

	var data bytes.Buffer
	if err := toml.NewEncoder(&data).Encode(sanitized); err != nil {
		return fmt.Errorf("encode config TOML: %w", err)
	}

	dir := filepath.Dir(trimmedPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data.Bytes()); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tmpPath, trimmedPath); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	tmpPath = ""

	return nil
}

func validateRange(name string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s must be between %d and %d, got %d", name, min, max, value)
	}

	return nil
}
