// Package config loads and saves tankcast settings from a TOML file with
// .env and environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/datapilots/tankcast/internal/forecast"
)

// Config holds all tankcast configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Forecast   ForecastConfig   `toml:"forecast"`
	Prices     PricesConfig     `toml:"prices"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
	TUI        TUIConfig        `toml:"tui"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DataDir       string `toml:"data_dir,omitempty"`
	ExcludedTanks []int  `toml:"excluded_tanks,omitempty"`
}

// ForecastConfig holds consumption model defaults.
type ForecastConfig struct {
	Model         string `toml:"model"`
	ContextDays   int    `toml:"context_days"`
	HorizonDays   int    `toml:"horizon_days"`
	Degree        int    `toml:"degree"`
	ExploreDegree int    `toml:"explore_degree"`
}

// PricesConfig holds heating oil price lookup settings.
type PricesConfig struct {
	Enabled           bool    `toml:"enabled"`
	BaseURL           string  `toml:"base_url,omitempty"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	CacheTTLHours     int     `toml:"cache_ttl_hours"`
}

// DaemonConfig holds background poller settings.
type DaemonConfig struct {
	Addr        string `toml:"addr"`
	IntervalSec int    `toml:"interval_sec"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// TUIConfig holds dashboard behavior.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DataDir: "data",
		},
		Forecast: ForecastConfig{
			Model:         string(forecast.Polynomial),
			ContextDays:   30,
			HorizonDays:   30,
			Degree:        1,
			ExploreDegree: 3,
		},
		Prices: PricesConfig{
			Enabled:           true,
			RequestsPerSecond: 2,
			CacheTTLHours:     1,
		},
		Daemon: DaemonConfig{
			Addr:        "127.0.0.1:8787",
			IntervalSec: 300,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		TUI: TUIConfig{
			AutoRefresh:        true,
			RefreshIntervalSec: 60,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tankcast")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tankcast")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "tankcast")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "tankcast")
}

// CachePath returns the telemetry cache database path.
func CachePath() string {
	return filepath.Join(CacheDir(), "telemetry.db")
}

// Load reads the config file and applies environment overrides. A missing
// file yields the defaults. The result is not validated: callers apply
// their own overrides first and then call Validate.
func Load() (Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg)
	return cfg, nil
}

// LoadFile reads only the config file, without environment overrides, so
// that editing and saving never persists values taken from the environment.
func LoadFile() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Validate rejects settings the forecaster cannot work with.
func (c Config) Validate() error {
	if _, err := c.Forecast.Options(c.Forecast.Degree); err != nil {
		return fmt.Errorf("invalid [forecast] settings: %w", err)
	}
	if c.Forecast.ExploreDegree < 0 {
		return fmt.Errorf("invalid [forecast] settings: %w", forecast.ErrInvalidDegree)
	}
	if c.Prices.RequestsPerSecond < 0 {
		return fmt.Errorf("invalid [prices] settings: requests_per_second must not be negative")
	}
	return nil
}

// Repair resets settings Validate would reject to their defaults and
// returns the keys it reset.
func (c Config) Repair() (Config, []string) {
	def := DefaultConfig()
	var reset []string
	if _, err := forecast.ParseModelKind(c.Forecast.Model); err != nil {
		c.Forecast.Model = def.Forecast.Model
		reset = append(reset, "forecast.model")
	}
	if c.Forecast.ContextDays <= 0 {
		c.Forecast.ContextDays = def.Forecast.ContextDays
		reset = append(reset, "forecast.context_days")
	}
	if c.Forecast.HorizonDays <= 0 {
		c.Forecast.HorizonDays = def.Forecast.HorizonDays
		reset = append(reset, "forecast.horizon_days")
	}
	if c.Forecast.Degree < 0 {
		c.Forecast.Degree = def.Forecast.Degree
		reset = append(reset, "forecast.degree")
	}
	if c.Forecast.ExploreDegree < 0 {
		c.Forecast.ExploreDegree = def.Forecast.ExploreDegree
		reset = append(reset, "forecast.explore_degree")
	}
	if c.Prices.RequestsPerSecond < 0 {
		c.Prices.RequestsPerSecond = def.Prices.RequestsPerSecond
		reset = append(reset, "prices.requests_per_second")
	}
	return c, reset
}

// Options builds forecaster options with the given polynomial degree.
func (f ForecastConfig) Options(degree int) (forecast.Options, error) {
	kind, err := forecast.ParseModelKind(f.Model)
	if err != nil {
		return forecast.Options{}, err
	}
	opts := forecast.Options{
		Kind:          kind,
		ContextLength: f.ContextDays,
		Horizon:       f.HorizonDays,
		Degree:        degree,
	}
	return opts, opts.Validate()
}

// PriceCacheTTL returns how long fetched prices stay fresh.
func (p PricesConfig) PriceCacheTTL() time.Duration {
	if p.CacheTTLHours <= 0 {
		return time.Hour
	}
	return time.Duration(p.CacheTTLHours) * time.Hour
}

// Interval returns the daemon poll interval.
func (d DaemonConfig) Interval() time.Duration {
	if d.IntervalSec <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(d.IntervalSec) * time.Second
}

// IsExcluded reports whether tankID is hidden from views.
func (g GeneralConfig) IsExcluded(tankID int) bool {
	for _, id := range g.ExcludedTanks {
		if id == tankID {
			return true
		}
	}
	return false
}
