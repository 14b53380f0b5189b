package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/datapilots/tankcast/internal/forecast"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvDataDir, "")
	t.Setenv(EnvModel, "")
	t.Setenv(EnvContextDays, "")
	t.Setenv(EnvHorizonDays, "")
	t.Setenv(EnvPriceBaseURL, "")
	return dir
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultConfig()
	if cfg.Forecast != def.Forecast {
		t.Errorf("forecast = %+v, want %+v", cfg.Forecast, def.Forecast)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	isolate(t)
	cfg := DefaultConfig()
	cfg.General.DataDir = "/srv/telemetry"
	cfg.General.ExcludedTanks = []int{5}
	cfg.Forecast.HorizonDays = 45

	if err := Save(cfg); err != nil {
		t.Fatal(err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	got, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if got.General.DataDir != "/srv/telemetry" || got.Forecast.HorizonDays != 45 {
		t.Errorf("round trip lost values: %+v", got)
	}
	if !got.General.IsExcluded(5) || got.General.IsExcluded(1) {
		t.Errorf("excluded tanks = %v", got.General.ExcludedTanks)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	cfg := DefaultConfig()
	cfg.General.DataDir = "/from/file"
	if err := Save(cfg); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvDataDir, "/from/env")
	t.Setenv(EnvHorizonDays, "14")

	got, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if got.General.DataDir != "/from/env" || got.Forecast.HorizonDays != 14 {
		t.Errorf("env overrides not applied: %+v", got)
	}

	file, err := LoadFile()
	if err != nil {
		t.Fatal(err)
	}
	if file.General.DataDir != "/from/file" {
		t.Errorf("LoadFile picked up env: %q", file.General.DataDir)
	}
}

func TestLoadDefersValidation(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "tankcast", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[forecast]\nmodel = \"neural\"\nhorizon_days = 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Forecast.Model != "neural" {
		t.Errorf("model = %q, want the file value", cfg.Forecast.Model)
	}
	if err := cfg.Validate(); !errors.Is(err, forecast.ErrUnknownModel) {
		t.Errorf("Validate err = %v, want ErrUnknownModel", err)
	}

	// An override applied after loading makes the config usable.
	cfg.Forecast.Model = "polynomial"
	cfg.Forecast.HorizonDays = 7
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate after override: %v", err)
	}
}

func TestRepair(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Forecast.Model = "arima"
	cfg.Forecast.HorizonDays = 0
	cfg.Forecast.Degree = 2
	cfg.General.DataDir = "/srv/telemetry"

	fixed, reset := cfg.Repair()
	if err := fixed.Validate(); err != nil {
		t.Fatalf("Validate after Repair: %v", err)
	}
	if len(reset) != 2 || reset[0] != "forecast.model" || reset[1] != "forecast.horizon_days" {
		t.Errorf("reset = %v", reset)
	}
	if fixed.Forecast.Degree != 2 || fixed.General.DataDir != "/srv/telemetry" {
		t.Errorf("Repair touched valid settings: %+v", fixed)
	}

	if _, reset := DefaultConfig().Repair(); len(reset) != 0 {
		t.Errorf("defaults reset %v", reset)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero context", func(c *Config) { c.Forecast.ContextDays = 0 }, forecast.ErrInvalidWindow},
		{"negative horizon", func(c *Config) { c.Forecast.HorizonDays = -1 }, forecast.ErrInvalidWindow},
		{"negative degree", func(c *Config) { c.Forecast.Degree = -2 }, forecast.ErrInvalidDegree},
		{"legacy model name", func(c *Config) { c.Forecast.Model = "polyReg" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestForecastOptions(t *testing.T) {
	opts, err := DefaultConfig().Forecast.Options(3)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Kind != forecast.Polynomial || opts.Degree != 3 || opts.ContextLength != 30 || opts.Horizon != 30 {
		t.Errorf("options = %+v", opts)
	}
}
