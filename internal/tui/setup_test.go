package tui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/datapilots/tankcast/internal/config"
)

func TestSaveSetupRepairsInvalidFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if err := os.MkdirAll(filepath.Dir(config.Path()), 0o750); err != nil {
		t.Fatal(err)
	}
	body := "[forecast]\nmodel = \"arima\"\ncontext_days = 14\n"
	if err := os.WriteFile(config.Path(), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	vals := NewSetupValues(config.DefaultConfig())
	vals.DataDir = "  /srv/telemetry "
	vals.Horizon = 60
	vals.Degree = 2
	vals.Theme = "tokyo-night"

	saved, err := SaveSetup(vals)
	if err != nil {
		t.Fatalf("SaveSetup: %v", err)
	}
	if saved.Forecast.Model != config.DefaultConfig().Forecast.Model {
		t.Errorf("model = %q, want default", saved.Forecast.Model)
	}

	got, err := config.LoadFile()
	if err != nil {
		t.Fatal(err)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("saved config invalid: %v", err)
	}
	if got.General.DataDir != "/srv/telemetry" || got.Forecast.HorizonDays != 60 || got.Forecast.Degree != 2 {
		t.Errorf("form values not saved: %+v", got)
	}
	if got.Forecast.ContextDays != 14 {
		t.Errorf("context_days = %d, want the file's 14 kept", got.Forecast.ContextDays)
	}
	if got.Appearance.Theme != "tokyo-night" {
		t.Errorf("theme = %q", got.Appearance.Theme)
	}
}
