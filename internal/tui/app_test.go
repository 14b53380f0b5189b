package tui

import (
	"testing"
	"time"

	"github.com/datapilots/tankcast/internal/config"
	"github.com/datapilots/tankcast/internal/forecast"
	"github.com/datapilots/tankcast/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

var day0 = time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

func drain(id, n int, start, per, capacity float64) []model.Reading {
	out := make([]model.Reading, n)
	for i := range out {
		fill := start - per*float64(i)
		out[i] = model.Reading{
			TankID:      id,
			Timestamp:   day0.AddDate(0, 0, i),
			Consumption: model.Float(-per),
			FillLevel:   model.Float(fill),
			MaxCapacity: model.Float(capacity),
			Percent:     model.Float(fill / capacity * 100),
		}
	}
	return out
}

// testApp returns a loaded dashboard over two tanks: tank 1 reaches its
// reserve in a few days, tank 2 lasts well past the horizon.
func testApp(t *testing.T, filter []int) App {
	t.Helper()
	opts := forecast.Options{Kind: forecast.Polynomial, ContextLength: 30, Horizon: 30, Degree: 1}
	a := NewApp(config.DefaultConfig(), opts, filter)
	a.loaded = true
	a.readings = append(drain(1, 20, 1500, 40, 2000), drain(2, 20, 900, 2, 1000)...)
	a.recompute()
	return a
}

func press(t *testing.T, a App, keys ...string) App {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ := a.Update(msg)
		a = m.(App)
	}
	return a
}

func TestRecompute(t *testing.T) {
	a := testApp(t, nil)

	if len(a.today) != 2 {
		t.Fatalf("today = %d snapshots, want 2", len(a.today))
	}
	if len(a.forecasts) != 2 || len(a.explored) != 2 {
		t.Fatalf("forecasts = %d, explored = %d, want 2 each", len(a.forecasts), len(a.explored))
	}
	if a.due != 1 {
		t.Errorf("due = %d, want 1", a.due)
	}
	if a.reorder[0].TankID != 1 {
		t.Errorf("first reorder = tank %d, want 1", a.reorder[0].TankID)
	}
	if n := len(a.fleetDaily); n == 0 {
		t.Error("fleet daily series is empty")
	}
	if a.comparison.Current.Sensors != 2 {
		t.Errorf("current sensors = %d, want 2", a.comparison.Current.Sensors)
	}
}

func TestRecomputeTankFilter(t *testing.T) {
	a := testApp(t, []int{2})

	if len(a.forecasts) != 1 || a.forecasts[0].TankID != 2 {
		t.Fatalf("forecasts = %+v, want only tank 2", a.forecasts)
	}
	if a.due != 0 {
		t.Errorf("due = %d, want 0", a.due)
	}
}

func TestKeyNavigation(t *testing.T) {
	a := testApp(t, nil)

	a = press(t, a, "f")
	if a.activeTab != tabForecast {
		t.Fatalf("activeTab = %d, want forecast", a.activeTab)
	}
	a = press(t, a, "j", "j", "j")
	if a.fc.cursor != 1 {
		t.Errorf("forecast cursor = %d, want clamped to 1", a.fc.cursor)
	}
	a = press(t, a, "d")
	if !a.fc.explore {
		t.Error("d did not switch to the exploration fit")
	}
	if fc, ok := a.selectedForecast(); !ok || fc.TankID != 2 {
		t.Errorf("selected = %+v, %v; want tank 2", fc, ok)
	}

	a = press(t, a, "e", "u")
	if a.activeTab != tabReorder || !a.ro.dueOnly {
		t.Fatalf("tab = %d dueOnly = %v, want reorder tab filtered", a.activeTab, a.ro.dueOnly)
	}
	if rows := a.reorderRows(); len(rows) != 1 || rows[0].TankID != 1 {
		t.Fatalf("due rows = %+v, want only tank 1", rows)
	}

	// Enter jumps to the forecast of the selected tank.
	a = press(t, a, "enter")
	if a.activeTab != tabForecast || a.fc.cursor != 0 {
		t.Errorf("tab = %d cursor = %d, want forecast tab on tank 1", a.activeTab, a.fc.cursor)
	}

	a = press(t, a, "right", "right")
	if a.activeTab != tabSettings {
		t.Errorf("activeTab = %d, want settings", a.activeTab)
	}
	a = press(t, a, "right")
	if a.activeTab != tabOverview {
		t.Errorf("activeTab = %d, want wrap to overview", a.activeTab)
	}
	a = press(t, a, "left")
	if a.activeTab != tabSettings {
		t.Errorf("activeTab = %d, want wrap back to settings", a.activeTab)
	}
}

func TestHelpOverlay(t *testing.T) {
	a := testApp(t, nil)

	a = press(t, a, "?")
	if !a.showHelp {
		t.Fatal("? did not open help")
	}
	// Any key closes help without acting.
	a = press(t, a, "f")
	if a.showHelp || a.activeTab != tabOverview {
		t.Errorf("showHelp = %v tab = %d, want closed on overview", a.showHelp, a.activeTab)
	}
}

func TestKeysIgnoredUntilLoaded(t *testing.T) {
	a := NewApp(config.DefaultConfig(), forecast.Options{}, nil)
	a = press(t, a, "f")
	if a.activeTab != tabOverview {
		t.Errorf("activeTab = %d before load, want overview", a.activeTab)
	}
}

func TestApplySetting(t *testing.T) {
	tests := []struct {
		name    string
		field   int
		val     string
		wantErr bool
		check   func(config.Config) bool
	}{
		{"horizon", settingsFieldHorizon, "60", false, func(c config.Config) bool { return c.Forecast.HorizonDays == 60 }},
		{"horizon zero", settingsFieldHorizon, "0", true, nil},
		{"degree zero", settingsFieldDegree, "0", false, func(c config.Config) bool { return c.Forecast.Degree == 0 }},
		{"degree negative", settingsFieldDegree, "-1", true, nil},
		{"context text", settingsFieldContext, "lots", true, nil},
		{"theme", settingsFieldTheme, "tokyo-night", false, func(c config.Config) bool { return c.Appearance.Theme == "tokyo-night" }},
		{"theme unknown", settingsFieldTheme, "neon", true, nil},
		{"prices", settingsFieldPrices, "false", false, func(c config.Config) bool { return !c.Prices.Enabled }},
		{"prices text", settingsFieldPrices, "maybe", true, nil},
		{"interval too short", settingsFieldRefreshInterval, "5", true, nil},
		{"data dir empty", settingsFieldDataDir, "", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			err := applySetting(&cfg, tt.field, tt.val)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("config not updated: %+v", cfg)
			}
		})
	}
}

func TestSettingsValueRoundTrip(t *testing.T) {
	cfg := config.DefaultConfig()
	for field := 0; field < settingsFieldCount; field++ {
		want := settingsValue(cfg, field)
		if err := applySetting(&cfg, field, want); err != nil {
			t.Fatalf("%s: %v", settingsLabels[field], err)
		}
		if got := settingsValue(cfg, field); got != want {
			t.Errorf("%s = %q, want %q", settingsLabels[field], got, want)
		}
	}
}

func TestChartDateLabels(t *testing.T) {
	dates := []time.Time{
		time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	got := chartDateLabels(dates)
	want := []string{"Jan", "31", "Feb", "2", "1"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTruncStr(t *testing.T) {
	if got := truncStr("Füllstand", 5); got != "Füll…" {
		t.Errorf("truncStr = %q", got)
	}
	if got := truncStr("short", 10); got != "short" {
		t.Errorf("truncStr = %q", got)
	}
	if got := truncStr("x", 0); got != "" {
		t.Errorf("truncStr = %q", got)
	}
}
