package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/datapilots/tankcast/internal/config"
	"github.com/datapilots/tankcast/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// SetupValues is bound to the first-run form fields.
type SetupValues struct {
	DataDir string
	Horizon int
	Degree  int
	Theme   string
	Prices  bool
}

var horizonOptions = []int{14, 30, 60, 90}

// NewSetupValues returns form values prefilled from cfg.
func NewSetupValues(cfg config.Config) *SetupValues {
	return &SetupValues{
		DataDir: cfg.General.DataDir,
		Horizon: cfg.Forecast.HorizonDays,
		Degree:  cfg.Forecast.Degree,
		Theme:   cfg.Appearance.Theme,
		Prices:  cfg.Prices.Enabled,
	}
}

// NewSetupForm builds the first-run wizard. files and dataDir describe
// what was found at startup.
func NewSetupForm(files int, dataDir string, vals *SetupValues) *huh.Form {
	intro := "Let's set up a few things."
	if files > 0 {
		intro = fmt.Sprintf("Found %d telemetry files in %s.\n%s", files, dataDir, intro)
	}

	horizons := make([]huh.Option[int], len(horizonOptions))
	for i, h := range horizonOptions {
		horizons[i] = huh.NewOption(fmt.Sprintf("%d days", h), h)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to tankcast").
				Description(intro),
			huh.NewInput().
				Title("Telemetry directory").
				Description("CSV or JSONL exports, scanned recursively").
				Value(&vals.DataDir).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("directory is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Forecast horizon").
				Options(horizons...).
				Value(&vals.Horizon),
			huh.NewSelect[int]().
				Title("Trend degree for reorder dates").
				Options(
					huh.NewOption("0  constant (window mean)", 0),
					huh.NewOption("1  linear", 1),
					huh.NewOption("2  quadratic", 2),
				).
				Value(&vals.Degree),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&vals.Theme),
			huh.NewConfirm().
				Title("Look up local heating oil prices?").
				Description("Uses the postal code of each tank").
				Value(&vals.Prices),
		),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(true)
}

// SaveSetup merges the form values into the config file and returns the
// saved config. Invalid settings the form does not cover are reset to
// their defaults.
func SaveSetup(vals *SetupValues) (config.Config, error) {
	cfg, _ := loadConfigOrDefault().Repair()
	cfg.General.DataDir = strings.TrimSpace(vals.DataDir)
	cfg.Forecast.HorizonDays = vals.Horizon
	cfg.Forecast.Degree = vals.Degree
	if theme.Valid(vals.Theme) {
		cfg.Appearance.Theme = vals.Theme
	}
	cfg.Prices.Enabled = vals.Prices

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if err := config.Save(cfg); err != nil {
		return cfg, fmt.Errorf("saving config: %w", err)
	}
	return cfg, nil
}

// RunSetup runs the wizard standalone, outside the dashboard.
func RunSetup(cfg config.Config, files int) (config.Config, error) {
	vals := NewSetupValues(cfg)
	if err := NewSetupForm(files, cfg.General.DataDir, vals).Run(); err != nil {
		return cfg, err
	}
	return SaveSetup(vals)
}
