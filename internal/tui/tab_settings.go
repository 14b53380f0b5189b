package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/datapilots/tankcast/internal/cli"
	"github.com/datapilots/tankcast/internal/config"
	"github.com/datapilots/tankcast/internal/tui/components"
	"github.com/datapilots/tankcast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldDataDir = iota
	settingsFieldContext
	settingsFieldHorizon
	settingsFieldDegree
	settingsFieldExploreDegree
	settingsFieldTheme
	settingsFieldPrices
	settingsFieldAutoRefresh
	settingsFieldRefreshInterval
	settingsFieldCount // sentinel
)

var settingsLabels = [settingsFieldCount]string{
	"Data Directory",
	"Context (records)",
	"Horizon (days)",
	"Reorder Degree",
	"Explore Degree",
	"Theme",
	"Oil Prices",
	"Auto Refresh",
	"Refresh Interval",
}

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false
	a.settings.saveErr = nil

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	ti.Placeholder = settingsPlaceholder(a.settings.cursor)
	ti.SetValue(settingsValue(a.cfg, a.settings.cursor))
	ti.Focus()

	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func settingsPlaceholder(field int) string {
	switch field {
	case settingsFieldTheme:
		return strings.Join(theme.Names(), ", ")
	case settingsFieldPrices, settingsFieldAutoRefresh:
		return "true or false"
	case settingsFieldRefreshInterval:
		return "seconds, minimum 10"
	case settingsFieldDegree, settingsFieldExploreDegree:
		return "0 or more"
	default:
		return ""
	}
}

func settingsValue(cfg config.Config, field int) string {
	switch field {
	case settingsFieldDataDir:
		return cfg.General.DataDir
	case settingsFieldContext:
		return strconv.Itoa(cfg.Forecast.ContextDays)
	case settingsFieldHorizon:
		return strconv.Itoa(cfg.Forecast.HorizonDays)
	case settingsFieldDegree:
		return strconv.Itoa(cfg.Forecast.Degree)
	case settingsFieldExploreDegree:
		return strconv.Itoa(cfg.Forecast.ExploreDegree)
	case settingsFieldTheme:
		return cfg.Appearance.Theme
	case settingsFieldPrices:
		return strconv.FormatBool(cfg.Prices.Enabled)
	case settingsFieldAutoRefresh:
		return strconv.FormatBool(cfg.TUI.AutoRefresh)
	case settingsFieldRefreshInterval:
		return strconv.Itoa(cfg.TUI.RefreshIntervalSec)
	}
	return ""
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave applies the edited value to the config file. Invalid values
// set saveErr and leave the file untouched.
func (a *App) settingsSave() {
	cfg := loadConfigOrDefault()
	if err := applySetting(&cfg, a.settings.cursor, strings.TrimSpace(a.settings.input.Value())); err != nil {
		a.settings.saveErr = err
		return
	}
	if err := cfg.Validate(); err != nil {
		a.settings.saveErr = err
		return
	}
	if err := config.Save(cfg); err != nil {
		a.settings.saveErr = err
		return
	}
	a.settings.saveErr = nil
	a.applyConfig(cfg)
}

// applySetting parses val into the config field.
func applySetting(cfg *config.Config, field int, val string) error {
	atoi := func(lo int) (int, error) {
		n, err := strconv.Atoi(val)
		if err != nil || n < lo {
			return 0, fmt.Errorf("%s must be an integer >= %d", settingsLabels[field], lo)
		}
		return n, nil
	}
	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, fmt.Errorf("%s must be true or false", settingsLabels[field])
		}
		return b, nil
	}

	var err error
	switch field {
	case settingsFieldDataDir:
		if val == "" {
			return fmt.Errorf("data directory must not be empty")
		}
		cfg.General.DataDir = val
	case settingsFieldContext:
		cfg.Forecast.ContextDays, err = atoi(1)
	case settingsFieldHorizon:
		cfg.Forecast.HorizonDays, err = atoi(1)
	case settingsFieldDegree:
		cfg.Forecast.Degree, err = atoi(0)
	case settingsFieldExploreDegree:
		cfg.Forecast.ExploreDegree, err = atoi(0)
	case settingsFieldTheme:
		if !theme.Valid(val) {
			return fmt.Errorf("unknown theme %q", val)
		}
		cfg.Appearance.Theme = val
	case settingsFieldPrices:
		cfg.Prices.Enabled, err = parseBool()
	case settingsFieldAutoRefresh:
		cfg.TUI.AutoRefresh, err = parseBool()
	case settingsFieldRefreshInterval:
		cfg.TUI.RefreshIntervalSec, err = atoi(minRefreshSeconds)
	}
	return err
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	innerW := components.CardInnerWidth(cw)

	var form strings.Builder
	for i := 0; i < settingsFieldCount; i++ {
		label := settingsLabels[i]
		val := settingsValue(a.cfg, i)

		switch {
		case a.settings.editing && i == a.settings.cursor:
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(accentStyle.Render(fmt.Sprintf("%-20s ", label)))
			form.WriteString(a.settings.input.View())
		case i == a.settings.cursor:
			line := markerStyle.Render("▸ ") +
				selectedLabelStyle.Render(fmt.Sprintf("%-20s ", label+":")) +
				selectedStyle.Render(val)
			form.WriteString(line)
			if pad := innerW - lipgloss.Width(line); pad > 0 {
				form.WriteString(selectedStyle.Render(strings.Repeat(" ", pad)))
			}
		default:
			form.WriteString(labelStyle.Render("  " + fmt.Sprintf("%-20s ", label+":")))
			form.WriteString(valueStyle.Render(val))
		}
		form.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		form.WriteString("\n")
		form.WriteString(warnStyle.Render("Not saved: " + a.settings.saveErr.Error()))
	} else if a.settings.saved {
		form.WriteString("\n")
		form.WriteString(greenStyle.Render("Saved!"))
	}
	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	info := []struct{ label, value string }{
		{"Config file:", config.Path()},
		{"Cache:", config.CachePath()},
		{"Files:", cli.FormatNumber(int64(a.files))},
		{"Readings:", cli.FormatNumber(int64(len(a.readings)))},
		{"Load time:", fmt.Sprintf("%.1fs", a.loadTime.Seconds())},
	}
	var infoBody strings.Builder
	for i, row := range info {
		if i > 0 {
			infoBody.WriteString("\n")
		}
		infoBody.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", row.label)) + valueStyle.Render(row.value))
	}

	return components.ContentCard("Settings", form.String(), cw) + "\n" +
		components.ContentCard("General", infoBody.String(), cw)
}
