package cmd

import (
	"fmt"

	"github.com/datapilots/tankcast/internal/tui"
	"github.com/datapilots/tankcast/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	theme.SetActive(appCfg.Appearance.Theme)

	// Background fills need ANSI output even when the profile is not detected.
	lipgloss.SetColorProfile(termenv.TrueColor)

	opts, err := forecastOptions(cmd, appCfg.Forecast.Degree)
	if err != nil {
		return err
	}

	app := tui.NewApp(appCfg, opts, flagTanks)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
