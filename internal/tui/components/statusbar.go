package components

import (
	"fmt"
	"strings"

	"github.com/datapilots/tankcast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the status bar reports on its right side.
type StatusInfo struct {
	LoadTime    string
	Refreshing  bool
	AutoRefresh bool
	DueTanks    int
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.SurfaceHover)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.SurfaceHover).Bold(true)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceHover)

	left := base.Render(" [?]help  [r]efresh  [q]uit")

	var right []string
	if info.DueTanks > 0 {
		right = append(right, warn.Render(fmt.Sprintf("%d due", info.DueTanks)))
	}
	switch {
	case info.Refreshing:
		right = append(right, accent.Render("refreshing…"))
	case info.AutoRefresh:
		right = append(right, accent.Render("auto"))
	}
	if info.LoadTime != "" {
		right = append(right, base.Render("load "+info.LoadTime))
	}
	rightStr := strings.Join(right, base.Render("  ")) + base.Render(" ")

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(rightStr), 0)
	return left + base.Render(strings.Repeat(" ", gap)) + rightStr
}
