package components

import (
	"fmt"
	"strings"

	"github.com/datapilots/tankcast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders the loading progress bar with a percentage.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	pct = max(0, min(pct, 1))
	filled := int(pct * float64(width))

	barColor := t.Cyan
	switch {
	case pct >= 0.8:
		barColor = t.AccentBright
	case pct >= 0.5:
		barColor = t.Accent
	}

	filledStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface).Bold(true)

	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", width-filled)) +
		pctStyle.Render(fmt.Sprintf(" %.0f%%", pct*100))
}

// ColorForLevel colors a fill ratio relative to the reserve ratio: red
// below the reserve, orange below twice the reserve, yellow below half
// full, green otherwise.
func ColorForLevel(ratio, reserveRatio float64) lipgloss.Color {
	t := theme.Active
	switch {
	case ratio < reserveRatio:
		return t.Red
	case ratio < 2*reserveRatio:
		return t.Orange
	case ratio < 0.5:
		return t.Yellow
	default:
		return t.Green
	}
}

// TankGauge renders a labeled fill gauge with percentage and a trailing note
// such as the days until reorder.
func TankGauge(label string, fill, capacity, reserve float64, note string, labelW, barWidth int) string {
	t := theme.Active

	ratio, reserveRatio := 0.0, 0.0
	if capacity > 0 {
		ratio = max(0, min(fill/capacity, 1))
		reserveRatio = reserve / capacity
	}
	color := ColorForLevel(ratio, reserveRatio)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	noteStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		space.Render(" ") +
		bar.ViewAs(ratio) +
		space.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", ratio*100)) +
		space.Render("  ") +
		noteStyle.Render(note)
}
