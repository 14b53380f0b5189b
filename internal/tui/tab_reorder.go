package tui

import (
	"fmt"
	"strings"

	"github.com/datapilots/tankcast/internal/cli"
	"github.com/datapilots/tankcast/internal/pipeline"
	"github.com/datapilots/tankcast/internal/tui/components"
	"github.com/datapilots/tankcast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// reorderState holds the reorder tab state.
type reorderState struct {
	cursor  int
	offset  int
	dueOnly bool
}

// reorderRows returns the reorder list after the due-only filter.
func (a App) reorderRows() []pipeline.TankForecast {
	if !a.ro.dueOnly {
		return a.reorder
	}
	var out []pipeline.TankForecast
	for _, fc := range a.reorder {
		if fc.Err == nil && fc.Recommendation.HasReorder {
			out = append(out, fc)
		}
	}
	return out
}

func (a App) renderReorderTab(cw, h int) string {
	t := theme.Active
	header := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	sel := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	rows := a.reorderRows()
	title := fmt.Sprintf("Reorder Outlook, next %dd", a.opts.Horizon)
	if a.ro.dueOnly {
		title += " (due only)"
	}
	if len(rows) == 0 {
		return components.ContentCard(title, muted.Render("No tanks need a refill within the horizon"), cw)
	}

	inner := components.CardInnerWidth(cw)
	const fixedW = 8 + 10 + 10 + 10 + 26 + 4
	emptyW := max(inner-fixedW-1, 12)
	format := fmt.Sprintf("%%-8s %%10s %%10s %%10s %%-26s %%-%ds", emptyW)

	var body strings.Builder
	body.WriteString(header.Render(fmt.Sprintf(format, "Tank", "Fill", "Reserve", "Avg/Day", "Reorder", "Empty")))
	body.WriteString("\n")
	body.WriteString(muted.Render(strings.Repeat("─", min(inner, fixedW+emptyW+1))))
	body.WriteString("\n")

	visible := max(h-8, 3)
	offset := a.ro.offset
	if a.ro.cursor < offset {
		offset = a.ro.cursor
	}
	if a.ro.cursor >= offset+visible {
		offset = a.ro.cursor - visible + 1
	}
	end := min(offset+visible, len(rows))

	for i := offset; i < end; i++ {
		fc := rows[i]
		rec := fc.Recommendation
		reorder, empty, avg := cli.Placeholder, cli.Placeholder, cli.Placeholder
		if fc.Err == nil {
			reorder = cli.FormatOutlook(rec.ReorderDate, rec.DaysUntilReorder, rec.HasReorder, "ok")
			empty = cli.FormatOutlook(rec.EmptyDate, rec.DaysUntilEmpty, rec.HasEmpty, cli.Placeholder)
			avg = cli.FormatLiters(rec.MeanDailyConsumption)
		}
		line := fmt.Sprintf(format,
			fmt.Sprintf("%d", fc.TankID),
			cli.FormatLiters(rec.Tank.FillLevel),
			cli.FormatLiters(rec.Reserve),
			avg, reorder, truncStr(empty, emptyW))

		switch {
		case i == a.ro.cursor:
			body.WriteString(sel.Render(line))
		case fc.Err == nil && rec.HasReorder:
			body.WriteString(statusStyle(true, rec.DaysUntilReorder).Render(line))
		default:
			body.WriteString(row.Render(line))
		}
		body.WriteString("\n")
	}

	body.WriteString("\n")
	body.WriteString(muted.Render(fmt.Sprintf("%d of %d tanks due", a.due, len(a.reorder))))
	body.WriteString("\n")
	body.WriteString(hint.Render("[j/k] navigate  [u] due only  [Enter] forecast"))

	return components.ContentCard(title, body.String(), cw)
}
