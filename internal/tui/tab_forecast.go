package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/datapilots/tankcast/internal/cli"
	"github.com/datapilots/tankcast/internal/model"
	"github.com/datapilots/tankcast/internal/pipeline"
	"github.com/datapilots/tankcast/internal/tui/components"
	"github.com/datapilots/tankcast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// forecastState holds the forecast tab state.
type forecastState struct {
	cursor  int
	explore bool // show the exploration degree fit instead of the reorder fit
}

// selectedForecast returns the forecast under the cursor for the active
// degree.
func (a App) selectedForecast() (pipeline.TankForecast, bool) {
	list := a.forecasts
	if a.fc.explore {
		list = a.explored
	}
	if a.fc.cursor < 0 || a.fc.cursor >= len(list) {
		return pipeline.TankForecast{}, false
	}
	return list[a.fc.cursor], true
}

func (a App) renderForecastTab(cw, h int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if len(a.forecasts) == 0 {
		return components.ContentCard("Forecast", muted.Render("No tanks to forecast"), cw)
	}

	listW := 30
	list := a.renderForecastList(listW, h)

	detailW := cw - listW
	if a.isCompactLayout() {
		detailW = cw
	}
	detail := a.renderForecastDetail(detailW)

	if a.isCompactLayout() {
		return detail
	}
	return components.CardRow([]string{list, detail})
}

func (a App) renderForecastList(w, h int) string {
	t := theme.Active
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright).Bold(true)
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	inner := components.CardInnerWidth(w)
	visible := max(h-6, 3)
	offset := max(0, a.fc.cursor-visible+1)
	end := min(offset+visible, len(a.forecasts))

	var body strings.Builder
	for i := offset; i < end; i++ {
		fc := a.forecasts[i]
		outlook := "ok"
		switch {
		case fc.Err != nil:
			outlook = "n/a"
		case fc.Recommendation.HasReorder:
			outlook = fmt.Sprintf("%dd", fc.Recommendation.DaysUntilReorder)
		}
		line := fmt.Sprintf("%-10s %6.0f%% %6s",
			"Tank "+strconv.Itoa(fc.TankID), fc.Recommendation.Tank.Utilization(), outlook)
		line = fmt.Sprintf("%-*s", inner, truncStr(line, inner))
		if i == a.fc.cursor {
			body.WriteString(selStyle.Render(line))
		} else {
			body.WriteString(rowStyle.Render(line))
		}
		body.WriteString("\n")
	}
	body.WriteString("\n")
	body.WriteString(hint.Render("[j/k] tank  [d] degree"))

	return components.ContentCard("Tanks", body.String(), w)
}

func (a App) renderForecastDetail(w int) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	fc, ok := a.selectedForecast()
	if !ok {
		return ""
	}
	title := fmt.Sprintf("Tank %d", fc.TankID)
	if fc.Err != nil {
		return components.ContentCard(title, warn.Render(fc.Err.Error()), w)
	}

	rec := fc.Recommendation
	fit := rec.Fit
	inner := components.CardInnerWidth(w)

	var b strings.Builder
	mode := "reorder"
	if a.fc.explore {
		mode = "exploration"
	}
	fmt.Fprintf(&b, "%s %s  %s %s  %s %s\n",
		label.Render("Model:"), value.Render(fmt.Sprintf("%s, degree %d (%s)", fit.Kind, fit.Degree, mode)),
		label.Render("R²:"), value.Render(fmt.Sprintf("%.3f", fit.RSquared)),
		label.Render("Records:"), value.Render(strconv.Itoa(len(fit.Training))))
	fmt.Fprintf(&b, "%s %s  %s %s  %s %s\n",
		label.Render("Fill:"), value.Render(cli.FormatLiters(rec.Tank.FillLevel)),
		label.Render("Reserve:"), value.Render(cli.FormatLiters(rec.Reserve)),
		label.Render("Avg/day:"), value.Render(cli.FormatLiters(rec.MeanDailyConsumption)))
	fmt.Fprintf(&b, "%s %s  %s %s\n\n",
		label.Render("Reorder:"), statusStyle(rec.HasReorder, rec.DaysUntilReorder).
			Render(cli.FormatOutlook(rec.ReorderDate, rec.DaysUntilReorder, rec.HasReorder, "not within horizon")),
		label.Render("Empty:"), value.Render(cli.FormatOutlook(rec.EmptyDate, rec.DaysUntilEmpty, rec.HasEmpty, "not within horizon")))

	// Consumption: training window then forecast.
	values := make([]float64, 0, len(fit.Training)+len(fit.Forecast))
	dates := make([]time.Time, 0, cap(values))
	for _, p := range fit.Training {
		values = append(values, p.Consumption)
		dates = append(dates, p.Timestamp)
	}
	for _, p := range fit.Forecast {
		values = append(values, max(p.Consumption, 0))
		dates = append(dates, p.Timestamp)
	}
	b.WriteString(label.Render("Consumption (observed │ forecast)"))
	b.WriteString("\n")
	b.WriteString(components.BarChart(values, chartDateLabels(dates), inner, 8, components.ChartOptions{
		Color:        t.History,
		ForecastFrom: len(fit.Training),
	}))
	b.WriteString("\n\n")

	b.WriteString(label.Render("Projected fill level"))
	b.WriteString("\n")
	b.WriteString(components.BarChart(fillValues(rec), fillLabels(rec), inner, 8, components.ChartOptions{
		Color:     t.Accent,
		Threshold: rec.Reserve,
	}))

	return components.ContentCard(title, b.String(), w)
}

func fillValues(rec model.Recommendation) []float64 {
	out := make([]float64, len(rec.Trajectory))
	for i, p := range rec.Trajectory {
		out[i] = max(p.FillLevel, 0)
	}
	return out
}

func fillLabels(rec model.Recommendation) []string {
	dates := make([]time.Time, len(rec.Trajectory))
	for i, p := range rec.Trajectory {
		dates[i] = p.Timestamp
	}
	return chartDateLabels(dates)
}

// reorderWarnDays is the lead time at which a reorder shows as urgent.
const reorderWarnDays = 7

func statusStyle(due bool, days int) lipgloss.Style {
	t := theme.Active
	color := t.Green
	switch {
	case due && days <= reorderWarnDays:
		color = t.Red
	case due:
		color = t.Orange
	}
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(due)
}
