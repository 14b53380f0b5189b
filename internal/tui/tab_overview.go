package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/datapilots/tankcast/internal/cli"
	"github.com/datapilots/tankcast/internal/model"
	"github.com/datapilots/tankcast/internal/tui/components"
	"github.com/datapilots/tankcast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// overviewDays is how many days of fleet consumption the chart shows.
const overviewDays = 30

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	cur, prev := a.comparison.Current, a.comparison.Previous
	var b strings.Builder

	if a.loadErr != nil {
		warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		b.WriteString(components.ContentCard("Load Error", warn.Render(a.loadErr.Error()), cw))
		b.WriteString("\n")
	}
	if len(a.today) == 0 {
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		b.WriteString(components.ContentCard("No Telemetry",
			muted.Render(fmt.Sprintf("No readings found in %s", a.cfg.General.DataDir)), cw))
		return b.String()
	}

	hasPrev := prev.Sensors > 0
	metrics := []components.Metric{
		{Label: "Sensors", Value: cli.FormatNumber(int64(cur.Sensors)),
			Delta: "as of " + cli.FormatDate(cur.Date)},
		metricWithDelta("Total Fill", cur.TotalLiters, prev.TotalLiters, hasPrev, cli.FormatLiters),
		metricWithDelta("Avg Level", cur.AvgUtilization, prev.AvgUtilization, hasPrev, cli.FormatPercent),
	}
	if cur.HasOilPrice {
		// A falling price is good news, so the trend is inverted.
		m := metricWithDelta("Oil Price", cur.AvgOilPrice, prev.AvgOilPrice, prev.HasOilPrice, cli.FormatPrice)
		m.Trend = -m.Trend
		metrics = append(metrics, m)
	} else {
		metrics = append(metrics, components.Metric{
			Label: "Due",
			Value: cli.FormatNumber(int64(a.due)),
			Delta: fmt.Sprintf("within %dd", a.opts.Horizon),
		})
	}
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	// Fleet consumption chart
	if daily := a.fleetDaily; len(daily) > 0 {
		if len(daily) > overviewDays {
			daily = daily[len(daily)-overviewDays:]
		}
		values := make([]float64, len(daily))
		dates := make([]time.Time, len(daily))
		for i, d := range daily {
			values[i] = d.Consumption
			dates[i] = d.Timestamp
		}
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Daily Consumption, all tanks (%dd)", len(daily)),
			components.BarChart(values, chartDateLabels(dates), components.CardInnerWidth(cw), 8,
				components.ChartOptions{Color: t.History}),
			cw,
		))
		b.WriteString("\n")
	}

	// Tank gauges
	innerW := components.CardInnerWidth(cw)
	labelW := 10
	noteW := 28
	barW := max(innerW-labelW-noteW-8, 10)

	outlooks := make(map[int]string, len(a.forecasts))
	for _, fc := range a.forecasts {
		rec := fc.Recommendation
		switch {
		case fc.Err != nil:
			outlooks[fc.TankID] = "no usable history"
		case rec.HasReorder:
			outlooks[fc.TankID] = "reorder " + cli.FormatOutlook(rec.ReorderDate, rec.DaysUntilReorder, true, "")
		default:
			outlooks[fc.TankID] = fmt.Sprintf("ok for %dd+", a.opts.Horizon)
		}
	}

	var gauges strings.Builder
	for i, snap := range a.today {
		if snap.FillLevel == nil || snap.MaxCapacity == nil {
			continue
		}
		capacity := *snap.MaxCapacity
		if i > 0 {
			gauges.WriteString("\n")
		}
		gauges.WriteString(components.TankGauge(
			fmt.Sprintf("Tank %d", snap.TankID),
			*snap.FillLevel, capacity, model.ReserveRatio*capacity,
			truncStr(outlooks[snap.TankID], noteW),
			labelW, barW,
		))
	}
	b.WriteString(components.ContentCard("Fill Levels", gauges.String(), cw))

	return b.String()
}

func metricWithDelta(label string, cur, prev float64, hasPrev bool, format func(float64) string) components.Metric {
	m := components.Metric{Label: label, Value: format(cur)}
	if !hasPrev {
		return m
	}
	m.Delta = cli.FormatDelta(cur, prev, format) + " vs yesterday"
	switch {
	case cur > prev:
		m.Trend = 1
	case cur < prev:
		m.Trend = -1
	}
	return m
}
