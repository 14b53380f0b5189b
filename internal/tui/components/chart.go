package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/datapilots/tankcast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var blocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	peak := values[0]
	for _, v := range values[1:] {
		peak = max(peak, v)
	}
	if peak <= 0 {
		peak = 1
	}

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := int(v/peak*7) + 1
		idx = max(1, min(idx, len(blocks)-1))
		buf.WriteRune(blocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// ChartOptions controls BarChart coloring.
type ChartOptions struct {
	Color lipgloss.Color
	// ForecastFrom is the index of the first projected value; bars from
	// there on use the forecast color. Zero or negative disables the split.
	ForecastFrom int
	// Threshold draws a marker row at this value when positive.
	Threshold float64
}

// BarChart renders a bar chart with a labeled Y axis and optional X labels.
func BarChart(values []float64, labels []string, width, height int, opts ChartOptions) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, opts.Color)
	}
	t := theme.Active

	peak := opts.Threshold
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak <= 0 {
		peak = 1
	}

	tickStep := chartTickStep(peak)
	maxIntervals := max(height/2, 2)
	for int(math.Ceil(peak/tickStep)) > maxIntervals {
		tickStep *= 2
	}
	ceiling := math.Ceil(peak/tickStep) * tickStep
	numIntervals := max(int(math.Round(ceiling/tickStep)), 1)
	rowsPerTick := max(height/numIntervals, 2)
	chartH := rowsPerTick * numIntervals

	yLabelW := max(len(formatChartLabel(ceiling))+1, 4)
	tickLabels := make(map[int]string, numIntervals)
	for i := 1; i <= numIntervals; i++ {
		tickLabels[i*rowsPerTick] = formatChartLabel(tickStep * float64(i))
	}

	chartW := max(width-yLabelW-1, 5)

	// Downsample when bars would be narrower than two cells.
	n := len(values)
	gap := 1
	if n == 1 {
		gap = 0
	}
	barW := chartW
	if n > 1 {
		barW = (chartW - (n - 1)) / n
	}
	split := opts.ForecastFrom
	if barW < 2 && n > 1 {
		maxN := max((chartW+1)/3, 2)
		sampled := make([]float64, maxN)
		var sampledLabels []string
		if len(labels) == n {
			sampledLabels = make([]string, maxN)
		}
		newSplit := 0
		for i := range sampled {
			src := i * (n - 1) / (maxN - 1)
			sampled[i] = values[src]
			if sampledLabels != nil {
				sampledLabels[i] = labels[src]
			}
			if split > 0 && newSplit == 0 && src >= split {
				newSplit = i
			}
		}
		values, labels, n, barW, split = sampled, sampledLabels, maxN, 2, newSplit
	}
	barW = min(barW, 6)
	axisLen := n*barW + max(0, n-1)*gap

	thresholdRow := -1
	if opts.Threshold > 0 {
		thresholdRow = int(math.Round(opts.Threshold / ceiling * float64(chartH)))
	}

	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)
	histStyle := lipgloss.NewStyle().Foreground(opts.Color).Background(t.Surface)
	fcStyle := lipgloss.NewStyle().Foreground(t.Forecast).Background(t.Surface)
	reserveStyle := lipgloss.NewStyle().Foreground(t.Reserve).Background(t.Surface)

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		rowTop := ceiling * float64(row) / float64(chartH)
		rowBottom := ceiling * float64(row-1) / float64(chartH)

		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, tickLabels[row])))
		b.WriteString(axisStyle.Render("│"))

		for i, v := range values {
			if i > 0 && gap > 0 {
				if row == thresholdRow {
					b.WriteString(reserveStyle.Render("╌"))
				} else {
					b.WriteString(blank.Render(" "))
				}
			}
			style := histStyle
			if split > 0 && i >= split {
				style = fcStyle
			}
			switch {
			case v >= rowTop:
				b.WriteString(style.Render(strings.Repeat("█", barW)))
			case v > rowBottom:
				idx := int((v - rowBottom) / (rowTop - rowBottom) * 8)
				idx = max(1, min(idx, 8))
				b.WriteString(style.Render(strings.Repeat(string(blocks[idx]), barW)))
			case row == thresholdRow:
				b.WriteString(reserveStyle.Render(strings.Repeat("╌", barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, "0")))
	b.WriteString(axisStyle.Render("└" + strings.Repeat("─", axisLen)))

	if len(labels) == n && n > 0 {
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axisStyle.Render(layoutLabels(labels, barW, gap, axisLen)))
	}
	return b.String()
}

// layoutLabels spreads labels under their bars, skipping any that would
// overlap. The last label is always placed when it fits.
func layoutLabels(labels []string, barW, gap, axisLen int) string {
	buf := []byte(strings.Repeat(" ", axisLen))
	n := len(labels)
	step := max(1, (n*8)/(axisLen+1))

	lastEnd := -1
	for i := 0; i < n; i += step {
		pos := i * (barW + gap)
		lbl := labels[i]
		if pos <= lastEnd || pos+len(lbl) > axisLen {
			continue
		}
		copy(buf[pos:], lbl)
		lastEnd = pos + len(lbl)
	}
	if n > 1 {
		lbl := labels[n-1]
		pos := min((n-1)*(barW+gap), axisLen-len(lbl))
		if pos > lastEnd && pos >= 0 {
			copy(buf[pos:], lbl)
		}
	}
	return strings.TrimRight(string(buf), " ")
}

// chartTickStep computes a round tick interval targeting about five ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

// formatChartLabel formats an axis value in liters, e.g. 1500 -> "1.5k".
func formatChartLabel(v float64) string {
	switch {
	case v >= 1e3:
		if v == math.Trunc(v/1e3)*1e3 {
			return fmt.Sprintf("%.0fk", v/1e3)
		}
		return fmt.Sprintf("%.1fk", v/1e3)
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}
