// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Placeholder is printed for missing values.
const Placeholder = "-"

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatLiters formats a volume. Small volumes keep one decimal.
// e.g., 1234.4 -> "1,234 L", 12.34 -> "12.3 L"
func FormatLiters(v float64) string {
	if math.IsNaN(v) {
		return Placeholder
	}
	if math.Abs(v) >= 100 {
		return FormatNumber(int64(math.Round(v))) + " L"
	}
	return fmt.Sprintf("%.1f L", v)
}

// FormatOptionalLiters formats a possibly missing volume.
func FormatOptionalLiters(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return FormatLiters(*v)
}

// FormatPercent formats a 0-100 value as a percentage string.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatOptionalPercent formats a possibly missing percentage.
func FormatOptionalPercent(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return FormatPercent(*v)
}

// FormatPrice formats an oil price in EUR per 100 L.
func FormatPrice(eurPer100L float64) string {
	return fmt.Sprintf("%.2f €", eurPer100L)
}

// FormatOptionalPrice formats a possibly missing oil price.
func FormatOptionalPrice(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return FormatPrice(*v)
}

// FormatTemperature formats a possibly missing temperature in Celsius.
func FormatTemperature(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return fmt.Sprintf("%.1f °C", *v)
}

// FormatDelta formats the difference between two values with a sign, using
// format for the magnitude.
func FormatDelta(current, previous float64, format func(float64) string) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + format(delta)
	}
	return "-" + format(-delta)
}

// FormatDate formats a calendar date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.Format("2006-01-02")
}

// FormatTimestamp formats a reading timestamp to the minute.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.Format("2006-01-02 15:04")
}

// FormatDays formats a day count, e.g. 1 -> "1 day", 12 -> "12 days".
func FormatDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// FormatOutlook formats an optional date with its day count, or the
// fallback when the date lies outside the horizon.
func FormatOutlook(date time.Time, days int, ok bool, fallback string) string {
	if !ok {
		return fallback
	}
	return fmt.Sprintf("%s (in %s)", FormatDate(date), FormatDays(days))
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}
