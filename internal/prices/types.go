package prices

import (
	"strings"
	"time"
)

// historyEntry is one element of the history-local response.
type historyEntry struct {
	DateTime string  `json:"DateTime"`
	Price    float64 `json:"Price"`
}

// dateTimeLayouts are tried in order for the DateTime field.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999",
	"2006-01-02",
}

// parseDate truncates the quote timestamp to its calendar day.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
