// Package cleaner turns raw tank telemetry into consumption series.
//
// Sensors report consumption as a signed delta where depletion is negative.
// Positive values are refills or measurement noise and carry no consumption.
package cleaner

import (
	"math"
	"sort"
	"time"

	"github.com/datapilots/tankcast/internal/model"
)

// Clean converts raw readings into consumption records. It zeroes positive
// values, takes the magnitude of the rest, drops rows missing a timestamp or
// a consumption value, and keeps only timestamp and consumption. Input order
// is preserved and the input slice is never modified.
func Clean(readings []model.Reading) []model.ConsumptionRecord {
	out := make([]model.ConsumptionRecord, 0, len(readings))
	for _, r := range readings {
		if !r.HasTimestamp() || r.Consumption == nil || math.IsNaN(*r.Consumption) {
			continue
		}
		v := *r.Consumption
		if v > 0 {
			v = 0
		}
		out = append(out, model.ConsumptionRecord{
			Timestamp:   r.Timestamp,
			Consumption: math.Abs(v),
		})
	}
	return out
}

// CleanTank cleans the readings of one tank and sorts them by timestamp.
func CleanTank(readings []model.Reading, tankID int) []model.ConsumptionRecord {
	var own []model.Reading
	for _, r := range readings {
		if r.TankID == tankID {
			own = append(own, r)
		}
	}
	recs := Clean(own)
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Timestamp.Before(recs[j].Timestamp)
	})
	return recs
}

// AsReadings maps cleaned records back into the raw sign convention, so that
// Clean(AsReadings(Clean(x), id)) equals Clean(x).
func AsReadings(records []model.ConsumptionRecord, tankID int) []model.Reading {
	out := make([]model.Reading, len(records))
	for i, rec := range records {
		out[i] = model.Reading{
			TankID:      tankID,
			Timestamp:   rec.Timestamp,
			Consumption: model.Float(-rec.Consumption),
		}
	}
	return out
}

// DailyTotals sums consumption per calendar day in the records' location,
// returned in chronological order.
func DailyTotals(records []model.ConsumptionRecord) []model.ConsumptionRecord {
	byDay := make(map[time.Time]float64)
	for _, rec := range records {
		t := rec.Timestamp
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		byDay[day] += rec.Consumption
	}
	out := make([]model.ConsumptionRecord, 0, len(byDay))
	for day, total := range byDay {
		out = append(out, model.ConsumptionRecord{Timestamp: day, Consumption: total})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
