package forecast

import (
	"time"

	"github.com/datapilots/tankcast/internal/model"
)

// Trajectory projects the fill level forward: each day's level is the
// current level minus the cumulative forecast consumption up to that day.
func Trajectory(forecast []model.SeriesPoint, currentFill float64) []model.FillPoint {
	out := make([]model.FillPoint, len(forecast))
	level := currentFill
	for i, p := range forecast {
		level -= p.Consumption
		out[i] = model.FillPoint{
			Day:         i + 1,
			Timestamp:   p.Timestamp,
			Consumption: p.Consumption,
			FillLevel:   level,
		}
	}
	return out
}

// ReorderDate returns the first date on which the projected level falls
// strictly below reserve. ok is false when that never happens in the horizon.
func ReorderDate(trajectory []model.FillPoint, reserve float64) (date time.Time, day int, ok bool) {
	return firstBelow(trajectory, reserve)
}

// EmptyDate returns the first date on which the projected level drops below zero.
func EmptyDate(trajectory []model.FillPoint) (date time.Time, day int, ok bool) {
	return firstBelow(trajectory, 0)
}

func firstBelow(trajectory []model.FillPoint, limit float64) (time.Time, int, bool) {
	for _, p := range trajectory {
		if p.FillLevel < limit {
			return p.Timestamp, p.Day, true
		}
	}
	return time.Time{}, 0, false
}

// Recommend combines a tank's state with its fitted model into a reorder outlook.
func Recommend(state model.TankState, fit *model.FitResult) model.Recommendation {
	rec := model.Recommendation{
		Tank:    state,
		Reserve: state.ReserveThreshold(),
		Fit:     fit,
	}
	if fit == nil {
		return rec
	}

	rec.Trajectory = Trajectory(fit.Forecast, state.FillLevel)
	rec.ReorderDate, rec.DaysUntilReorder, rec.HasReorder = ReorderDate(rec.Trajectory, rec.Reserve)
	rec.EmptyDate, rec.DaysUntilEmpty, rec.HasEmpty = EmptyDate(rec.Trajectory)

	if len(fit.Forecast) > 0 {
		var total float64
		for _, p := range fit.Forecast {
			total += p.Consumption
		}
		rec.MeanDailyConsumption = total / float64(len(fit.Forecast))
	}
	return rec
}
