package model

import "time"

// SeriesPoint is one value in a training, fitted or forecast series. Index
// is the gapless position used as the regression variable.
type SeriesPoint struct {
	Index       int
	Timestamp   time.Time
	Consumption float64
}

// FitResult holds a fitted consumption model and its three aligned series.
type FitResult struct {
	Kind         string
	Degree       int
	Coefficients []float64
	RSquared     float64

	Training []SeriesPoint
	Fitted   []SeriesPoint // same length and dates as Training
	Forecast []SeriesPoint // one point per day after the last training date
}

// LastTrainingDate returns the timestamp of the newest training point.
func (f *FitResult) LastTrainingDate() time.Time {
	if f == nil || len(f.Training) == 0 {
		return time.Time{}
	}
	return f.Training[len(f.Training)-1].Timestamp
}

// FillPoint is one step of the projected fill trajectory.
type FillPoint struct {
	Day         int // 1-based day after the last observation
	Timestamp   time.Time
	Consumption float64
	FillLevel   float64
}

// Recommendation is the reorder outlook for one tank.
type Recommendation struct {
	Tank       TankState
	Reserve    float64
	Fit        *FitResult
	Trajectory []FillPoint

	ReorderDate      time.Time
	HasReorder       bool
	DaysUntilReorder int

	EmptyDate      time.Time
	HasEmpty       bool
	DaysUntilEmpty int

	MeanDailyConsumption float64
}
