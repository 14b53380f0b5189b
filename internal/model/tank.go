package model

import "time"

// ReserveRatio is the fraction of tank capacity below which a refill is due.
const ReserveRatio = 0.2

// TankState is the latest known physical state of one tank.
type TankState struct {
	TankID      int
	AsOf        time.Time
	FillLevel   float64 // liters
	MaxCapacity float64 // liters
	PostalCode  string
}

// ReserveThreshold returns the fill level, in liters, at which the tank
// should be reordered.
func (s TankState) ReserveThreshold() float64 {
	return ReserveRatio * s.MaxCapacity
}

// Utilization returns the fill level as a percentage of capacity.
func (s TankState) Utilization() float64 {
	if s.MaxCapacity <= 0 {
		return 0
	}
	return s.FillLevel / s.MaxCapacity * 100
}

// TankSnapshot is the last reading of a tank within one day, optionally
// joined with the local heating oil price.
type TankSnapshot struct {
	Reading
	OilPrice *float64 // EUR per 100 L
}

// DashboardSummary aggregates snapshots across all sensors for one day.
type DashboardSummary struct {
	Date           time.Time
	Sensors        int
	TotalLiters    float64
	AvgUtilization float64
	AvgOilPrice    float64
	HasOilPrice    bool
}

// DayComparison holds today's and yesterday's summaries for delta display.
type DayComparison struct {
	Current  DashboardSummary
	Previous DashboardSummary
}

// OilPrice is one historical heating oil quote for a postal code.
type OilPrice struct {
	PostalCode string
	Date       time.Time
	Price      float64
	Unit       string
}

// PriceCoverage is the date range the last price fetch for a postal code
// asked for.
type PriceCoverage struct {
	From      time.Time
	To        time.Time
	FetchedAt time.Time
}

// Covers reports whether the fetched range includes every calendar day in
// [from, to].
func (c PriceCoverage) Covers(from, to time.Time) bool {
	const layout = "2006-01-02"
	return c.From.Format(layout) <= from.Format(layout) && c.To.Format(layout) >= to.Format(layout)
}
