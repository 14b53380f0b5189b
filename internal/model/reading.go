// Package model defines domain types for tank telemetry, consumption series and forecasts.
package model

import "time"

// Reading is one raw telemetry row for a tank. Optional measurements are nil
// when the source cell was empty, null or not a number.
type Reading struct {
	TankID      int
	Timestamp   time.Time // zero when missing
	Consumption *float64  // signed, depletion is negative
	FillLevel   *float64  // liters
	MaxCapacity *float64  // liters
	Percent     *float64
	Temperature *float64
	PostalCode  string
	FilePath    string
}

// HasTimestamp reports whether the reading carries a usable timestamp.
func (r Reading) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// ConsumptionRecord is one cleaned observation. Consumption is a
// non-negative magnitude in liters per observation interval.
type ConsumptionRecord struct {
	Timestamp   time.Time
	Consumption float64
}

// Float returns a pointer to v, for building readings in code and tests.
func Float(v float64) *float64 {
	return &v
}
