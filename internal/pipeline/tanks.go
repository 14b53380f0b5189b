package pipeline

import (
	"sort"
	"time"

	"github.com/datapilots/tankcast/internal/cleaner"
	"github.com/datapilots/tankcast/internal/model"
)

// CountTanks returns the number of distinct tank ids.
func CountTanks(readings []model.Reading) int {
	seen := make(map[int]struct{})
	for _, r := range readings {
		seen[r.TankID] = struct{}{}
	}
	return len(seen)
}

// TankIDs returns the distinct tank ids in ascending order.
func TankIDs(readings []model.Reading) []int {
	seen := make(map[int]struct{})
	var ids []int
	for _, r := range readings {
		if _, ok := seen[r.TankID]; !ok {
			seen[r.TankID] = struct{}{}
			ids = append(ids, r.TankID)
		}
	}
	sort.Ints(ids)
	return ids
}

// GroupByTank splits readings per tank. Each group is a fresh slice sorted
// by timestamp; readings with equal timestamps keep their input order.
func GroupByTank(readings []model.Reading) map[int][]model.Reading {
	groups := make(map[int][]model.Reading)
	for _, r := range readings {
		groups[r.TankID] = append(groups[r.TankID], r)
	}
	for _, g := range groups {
		sortByTime(g)
	}
	return groups
}

func sortByTime(readings []model.Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
}

// LatestStates returns, per tank, the newest timestamped reading that
// reports both fill level and capacity.
func LatestStates(readings []model.Reading) map[int]model.TankState {
	states := make(map[int]model.TankState)
	for _, r := range readings {
		if !r.HasTimestamp() || r.FillLevel == nil || r.MaxCapacity == nil {
			continue
		}
		cur, ok := states[r.TankID]
		if ok && r.Timestamp.Before(cur.AsOf) {
			continue
		}
		states[r.TankID] = model.TankState{
			TankID:      r.TankID,
			AsOf:        r.Timestamp,
			FillLevel:   *r.FillLevel,
			MaxCapacity: *r.MaxCapacity,
			PostalCode:  r.PostalCode,
		}
	}
	return states
}

// Snapshots returns each tank's latest reading ("today") and the reading
// before it ("yesterday"), ordered by tank id. Tanks with a single reading
// have no yesterday snapshot.
func Snapshots(readings []model.Reading) (today, yesterday []model.TankSnapshot) {
	groups := GroupByTank(timestamped(readings))
	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		g := groups[id]
		today = append(today, model.TankSnapshot{Reading: g[len(g)-1]})
		if len(g) > 1 {
			yesterday = append(yesterday, model.TankSnapshot{Reading: g[len(g)-2]})
		}
	}
	return today, yesterday
}

func timestamped(readings []model.Reading) []model.Reading {
	out := make([]model.Reading, 0, len(readings))
	for _, r := range readings {
		if r.HasTimestamp() {
			out = append(out, r)
		}
	}
	return out
}

// Summarize aggregates snapshots into dashboard metrics. Averages skip
// snapshots where the value is missing.
func Summarize(snaps []model.TankSnapshot) model.DashboardSummary {
	var s model.DashboardSummary
	sensors := make(map[int]struct{})
	var pctSum, priceSum float64
	var pctN, priceN int

	for _, snap := range snaps {
		sensors[snap.TankID] = struct{}{}
		if snap.Timestamp.After(s.Date) {
			s.Date = snap.Timestamp
		}
		if snap.FillLevel != nil {
			s.TotalLiters += *snap.FillLevel
		}
		if snap.Percent != nil {
			pctSum += *snap.Percent
			pctN++
		}
		if snap.OilPrice != nil {
			priceSum += *snap.OilPrice
			priceN++
		}
	}

	s.Sensors = len(sensors)
	if pctN > 0 {
		s.AvgUtilization = pctSum / float64(pctN)
	}
	if priceN > 0 {
		s.AvgOilPrice = priceSum / float64(priceN)
		s.HasOilPrice = true
	}
	return s
}

// Compare summarizes today's and yesterday's snapshots.
func Compare(today, yesterday []model.TankSnapshot) model.DayComparison {
	return model.DayComparison{
		Current:  Summarize(today),
		Previous: Summarize(yesterday),
	}
}

// FilterTanks keeps snapshots whose tank id is in ids. An empty ids keeps all.
func FilterTanks(snaps []model.TankSnapshot, ids []int) []model.TankSnapshot {
	if len(ids) == 0 {
		return snaps
	}
	want := intSet(ids)
	var out []model.TankSnapshot
	for _, s := range snaps {
		if _, ok := want[s.TankID]; ok {
			out = append(out, s)
		}
	}
	return out
}

// ExcludeTanks drops readings of the given tanks.
func ExcludeTanks(readings []model.Reading, ids []int) []model.Reading {
	if len(ids) == 0 {
		return readings
	}
	drop := intSet(ids)
	out := make([]model.Reading, 0, len(readings))
	for _, r := range readings {
		if _, ok := drop[r.TankID]; !ok {
			out = append(out, r)
		}
	}
	return out
}

// FilterReadings keeps readings whose tank id is in ids. An empty ids keeps all.
func FilterReadings(readings []model.Reading, ids []int) []model.Reading {
	if len(ids) == 0 {
		return readings
	}
	want := intSet(ids)
	out := make([]model.Reading, 0, len(readings))
	for _, r := range readings {
		if _, ok := want[r.TankID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// FilterMaxPercent keeps snapshots at or below maxPercent utilization.
// Snapshots without a percentage are kept.
func FilterMaxPercent(snaps []model.TankSnapshot, maxPercent float64) []model.TankSnapshot {
	var out []model.TankSnapshot
	for _, s := range snaps {
		if s.Percent == nil || *s.Percent <= maxPercent {
			out = append(out, s)
		}
	}
	return out
}

// PostalCodes returns the distinct non-empty postal codes in ascending order.
func PostalCodes(readings []model.Reading) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range readings {
		if r.PostalCode == "" {
			continue
		}
		if _, ok := seen[r.PostalCode]; !ok {
			seen[r.PostalCode] = struct{}{}
			out = append(out, r.PostalCode)
		}
	}
	sort.Strings(out)
	return out
}

// DateRange returns the earliest and latest reading timestamps.
func DateRange(readings []model.Reading) (first, last time.Time) {
	for _, r := range readings {
		if !r.HasTimestamp() {
			continue
		}
		if first.IsZero() || r.Timestamp.Before(first) {
			first = r.Timestamp
		}
		if r.Timestamp.After(last) {
			last = r.Timestamp
		}
	}
	return first, last
}

func intSet(ids []int) map[int]struct{} {
	m := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

// FleetDaily sums the cleaned consumption of all tanks per calendar day.
func FleetDaily(readings []model.Reading) []model.ConsumptionRecord {
	return cleaner.DailyTotals(cleaner.Clean(readings))
}
