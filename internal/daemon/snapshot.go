package daemon

import (
	"time"

	"github.com/datapilots/tankcast/internal/model"
	"github.com/datapilots/tankcast/internal/pipeline"
)

// TankOutlook is the JSON view of one tank's recommendation. Absent dates
// are null.
type TankOutlook struct {
	TankID               int        `json:"tank_id"`
	AsOf                 time.Time  `json:"as_of"`
	FillLevel            float64    `json:"fill_level_l"`
	MaxCapacity          float64    `json:"max_capacity_l"`
	Reserve              float64    `json:"reserve_l"`
	ReorderDate          *time.Time `json:"reorder_date"`
	DaysUntilReorder     *int       `json:"days_until_reorder"`
	EmptyDate            *time.Time `json:"empty_date"`
	DaysUntilEmpty       *int       `json:"days_until_empty"`
	MeanDailyConsumption float64    `json:"mean_daily_consumption_l"`
	Error                string     `json:"error,omitempty"`
}

// Snapshot is the fleet state after one poll.
type Snapshot struct {
	At          time.Time     `json:"at"`
	Tanks       int           `json:"tanks"`
	TotalLiters float64       `json:"total_liters"`
	DueSoon     int           `json:"due_within_horizon"`
	Outlooks    []TankOutlook `json:"outlooks"`
}

// ReorderChange describes a tank whose outlook moved between polls.
type ReorderChange struct {
	TankID          int        `json:"tank_id"`
	PreviousReorder *time.Time `json:"previous_reorder_date"`
	CurrentReorder  *time.Time `json:"current_reorder_date"`
	PreviousEmpty   *time.Time `json:"previous_empty_date"`
	CurrentEmpty    *time.Time `json:"current_empty_date"`
}

func outlookFrom(fc pipeline.TankForecast) TankOutlook {
	rec := fc.Recommendation
	o := TankOutlook{
		TankID:               fc.TankID,
		AsOf:                 rec.Tank.AsOf,
		FillLevel:            rec.Tank.FillLevel,
		MaxCapacity:          rec.Tank.MaxCapacity,
		Reserve:              rec.Reserve,
		MeanDailyConsumption: rec.MeanDailyConsumption,
	}
	if fc.Err != nil {
		o.Error = fc.Err.Error()
		return o
	}
	if rec.HasReorder {
		d, n := rec.ReorderDate, rec.DaysUntilReorder
		o.ReorderDate, o.DaysUntilReorder = &d, &n
	}
	if rec.HasEmpty {
		d, n := rec.EmptyDate, rec.DaysUntilEmpty
		o.EmptyDate, o.DaysUntilEmpty = &d, &n
	}
	return o
}

func outlookFromRecommendation(id int, rec model.Recommendation) TankOutlook {
	return outlookFrom(pipeline.TankForecast{TankID: id, Recommendation: rec})
}

func buildSnapshot(fcs []pipeline.TankForecast, at time.Time) Snapshot {
	snap := Snapshot{At: at, Tanks: len(fcs), Outlooks: make([]TankOutlook, 0, len(fcs))}
	for _, fc := range fcs {
		o := outlookFrom(fc)
		snap.TotalLiters += o.FillLevel
		if o.ReorderDate != nil {
			snap.DueSoon++
		}
		snap.Outlooks = append(snap.Outlooks, o)
	}
	return snap
}

// diffOutlooks lists tanks whose reorder or empty date differs between two
// snapshots, including tanks that appeared or disappeared.
func diffOutlooks(prev, curr Snapshot) []ReorderChange {
	before := make(map[int]TankOutlook, len(prev.Outlooks))
	for _, o := range prev.Outlooks {
		before[o.TankID] = o
	}

	var changes []ReorderChange
	seen := make(map[int]struct{}, len(curr.Outlooks))
	for _, o := range curr.Outlooks {
		seen[o.TankID] = struct{}{}
		p, ok := before[o.TankID]
		if ok && sameDate(p.ReorderDate, o.ReorderDate) && sameDate(p.EmptyDate, o.EmptyDate) {
			continue
		}
		ch := ReorderChange{TankID: o.TankID, CurrentReorder: o.ReorderDate, CurrentEmpty: o.EmptyDate}
		if ok {
			ch.PreviousReorder, ch.PreviousEmpty = p.ReorderDate, p.EmptyDate
		}
		changes = append(changes, ch)
	}
	for _, p := range prev.Outlooks {
		if _, ok := seen[p.TankID]; !ok {
			changes = append(changes, ReorderChange{TankID: p.TankID, PreviousReorder: p.ReorderDate, PreviousEmpty: p.EmptyDate})
		}
	}
	return changes
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
