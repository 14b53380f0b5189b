package forecast

import (
	"testing"

	"github.com/datapilots/tankcast/internal/model"
)

func TestTrajectoryConstantConsumption(t *testing.T) {
	fit, err := Fit(constant(5, 10), Options{Kind: Polynomial, ContextLength: 10, Horizon: 3, Degree: 0})
	if err != nil {
		t.Fatal(err)
	}
	traj := Trajectory(fit.Forecast, 100)
	want := []float64{95, 90, 85}
	for i, w := range want {
		if !approx(traj[i].FillLevel, w) {
			t.Errorf("fill[%d] = %v, want %v", i, traj[i].FillLevel, w)
		}
	}
	if _, _, ok := ReorderDate(traj, 70); ok {
		t.Error("expected no reorder date above a 70 L reserve")
	}
	if _, _, ok := ReorderDate(traj, 82); ok {
		t.Error("expected no reorder date within 3 days at 82 L reserve")
	}
}

func TestReorderDateWithinHorizon(t *testing.T) {
	fit, err := Fit(constant(5, 10), Options{Kind: Polynomial, ContextLength: 10, Horizon: 5, Degree: 0})
	if err != nil {
		t.Fatal(err)
	}
	traj := Trajectory(fit.Forecast, 100)
	want := []float64{95, 90, 85, 80, 75}
	for i, w := range want {
		if !approx(traj[i].FillLevel, w) {
			t.Errorf("fill[%d] = %v, want %v", i, traj[i].FillLevel, w)
		}
	}
	date, day, ok := ReorderDate(traj, 82)
	if !ok {
		t.Fatal("expected a reorder date")
	}
	if day != 4 || !date.Equal(fit.Forecast[3].Timestamp) {
		t.Errorf("reorder = day %d (%s), want day 4 (%s)", day, date, fit.Forecast[3].Timestamp)
	}
}

func TestReorderDateIsStrict(t *testing.T) {
	traj := []model.FillPoint{{Day: 1, FillLevel: 50}, {Day: 2, FillLevel: 40}, {Day: 3, FillLevel: 39.9}}
	_, day, ok := ReorderDate(traj, 40)
	if !ok || day != 3 {
		t.Errorf("day = %d ok=%v, want 3", day, ok)
	}
}

func TestTrajectoryMonotoneForNonNegativeForecast(t *testing.T) {
	fc := []model.SeriesPoint{{Consumption: 1}, {Consumption: 0}, {Consumption: 2.5}, {Consumption: 0.1}}
	traj := Trajectory(fc, 10)
	for i := 1; i < len(traj); i++ {
		if traj[i].FillLevel > traj[i-1].FillLevel {
			t.Errorf("fill rose from %v to %v", traj[i-1].FillLevel, traj[i].FillLevel)
		}
	}
}

func TestEmptyDate(t *testing.T) {
	traj := Trajectory([]model.SeriesPoint{{Consumption: 4}, {Consumption: 4}, {Consumption: 4}}, 10)
	_, day, ok := EmptyDate(traj)
	if !ok || day != 3 {
		t.Errorf("empty day = %d ok=%v, want 3", day, ok)
	}

	_, _, ok = EmptyDate(Trajectory([]model.SeriesPoint{{Consumption: 1}}, 10))
	if ok {
		t.Error("expected no empty date")
	}
}

func TestRecommend(t *testing.T) {
	fit, err := Fit(constant(5, 10), Options{Kind: Polynomial, ContextLength: 10, Horizon: 30, Degree: 0})
	if err != nil {
		t.Fatal(err)
	}
	state := model.TankState{TankID: 7, FillLevel: 102, MaxCapacity: 400}
	rec := Recommend(state, fit)

	if !approx(rec.Reserve, 80) {
		t.Errorf("reserve = %v, want 80", rec.Reserve)
	}
	if !rec.HasReorder || rec.DaysUntilReorder != 5 {
		t.Errorf("reorder day = %d (has=%v), want 5", rec.DaysUntilReorder, rec.HasReorder)
	}
	if !rec.HasEmpty || rec.DaysUntilEmpty != 21 {
		t.Errorf("empty day = %d (has=%v), want 21", rec.DaysUntilEmpty, rec.HasEmpty)
	}
	if !approx(rec.MeanDailyConsumption, 5) {
		t.Errorf("mean = %v, want 5", rec.MeanDailyConsumption)
	}
}

func TestRecommendWithoutFit(t *testing.T) {
	rec := Recommend(model.TankState{FillLevel: 10, MaxCapacity: 100}, nil)
	if rec.HasReorder || rec.HasEmpty || rec.Trajectory != nil {
		t.Errorf("unexpected outlook without a fit: %+v", rec)
	}
}
