package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/datapilots/tankcast/internal/model"
)

const tol = 1e-6

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func series(values ...float64) []model.ConsumptionRecord {
	out := make([]model.ConsumptionRecord, len(values))
	for i, v := range values {
		out[i] = model.ConsumptionRecord{Timestamp: start.AddDate(0, 0, i), Consumption: v}
	}
	return out
}

func constant(v float64, n int) []model.ConsumptionRecord {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = v
	}
	return series(vals...)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < tol
}

func TestParseModelKind(t *testing.T) {
	tests := []struct {
		in      string
		want    ModelKind
		wantErr bool
	}{
		{"polynomial", Polynomial, false},
		{"polyReg", Polynomial, false},
		{"  POLYNOMIAL ", Polynomial, false},
		{"", Polynomial, false},
		{"arima", "", true},
		{"prophet", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseModelKind(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownModel) {
					t.Fatalf("err = %v, want ErrUnknownModel", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseModelKind(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestFitConstantDegreeZero(t *testing.T) {
	fit, err := Fit(constant(5, 10), Options{Kind: Polynomial, ContextLength: 10, Horizon: 3, Degree: 0})
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range fit.Fitted {
		if !approx(p.Consumption, 5) {
			t.Errorf("fitted[%d] = %v, want 5", i, p.Consumption)
		}
	}
	if len(fit.Forecast) != 3 {
		t.Fatalf("forecast len = %d, want 3", len(fit.Forecast))
	}
	for i, p := range fit.Forecast {
		if !approx(p.Consumption, 5) {
			t.Errorf("forecast[%d] = %v, want 5", i, p.Consumption)
		}
	}
	if !approx(fit.RSquared, 1) {
		t.Errorf("R² = %v, want 1", fit.RSquared)
	}
}

func TestFitLinearTrend(t *testing.T) {
	// y = 2 + 0.5 i
	var vals []float64
	for i := 0; i < 20; i++ {
		vals = append(vals, 2+0.5*float64(i))
	}
	fit, err := Fit(series(vals...), Options{Kind: Polynomial, ContextLength: 20, Horizon: 2, Degree: 1})
	if err != nil {
		t.Fatal(err)
	}
	if !approx(fit.Coefficients[0], 2) || !approx(fit.Coefficients[1], 0.5) {
		t.Errorf("coefficients = %v, want [2 0.5]", fit.Coefficients)
	}
	if !approx(fit.Forecast[0].Consumption, 12) || !approx(fit.Forecast[1].Consumption, 12.5) {
		t.Errorf("forecast = %v", fit.Forecast)
	}
	if fit.Forecast[0].Index != 20 {
		t.Errorf("first forecast index = %d, want 20", fit.Forecast[0].Index)
	}
}

func TestFitQuadratic(t *testing.T) {
	var vals []float64
	for i := 0; i < 15; i++ {
		x := float64(i)
		vals = append(vals, 1-0.2*x+0.03*x*x)
	}
	fit, err := Fit(series(vals...), Options{Kind: Polynomial, ContextLength: 15, Horizon: 1, Degree: 2})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, -0.2, 0.03}
	for j, w := range want {
		if !approx(fit.Coefficients[j], w) {
			t.Errorf("coef[%d] = %v, want %v", j, fit.Coefficients[j], w)
		}
	}
}

func TestFitAlignment(t *testing.T) {
	hist := series(3, 1, 4, 1, 5, 9, 2, 6)
	fit, err := Fit(hist, Options{Kind: Polynomial, ContextLength: 5, Horizon: 4, Degree: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(fit.Training) != 5 || len(fit.Fitted) != 5 {
		t.Fatalf("training=%d fitted=%d, want 5", len(fit.Training), len(fit.Fitted))
	}
	for i := range fit.Training {
		if !fit.Training[i].Timestamp.Equal(fit.Fitted[i].Timestamp) {
			t.Errorf("date mismatch at %d", i)
		}
		if fit.Training[i].Index != i {
			t.Errorf("training[%d].Index = %d", i, fit.Training[i].Index)
		}
	}
	// Trailing window starts at the fourth record.
	if !fit.Training[0].Timestamp.Equal(hist[3].Timestamp) {
		t.Errorf("window start = %s, want %s", fit.Training[0].Timestamp, hist[3].Timestamp)
	}
	last := fit.LastTrainingDate()
	for h, p := range fit.Forecast {
		want := last.AddDate(0, 0, h+1)
		if !p.Timestamp.Equal(want) {
			t.Errorf("forecast[%d] date = %s, want %s", h, p.Timestamp, want)
		}
		if p.Index != 5+h {
			t.Errorf("forecast[%d] index = %d, want %d", h, p.Index, 5+h)
		}
	}
}

func TestFitDegreeZeroIsWindowMean(t *testing.T) {
	fit, err := Fit(series(100, 1, 2, 3, 6), Options{Kind: Polynomial, ContextLength: 4, Horizon: 2, Degree: 0})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range append(fit.Fitted, fit.Forecast...) {
		if !approx(p.Consumption, 3) {
			t.Errorf("value %v, want window mean 3", p.Consumption)
		}
	}
}

func TestFitContextSaturates(t *testing.T) {
	fit, err := Fit(series(1, 2, 3), Options{Kind: Polynomial, ContextLength: 50, Horizon: 1, Degree: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(fit.Training) != 3 {
		t.Errorf("training len = %d, want 3", len(fit.Training))
	}
}

func TestFitUnderdeterminedUsesMinimumNorm(t *testing.T) {
	// Two points at degree 3: slopes (2/3, 2/3, 2/3), intercept 4.
	fit, err := Fit(series(4, 6), Options{Kind: Polynomial, ContextLength: 10, Horizon: 1, Degree: 3})
	if err != nil {
		t.Fatal(err)
	}
	if fit.Degree != 3 {
		t.Errorf("degree = %d, want 3", fit.Degree)
	}
	want := []float64{4, 2.0 / 3, 2.0 / 3, 2.0 / 3}
	for j, c := range want {
		if !approx(fit.Coefficients[j], c) {
			t.Errorf("coef[%d] = %v, want %v", j, fit.Coefficients[j], c)
		}
	}
	if !approx(fit.Forecast[0].Consumption, 40.0/3) {
		t.Errorf("forecast = %v, want 13.333", fit.Forecast[0].Consumption)
	}
	for i, p := range fit.Fitted {
		if !approx(p.Consumption, fit.Training[i].Consumption) {
			t.Errorf("fitted[%d] = %v, want exact %v", i, p.Consumption, fit.Training[i].Consumption)
		}
	}
	if !approx(fit.RSquared, 1) {
		t.Errorf("R² = %v, want 1", fit.RSquared)
	}

	single, err := Fit(series(7), Options{Kind: Polynomial, ContextLength: 10, Horizon: 2, Degree: 2})
	if err != nil {
		t.Fatal(err)
	}
	if !approx(single.Forecast[1].Consumption, 7) {
		t.Errorf("single-point forecast = %v, want 7", single.Forecast)
	}
}

func TestFitDoesNotClamp(t *testing.T) {
	fit, err := Fit(series(10, 8, 6, 4, 2), Options{Kind: Polynomial, ContextLength: 5, Horizon: 3, Degree: 1})
	if err != nil {
		t.Fatal(err)
	}
	if fit.Forecast[2].Consumption >= 0 {
		t.Errorf("forecast[2] = %v, want a negative extrapolation", fit.Forecast[2].Consumption)
	}
}

func TestFitErrors(t *testing.T) {
	tests := []struct {
		name string
		hist []model.ConsumptionRecord
		opts Options
		want error
	}{
		{"empty", nil, DefaultOptions(), ErrEmptyHistory},
		{"zero context", series(1), Options{Kind: Polynomial, ContextLength: 0, Horizon: 1, Degree: 1}, ErrInvalidWindow},
		{"zero horizon", series(1), Options{Kind: Polynomial, ContextLength: 1, Horizon: 0, Degree: 1}, ErrInvalidWindow},
		{"negative degree", series(1), Options{Kind: Polynomial, ContextLength: 1, Horizon: 1, Degree: -1}, ErrInvalidDegree},
		{"unknown model", series(1), Options{Kind: "lstm", ContextLength: 1, Horizon: 1, Degree: 1}, ErrUnknownModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(tt.hist, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFitDoesNotMutateHistory(t *testing.T) {
	hist := series(1, 2, 3, 4)
	before := append([]model.ConsumptionRecord(nil), hist...)
	if _, err := Fit(hist, Options{Kind: Polynomial, ContextLength: 3, Horizon: 2, Degree: 1}); err != nil {
		t.Fatal(err)
	}
	for i := range hist {
		if hist[i] != before[i] {
			t.Errorf("history[%d] changed", i)
		}
	}
}

func BenchmarkFit(b *testing.B) {
	vals := make([]float64, 365)
	for i := range vals {
		vals[i] = 20 + 5*math.Sin(float64(i)/30)
	}
	hist := series(vals...)
	opts := Options{Kind: Polynomial, ContextLength: 180, Horizon: 60, Degree: 3}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Fit(hist, opts); err != nil {
			b.Fatal(err)
		}
	}
}
