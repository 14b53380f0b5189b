package forecast

import (
	"errors"
	"fmt"
	"math"

	"github.com/datapilots/tankcast/internal/model"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Fit trains a model on the trailing ContextLength records of history and
// forecasts Horizon daily values after the last training date.
//
// The regression variable is the record's position inside the window, so
// gaps between timestamps are ignored. When the window holds fewer than
// Degree+1 points the system is underdetermined and the minimum-norm
// solution with a free intercept is used. Predictions are not clamped.
func Fit(history []model.ConsumptionRecord, opts Options) (*model.FitResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	kind, _ := ParseModelKind(string(opts.Kind))
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}

	start := max(len(history)-opts.ContextLength, 0)
	window := history[start:]
	n := len(window)

	degree := opts.Degree

	y := make([]float64, n)
	for i, rec := range window {
		y[i] = rec.Consumption
	}

	var coef []float64
	var err error
	if n > degree {
		coef, err = leastSquares(y, degree)
	} else {
		coef, err = minNormLeastSquares(y, degree)
	}
	if err != nil {
		return nil, err
	}

	res := &model.FitResult{
		Kind:         string(kind),
		Degree:       degree,
		Coefficients: coef,
		Training:     make([]model.SeriesPoint, n),
		Fitted:       make([]model.SeriesPoint, n),
		Forecast:     make([]model.SeriesPoint, opts.Horizon),
	}

	estimates := make([]float64, n)
	for i, rec := range window {
		estimates[i] = evaluate(coef, float64(i))
		res.Training[i] = model.SeriesPoint{Index: i, Timestamp: rec.Timestamp, Consumption: rec.Consumption}
		res.Fitted[i] = model.SeriesPoint{Index: i, Timestamp: rec.Timestamp, Consumption: estimates[i]}
	}

	last := window[n-1].Timestamp
	for h := 1; h <= opts.Horizon; h++ {
		idx := n - 1 + h
		res.Forecast[h-1] = model.SeriesPoint{
			Index:       idx,
			Timestamp:   last.AddDate(0, 0, h),
			Consumption: evaluate(coef, float64(idx)),
		}
	}

	res.RSquared = rSquared(estimates, y)
	return res, nil
}

// leastSquares solves the full-rank polynomial regression by QR.
func leastSquares(y []float64, degree int) ([]float64, error) {
	n := len(y)
	x := mat.NewDense(n, degree+1, nil)
	for i := 0; i < n; i++ {
		p := 1.0
		for j := 0; j <= degree; j++ {
			x.Set(i, j, p)
			p *= float64(i)
		}
	}

	var beta mat.VecDense
	if err := beta.SolveVec(x, mat.NewVecDense(n, y)); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("solving least squares: %w", err)
		}
		// An ill-conditioned system still yields the least squares estimate.
	}
	coef := make([]float64, degree+1)
	for j := range coef {
		coef[j] = beta.AtVec(j)
	}
	return coef, nil
}

// minNormLeastSquares fits an underdetermined window. The powers x^1..x^d
// and the target are centered, the slope terms take the minimum-norm
// solution via SVD, and the intercept restores the means. The intercept is
// not part of the minimized norm.
func minNormLeastSquares(y []float64, degree int) ([]float64, error) {
	n := len(y)
	coef := make([]float64, degree+1)

	yMean := stat.Mean(y, nil)
	coef[0] = yMean
	if degree == 0 {
		return coef, nil
	}

	feat := mat.NewDense(n, degree, nil)
	means := make([]float64, degree)
	for i := 0; i < n; i++ {
		p := 1.0
		for j := 0; j < degree; j++ {
			p *= float64(i)
			feat.Set(i, j, p)
			means[j] += p / float64(n)
		}
	}
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		b[i] = y[i] - yMean
		for j := 0; j < degree; j++ {
			feat.Set(i, j, feat.At(i, j)-means[j])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(feat, mat.SVDThin) {
		return nil, errors.New("solving least squares: SVD did not converge")
	}
	rank := svd.Rank(epsilon * float64(max(n, degree)))
	if rank == 0 {
		return coef, nil
	}

	var w mat.VecDense
	svd.SolveVecTo(&w, mat.NewVecDense(n, b), rank)
	for j := 0; j < degree; j++ {
		coef[j+1] = w.AtVec(j)
		coef[0] -= w.AtVec(j) * means[j]
	}
	return coef, nil
}

// epsilon is the float64 machine epsilon, the relative cutoff for singular values.
const epsilon = 0x1p-52

// Predict evaluates a fitted model at an arbitrary row index.
func Predict(fit *model.FitResult, index int) float64 {
	return evaluate(fit.Coefficients, float64(index))
}

// evaluate computes sum(coef[j] * x^j) using Horner's rule.
func evaluate(coef []float64, x float64) float64 {
	v := 0.0
	for j := len(coef) - 1; j >= 0; j-- {
		v = v*x + coef[j]
	}
	return v
}

// rSquared returns the coefficient of determination. A constant target
// scores 1 when predicted exactly and 0 otherwise.
func rSquared(estimates, values []float64) float64 {
	r2 := stat.RSquaredFrom(estimates, values, nil)
	if !math.IsNaN(r2) && !math.IsInf(r2, 0) {
		return r2
	}
	for i := range values {
		if math.Abs(values[i]-estimates[i]) > 1e-9 {
			return 0
		}
	}
	return 1
}
