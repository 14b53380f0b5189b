// Package forecast fits consumption models to cleaned tank history and
// projects fill levels to find reorder and empty dates.
package forecast

import (
	"errors"
	"fmt"
	"strings"
)

// ModelKind selects the regression model used by Fit.
type ModelKind string

// Polynomial is ordinary least squares on polynomial features of the row index.
const Polynomial ModelKind = "polynomial"

var (
	// ErrUnknownModel is returned for a model name no fitter handles.
	ErrUnknownModel = errors.New("unknown forecast model")
	// ErrEmptyHistory is returned when no records remain to train on.
	ErrEmptyHistory = errors.New("no consumption history to fit")
	// ErrInvalidWindow is returned for a non-positive context length or horizon.
	ErrInvalidWindow = errors.New("context length and horizon must be positive")
	// ErrInvalidDegree is returned for a negative polynomial degree.
	ErrInvalidDegree = errors.New("polynomial degree must not be negative")
)

// ParseModelKind resolves a configured model name. The legacy name "polyReg"
// is accepted. An empty name selects Polynomial.
func ParseModelKind(name string) (ModelKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "polynomial", "polyreg", "poly":
		return Polynomial, nil
	}
	return "", fmt.Errorf("%w %q (supported: %s)", ErrUnknownModel, name, Polynomial)
}

// Options parameterize a fit.
type Options struct {
	Kind          ModelKind
	ContextLength int // number of trailing records to train on
	Horizon       int // number of days to forecast
	Degree        int
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{Kind: Polynomial, ContextLength: 30, Horizon: 30, Degree: 1}
}

// Validate checks the options before any data is touched.
func (o Options) Validate() error {
	if _, err := ParseModelKind(string(o.Kind)); err != nil {
		return err
	}
	if o.ContextLength <= 0 || o.Horizon <= 0 {
		return fmt.Errorf("%w (context=%d, horizon=%d)", ErrInvalidWindow, o.ContextLength, o.Horizon)
	}
	if o.Degree < 0 {
		return fmt.Errorf("%w (degree=%d)", ErrInvalidDegree, o.Degree)
	}
	return nil
}
