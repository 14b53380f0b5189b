package pipeline

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/datapilots/tankcast/internal/cleaner"
	"github.com/datapilots/tankcast/internal/forecast"
	"github.com/datapilots/tankcast/internal/model"
)

// ErrUnknownTank is returned when a tank has no readings or no usable state.
var ErrUnknownTank = errors.New("unknown tank")

// TankForecast is the outcome of forecasting one tank.
type TankForecast struct {
	TankID         int
	Recommendation model.Recommendation
	Err            error
}

// ForecastTank cleans one tank's readings, fits the consumption model and
// derives the reorder outlook against state.
func ForecastTank(readings []model.Reading, state model.TankState, opts forecast.Options) (model.Recommendation, error) {
	history := cleaner.CleanTank(readings, state.TankID)
	fit, err := forecast.Fit(history, opts)
	if err != nil {
		return model.Recommendation{Tank: state, Reserve: state.ReserveThreshold()},
			fmt.Errorf("tank %d: %w", state.TankID, err)
	}
	return forecast.Recommend(state, fit), nil
}

// ForecastByID looks up a tank in readings and forecasts it.
func ForecastByID(readings []model.Reading, tankID int, opts forecast.Options) (model.Recommendation, error) {
	state, ok := LatestStates(readings)[tankID]
	if !ok {
		return model.Recommendation{}, fmt.Errorf("%w: %d", ErrUnknownTank, tankID)
	}
	return ForecastTank(GroupByTank(readings)[tankID], state, opts)
}

// ForecastAll forecasts every tank that has a state, in parallel. Each tank
// fits on its own history; results are ordered by tank id.
func ForecastAll(readings []model.Reading, opts forecast.Options) []TankForecast {
	groups := GroupByTank(readings)
	states := LatestStates(readings)

	ids := make([]int, 0, len(states))
	for id := range states {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	if len(ids) == 0 {
		return nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(ids) {
		numWorkers = len(ids)
	}

	work := make(chan int, len(ids))
	results := make([]TankForecast, len(ids))
	var wg sync.WaitGroup

	for i := range ids {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				id := ids[idx]
				rec, err := ForecastTank(groups[id], states[id], opts)
				results[idx] = TankForecast{TankID: id, Recommendation: rec, Err: err}
			}
		}()
	}

	wg.Wait()
	return results
}

// SortByReorder orders forecasts by reorder date; tanks without a reorder
// date in the horizon and failed forecasts sort last.
func SortByReorder(fcs []TankForecast) {
	sort.SliceStable(fcs, func(i, j int) bool {
		a, b := fcs[i], fcs[j]
		aOK := a.Err == nil && a.Recommendation.HasReorder
		bOK := b.Err == nil && b.Recommendation.HasReorder
		if aOK != bOK {
			return aOK
		}
		if aOK && !a.Recommendation.ReorderDate.Equal(b.Recommendation.ReorderDate) {
			return a.Recommendation.ReorderDate.Before(b.Recommendation.ReorderDate)
		}
		return a.TankID < b.TankID
	})
}
