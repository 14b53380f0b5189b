package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/datapilots/tankcast/internal/forecast"
	"github.com/datapilots/tankcast/internal/model"
	"github.com/datapilots/tankcast/internal/pipeline"

	"github.com/gorilla/mux"
)

// ForecastResponse is served at /v1/tanks/{id}/forecast.
type ForecastResponse struct {
	Outlook      TankOutlook  `json:"outlook"`
	Model        string       `json:"model"`
	Degree       int          `json:"degree"`
	ContextDays  int          `json:"context_days"`
	HorizonDays  int          `json:"horizon_days"`
	Coefficients []float64    `json:"coefficients"`
	RSquared     float64      `json:"r_squared"`
	Training     []seriesJSON `json:"training"`
	Fitted       []seriesJSON `json:"fitted"`
	Forecast     []seriesJSON `json:"forecast"`
	Trajectory   []fillJSON   `json:"trajectory"`
}

type seriesJSON struct {
	Index       int       `json:"index"`
	Date        time.Time `json:"date"`
	Consumption float64   `json:"consumption_l"`
}

type fillJSON struct {
	Day       int       `json:"day"`
	Date      time.Time `json:"date"`
	FillLevel float64   `json:"fill_level_l"`
}

type errorJSON struct {
	Error string `json:"error"`
}

// Handler returns the HTTP API router.
func (s *Service) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/v1/tanks", s.handleTanks).Methods(http.MethodGet)
	r.HandleFunc("/v1/tanks/{id:[0-9]+}/forecast", s.handleForecast).Methods(http.MethodGet)
	r.HandleFunc("/v1/events", s.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/v1/stream", s.handleStream).Methods(http.MethodGet)
	return r
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleTanks(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	outlooks := make([]TankOutlook, len(s.snapshot.Outlooks))
	copy(outlooks, s.snapshot.Outlooks)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, outlooks)
}

// handleForecast fits a fresh model for one tank. The query parameters
// context, horizon and degree override the daemon defaults.
func (s *Service) handleForecast(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid tank id"})
		return
	}

	opts := s.cfg.Forecast
	q := r.URL.Query()
	for key, dst := range map[string]*int{
		"context": &opts.ContextLength,
		"horizon": &opts.Horizon,
		"degree":  &opts.Degree,
	} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorJSON{Error: fmt.Sprintf("invalid %s: %q", key, v)})
				return
			}
			*dst = n
		}
	}
	if m := q.Get("model"); m != "" {
		opts.Kind = forecast.ModelKind(m)
	}

	readings, err := s.tankReadings(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: err.Error()})
		return
	}

	rec, err := pipeline.ForecastByID(readings, id, opts)
	if err != nil {
		writeJSON(w, forecastStatus(err), errorJSON{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, NewForecastResponse(id, rec, opts))
}

func forecastStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrUnknownTank):
		return http.StatusNotFound
	case errors.Is(err, forecast.ErrInvalidWindow),
		errors.Is(err, forecast.ErrInvalidDegree),
		errors.Is(err, forecast.ErrUnknownModel):
		return http.StatusBadRequest
	case errors.Is(err, forecast.ErrEmptyHistory):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// NewForecastResponse converts a recommendation into its JSON form.
func NewForecastResponse(id int, rec model.Recommendation, opts forecast.Options) ForecastResponse {
	resp := ForecastResponse{
		Outlook:     outlookFromRecommendation(id, rec),
		ContextDays: opts.ContextLength,
		HorizonDays: opts.Horizon,
	}
	fit := rec.Fit
	if fit == nil {
		return resp
	}
	resp.Model = fit.Kind
	resp.Degree = fit.Degree
	resp.Coefficients = fit.Coefficients
	resp.RSquared = fit.RSquared
	resp.Training = toSeries(fit.Training)
	resp.Fitted = toSeries(fit.Fitted)
	resp.Forecast = toSeries(fit.Forecast)
	resp.Trajectory = make([]fillJSON, len(rec.Trajectory))
	for i, p := range rec.Trajectory {
		resp.Trajectory[i] = fillJSON{Day: p.Day, Date: p.Timestamp, FillLevel: p.FillLevel}
	}
	return resp
}

func toSeries(points []model.SeriesPoint) []seriesJSON {
	out := make([]seriesJSON, len(points))
	for i, p := range points {
		out[i] = seriesJSON{Index: p.Index, Date: p.Timestamp, Consumption: p.Consumption}
	}
	return out
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	snap := s.snapshotStatus().Summary
	writeSSE(w, Event{Type: EventSnapshot, Timestamp: time.Now(), Snapshot: &snap})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
