// Package daemon provides the long-running tank forecast poller and its HTTP API.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/datapilots/tankcast/internal/forecast"
	"github.com/datapilots/tankcast/internal/model"
	"github.com/datapilots/tankcast/internal/pipeline"
	"github.com/datapilots/tankcast/internal/store"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls the daemon runtime behavior.
type Config struct {
	DataDir       string
	UseCache      bool
	CachePath     string
	Interval      time.Duration
	Addr          string
	EventsBuffer  int
	Forecast      forecast.Options
	ExcludedTanks []int
}

// Event is emitted when the first snapshot is taken and whenever a tank's
// reorder or empty date moves between polls.
type Event struct {
	ID        int64          `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Snapshot  *Snapshot      `json:"snapshot,omitempty"`
	Change    *ReorderChange `json:"change,omitempty"`
}

// Event types.
const (
	EventSnapshot      = "snapshot"
	EventReorderChange = "reorder_change"
)

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DataDir         string    `json:"data_dir"`
	ContextDays     int       `json:"context_days"`
	HorizonDays     int       `json:"horizon_days"`
	Degree          int       `json:"degree"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	log zerolog.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	readings    []model.Reading
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Forecast == (forecast.Options{}) {
		cfg.Forecast = forecast.DefaultOptions()
	}

	return &Service{
		cfg:       cfg,
		log:       log.With().Str("component", "daemon").Logger(),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info().Str("addr", s.cfg.Addr).Dur("interval", s.cfg.Interval).Msg("daemon listening")

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce()
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce() {
	start := time.Now()
	readings, err := s.loadReadings()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("poll failed")
		return
	}

	now := time.Now()
	snap := buildSnapshot(pipeline.ForecastAll(readings, s.cfg.Forecast), now)

	var pending []Event

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.readings = readings
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		cp := snap
		pending = append(pending, Event{ID: s.nextEventID, Type: EventSnapshot, Timestamp: now, Snapshot: &cp})
	} else {
		for _, ch := range diffOutlooks(prev, snap) {
			s.nextEventID++
			change := ch
			pending = append(pending, Event{ID: s.nextEventID, Type: EventReorderChange, Timestamp: now, Change: &change})
		}
	}
	s.mu.Unlock()

	for _, ev := range pending {
		s.publishEvent(ev)
	}

	s.log.Debug().
		Int("tanks", snap.Tanks).
		Int("events", len(pending)).
		Dur("took", time.Since(start)).
		Msg("poll complete")
}

// loadReadings refreshes telemetry from disk, through the cache when enabled.
func (s *Service) loadReadings() ([]model.Reading, error) {
	var readings []model.Reading
	loaded := false

	if s.cfg.UseCache && s.cfg.CachePath != "" {
		cache, err := store.Open(s.cfg.CachePath)
		if err == nil {
			defer func() { _ = cache.Close() }()
			cr, loadErr := pipeline.LoadWithCache(s.cfg.DataDir, cache, nil)
			if loadErr == nil {
				readings, loaded = cr.Readings, true
			} else {
				s.log.Warn().Err(loadErr).Msg("cached load failed, reparsing")
			}
		}
	}

	if !loaded {
		result, err := pipeline.Load(s.cfg.DataDir, nil)
		if err != nil {
			return nil, err
		}
		readings = result.Readings
	}
	return pipeline.ExcludeTanks(readings, s.cfg.ExcludedTanks), nil
}

// tankReadings returns the readings of one tank, read from the cache when
// enabled and from the last poll otherwise.
func (s *Service) tankReadings(tankID int) ([]model.Reading, error) {
	for _, id := range s.cfg.ExcludedTanks {
		if id == tankID {
			return nil, nil
		}
	}
	if s.cfg.UseCache && s.cfg.CachePath != "" {
		cache, err := store.Open(s.cfg.CachePath)
		if err == nil {
			defer func() { _ = cache.Close() }()
			return cache.LoadTankReadings(tankID)
		}
		s.log.Warn().Err(err).Msg("opening cache failed, using last poll")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Reading
	for _, r := range s.readings {
		if r.TankID == tankID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DataDir:         s.cfg.DataDir,
		ContextDays:     s.cfg.Forecast.ContextLength,
		HorizonDays:     s.cfg.Forecast.Horizon,
		Degree:          s.cfg.Forecast.Degree,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
