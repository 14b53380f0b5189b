package prices

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(Options{BaseURL: srv.URL, RequestsPerSecond: 1000, MaxRetryTime: 5 * time.Second})
	c.now = func() time.Time { return time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC) }
	return c
}

func TestHistoryFiltersAndStamps(t *testing.T) {
	var gotPath, gotGroup string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotGroup = r.URL.Query().Get("productGroup")
		_, _ = w.Write([]byte(`[
			{"DateTime":"2024-02-28T00:00:00","Price":101.2},
			{"DateTime":"2024-03-01T00:00:00","Price":99.5},
			{"DateTime":"2024-03-09T00:00:00","Price":98.1},
			{"DateTime":"2024-03-12T00:00:00","Price":97.0},
			{"DateTime":"garbage","Price":1}
		]`))
	})

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	got, err := c.History(context.Background(), "79100", from, to)
	if err != nil {
		t.Fatal(err)
	}

	if gotPath != "/api/site/1/79100/prices/history-local" {
		t.Errorf("path = %q", gotPath)
	}
	if gotGroup != "heizöl" {
		t.Errorf("productGroup = %q", gotGroup)
	}
	// 2024-03-12 lies after the clamped end date.
	if len(got) != 2 {
		t.Fatalf("quotes = %d, want 2 (%+v)", len(got), got)
	}
	if got[0].Price != 99.5 || got[0].PostalCode != "79100" || got[0].Unit != Unit {
		t.Errorf("quote 0 = %+v", got[0])
	}
}

func TestHistoryNotFound(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.History(context.Background(), "00000", time.Time{}, time.Time{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 404)", calls.Load())
	}
}

func TestHistoryRateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := c.History(context.Background(), "79100", time.Time{}, time.Time{})
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestHistoryRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"DateTime":"2024-03-05T00:00:00","Price":98}]`))
	})
	got, err := c.History(context.Background(), "79100", time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 || len(got) != 1 {
		t.Errorf("calls = %d quotes = %d, want 3 and 1", calls.Load(), len(got))
	}
}

func TestHistoryEmptyPostalCode(t *testing.T) {
	c := NewClient(Options{})
	if _, err := c.History(context.Background(), "  ", time.Time{}, time.Time{}); err == nil {
		t.Error("expected error for empty postal code")
	}
}
