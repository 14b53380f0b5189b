// Package prices fetches local heating oil price history from Heizöl24.
package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/datapilots/tankcast/internal/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public Heizöl24 site.
	DefaultBaseURL = "https://www.heizoel24.de"
	// Unit is the price unit of every quote.
	Unit = "EUR/100L"

	requestTimeout = 10 * time.Second
	maxBodySize    = 4 << 20 // 4 MB
)

var (
	// ErrNotFound indicates the postal code is unknown to the price service.
	ErrNotFound = errors.New("prices: postal code not found")
	// ErrRateLimited indicates the price service rejected the request rate.
	ErrRateLimited = errors.New("prices: rate limited")
)

// Options configure a Client. Zero values select defaults.
type Options struct {
	BaseURL           string
	RequestsPerSecond float64
	MaxRetryTime      time.Duration
	HTTPClient        *http.Client
}

// Client fetches oil price history. It is safe for concurrent use.
type Client struct {
	baseURL    string
	http       *http.Client
	limiter    *rate.Limiter
	maxElapsed time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewClient creates a rate limited, retrying price client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.MaxRetryTime == 0 {
		opts.MaxRetryTime = 30 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		http:       opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		maxElapsed: opts.MaxRetryTime,
		logger:     log.With().Str("component", "prices").Logger(),
		now:        time.Now,
	}
}

// History returns daily quotes for plz with dates in [from, to]. The end
// date is clamped to today; a zero from means no lower bound.
func (c *Client) History(ctx context.Context, plz string, from, to time.Time) ([]model.OilPrice, error) {
	plz = strings.TrimSpace(plz)
	if plz == "" {
		return nil, errors.New("prices: empty postal code")
	}

	today := truncateDay(c.now())
	from = truncateDay(from)
	to = truncateDay(to)
	if to.IsZero() || to.After(today) {
		to = today
	}

	body, err := c.get(ctx, c.historyURL(plz))
	if err != nil {
		return nil, err
	}

	var raw []historyEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("prices: parsing history: %w", err)
	}

	out := make([]model.OilPrice, 0, len(raw))
	for _, e := range raw {
		day, ok := parseDate(e.DateTime)
		if !ok {
			c.logger.Debug().Str("datetime", e.DateTime).Msg("skipping unparseable quote date")
			continue
		}
		if day.Before(from) || day.After(to) {
			continue
		}
		out = append(out, model.OilPrice{PostalCode: plz, Date: day, Price: e.Price, Unit: Unit})
	}
	c.logger.Debug().Str("plz", plz).Int("quotes", len(out)).Msg("fetched price history")
	return out, nil
}

func (c *Client) historyURL(plz string) string {
	q := url.Values{}
	q.Set("rangeType", "7")
	q.Set("withEndDate", "false")
	q.Set("productGroup", "heizöl")
	return fmt.Sprintf("%s/api/site/1/%s/prices/history-local?%s", c.baseURL, url.PathEscape(plz), q.Encode())
}

// get performs a rate limited GET, retrying network errors and 5xx
// responses with exponential backoff.
func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	var body []byte
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		b, err := c.do(ctx, target)
		if err != nil {
			var se *statusError
			if errors.As(err, &se) && se.code < 500 {
				return backoff.Permanent(err)
			}
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrRateLimited) {
				return backoff.Permanent(err)
			}
			c.logger.Debug().Err(err).Msg("retrying price request")
			return err
		}
		body = b
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = c.maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, target string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("prices: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "github.com/datapilots/tankcast/1.0")

	//nolint:gosec // URL is built from the configured base URL
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prices: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("prices: reading response: %w", err)
	}
	return body, nil
}

// statusError reports an unexpected HTTP status.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("prices: unexpected status %d", e.code)
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
