package pipeline

import (
	"context"
	"time"

	"github.com/datapilots/tankcast/internal/model"
)

// PriceSource fetches oil price history for a postal code.
type PriceSource interface {
	History(ctx context.Context, plz string, from, to time.Time) ([]model.OilPrice, error)
}

// PriceCache stores fetched oil prices.
type PriceCache interface {
	SavePrices(plz string, prices []model.OilPrice, from, to, fetchedAt time.Time) error
	LoadPrices(plz string, from, to time.Time) ([]model.OilPrice, error)
	PriceCoverage(plz string) (model.PriceCoverage, bool, error)
}

// FetchPrices returns quotes for every postal code, using the cache when
// its last fetch is younger than ttl and covered [from, to]. cache may be
// nil. Lookups that fail are logged and skipped, since prices only enrich
// the dashboard.
func FetchPrices(ctx context.Context, src PriceSource, cache PriceCache, plzs []string, from, to time.Time, ttl time.Duration) []model.OilPrice {
	var out []model.OilPrice
	now := time.Now()
	for _, plz := range plzs {
		if cache != nil {
			cov, ok, err := cache.PriceCoverage(plz)
			if err == nil && ok && now.Sub(cov.FetchedAt) < ttl && cov.Covers(from, to) {
				cached, err := cache.LoadPrices(plz, from, to)
				if err == nil {
					out = append(out, cached...)
					continue
				}
			}
		}
		if src == nil {
			continue
		}

		quotes, err := src.History(ctx, plz, from, to)
		if err != nil {
			logger().Warn().Err(err).Str("plz", plz).Msg("oil price lookup failed")
			continue
		}
		if cache != nil {
			if err := cache.SavePrices(plz, quotes, from, to, now); err != nil {
				logger().Warn().Err(err).Msg("caching oil prices failed")
			}
		}
		out = append(out, quotes...)
	}
	return out
}

// JoinPrices attaches the quote for each snapshot's postal code and
// calendar day. Snapshots without a matching quote keep a nil price.
func JoinPrices(snaps []model.TankSnapshot, prices []model.OilPrice) []model.TankSnapshot {
	type key struct {
		plz string
		day string
	}
	idx := make(map[key]float64, len(prices))
	for _, p := range prices {
		idx[key{p.PostalCode, p.Date.Format("2006-01-02")}] = p.Price
	}

	out := make([]model.TankSnapshot, len(snaps))
	for i, s := range snaps {
		out[i] = s
		if price, ok := idx[key{s.PostalCode, s.Timestamp.Format("2006-01-02")}]; ok {
			out[i].OilPrice = model.Float(price)
		}
	}
	return out
}
