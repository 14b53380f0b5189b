package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/datapilots/tankcast/internal/model"
)

// SavePrices upserts the quotes fetched for plz and records that the
// range [from, to] was fetched at fetchedAt.
func (c *Cache) SavePrices(plz string, prices []model.OilPrice, from, to, fetchedAt time.Time) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO oil_prices (plz, date, price, unit, fetched_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	stamp := fetchedAt.UTC().Format(time.RFC3339)
	for _, p := range prices {
		if _, err := stmt.Exec(p.PostalCode, p.Date.Format(dateLayout), p.Price, p.Unit, stamp); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`INSERT OR REPLACE INTO price_fetches (plz, from_date, to_date, fetched_at)
		VALUES (?, ?, ?, ?)`, plz, from.Format(dateLayout), to.Format(dateLayout), stamp); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadPrices returns the cached quotes for plz with dates in [from, to],
// ordered by date.
func (c *Cache) LoadPrices(plz string, from, to time.Time) ([]model.OilPrice, error) {
	rows, err := c.db.Query(`SELECT date, price, unit FROM oil_prices
		WHERE plz = ? AND date >= ? AND date <= ? ORDER BY date`,
		plz, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.OilPrice
	for rows.Next() {
		var date string
		p := model.OilPrice{PostalCode: plz}
		if err := rows.Scan(&date, &p.Price, &p.Unit); err != nil {
			return nil, err
		}
		p.Date, _ = time.Parse(dateLayout, date)
		out = append(out, p)
	}
	return out, rows.Err()
}

// PriceCoverage returns the range and time of the last fetch for plz. ok is
// false when plz was never fetched or the record is unreadable.
func (c *Cache) PriceCoverage(plz string) (model.PriceCoverage, bool, error) {
	var from, to, stamp string
	err := c.db.QueryRow("SELECT from_date, to_date, fetched_at FROM price_fetches WHERE plz = ?", plz).
		Scan(&from, &to, &stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PriceCoverage{}, false, nil
	}
	if err != nil {
		return model.PriceCoverage{}, false, err
	}

	var cov model.PriceCoverage
	var errFrom, errTo, errAt error
	cov.From, errFrom = time.Parse(dateLayout, from)
	cov.To, errTo = time.Parse(dateLayout, to)
	cov.FetchedAt, errAt = time.Parse(time.RFC3339, stamp)
	if errFrom != nil || errTo != nil || errAt != nil {
		return model.PriceCoverage{}, false, nil
	}
	return cov, true, nil
}
