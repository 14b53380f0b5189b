// Package store provides a SQLite-backed cache for parsed telemetry and oil prices.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/datapilots/tankcast/internal/model"

	"github.com/rs/zerolog/log"

	_ "modernc.org/sqlite" // register sqlite driver
)

const dateLayout = "2006-01-02"

// Cache provides SQLite-backed caching of parsed telemetry files.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	log.Debug().Str("component", "store").Str("path", dbPath).Msg("cache opened")
	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveFile replaces every cached reading of filePath and records its
// tracking info in one transaction.
func (c *Cache) SaveFile(filePath string, readings []model.Reading, mtimeNs, sizeBytes int64) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM readings WHERE file_path = ?", filePath); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO readings
		(file_path, seq, tank_id, ts, consumption, fill_level, max_capacity, percent, temperature, plz)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range readings {
		var ts sql.NullString
		if r.HasTimestamp() {
			ts = sql.NullString{String: r.Timestamp.UTC().Format(time.RFC3339Nano), Valid: true}
		}
		_, err = stmt.Exec(filePath, i, r.TankID, ts,
			nullFloat(r.Consumption), nullFloat(r.FillLevel), nullFloat(r.MaxCapacity),
			nullFloat(r.Percent), nullFloat(r.Temperature), r.PostalCode)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes, parsed_at)
		VALUES (?, ?, ?, ?)`, filePath, mtimeNs, sizeBytes, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteFile removes a file's readings and its tracking entry.
func (c *Cache) DeleteFile(filePath string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM readings WHERE file_path = ?", filePath); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM file_tracker WHERE file_path = ?", filePath); err != nil {
		return err
	}
	return tx.Commit()
}

const readingColumns = `file_path, tank_id, ts, consumption, fill_level, max_capacity, percent, temperature, plz`

// LoadAllReadings reads every cached reading in file order.
func (c *Cache) LoadAllReadings() ([]model.Reading, error) {
	return c.queryReadings("SELECT " + readingColumns + " FROM readings ORDER BY file_path, seq")
}

// LoadTankReadings reads the cached readings of one tank.
func (c *Cache) LoadTankReadings(tankID int) ([]model.Reading, error) {
	return c.queryReadings("SELECT "+readingColumns+" FROM readings WHERE tank_id = ? ORDER BY file_path, seq", tankID)
}

func (c *Cache) queryReadings(query string, args ...any) ([]model.Reading, error) {
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Reading
	for rows.Next() {
		var r model.Reading
		var ts sql.NullString
		var cons, fill, capacity, pct, temp sql.NullFloat64
		if err := rows.Scan(&r.FilePath, &r.TankID, &ts, &cons, &fill, &capacity, &pct, &temp, &r.PostalCode); err != nil {
			return nil, err
		}
		if ts.Valid && ts.String != "" {
			r.Timestamp, _ = time.Parse(time.RFC3339Nano, ts.String)
		}
		r.Consumption = floatPtr(cons)
		r.FillLevel = floatPtr(fill)
		r.MaxCapacity = floatPtr(capacity)
		r.Percent = floatPtr(pct)
		r.Temperature = floatPtr(temp)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReadingCount returns the number of cached readings.
func (c *Cache) ReadingCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM readings").Scan(&count)
	return count, err
}

// FileCount returns the number of tracked telemetry files.
func (c *Cache) FileCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM file_tracker").Scan(&count)
	return count, err
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
