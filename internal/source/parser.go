// Package source discovers and parses raw tank telemetry exports.
package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/datapilots/tankcast/internal/model"
)

// timestampLayouts are tried in order for timestamp cells.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02.01.2006",
}

// ErrNoTankColumn is returned when a CSV header has no tank id column.
var ErrNoTankColumn = errors.New("no tank id column in header")

// ParseResult holds the output of parsing a single telemetry file.
type ParseResult struct {
	Readings    []model.Reading
	ParseErrors int // rows skipped because they had no usable tank id
	Err         error
}

// ParseFile reads one telemetry export into raw readings. Malformed cells
// become missing values; rows without a tank id are counted and skipped.
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	var res ParseResult
	if df.Format == FormatJSONL {
		res = parseJSONL(f)
	} else {
		res = parseCSV(f)
	}
	for i := range res.Readings {
		res.Readings[i].FilePath = df.Path
	}
	return res
}

func parseCSV(r io.Reader) ParseResult {
	br := bufio.NewReader(r)
	first, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return ParseResult{Err: err}
	}
	if len(first) == 0 {
		return ParseResult{}
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.LazyQuotes = true
	semicolon := detectSemicolon(first)
	if semicolon {
		cr.Comma = ';'
	}

	header, err := cr.Read()
	if err != nil {
		return ParseResult{Err: fmt.Errorf("reading header: %w", err)}
	}
	idx, err := headerIndex(header)
	if err != nil {
		return ParseResult{Err: err}
	}

	var res ParseResult
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.ParseErrors++
				continue
			}
			res.Err = err
			break
		}
		reading, ok := parseRecord(rec, idx, semicolon)
		if !ok {
			res.ParseErrors++
			continue
		}
		res.Readings = append(res.Readings, reading)
	}
	return res
}

// detectSemicolon reports whether the header line is semicolon separated,
// as spreadsheet exports with German locale settings are.
func detectSemicolon(head []byte) bool {
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	return bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','})
}

// headerIndex maps each canonical column to its position, or -1 when absent.
func headerIndex(header []string) ([numColumns]int, error) {
	var idx [numColumns]int
	for i := range idx {
		idx[i] = -1
	}
	for pos, h := range header {
		if c, ok := headerAliases[normalizeHeader(h)]; ok && idx[c] < 0 {
			idx[c] = pos
		}
	}
	if idx[colTankID] < 0 {
		return idx, ErrNoTankColumn
	}
	return idx, nil
}

// parseRecord converts one CSV record. ok is false when the tank id is unusable.
func parseRecord(rec []string, idx [numColumns]int, decimalComma bool) (model.Reading, bool) {
	cell := func(c column) string {
		if i := idx[c]; i >= 0 && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	num := func(c column) *float64 {
		s := cell(c)
		if decimalComma {
			s = strings.Replace(s, ",", ".", 1)
		}
		return parseFloat(s)
	}

	id, ok := parseTankID(cell(colTankID))
	if !ok {
		return model.Reading{}, false
	}
	return model.Reading{
		TankID:      id,
		Timestamp:   parseTimestamp(cell(colTimestamp)),
		Consumption: num(colConsumption),
		FillLevel:   num(colFillLevel),
		MaxCapacity: num(colMaxCapacity),
		Percent:     num(colPercent),
		Temperature: num(colTemperature),
		PostalCode:  normalizePostalCode(cell(colPostalCode)),
	}, true
}

func parseJSONL(r io.Reader) ParseResult {
	var res ParseResult
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var row RawRow
		if err := json.Unmarshal(line, &row); err != nil {
			res.ParseErrors++
			continue
		}
		id, ok := parseTankID(scalarString(row.TankID))
		if !ok {
			res.ParseErrors++
			continue
		}
		res.Readings = append(res.Readings, model.Reading{
			TankID:      id,
			Timestamp:   parseTimestamp(row.Timestamp),
			Consumption: finite(row.Consumption),
			FillLevel:   finite(row.FillLevel),
			MaxCapacity: finite(row.MaxCapacity),
			Percent:     finite(row.Percent),
			Temperature: finite(row.Temperature),
			PostalCode:  normalizePostalCode(scalarString(row.PostalCode)),
		})
	}
	if err := scanner.Err(); err != nil {
		res.Err = err
	}
	return res
}

// parseTankID accepts integer ids, including float renderings like "5.0".
func parseTankID(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// parseFloat returns nil for empty, null, NaN or non-numeric cells.
func parseFloat(s string) *float64 {
	switch strings.ToLower(s) {
	case "", "null", "none", "na", "n/a":
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return finite(&f)
}

func finite(p *float64) *float64 {
	if p == nil || math.IsNaN(*p) {
		return nil
	}
	return p
}

// parseTimestamp returns the zero time when no layout matches.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// normalizePostalCode strips the ".0" suffix left by float-typed exports.
func normalizePostalCode(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return strings.TrimSuffix(s, ".0")
}

func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
