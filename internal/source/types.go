package source

import "strings"

// Format identifies how a telemetry file is encoded.
type Format int

const (
	FormatCSV Format = iota
	FormatJSONL
)

func (f Format) String() string {
	if f == FormatJSONL {
		return "jsonl"
	}
	return "csv"
}

// DiscoveredFile is a telemetry export found during directory scanning.
type DiscoveredFile struct {
	Path    string
	RelPath string // relative to the data directory
	Format  Format
}

// RawRow is the JSONL shape of one reading. Pointers stay nil for null or
// absent keys.
type RawRow struct {
	TankID      any      `json:"tank_id"`
	Timestamp   string   `json:"timestamp"`
	Consumption *float64 `json:"consumption"`
	FillLevel   *float64 `json:"fill_level"`
	MaxCapacity *float64 `json:"max_capacity"`
	Percent     *float64 `json:"percent"`
	Temperature *float64 `json:"temperature"`
	PostalCode  any      `json:"postal_code"`
}

// column is a canonical telemetry field.
type column int

const (
	colTankID column = iota
	colTimestamp
	colConsumption
	colFillLevel
	colMaxCapacity
	colPercent
	colTemperature
	colPostalCode
	numColumns
)

// headerAliases maps normalized header names to canonical columns. The
// German names are the ones used by the sensor vendor's exports.
var headerAliases = map[string]column{
	"tank-id":             colTankID,
	"tank_id":             colTankID,
	"tankid":              colTankID,
	"tank":                colTankID,
	"zeitstempel":         colTimestamp,
	"timestamp":           colTimestamp,
	"date":                colTimestamp,
	"verbrauch":           colConsumption,
	"consumption":         colConsumption,
	"füllstand":           colFillLevel,
	"fill_level":          colFillLevel,
	"maximale füllgrenze": colMaxCapacity,
	"max_capacity":        colMaxCapacity,
	"capacity":            colMaxCapacity,
	"linear prozentwert":  colPercent,
	"percent":             colPercent,
	"temperatur":          colTemperature,
	"temperature":         colTemperature,
	"plz":                 colPostalCode,
	"postal_code":         colPostalCode,
}

// normalizeHeader lowercases a header cell and strips a UTF-8 BOM and quotes.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.Trim(strings.TrimSpace(h), `"`)
	return strings.ToLower(h)
}
