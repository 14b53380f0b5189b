package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeExport creates a temp telemetry file and returns a DiscoveredFile for it.
func writeExport(t *testing.T, name string, lines ...string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	format := FormatCSV
	if strings.HasSuffix(name, ".jsonl") {
		format = FormatJSONL
	}
	return DiscoveredFile{Path: path, RelPath: name, Format: format}
}

func TestParseFile_GermanCSV(t *testing.T) {
	df := writeExport(t, "tanks.csv",
		`Tank-ID,Zeitstempel,Verbrauch,Füllstand,Maximale Füllgrenze,Linear Prozentwert,Temperatur,PLZ`,
		`1,2024-03-01 06:00:00,-12.5,1800,3000,60,7.5,79100.0`,
		`1,2024-03-02 06:00:00,4,1804,3000,60.1,8,79100.0`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Readings) != 2 {
		t.Fatalf("readings = %d, want 2", len(result.Readings))
	}

	r := result.Readings[0]
	if r.TankID != 1 {
		t.Errorf("TankID = %d, want 1", r.TankID)
	}
	want := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	if !r.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %s, want %s", r.Timestamp, want)
	}
	if r.Consumption == nil || *r.Consumption != -12.5 {
		t.Errorf("Consumption = %v, want -12.5", r.Consumption)
	}
	if r.FillLevel == nil || *r.FillLevel != 1800 {
		t.Errorf("FillLevel = %v, want 1800", r.FillLevel)
	}
	if r.MaxCapacity == nil || *r.MaxCapacity != 3000 {
		t.Errorf("MaxCapacity = %v, want 3000", r.MaxCapacity)
	}
	if r.PostalCode != "79100" {
		t.Errorf("PostalCode = %q, want 79100", r.PostalCode)
	}
	if r.FilePath != df.Path {
		t.Errorf("FilePath = %q, want %q", r.FilePath, df.Path)
	}
}

func TestParseFile_MissingCells(t *testing.T) {
	df := writeExport(t, "gaps.csv",
		`tank_id,timestamp,consumption,fill_level`,
		`2,2024-03-01,,500`,
		`2,,-3,NaN`,
		`2,not-a-date,abc,null`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Readings) != 3 {
		t.Fatalf("readings = %d, want 3", len(result.Readings))
	}
	if result.Readings[0].Consumption != nil {
		t.Errorf("empty consumption should be nil, got %v", *result.Readings[0].Consumption)
	}
	if result.Readings[1].HasTimestamp() {
		t.Error("empty timestamp should be missing")
	}
	if result.Readings[1].FillLevel != nil {
		t.Error("NaN fill level should be nil")
	}
	if result.Readings[2].HasTimestamp() || result.Readings[2].Consumption != nil {
		t.Errorf("unparseable cells should be missing: %+v", result.Readings[2])
	}
}

func TestParseFile_SkipsRowsWithoutTankID(t *testing.T) {
	df := writeExport(t, "bad.csv",
		`tank_id,timestamp,consumption`,
		`,2024-03-01,-1`,
		`x,2024-03-01,-1`,
		`3.0,2024-03-01,-1`,
		`3.5,2024-03-01,-1`,
	)

	result := ParseFile(df)
	if result.ParseErrors != 3 {
		t.Errorf("ParseErrors = %d, want 3", result.ParseErrors)
	}
	if len(result.Readings) != 1 || result.Readings[0].TankID != 3 {
		t.Errorf("readings = %+v, want one reading for tank 3", result.Readings)
	}
}

func TestParseFile_SemicolonDecimalComma(t *testing.T) {
	df := writeExport(t, "export.csv",
		`Tank-ID;Zeitstempel;Verbrauch;Füllstand`,
		`4;2024-03-01;-2,75;1200,5`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Readings) != 1 {
		t.Fatalf("readings = %d, want 1", len(result.Readings))
	}
	r := result.Readings[0]
	if r.Consumption == nil || *r.Consumption != -2.75 {
		t.Errorf("Consumption = %v, want -2.75", r.Consumption)
	}
	if r.FillLevel == nil || *r.FillLevel != 1200.5 {
		t.Errorf("FillLevel = %v, want 1200.5", r.FillLevel)
	}
}

func TestParseFile_NoTankColumn(t *testing.T) {
	df := writeExport(t, "other.csv", `a,b,c`, `1,2,3`)
	result := ParseFile(df)
	if result.Err == nil {
		t.Fatal("expected an error for a header without tank id")
	}
}

func TestParseFile_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	result := ParseFile(DiscoveredFile{Path: path, Format: FormatCSV})
	if result.Err != nil || len(result.Readings) != 0 {
		t.Errorf("empty file: err=%v readings=%d", result.Err, len(result.Readings))
	}
}

func TestParseFile_JSONL(t *testing.T) {
	df := writeExport(t, "tank.jsonl",
		`{"tank_id":7,"timestamp":"2024-03-01T06:00:00Z","consumption":-3.5,"fill_level":900,"max_capacity":1500,"postal_code":"10115"}`,
		`{"tank_id":"7","timestamp":"2024-03-02T06:00:00Z","consumption":null,"postal_code":10115.0}`,
		`not json`,
		``,
		`{"timestamp":"2024-03-03T06:00:00Z"}`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.ParseErrors != 2 {
		t.Errorf("ParseErrors = %d, want 2", result.ParseErrors)
	}
	if len(result.Readings) != 2 {
		t.Fatalf("readings = %d, want 2", len(result.Readings))
	}
	if *result.Readings[0].Consumption != -3.5 || result.Readings[0].PostalCode != "10115" {
		t.Errorf("reading 0 = %+v", result.Readings[0])
	}
	if result.Readings[1].Consumption != nil {
		t.Error("null consumption should be nil")
	}
	if result.Readings[1].PostalCode != "10115" {
		t.Errorf("numeric postal code = %q, want 10115", result.Readings[1].PostalCode)
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"a.csv", "sub/b.jsonl", "sub/notes.txt", ".hidden/c.csv"} {
		full := filepath.Join(dir, p)
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("tank_id\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	csvFiles, jsonlFiles := CountFormats(files)
	if csvFiles != 1 || jsonlFiles != 1 {
		t.Errorf("csv=%d jsonl=%d, want 1 and 1 (%v)", csvFiles, jsonlFiles, files)
	}

	missing, err := ScanDir(filepath.Join(dir, "nope"))
	if err != nil || missing != nil {
		t.Errorf("missing dir: files=%v err=%v", missing, err)
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01T06:30:00Z", time.Date(2024, 3, 1, 6, 30, 0, 0, time.UTC)},
		{"2024-03-01 06:30:00", time.Date(2024, 3, 1, 6, 30, 0, 0, time.UTC)},
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"01.03.2024", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"yesterday", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseTimestamp(tt.in); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func FuzzParseRecord(f *testing.F) {
	idx, err := headerIndex(strings.Split("Tank-ID,Zeitstempel,Verbrauch,Füllstand,PLZ", ","))
	if err != nil {
		f.Fatal(err)
	}
	f.Add("1,2024-03-01,-5,100,79100.0")
	f.Add("x,,,,")
	f.Add("1e400,NaN,Inf,-Inf,")
	f.Add("")
	f.Add(",,,,,,,,,,")

	f.Fuzz(func(t *testing.T, line string) {
		// Must never panic
		rec := strings.Split(line, ",")
		r, ok := parseRecord(rec, idx, false)
		if !ok {
			return
		}
		if r.Consumption != nil && *r.Consumption != *r.Consumption {
			t.Errorf("NaN consumption leaked from %q", line)
		}
	})
}
