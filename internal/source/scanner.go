package source

import (
	"os"
	"path/filepath"
	"strings"
)

// ScanDir walks the data directory and discovers telemetry exports
// (*.csv and *.jsonl). Hidden directories are skipped. A missing directory
// yields no files and no error.
func ScanDir(dataDir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(dataDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		name := d.Name()
		if d.IsDir() {
			if path != dataDir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		var format Format
		switch strings.ToLower(filepath.Ext(name)) {
		case ".csv":
			format = FormatCSV
		case ".jsonl":
			format = FormatJSONL
		default:
			return nil
		}

		rel, _ := filepath.Rel(dataDir, path)
		files = append(files, DiscoveredFile{Path: path, RelPath: rel, Format: format})
		return nil
	})

	return files, err
}

// CountFormats returns how many discovered files use each format.
func CountFormats(files []DiscoveredFile) (csvFiles, jsonlFiles int) {
	for _, f := range files {
		if f.Format == FormatJSONL {
			jsonlFiles++
		} else {
			csvFiles++
		}
	}
	return csvFiles, jsonlFiles
}
