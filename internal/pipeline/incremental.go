package pipeline

import (
	"fmt"
	"os"

	"github.com/datapilots/tankcast/internal/source"
	"github.com/datapilots/tankcast/internal/store"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Reparsed  int
	Pruned    int
}

func logger() *zerolog.Logger {
	l := log.With().Str("component", "pipeline").Logger()
	return &l
}

// LoadWithCache discovers, diffs against cache, parses only changed files,
// and returns the combined result set. Files that disappeared from dataDir
// are pruned from the cache.
func LoadWithCache(dataDir string, cache *store.Cache, progressFn ProgressFunc) (*CachedLoadResult, error) {
	files, err := source.ScanDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	result := &CachedLoadResult{
		LoadResult: LoadResult{TotalFiles: len(files)},
	}

	present := make(map[string]struct{}, len(files))
	var toReparse []source.DiscoveredFile
	unchanged := make(map[string]struct{})

	for _, f := range files {
		present[f.Path] = struct{}{}
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}

		cached, ok := tracked[f.Path]
		if ok && cached.MtimeNs == info.ModTime().UnixNano() && cached.SizeBytes == info.Size() {
			unchanged[f.Path] = struct{}{}
		} else {
			toReparse = append(toReparse, f)
		}
	}

	for path := range tracked {
		if _, ok := present[path]; ok {
			continue
		}
		if err := cache.DeleteFile(path); err != nil {
			return nil, fmt.Errorf("pruning %s: %w", path, err)
		}
		result.Pruned++
	}

	result.CacheHits = len(unchanged)
	result.Reparsed = len(toReparse)

	if len(unchanged) > 0 {
		cached, err := cache.LoadAllReadings()
		if err != nil {
			return nil, fmt.Errorf("loading cached readings: %w", err)
		}
		for _, r := range cached {
			if _, ok := unchanged[r.FilePath]; ok {
				result.Readings = append(result.Readings, r)
			}
		}
		result.ParsedFiles += len(unchanged)
	}

	if len(toReparse) > 0 {
		results := parseFiles(toReparse, func(n int) {
			if progressFn != nil {
				progressFn(n+result.CacheHits, result.TotalFiles)
			}
		})

		for i, pr := range results {
			if pr.Err != nil {
				result.FileErrors++
				logger().Debug().Err(pr.Err).Str("file", toReparse[i].Path).Msg("skipping unreadable telemetry file")
				continue
			}
			result.ParsedFiles++
			result.ParseErrors += pr.ParseErrors
			result.Readings = append(result.Readings, pr.Readings...)

			info, err := os.Stat(toReparse[i].Path)
			if err == nil {
				if err := cache.SaveFile(toReparse[i].Path, pr.Readings, info.ModTime().UnixNano(), info.Size()); err != nil {
					logger().Warn().Err(err).Str("file", toReparse[i].Path).Msg("caching parsed file failed")
				}
			}
		}
	}

	result.TankCount = CountTanks(result.Readings)
	logger().Debug().
		Int("files", result.TotalFiles).
		Int("cache_hits", result.CacheHits).
		Int("reparsed", result.Reparsed).
		Int("pruned", result.Pruned).
		Msg("telemetry loaded")

	return result, nil
}
