// Package pipeline loads telemetry, groups it per tank and orchestrates
// cleaning, forecasting and price enrichment.
package pipeline

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/datapilots/tankcast/internal/model"
	"github.com/datapilots/tankcast/internal/source"
)

// LoadResult holds the output of the full data loading pipeline.
type LoadResult struct {
	Readings    []model.Reading
	TotalFiles  int
	ParsedFiles int
	ParseErrors int
	FileErrors  int
	TankCount   int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load discovers and parses all telemetry files under dataDir.
// It uses a bounded worker pool for parallel parsing.
func Load(dataDir string, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.ScanDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}

	result := &LoadResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	results := parseFiles(files, func(n int) {
		if progressFn != nil {
			progressFn(n, len(files))
		}
	})

	for _, pr := range results {
		if pr.Err != nil {
			result.FileErrors++
			logger().Debug().Err(pr.Err).Msg("skipping unreadable telemetry file")
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += pr.ParseErrors
		result.Readings = append(result.Readings, pr.Readings...)
	}
	result.TankCount = CountTanks(result.Readings)

	return result, nil
}

// parseFiles parses files with GOMAXPROCS workers. Results keep the input
// order. done receives the running count of finished files.
func parseFiles(files []source.DiscoveredFile, done func(n int)) []source.ParseResult {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]source.ParseResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.ParseFile(files[idx])
				done(int(processed.Add(1)))
			}
		}()
	}

	wg.Wait()
	return results
}
