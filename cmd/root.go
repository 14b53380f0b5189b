package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/datapilots/tankcast/internal/cli"
	"github.com/datapilots/tankcast/internal/config"
	"github.com/datapilots/tankcast/internal/forecast"
	"github.com/datapilots/tankcast/internal/pipeline"
	"github.com/datapilots/tankcast/internal/store"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagDataDir string
	flagTanks   []int
	flagNoCache bool
	flagQuiet   bool
	flagVerbose bool
	flagContext int
	flagHorizon int
	flagDegree  int
	flagModel   string
)

// appCfg is the loaded configuration with flag overrides applied.
var appCfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "tankcast",
	Short: "Heating oil tank forecasts and reorder dates",
	Long: "Forecast heating oil consumption from tank telemetry and find out when\n" +
		"each tank drops below its reserve and needs a refill.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagDataDir, "data-dir", "d", "", "Telemetry directory (default from config)")
	pf.IntSliceVarP(&flagTanks, "tank", "t", nil, "Restrict output to these tank ids")
	pf.BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse everything")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	pf.IntVar(&flagContext, "context", 0, "Trailing records used to fit the model (default from config)")
	pf.IntVar(&flagHorizon, "horizon", 0, "Days to forecast (default from config)")
	pf.IntVar(&flagDegree, "degree", 0, "Polynomial degree (default from config)")
	pf.StringVarP(&flagModel, "model", "m", "", "Forecast model (default from config)")
}

// setup configures logging and loads the config file, then applies flags.
func setup(cmd *cobra.Command, _ []string) error {
	level := zerolog.WarnLevel
	switch {
	case flagVerbose:
		level = zerolog.DebugLevel
	case flagQuiet:
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	cfg, err := config.Load()
	if err != nil {
		if !repairsConfig(cmd) {
			return err
		}
		log.Warn().Err(err).Msg("ignoring unreadable config file")
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.General.DataDir = flagDataDir
	}
	if flags.Changed("context") {
		cfg.Forecast.ContextDays = flagContext
	}
	if flags.Changed("horizon") {
		cfg.Forecast.HorizonDays = flagHorizon
	}
	if flags.Changed("model") {
		cfg.Forecast.Model = flagModel
	}
	if err := cfg.Validate(); err != nil {
		if !repairsConfig(cmd) {
			return err
		}
		log.Warn().Err(err).Msg("config is invalid, run `tankcast setup` to repair it")
	}

	appCfg = cfg
	log.Debug().Str("data_dir", cfg.General.DataDir).Str("config", config.Path()).Msg("configuration loaded")
	return nil
}

// repairsConfig reports whether cmd must run on a broken config: setup
// rewrites it and config displays it.
func repairsConfig(cmd *cobra.Command) bool {
	return cmd == setupCmd || cmd == configCmd
}

// forecastOptions builds forecaster options. --degree wins over fallback.
func forecastOptions(cmd *cobra.Command, fallback int) (forecast.Options, error) {
	degree := fallback
	if cmd.Flags().Changed("degree") {
		degree = flagDegree
	}
	return appCfg.Forecast.Options(degree)
}

// loadData is the shared data loading path used by all commands.
// Uses SQLite cache when available for fast subsequent runs. Excluded tanks
// are dropped.
func loadData() (*pipeline.LoadResult, error) {
	dataDir := appCfg.General.DataDir
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning %s...\n", dataDir)
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%50 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Parsing %s", cli.RenderProgressBar(current, total, 20))
		}
	}

	result, err := loadReadings(dataDir, progressFn)
	if err != nil {
		return nil, err
	}
	result.Readings = pipeline.ExcludeTanks(result.Readings, appCfg.General.ExcludedTanks)
	result.TankCount = pipeline.CountTanks(result.Readings)
	return result, nil
}

func loadReadings(dataDir string, progressFn pipeline.ProgressFunc) (*pipeline.LoadResult, error) {
	if !flagNoCache {
		cache, err := store.Open(config.CachePath())
		if err != nil {
			log.Warn().Err(err).Msg("cache unavailable, doing full parse")
		} else {
			defer func() { _ = cache.Close() }()

			cr, err := pipeline.LoadWithCache(dataDir, cache, progressFn)
			if err != nil {
				log.Warn().Err(err).Msg("cache error, falling back to full parse")
			} else {
				if !flagQuiet && cr.TotalFiles > 0 {
					if cr.Reparsed == 0 {
						fmt.Fprintf(os.Stderr, "\r  Loaded %s readings from cache (%d tanks)    \n",
							cli.FormatNumber(int64(len(cr.Readings))), cr.TankCount)
					} else {
						fmt.Fprintf(os.Stderr, "\r  %d cached + %d reparsed files (%d tanks)    \n",
							cr.CacheHits, cr.Reparsed, cr.TankCount)
					}
				}
				return &cr.LoadResult, nil
			}
		}
	}

	result, err := pipeline.Load(dataDir, progressFn)
	if err != nil {
		return nil, err
	}

	if !flagQuiet && result.TotalFiles > 0 {
		fmt.Fprintf(os.Stderr, "\r  Parsed %s readings from %d files (%d tanks)    \n",
			cli.FormatNumber(int64(len(result.Readings))), result.ParsedFiles, result.TankCount)
	}
	if result.ParseErrors > 0 || result.FileErrors > 0 {
		log.Info().Int("rows", result.ParseErrors).Int("files", result.FileErrors).Msg("skipped unreadable telemetry")
	}

	return result, nil
}

// selectedTanks narrows readings to --tank when given.
func selectedTanks(res *pipeline.LoadResult) []int {
	ids := pipeline.TankIDs(res.Readings)
	if len(flagTanks) == 0 {
		return ids
	}
	want := make(map[int]struct{}, len(flagTanks))
	for _, id := range flagTanks {
		want[id] = struct{}{}
	}
	var out []int
	for _, id := range ids {
		if _, ok := want[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func noData() {
	fmt.Printf("\n  No telemetry found in %s\n\n", appCfg.General.DataDir)
}
