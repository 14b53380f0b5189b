// Package cmd implements the tankcast CLI commands.
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/datapilots/tankcast/internal/cli"
	"github.com/datapilots/tankcast/internal/config"
	"github.com/datapilots/tankcast/internal/store"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// runConfig prints the effective configuration, including env and flag
// overrides applied in setup.
func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Printf("  Cache:       %s\n", config.CachePath())
	if cache, err := store.Open(config.CachePath()); err == nil {
		if n, err := cache.ReadingCount(); err == nil {
			fmt.Printf("  Cached:      %s readings\n", cli.FormatNumber(int64(n)))
		}
		_ = cache.Close()
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory: %s\n", cfg.General.DataDir)
	if len(cfg.General.ExcludedTanks) > 0 {
		fmt.Printf("    Excluded tanks: %s\n", joinInts(cfg.General.ExcludedTanks))
	}
	fmt.Println()

	fmt.Println("  [Forecast]")
	fmt.Printf("    Model:          %s\n", cfg.Forecast.Model)
	fmt.Printf("    Context:        %d records\n", cfg.Forecast.ContextDays)
	fmt.Printf("    Horizon:        %d days\n", cfg.Forecast.HorizonDays)
	fmt.Printf("    Reorder degree: %d\n", cfg.Forecast.Degree)
	fmt.Printf("    Explore degree: %d\n", cfg.Forecast.ExploreDegree)
	fmt.Println()

	fmt.Println("  [Prices]")
	fmt.Printf("    Enabled:   %v\n", cfg.Prices.Enabled)
	if cfg.Prices.BaseURL != "" {
		fmt.Printf("    Base URL:  %s\n", cfg.Prices.BaseURL)
	}
	fmt.Printf("    Rate:      %.1f req/s\n", cfg.Prices.RequestsPerSecond)
	fmt.Printf("    Cache TTL: %s\n", cfg.Prices.PriceCacheTTL())
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.Daemon.Interval())
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Auto refresh: %v every %ds\n", cfg.TUI.AutoRefresh, cfg.TUI.RefreshIntervalSec)
	fmt.Println()

	fmt.Println("  Run `tankcast setup` to reconfigure.")
	return nil
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}
