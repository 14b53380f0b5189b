package cmd

import (
	"errors"
	"fmt"

	"github.com/datapilots/tankcast/internal/config"
	"github.com/datapilots/tankcast/internal/source"
	"github.com/datapilots/tankcast/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// A missing directory is fine here, the wizard asks for it.
	files, _ := source.ScanDir(appCfg.General.DataDir)
	csvFiles, jsonlFiles := source.CountFormats(files)

	cfg, err := tui.RunSetup(appCfg, csvFiles+jsonlFiles)
	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Println("  Setup cancelled, nothing saved.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Printf("  Telemetry: %s (%d CSV, %d JSONL files)\n", cfg.General.DataDir, csvFiles, jsonlFiles)
	fmt.Println("  Run `tankcast setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
