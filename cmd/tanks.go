package cmd

import (
	"fmt"

	"github.com/datapilots/tankcast/internal/cli"
	"github.com/datapilots/tankcast/internal/pipeline"

	"github.com/spf13/cobra"
)

var flagMaxPercent float64

var tanksCmd = &cobra.Command{
	Use:   "tanks",
	Short: "Latest fill level of every tank",
	RunE:  runTanks,
}

func init() {
	tanksCmd.Flags().Float64Var(&flagMaxPercent, "max-percent", 100, "Only show tanks at or below this fill percentage")
	rootCmd.AddCommand(tanksCmd)
}

func runTanks(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}
	if len(result.Readings) == 0 {
		noData()
		return nil
	}

	today, _ := pipeline.Snapshots(result.Readings)
	today = pipeline.FilterTanks(today, flagTanks)
	today = pipeline.FilterMaxPercent(today, flagMaxPercent)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("TANKS  %d sensors", len(today))))
	fmt.Println()

	if len(today) == 0 {
		fmt.Printf("  No tanks at or below %s.\n\n", cli.FormatPercent(flagMaxPercent))
		return nil
	}

	states := pipeline.LatestStates(result.Readings)
	var rows [][]string
	for _, s := range today {
		state := states[s.TankID]
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.TankID),
			cli.FormatTimestamp(s.Timestamp),
			cli.RenderFillGauge(state.FillLevel, state.MaxCapacity, state.ReserveThreshold(), 20),
			cli.FormatOptionalLiters(s.FillLevel),
			cli.FormatOptionalPercent(s.Percent),
			cli.FormatLiters(state.ReserveThreshold()),
			orPlaceholder(s.PostalCode),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Tank", "Reading", "Gauge", "Fill", "Level", "Reserve", "PLZ"},
		Rows:     rows,
		LeftCols: 3,
	}))
	fmt.Println()
	return nil
}
