package cmd

import (
	"fmt"
	"strconv"

	"github.com/datapilots/tankcast/internal/cli"
	"github.com/datapilots/tankcast/internal/pipeline"

	"github.com/spf13/cobra"
)

// reorderWarnDays is the lead time at which a reorder is shown as urgent.
const reorderWarnDays = 7

var flagDueOnly bool

var reorderCmd = &cobra.Command{
	Use:   "reorder",
	Short: "Reorder dates for all tanks, soonest first",
	RunE:  runReorder,
}

func init() {
	reorderCmd.Flags().BoolVar(&flagDueOnly, "due", false, "Only list tanks that need a refill within the horizon")
	rootCmd.AddCommand(reorderCmd)
}

func runReorder(cmd *cobra.Command, _ []string) error {
	opts, err := forecastOptions(cmd, appCfg.Forecast.Degree)
	if err != nil {
		return err
	}
	result, err := loadData()
	if err != nil {
		return err
	}
	if len(result.Readings) == 0 {
		noData()
		return nil
	}

	readings := result.Readings
	if len(flagTanks) > 0 {
		readings = pipeline.FilterReadings(readings, flagTanks)
	}

	fcs := pipeline.ForecastAll(readings, opts)
	pipeline.SortByReorder(fcs)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("REORDER OUTLOOK  Next %s", cli.FormatDays(opts.Horizon))))
	fmt.Println()

	var rows [][]string
	var due, failed int
	for _, fc := range fcs {
		rec := fc.Recommendation
		if fc.Err != nil {
			failed++
			if flagDueOnly {
				continue
			}
			rows = append(rows, []string{
				strconv.Itoa(fc.TankID),
				cli.FormatLiters(rec.Tank.FillLevel),
				cli.FormatLiters(rec.Reserve),
				cli.Placeholder, cli.Placeholder, cli.Placeholder,
			})
			continue
		}
		if rec.HasReorder {
			due++
		} else if flagDueOnly {
			continue
		}
		rows = append(rows, []string{
			strconv.Itoa(fc.TankID),
			cli.FormatLiters(rec.Tank.FillLevel),
			cli.FormatLiters(rec.Reserve),
			cli.FormatLiters(rec.MeanDailyConsumption),
			cli.RenderStatus(
				cli.FormatOutlook(rec.ReorderDate, rec.DaysUntilReorder, rec.HasReorder, "ok"),
				rec.HasReorder, rec.DaysUntilReorder, reorderWarnDays),
			cli.FormatOutlook(rec.EmptyDate, rec.DaysUntilEmpty, rec.HasEmpty, cli.Placeholder),
		})
	}

	if len(rows) == 0 {
		fmt.Println("  No tanks need a refill within the horizon.")
		fmt.Println()
		return nil
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Tank", "Fill", "Reserve", "Avg/Day", "Reorder", "Empty"},
		Rows:    rows,
	}))
	fmt.Printf("\n  %d of %d tanks due", due, len(fcs))
	if failed > 0 {
		fmt.Printf(", %d without usable history", failed)
	}
	fmt.Println()
	fmt.Println()
	return nil
}
