package cmd

import (
	"fmt"

	"github.com/datapilots/tankcast/internal/cleaner"
	"github.com/datapilots/tankcast/internal/cli"

	"github.com/spf13/cobra"
)

var flagHistoryDays int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Daily consumption per tank",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryDays, "days", 14, "Number of most recent days to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	if flagHistoryDays <= 0 {
		return fmt.Errorf("--days must be positive")
	}
	result, err := loadData()
	if err != nil {
		return err
	}
	ids := selectedTanks(result)
	if len(ids) == 0 {
		noData()
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DAILY CONSUMPTION  Last %dd", flagHistoryDays)))

	for _, id := range ids {
		daily := cleaner.DailyTotals(cleaner.CleanTank(result.Readings, id))
		if len(daily) == 0 {
			continue
		}
		if len(daily) > flagHistoryDays {
			daily = daily[len(daily)-flagHistoryDays:]
		}

		var total float64
		values := make([]float64, len(daily))
		rows := make([][]string, 0, len(daily)+2)
		for i, d := range daily {
			values[i] = d.Consumption
			total += d.Consumption
			rows = append(rows, []string{
				cli.FormatDate(d.Timestamp),
				cli.FormatDayOfWeek(int(d.Timestamp.Weekday())),
				cli.FormatLiters(d.Consumption),
			})
		}
		rows = append(rows, []string{"---"})
		rows = append(rows, []string{"Average", "", cli.FormatLiters(total / float64(len(daily)))})

		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:    fmt.Sprintf("Tank %d  %s", id, cli.RenderSparkline(values)),
			Headers:  []string{"Date", "Day", "Consumed"},
			Rows:     rows,
			LeftCols: 2,
		}))
	}
	fmt.Println()
	return nil
}

