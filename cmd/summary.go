package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/datapilots/tankcast/internal/cli"
	"github.com/datapilots/tankcast/internal/model"
	"github.com/datapilots/tankcast/internal/pipeline"

	"github.com/spf13/cobra"
)

var flagNoPrices bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Fleet summary for the latest day with deltas to the day before",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().BoolVar(&flagNoPrices, "no-prices", false, "Skip the oil price lookup")
	rootCmd.Flags().BoolVar(&flagNoPrices, "no-prices", false, "Skip the oil price lookup")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}
	if len(result.Readings) == 0 {
		noData()
		return nil
	}

	today, yesterday := pipeline.Snapshots(result.Readings)
	today = pipeline.FilterTanks(today, flagTanks)
	yesterday = pipeline.FilterTanks(yesterday, flagTanks)

	if appCfg.Prices.Enabled && !flagNoPrices {
		first, last := pipeline.DateRange(result.Readings)
		quotes := lookupPrices(cmd.Context(), pipeline.PostalCodes(result.Readings), first.AddDate(0, 0, -1), last)
		today = pipeline.JoinPrices(today, quotes)
		yesterday = pipeline.JoinPrices(yesterday, quotes)
	}

	cmp := pipeline.Compare(today, yesterday)
	cur, prev := cmp.Current, cmp.Previous

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("TANK FLEET  %s", cli.FormatDate(cur.Date))))
	fmt.Println()

	rows := [][]string{
		{"Sensors", cli.FormatNumber(int64(cur.Sensors)), cli.FormatNumber(int64(prev.Sensors)), ""},
		{"Total Fill", cli.FormatLiters(cur.TotalLiters), cli.FormatLiters(prev.TotalLiters),
			deltaCell(cur.TotalLiters, prev.TotalLiters, prev.Sensors > 0, cli.FormatLiters)},
		{"Avg Utilization", cli.FormatPercent(cur.AvgUtilization), cli.FormatPercent(prev.AvgUtilization),
			deltaCell(cur.AvgUtilization, prev.AvgUtilization, prev.Sensors > 0, cli.FormatPercent)},
	}
	if cur.HasOilPrice || prev.HasOilPrice {
		rows = append(rows, []string{"Avg Oil Price",
			optionalPrice(cur), optionalPrice(prev),
			deltaCell(cur.AvgOilPrice, prev.AvgOilPrice, cur.HasOilPrice && prev.HasOilPrice, cli.FormatPrice)})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Today vs Yesterday",
		Headers: []string{"Metric", "Today", "Yesterday", "Delta"},
		Rows:    rows,
	}))

	if len(today) > 0 {
		fmt.Println()
		fmt.Print(cli.RenderTable(snapshotTable("Latest Readings", today)))
	}
	fmt.Println()
	return nil
}

func deltaCell(cur, prev float64, ok bool, format func(float64) string) string {
	if !ok {
		return cli.Placeholder
	}
	return cli.FormatDelta(cur, prev, format)
}

func optionalPrice(s model.DashboardSummary) string {
	if !s.HasOilPrice {
		return cli.Placeholder
	}
	return cli.FormatPrice(s.AvgOilPrice)
}

func snapshotTable(title string, snaps []model.TankSnapshot) cli.Table {
	var rows [][]string
	for _, s := range snaps {
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.TankID),
			cli.FormatTimestamp(s.Timestamp),
			cli.FormatOptionalLiters(s.FillLevel),
			cli.FormatOptionalLiters(s.MaxCapacity),
			cli.FormatOptionalPercent(s.Percent),
			cli.FormatTemperature(s.Temperature),
			orPlaceholder(s.PostalCode),
			cli.FormatOptionalPrice(s.OilPrice),
		})
	}
	return cli.Table{
		Title:    title,
		Headers:  []string{"Tank", "Reading", "Fill", "Capacity", "Level", "Temp", "PLZ", "Oil Price"},
		Rows:     rows,
		LeftCols: 2,
	}
}

func orPlaceholder(s string) string {
	if s == "" {
		return cli.Placeholder
	}
	return s
}

// lookupPrices fetches quotes for the postal codes with a bounded timeout.
// Failures degrade to an empty result.
func lookupPrices(ctx context.Context, plzs []string, from, to time.Time) []model.OilPrice {
	if len(plzs) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	src, cache := priceBackends()
	if cache != nil {
		defer func() { _ = cache.Close() }()
		return pipeline.FetchPrices(ctx, src, cache, plzs, from, to, appCfg.Prices.PriceCacheTTL())
	}
	return pipeline.FetchPrices(ctx, src, nil, plzs, from, to, appCfg.Prices.PriceCacheTTL())
}
