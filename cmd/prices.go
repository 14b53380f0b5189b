package cmd

import (
	"fmt"
	"time"

	"github.com/datapilots/tankcast/internal/cli"
	"github.com/datapilots/tankcast/internal/config"
	"github.com/datapilots/tankcast/internal/pipeline"
	"github.com/datapilots/tankcast/internal/prices"
	"github.com/datapilots/tankcast/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var flagPriceDays int

var pricesCmd = &cobra.Command{
	Use:   "prices [plz...]",
	Short: "Local heating oil price history",
	Long: "Show heating oil quotes for the given postal codes. Without arguments,\n" +
		"the postal codes of all tanks in the data directory are used.",
	RunE: runPrices,
}

func init() {
	pricesCmd.Flags().IntVar(&flagPriceDays, "days", 14, "Number of days of history")
	rootCmd.AddCommand(pricesCmd)
}

// priceBackends builds the price client and opens the price cache. The
// cache is nil when --no-cache is set or the database cannot be opened.
func priceBackends() (*prices.Client, *store.Cache) {
	client := prices.NewClient(prices.Options{
		BaseURL:           appCfg.Prices.BaseURL,
		RequestsPerSecond: appCfg.Prices.RequestsPerSecond,
	})
	if flagNoCache {
		return client, nil
	}
	cache, err := store.Open(config.CachePath())
	if err != nil {
		log.Warn().Err(err).Msg("price cache unavailable")
		return client, nil
	}
	return client, cache
}

func runPrices(cmd *cobra.Command, args []string) error {
	if flagPriceDays <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	plzs := args
	if len(plzs) == 0 {
		result, err := loadData()
		if err != nil {
			return err
		}
		plzs = pipeline.PostalCodes(result.Readings)
	}
	if len(plzs) == 0 {
		fmt.Println("\n  No postal codes found. Pass one as an argument.")
		return nil
	}

	to := time.Now()
	from := to.AddDate(0, 0, -flagPriceDays)
	quotes := lookupPrices(cmd.Context(), plzs, from, to)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("HEATING OIL PRICES  Last %dd", flagPriceDays)))
	fmt.Println()

	if len(quotes) == 0 {
		fmt.Println("  No quotes available.")
		fmt.Println()
		return nil
	}

	byPLZ := make(map[string][]float64)
	var rows [][]string
	for _, q := range quotes {
		byPLZ[q.PostalCode] = append(byPLZ[q.PostalCode], q.Price)
		rows = append(rows, []string{
			q.PostalCode,
			cli.FormatDate(q.Date),
			cli.FormatDayOfWeek(int(q.Date.Weekday())),
			cli.FormatPrice(q.Price),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Quotes (" + prices.Unit + ")",
		Headers:  []string{"PLZ", "Date", "Day", "Price"},
		Rows:     rows,
		LeftCols: 3,
	}))

	fmt.Println()
	for _, plz := range plzs {
		series := byPLZ[plz]
		if len(series) == 0 {
			continue
		}
		fmt.Printf("  %s  %s  %s\n", plz, cli.RenderSparkline(series), cli.FormatPrice(series[len(series)-1]))
	}
	fmt.Println()
	return nil
}
