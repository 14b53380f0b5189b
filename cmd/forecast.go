package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/datapilots/tankcast/internal/cli"
	"github.com/datapilots/tankcast/internal/daemon"
	"github.com/datapilots/tankcast/internal/forecast"
	"github.com/datapilots/tankcast/internal/model"
	"github.com/datapilots/tankcast/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagExplore bool
	flagJSON    bool
)

var forecastCmd = &cobra.Command{
	Use:   "forecast [tank-id...]",
	Short: "Fit the consumption model and project the fill level",
	Long: "Fit a polynomial trend over each tank's recent consumption, forecast the\n" +
		"next days and project the fill level against the 20% reserve.",
	RunE: runForecast,
}

func init() {
	forecastCmd.Flags().BoolVar(&flagExplore, "explore", false, "Use the exploration degree from config instead of the reorder degree")
	forecastCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the forecast as JSON")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, args []string) error {
	degree := appCfg.Forecast.Degree
	if flagExplore {
		degree = appCfg.Forecast.ExploreDegree
	}
	opts, err := forecastOptions(cmd, degree)
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

	ids, err := parseTankArgs(args)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		ids = selectedTanks(result)
	}

	var responses []daemon.ForecastResponse
	for _, id := range ids {
		rec, err := pipeline.ForecastByID(result.Readings, id, opts)
		switch {
		case errors.Is(err, pipeline.ErrUnknownTank):
			return err
		case errors.Is(err, forecast.ErrEmptyHistory):
			fmt.Fprintf(os.Stderr, "  tank %d: no usable consumption history\n", id)
			continue
		case err != nil:
			return err
		}

		if flagJSON {
			responses = append(responses, daemon.NewForecastResponse(id, rec, opts))
			continue
		}
		printForecast(id, rec, opts)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(responses)
	}
	return nil
}

func parseTankArgs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid tank id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printForecast(id int, rec model.Recommendation, opts forecast.Options) {
	fit := rec.Fit
	state := rec.Tank

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FORECAST  Tank %d", id)))
	fmt.Println()

	coefs := make([]string, len(fit.Coefficients))
	for i, c := range fit.Coefficients {
		coefs[i] = strconv.FormatFloat(c, 'f', 3, 64)
	}

	training := make([]float64, len(fit.Training))
	for i, p := range fit.Training {
		training[i] = p.Consumption
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Model",
		Headers: []string{"Setting", "Value"},
		Rows: [][]string{
			{"Model", fit.Kind},
			{"Degree", strconv.Itoa(fit.Degree)},
			{"Context", fmt.Sprintf("%d records", len(fit.Training))},
			{"Horizon", cli.FormatDays(opts.Horizon)},
			{"Coefficients", strings.Join(coefs, "  ")},
			{"R²", fmt.Sprintf("%.3f", fit.RSquared)},
			{"History", cli.RenderSparkline(training)},
			{"Last Record", cli.FormatDate(fit.LastTrainingDate())},
		},
	}))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Tank",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Fill Level", cli.FormatLiters(state.FillLevel)},
			{"Capacity", cli.FormatLiters(state.MaxCapacity)},
			{"Reserve (20%)", cli.FormatLiters(rec.Reserve)},
			{"Gauge", cli.RenderFillGauge(state.FillLevel, state.MaxCapacity, rec.Reserve, 24)},
			{"---"},
			{"Avg Daily Use", cli.FormatLiters(rec.MeanDailyConsumption)},
			{"Reorder", cli.RenderStatus(
				cli.FormatOutlook(rec.ReorderDate, rec.DaysUntilReorder, rec.HasReorder, "not within horizon"),
				rec.HasReorder, rec.DaysUntilReorder, reorderWarnDays)},
			{"Empty", cli.FormatOutlook(rec.EmptyDate, rec.DaysUntilEmpty, rec.HasEmpty, "not within horizon")},
		},
	}))
	fmt.Println()

	rows := make([][]string, 0, len(rec.Trajectory))
	for _, p := range rec.Trajectory {
		mark := ""
		switch {
		case rec.HasEmpty && p.Day == rec.DaysUntilEmpty:
			mark = "empty"
		case rec.HasReorder && p.Day == rec.DaysUntilReorder:
			mark = "reorder"
		}
		rows = append(rows, []string{
			strconv.Itoa(p.Day),
			cli.FormatDate(p.Timestamp),
			cli.FormatLiters(p.Consumption),
			cli.FormatLiters(p.FillLevel),
			mark,
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Projection",
		Headers:  []string{"Day", "Date", "Forecast", "Fill", ""},
		Rows:     rows,
		LeftCols: 2,
	}))
}
