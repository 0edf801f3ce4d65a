package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"MineWatch/internal/domain/models"
	"MineWatch/internal/reporting"
	"MineWatch/internal/usecase"
	"MineWatch/pkg/config"
	applogger "MineWatch/pkg/logger"
)

// runCmd executes one full analysis
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fit lag models and rank commodities",
	Long: `Build growth signals for every cached mine, sweep price lags from 0 to
the horizon, select the best lag per commodity and rank commodities by the
growth their current price forecasts.

Flags override the analysis section of the config file.

Examples:
  minewatch run --start 2015-01-01 --end 2020-01-01 --horizon 90 --price Gold=1800
  minewatch run --refresh-mines --refresh-growth -v
  minewatch run --commodity Gold --commodity Copper --top 1 --json`,
	RunE: runAnalysis,
}

var (
	runStart           string
	runEnd             string
	runHorizon         int
	runMineSize        float64
	runControlSize     float64
	runPrices          []string
	runCommodities     []string
	runTop             int
	runCachePath       string
	runRefreshMines    bool
	runRefreshGrowth   bool
	runRefreshBaseline bool
	runJSON            bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringVar(&runStart, "start", "", "First day of the analysis window (YYYY-MM-DD)")
	f.StringVar(&runEnd, "end", "", "Last day of the analysis window (YYYY-MM-DD)")
	f.IntVar(&runHorizon, "horizon", 0, "Largest price lag to test, in days")
	f.Float64Var(&runMineSize, "mine-size", 0, "Mine footprint size in metres")
	f.Float64Var(&runControlSize, "control-size", 0, "Control region size in metres")
	f.StringArrayVar(&runPrices, "price", nil, "Current price as NAME=PRICE (repeatable)")
	f.StringSliceVar(&runCommodities, "commodity", nil, "Restrict the run to these commodities")
	f.IntVar(&runTop, "top", 0, "Print only the N best commodities (0 for all)")
	f.StringVar(&runCachePath, "cache", "", "Mine cache file")
	f.BoolVar(&runRefreshMines, "refresh-mines", false, "Rebuild the mine list from the registry")
	f.BoolVar(&runRefreshGrowth, "refresh-growth", false, "Refetch vegetation and rebuild growth signals")
	f.BoolVar(&runRefreshBaseline, "refresh-baseline", false, "Recompute per-mine baseline R-squared")
	f.BoolVar(&runJSON, "json", false, "Write the full report as JSON to stdout")
}

// applyRunFlags copies changed flags over the analysis config.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	a := &cfg.Analysis
	if f.Changed("start") {
		a.Start = runStart
	}
	if f.Changed("end") {
		a.End = runEnd
	}
	if f.Changed("horizon") {
		a.Horizon = runHorizon
	}
	if f.Changed("mine-size") {
		a.MineSize = runMineSize
	}
	if f.Changed("control-size") {
		a.ControlSize = runControlSize
	}
	if f.Changed("commodity") {
		a.Commodities = runCommodities
	}
	if f.Changed("top") {
		a.Top = runTop
	}
	if f.Changed("cache") {
		cfg.Store.MinesPath = runCachePath
	}
}

func analysisParams(cfg *config.Config) (usecase.AnalysisParams, error) {
	start, end, err := cfg.Analysis.Window()
	if err != nil {
		return usecase.AnalysisParams{}, err
	}
	if start.IsZero() || end.IsZero() {
		return usecase.AnalysisParams{}, errors.New("--start and --end are required (or analysis.start/end in config)")
	}
	commodities, err := parseCommodities(cfg.Analysis.Commodities)
	if err != nil {
		return usecase.AnalysisParams{}, err
	}
	current, err := currentPrices(cfg.Analysis.CurrentPrices, runPrices)
	if err != nil {
		return usecase.AnalysisParams{}, err
	}
	return usecase.AnalysisParams{
		Start:           start,
		End:             end,
		MaxLag:          cfg.Analysis.Horizon,
		MineSize:        cfg.Analysis.MineSize,
		ControlSize:     cfg.Analysis.ControlSize,
		Commodities:     commodities,
		CurrentPrices:   current,
		Top:             cfg.Analysis.Top,
		RefreshMines:    runRefreshMines,
		RefreshGrowth:   runRefreshGrowth,
		RefreshBaseline: runRefreshBaseline,
	}, nil
}

func runAnalysis(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid run parameters: %w", err)
	}
	params, err := analysisParams(cfg)
	if err != nil {
		return fmt.Errorf("invalid run parameters: %w", err)
	}

	app, err := startApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	rep, runErr := app.Analysis.Run(ctx, params)
	if pushErr := app.PushMetrics(ctx); pushErr != nil {
		app.Logger.Warn("metrics push failed", applogger.Error(pushErr))
	}
	if rep == nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	if runJSON {
		if err := reporting.WriteJSON(out, rep); err != nil {
			return err
		}
		return runErr
	}
	if verbosity > 0 {
		if err := reporting.WriteLagTable(out, rep); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	if runErr == nil {
		if err := reporting.WriteRanking(out, rep.Ranking); err != nil {
			return err
		}
	}
	if len(rep.Excluded) > 0 && (verbosity > 0 || errors.Is(runErr, models.ErrNoPredictiveModel)) {
		fmt.Fprintln(out)
		if err := reporting.WriteExclusions(out, rep.Excluded); err != nil {
			return err
		}
	}
	return runErr
}
