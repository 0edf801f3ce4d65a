package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"MineWatch/internal/domain/models"
	"MineWatch/internal/reporting"
)

// pricesCmd groups price store operations
var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Manage the local price store",
}

var pricesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy upstream price history into ClickHouse",
	Long: `Fetch each commodity's price history from the dataset API and upsert it
into ClickHouse, so runs with prices.backend=clickhouse work offline.

Example:
  minewatch prices sync --start 2014-01-01 --end 2020-06-01 --commodity Gold`,
	RunE: runPricesSync,
}

var (
	syncStart       string
	syncEnd         string
	syncCommodities []string
)

func init() {
	rootCmd.AddCommand(pricesCmd)
	pricesCmd.AddCommand(pricesSyncCmd)

	pricesSyncCmd.Flags().StringVar(&syncStart, "start", "", "First day to copy (YYYY-MM-DD)")
	pricesSyncCmd.Flags().StringVar(&syncEnd, "end", "", "Last day to copy (YYYY-MM-DD)")
	pricesSyncCmd.Flags().StringSliceVar(&syncCommodities, "commodity", nil, "Commodities to copy (default all)")
	_ = pricesSyncCmd.MarkFlagRequired("start")
	_ = pricesSyncCmd.MarkFlagRequired("end")
}

func runPricesSync(cmd *cobra.Command, _ []string) error {
	from, err := parseDate("start", syncStart)
	if err != nil {
		return err
	}
	to, err := parseDate("end", syncEnd)
	if err != nil {
		return err
	}
	commodities, err := parseCommodities(syncCommodities)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.ClickHouse.Enabled {
		return fmt.Errorf("prices sync needs clickhouse.enabled")
	}
	app, err := startApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.PriceSync.Sync(cmd.Context(), commodities, from, to)
	if err != nil {
		return err
	}

	stored := make([]models.Commodity, 0, len(res.Stored))
	for c := range res.Stored {
		stored = append(stored, c)
	}
	models.SortCommodities(stored)
	out := cmd.OutOrStdout()
	for _, c := range stored {
		fmt.Fprintf(out, "%s\t%d rows\n", c, res.Stored[c])
	}
	return reporting.WriteExclusions(out, res.Excluded)
}
