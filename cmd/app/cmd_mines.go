package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"MineWatch/internal/reporting"
)

// minesCmd groups mine cache operations
var minesCmd = &cobra.Command{
	Use:   "mines",
	Short: "Manage the cached mine list",
}

var minesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the mine list from the registry",
	Long: `Fetch the open-pit mine list, look up each mine's location and products
and overwrite the mine cache. Growth signals and baselines are dropped and
rebuilt by the next run.`,
	RunE: runMinesRefresh,
}

var minesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the cached mines",
	RunE:  runMinesList,
}

var minesCachePath string

func init() {
	rootCmd.AddCommand(minesCmd)
	minesCmd.AddCommand(minesRefreshCmd, minesListCmd)
	minesCmd.PersistentFlags().StringVar(&minesCachePath, "cache", "", "Mine cache file")
}

func runMinesRefresh(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if minesCachePath != "" {
		cfg.Store.MinesPath = minesCachePath
	}
	app, err := startApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	mines, excluded, err := app.Mines.RefreshAndSave(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d mines saved to %s, %d excluded\n", len(mines), cfg.Store.MinesPath, len(excluded))
	if verbosity > 0 {
		return reporting.WriteExclusions(out, excluded)
	}
	return nil
}

func runMinesList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if minesCachePath != "" {
		cfg.Store.MinesPath = minesCachePath
	}
	app, err := startApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	mines, err := app.Mines.Load(cmd.Context())
	if err != nil {
		return err
	}
	return reporting.WriteMines(cmd.OutOrStdout(), mines)
}
