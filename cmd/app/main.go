package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"MineWatch/internal/di"
	"MineWatch/pkg/config"
	applogger "MineWatch/pkg/logger"
	"MineWatch/pkg/server"
)

var (
	configPath string
	verbosity  int
)

// rootCmd is the base command for the MineWatch CLI
var rootCmd = &cobra.Command{
	Use:   "minewatch",
	Short: "Rank commodities by the mine growth their prices predict",
	Long: `MineWatch regresses open-pit mine vegetation growth against lagged
commodity prices, picks the best lag per commodity and ranks commodities by
the growth their current price forecasts.

Examples:
  minewatch run --start 2015-01-01 --end 2020-01-01 --price Gold=1800 -v
  minewatch mines refresh
  minewatch prices sync --start 2014-01-01 --end 2020-06-01
  minewatch serve`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "Path to the YAML config file (empty for defaults)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v prints the lag table, -vv debug logs)")
}

// loadConfig reads the config file with environment overrides and applies
// the verbosity flag to the log level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Log.Level = applogger.LevelForVerbosity(verbosity)
	}
	return cfg, nil
}

func startApp(cfg *config.Config) (*server.App, error) {
	app, err := di.InitializeApp(cfg)
	if err != nil {
		return nil, fmt.Errorf("app initialization failed: %w", err)
	}
	return app, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
