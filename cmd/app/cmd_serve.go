package main

import (
	"github.com/spf13/cobra"

	applogger "MineWatch/pkg/logger"
)

// serveCmd exposes the last report over HTTP
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest report over HTTP",
	Long: `Start the HTTP API:

  GET  /api/v1/report              latest report
  GET  /api/v1/commodities/:name   one commodity's model and rank
  POST /api/v1/forecast            re-rank stored models for new prices
  GET  /metrics                    Prometheus metrics`,
	RunE: runServe,
}

var servePort int

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	app, err := startApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Logger.Info("serving reports",
		applogger.String("env", cfg.Environment),
		applogger.String("report_dir", cfg.Store.ReportDir),
	)
	return app.Serve(cmd.Context())
}
