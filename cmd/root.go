// Package cmd holds the command line interface of the weather history API.
package cmd

import (
	"fmt"

	"github.com/fakhrymubarak/weather-history-api/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// appContext is filled in by the root command before any subcommand runs.
type appContext struct {
	cfg    *config.Config
	logger *zap.SugaredLogger
}

// RootCommand creates and returns the root command. Running it without a
// subcommand starts the HTTP server.
func RootCommand() *cobra.Command {
	app := &appContext{}

	v, vErr := config.New()
	if vErr != nil {
		v = viper.New()
	}

	rootCmd := &cobra.Command{
		Use:           "weather-history-api",
		Short:         "Weather lookup proxy that records every lookup",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	_ = v.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	serveCmd := serveCommand(app)
	historyCmd := historyCommand(app)
	rootCmd.AddCommand(serveCmd, historyCmd)

	// Running the bare binary behaves like "serve".
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
	rootCmd.RunE = serveCmd.RunE

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if vErr != nil {
			return vErr
		}
		if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
			v.Set("server.port", f.Value.String())
		}
		return initialize(app, v)
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if app.logger != nil {
			_ = app.logger.Sync()
		}
	}

	return rootCmd
}

// initialize resolves the configuration and builds the logger.
func initialize(app *appContext, v *viper.Viper) error {
	cfg, err := config.FromViper(v)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := config.NewLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	app.cfg = cfg
	app.logger = logger
	logger.Debugw("Configuration loaded", "config", cfg.String())
	return nil
}
