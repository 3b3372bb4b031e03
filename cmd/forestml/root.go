package main

import (
	"fmt"
	"os"

	"github.com/aretw0/forestml/internal/cli"
	"github.com/aretw0/forestml/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "forestml",
	Short: "forestml publishes tree models to a Redis-ML engine and scores records against them",
	Long: `forestml encodes decision trees and random forests into ML.FOREST.ADD commands,
registers them with a Redis-ML engine (or an in-memory one) and scores records
through ML.FOREST.RUN, over HTTP, MCP or the command line.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().String("engine", "", "Scoring engine: 'redis' or 'memory' (overrides config)")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory keeping model metadata for the memory engine")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
}

// loadConfig reads the config file and environment, then the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("engine"); v != "" {
		cfg.Engine = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	return cfg, cfg.Validate()
}

// loadApp builds the services for commands that talk to an engine.
func loadApp(cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(cmd.Context(), cfg, logger)
}
