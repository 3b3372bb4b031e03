package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aretw0/forestml"
	"github.com/aretw0/forestml/internal/cli"
	"github.com/aretw0/forestml/internal/presentation/tui"
	httpAdapter "github.com/aretw0/forestml/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the publish and score HTTP server",
	Long: `Starts the HTTP API: model registration (/store, /publish), encoding (/encode),
description (/description, /inputs, /outputs, /get_all), scoring (/score) and
score events (/events).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()
		cmd.SetContext(sc)

		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if cmd.Flags().Changed("port") {
			app.Config.Port, _ = cmd.Flags().GetInt("port")
		}
		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			tui.PrintBanner(cmd.ErrOrStderr(), strings.TrimSpace(forestml.Version))
		}

		opts := []httpAdapter.Option{
			httpAdapter.WithLogger(app.Logger),
			httpAdapter.WithMetrics(app.Metrics),
		}
		if idx, ok := os.LookupEnv("CF_INSTANCE_INDEX"); ok {
			opts = append(opts, httpAdapter.WithInstance(idx))
		}

		srv := &http.Server{
			Addr:              app.Config.ListenAddr(),
			Handler:           httpAdapter.NewHandler(app.Publisher, app.Scorer, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			app.Logger.Info("Starting forestml server", "addr", srv.Addr, "engine", app.Config.Engine)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case <-sc.Done():
			app.Logger.Info("Start shutdown", "signal", sc.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				app.Logger.Warn("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			app.Logger.Info("forestml server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 9090, "Port to listen on (overrides config and PORT)")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
