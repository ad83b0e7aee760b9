package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/sndcds/redrovr"
	"github.com/sndcds/redrovr/app"
	"github.com/sndcds/redrovr/logging"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the photo API server",
		Example: `  # Start server with the address from the config (default :8080)
  redrovr serve --config config.yaml

  # Start server on a custom address
  redrovr serve --addr :3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			defer logging.Close()
			if addr != "" {
				cfg.Addr = addr
			}

			a, err := app.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cfg.Verbose && !flags.verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			router := redrovr.NewServer(a).Router(cfg.CorsOrigins)

			server := &http.Server{
				Addr:              cfg.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				logging.Info("redrovr API available", "addr", cfg.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-cmd.Context().Done():
				logging.Info("shutting down server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logging.Error("server shutdown failed", "err", err)
					return err
				}
				logging.Info("server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on, overrides the config")
	return cmd
}
