package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var addrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API for the selection UI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		initStart := time.Now()
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		addr := cfg.HTTPAddr
		if addrFlag != "" {
			addr = addrFlag
		}
		srv := &http.Server{
			Addr:         addr,
			Handler:      app.Handler(),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		app.StartupLog("reelctl-serve", version(), initStart)

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", addr).Msg("Starting web server")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Graceful shutdown failed")
		}
		fmt.Fprintln(os.Stderr, "server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (overrides REEL_HTTP_ADDR)")
}
