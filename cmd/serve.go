package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/storemap/internal/geodata"
	"github.com/sells-group/storemap/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the map server",
	Long:  "Loads the store dataset once and serves the map page, the live map websocket and the JSON API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return err
		}

		ds, err := geodata.Load(ctx, datasetOptions(cfg))
		if err != nil {
			return eris.Wrap(err, "serve: load dataset")
		}
		for _, issue := range geodata.Check(ds) {
			zap.L().Warn("dataset issue",
				zap.String("kind", issue.Kind),
				zap.String("id", issue.ID),
				zap.String("detail", issue.Detail),
			)
		}

		views := openCache(ctx, cfg)
		if views != nil {
			defer views.Close() //nolint:errcheck
		}

		srv := server.New(ds, server.Options{
			Live:           liveSettings(cfg),
			Camera:         cameraOptions(cfg),
			Cache:          views,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown. Websocket connections are hijacked, so the
		// server closes live sessions itself.
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
