package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"loklagbe/internal/app"
	"loklagbe/internal/config"
	"loklagbe/internal/logging"
	"loklagbe/internal/server"
)

func serveCmd() *cobra.Command {
	var addr, basePath string
	var jsonLogs bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  "Settings come from LOKLAGBE_* environment variables; --addr and --base-path override them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadServerSettings()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				settings.Addr = addr
			}
			if cmd.Flags().Changed("base-path") {
				settings.BasePath = basePath
			}
			if cmd.Flags().Changed("log-level") {
				settings.LogLevel = viper.GetString("log-level")
			}
			if settings.JWTSecret == "" && !settings.AllowActorHeader {
				return fmt.Errorf("LOKLAGBE_JWT_SECRET is required unless LOKLAGBE_ALLOW_ACTOR_HEADER is set")
			}
			logger, err := logging.New(settings.LogLevel, jsonLogs)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ws, err := app.Open(ctx, viper.GetString("workspace"), logger)
			if err != nil {
				return err
			}
			defer ws.Close()

			handler, err := server.New(server.Config{
				Engine:   ws.Engine,
				BasePath: settings.BasePath,
				Auth: server.AuthConfig{
					JWTSecret:              settings.JWTSecret,
					AllowLegacyActorHeader: settings.AllowActorHeader,
					Logger:                 logger.Named("auth"),
				},
				Logger:          logger.Named("http"),
				StreamKeepalive: settings.StreamKeepaliveDur,
			})
			if err != nil {
				return err
			}
			if d := server.NewWebhookDispatcher(ws.Engine, settings.WebhookPollEvery, logger); d != nil {
				go d.Run(ctx)
			}

			srv := &http.Server{Addr: settings.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.ShutdownTimeout)
				defer cancel()
				ws.Engine.Hub.Close()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Warn("shutdown", zap.Error(err))
				}
			}()
			logger.Info("serving",
				zap.String("addr", settings.Addr),
				zap.String("base_path", settings.BasePath),
				zap.String("docs", "/docs"))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	cmd.Flags().BoolVar(&jsonLogs, "json-logs", false, "emit JSON logs")
	return cmd
}
