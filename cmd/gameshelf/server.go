package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/goodtune/gameshelf/internal/config"
	"github.com/goodtune/gameshelf/internal/metrics"
	"github.com/goodtune/gameshelf/internal/server"
	"github.com/goodtune/gameshelf/internal/systemd"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start GameShelf server",
	Long:  `Start the GameShelf JSON API and the metrics endpoint.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, logger := a.cfg, a.logger
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Str("timezone", cfg.Tracker.Timezone).
		Msg("Starting GameShelf")

	sdListeners, err := systemd.GetListeners()
	if err != nil {
		return fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must be set (GAMESHELF_AUTH_JWT_SECRET)")
	}

	if cfg.Auth.InitialPassword != "" {
		if err := server.EnsureInitialUser(ctx, a.store.Users(), cfg.Auth.InitialUsername, cfg.Auth.InitialPassword, logger); err != nil {
			return fmt.Errorf("failed to create initial user: %w", err)
		}
	}

	apiAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.HTTPPort)
	apiServer := server.NewServer(server.Config{
		ListenAddr:      apiAddr,
		JWTSecret:       cfg.Auth.JWTSecret,
		TokenExpiration: config.Duration(cfg.Auth.TokenExpiration, server.DefaultTokenExpiration),
		RateLimit:       cfg.Auth.RateLimit,
		RateLimitWindow: config.Duration(cfg.Auth.RateLimitWindow, time.Minute),
		AllowedOrigins:  cfg.Auth.AllowedOrigins,

		AllowRegistration: cfg.Auth.AllowRegistration,
	}, a.store.Users(), a.svc, logger)

	if sdListeners.HTTP != nil {
		apiServer.SetListener(sdListeners.HTTP)
	}

	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	var metricsServer *metrics.Server
	if cfg.Server.MetricsPort > 0 || sdListeners.Metrics != nil {
		metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.MetricsPort)
		metricsServer = metrics.NewServer(metricsAddr, logger)
		if sdListeners.Metrics != nil {
			metricsServer.SetListener(sdListeners.Metrics)
		}
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	logger.Info().Msgf("API: http://%s", apiAddr)
	if metricsServer != nil {
		logger.Info().Msgf("Metrics: http://%s:%d/metrics", cfg.Server.BindAddress, cfg.Server.MetricsPort)
	}

	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	} else {
		logger.Debug().Msg("Sent systemd ready notification")
	}
	go systemd.RunWatchdog(ctx, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received, gracefully stopping...")
	case <-ctx.Done():
	}

	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	if err := apiServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping API server")
	}

	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("Error stopping metrics server")
		}
	}

	logger.Info().Msg("GameShelf stopped")

	return nil
}
