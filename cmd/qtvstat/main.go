// main is the entry point of the qtvstat application.
// It initializes the configuration, logger and GeoIP provider, then runs
// a one-shot query command or starts the HTTP API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/qtvstat/internal/commands"
	"github.com/woozymasta/qtvstat/internal/config"
	"github.com/woozymasta/qtvstat/internal/geoip"
	"github.com/woozymasta/qtvstat/internal/logger"
	"github.com/woozymasta/qtvstat/internal/qtv"
	"github.com/woozymasta/qtvstat/internal/server"
	"github.com/woozymasta/qtvstat/internal/udp"
	"github.com/woozymasta/qtvstat/internal/vars"
)

func main() {
	cfg := config.Parse()

	logger.Setup(cfg.Logger)

	// GeoIP
	var geoProvider *geoip.Provider
	if cfg.GeoIP.Path != "" {
		p, err := geoip.Open(cfg.GeoIP.Path)
		if err != nil {
			log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
		} else {
			geoProvider = p
			defer func() {
				if err := geoProvider.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing GeoIP provider")
				}
			}()
		}
	}

	client := qtv.New(
		udp.New(udp.Options{Timeout: cfg.Query.Timeout, BufferSize: cfg.Query.BufferSize}),
		&http.Client{},
	)
	client.UserAgent = vars.UserAgent()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Args.Command != config.CommandServe {
		runner := &commands.Runner{Client: client, GeoIP: geoProvider, Out: os.Stdout, Config: cfg}
		if err := runner.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Command failed")
			stop()
			os.Exit(1)
		}
		return
	}

	serve(ctx, cfg, client, geoProvider)
}

func serve(ctx context.Context, cfg *config.Config, client *qtv.Client, geoProvider *geoip.Provider) {
	log.Info().Str("version", vars.Version).Msg("Starting qtvstat API...")

	srvHandler := server.New(client, geoProvider, cfg)
	defer srvHandler.Close()

	writeTimeout := srvHandler.WriteTimeout()

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srvHandler.Run(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
