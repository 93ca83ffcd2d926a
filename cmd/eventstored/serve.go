package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/terraskye/eventstore"
	"github.com/terraskye/eventstore/config"
	"github.com/terraskye/eventstore/httpapi"
	"github.com/terraskye/eventstore/logging"
	"github.com/terraskye/eventstore/otel"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the event store HTTP server",
	Long:  `Boots a Store on the configured Storage/Publisher backends and serves the httpapi router until terminated.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	configureLogging(cfg.LogLevel, cfg.Environment == "development")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	registry := eventstore.NewPayloadRegistry()

	storage, err := buildStorage(ctx, cfg, registry)
	if err != nil {
		return err
	}
	publisher, err := buildPublisher(cfg)
	if err != nil {
		return err
	}
	publisher = logging.WithMiddleware(slog.Default(), publisher)
	tracingApp, err := buildTracingApp(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("eventstored: tracing disabled")
	}

	store := eventstore.New()
	if storage != nil {
		if err := store.Use(otel.WithStorageTelemetry(storage)); err != nil {
			return err
		}
	}
	if err := store.Use(otel.WithPublisherTelemetry(publisher)); err != nil {
		return err
	}
	if err := store.Use(logging.NewZerologLogger(log.Logger)); err != nil {
		return err
	}

	if err := store.Start(ctx, eventstore.WithPublishingInterval(cfg.PublishingInterval)); err != nil {
		return err
	}

	server := httpapi.NewServer(cfg.HTTPAddress, store, tracingApp)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("eventstored: http server shutdown error")
		}
		return store.Stop()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("eventstored: serve error")
		return err
	}

	log.Info().Msg("eventstored: shut down gracefully")
	return nil
}
