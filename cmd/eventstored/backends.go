package main

import (
	"context"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog/log"

	"github.com/terraskye/eventstore"
	"github.com/terraskye/eventstore/config"
	pubLog "github.com/terraskye/eventstore/publisher/log"
	"github.com/terraskye/eventstore/publisher/noop"
	"github.com/terraskye/eventstore/publisher/servicebus"
	"github.com/terraskye/eventstore/storage/postgres"
	"github.com/terraskye/eventstore/storage/redis"
)

// buildStorage constructs the Storage backend named by cfg.StorageBackend.
// registry is threaded through to the backends (redis, postgres) that need
// to reconstruct opaque payload types on read.
func buildStorage(ctx context.Context, cfg config.Config, registry *eventstore.PayloadRegistry) (eventstore.Storage, error) {
	switch cfg.StorageBackend {
	case "", "memory":
		return nil, nil // let Store.Start fill its in-memory default
	case "redis":
		return redis.New(ctx, redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, registry)
	case "postgres":
		return postgres.Connect(cfg.Postgres.DSN, registry)
	default:
		return nil, fmt.Errorf("eventstored: unknown storage backend %q", cfg.StorageBackend)
	}
}

// buildPublisher constructs the Publisher backend named by
// cfg.PublisherBackend.
func buildPublisher(cfg config.Config) (eventstore.Publisher, error) {
	switch cfg.PublisherBackend {
	case "", "noop":
		return noop.New(), nil
	case "log":
		return pubLog.New(nil), nil
	case "servicebus":
		return servicebus.New(cfg.ServiceBus.ConnectionString, cfg.ServiceBus.Queue)
	default:
		return nil, fmt.Errorf("eventstored: unknown publisher backend %q", cfg.PublisherBackend)
	}
}

// buildTracingApp starts a New Relic application when tracing is enabled
// in configuration, returning nil otherwise so the caller can pass it
// straight to httpapi.NewServer.
func buildTracingApp(cfg config.Config) (*newrelic.Application, error) {
	if !cfg.Tracing.Enabled || cfg.Tracing.LicenseKey == "" {
		log.Warn().Msg("eventstored: New Relic license key not provided, tracing disabled")
		return nil, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.Tracing.AppName),
		newrelic.ConfigLicense(cfg.Tracing.LicenseKey),
	)
	if err != nil {
		return nil, fmt.Errorf("eventstored: initializing New Relic: %w", err)
	}
	return app, nil
}
