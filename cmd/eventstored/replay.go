package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/terraskye/eventstore"
	"github.com/terraskye/eventstore/config"
)

var replayStreamID string

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Print committed events for a stream, or the whole log",
	Long:  `Connects to the configured Storage backend and dumps events as JSON, one per line, without starting the HTTP server or Dispatcher.`,
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayStreamID, "stream", "", "stream to replay (default: every stream)")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	configureLogging(cfg.LogLevel, false)

	ctx := context.Background()
	registry := eventstore.NewPayloadRegistry()

	storage, err := buildStorage(ctx, cfg, registry)
	if err != nil {
		return err
	}

	store := eventstore.New()
	if storage != nil {
		if err := store.Use(storage); err != nil {
			return err
		}
	}
	if err := store.Start(ctx, eventstore.WithoutDispatcher()); err != nil {
		return err
	}
	defer store.Stop()

	var events []eventstore.Event
	if replayStreamID != "" {
		stream, err := store.GetEventStream(ctx, replayStreamID, 0, -1)
		if err != nil {
			return err
		}
		events = stream.Events
	} else {
		events, err = store.GetAllEvents(ctx)
		if err != nil {
			return err
		}
	}

	log.Info().Int("count", len(events)).Str("stream", replayStreamID).Msg("eventstored: replaying events")

	enc := json.NewEncoder(os.Stdout)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("eventstored: encoding event: %w", err)
		}
	}
	return nil
}
