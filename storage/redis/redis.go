// Package redis provides a Storage backend on top of a Redis instance
// using per-stream lists, a global sorted set, and a set for tracking
// undispatched events. Payloads are opaque interface{} values, so
// this backend needs a way to reconstruct their concrete Go type on
// read: it looks up the type name in Event.Header["eventType"] against
// an eventstore.PayloadRegistry supplied at construction.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/terraskye/eventstore"
)

// Store is a Storage implementation backed by Redis.
type Store struct {
	client   *redis.Client
	registry *eventstore.PayloadRegistry
}

var _ eventstore.Storage = (*Store)(nil)

// Config holds the connection parameters for a Redis-backed Store.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// New connects to Redis and returns a Store. registry is used to
// reconstruct payload types on read; it must contain an entry for every
// eventType a caller commits.
func New(ctx context.Context, cfg Config, registry *eventstore.PayloadRegistry) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Store{client: client, registry: registry}, nil
}

type storedEvent struct {
	StreamID       string         `json:"stream_id"`
	StreamRevision int64          `json:"stream_revision"`
	CommitID       string         `json:"commit_id"`
	CommitSequence int            `json:"commit_sequence"`
	CommitStamp    time.Time      `json:"commit_stamp"`
	Header         map[string]any `json:"header"`
	Dispatched     bool           `json:"dispatched"`
	EventType      string         `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
}

func streamKey(streamID string) string   { return "eventstore:stream:" + streamID }
func snapshotKey(streamID string) string { return "eventstore:snapshot:" + streamID }
func globalKey() string                  { return "eventstore:global" }
func undispatchedKey() string            { return "eventstore:undispatched" }

func (s *Store) encode(e eventstore.Event) (string, error) {
	eventType, _ := e.Header["eventType"].(string)
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload for stream %q: %w", e.StreamID, err)
	}

	stored := storedEvent{
		StreamID:       e.StreamID,
		StreamRevision: e.StreamRevision,
		CommitID:       e.CommitID,
		CommitSequence: e.CommitSequence,
		CommitStamp:    e.CommitStamp,
		Header:         e.Header,
		Dispatched:     e.Dispatched,
		EventType:      eventType,
		Payload:        payload,
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("marshal event for stream %q: %w", e.StreamID, err)
	}
	return string(data), nil
}

func (s *Store) decode(data string) (eventstore.Event, error) {
	var stored storedEvent
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return eventstore.Event{}, err
	}

	payload, err := s.registry.New(stored.EventType)
	if err != nil {
		return eventstore.Event{}, fmt.Errorf("decode event for stream %q: %w", stored.StreamID, err)
	}
	if err := json.Unmarshal(stored.Payload, payload); err != nil {
		return eventstore.Event{}, fmt.Errorf("unmarshal payload for stream %q: %w", stored.StreamID, err)
	}

	return eventstore.Event{
		StreamID:       stored.StreamID,
		StreamRevision: stored.StreamRevision,
		CommitID:       stored.CommitID,
		CommitSequence: stored.CommitSequence,
		CommitStamp:    stored.CommitStamp,
		Header:         stored.Header,
		Dispatched:     stored.Dispatched,
		Payload:        payload,
	}, nil
}

func (s *Store) AddEvents(ctx context.Context, events []eventstore.Event) error {
	if len(events) == 0 {
		return nil
	}
	streamID := events[0].StreamID

	pipe := s.client.TxPipeline()
	for _, e := range events {
		if e.StreamID != streamID {
			return eventstore.ErrInvalidEventBatch
		}
		data, err := s.encode(e)
		if err != nil {
			return eventstore.WrapBackendError("AddEvents", err)
		}
		pipe.RPush(ctx, streamKey(streamID), data)
		pipe.ZAdd(ctx, globalKey(), &redis.Z{Score: float64(e.CommitStamp.UnixNano()), Member: data})
		pipe.SAdd(ctx, undispatchedKey(), data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return eventstore.WrapBackendError("AddEvents", err)
	}
	return nil
}

func (s *Store) AddSnapshot(ctx context.Context, snapshot eventstore.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return eventstore.WrapBackendError("AddSnapshot", err)
	}
	if err := s.client.RPush(ctx, snapshotKey(snapshot.StreamID), data).Err(); err != nil {
		return eventstore.WrapBackendError("AddSnapshot", err)
	}
	return nil
}

func (s *Store) GetEvents(ctx context.Context, streamID string, minRev, maxRev int64) ([]eventstore.Event, error) {
	stop := int64(-1)
	if maxRev != -1 {
		stop = maxRev - 1
	}
	raw, err := s.client.LRange(ctx, streamKey(streamID), minRev, stop).Result()
	if err != nil {
		return nil, eventstore.WrapBackendError("GetEvents", err)
	}

	events := make([]eventstore.Event, 0, len(raw))
	for _, item := range raw {
		event, err := s.decode(item)
		if err != nil {
			return nil, eventstore.WrapBackendError("GetEvents", err)
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *Store) GetAllEvents(ctx context.Context) ([]eventstore.Event, error) {
	raw, err := s.client.ZRange(ctx, globalKey(), 0, -1).Result()
	if err != nil {
		return nil, eventstore.WrapBackendError("GetAllEvents", err)
	}
	return s.decodeAll(raw)
}

func (s *Store) GetEventRange(ctx context.Context, index, amount int) ([]eventstore.Event, error) {
	raw, err := s.client.ZRange(ctx, globalKey(), int64(index), int64(index+amount-1)).Result()
	if err != nil {
		return nil, eventstore.WrapBackendError("GetEventRange", err)
	}
	return s.decodeAll(raw)
}

func (s *Store) decodeAll(raw []string) ([]eventstore.Event, error) {
	events := make([]eventstore.Event, 0, len(raw))
	for _, item := range raw {
		event, err := s.decode(item)
		if err != nil {
			return nil, eventstore.WrapBackendError("decode", err)
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *Store) GetSnapshot(ctx context.Context, streamID string, maxRev int64) (eventstore.Snapshot, bool, error) {
	raw, err := s.client.LRange(ctx, snapshotKey(streamID), 0, -1).Result()
	if err != nil {
		return eventstore.NoSnapshot, false, eventstore.WrapBackendError("GetSnapshot", err)
	}

	best, found := eventstore.NoSnapshot, false
	for _, item := range raw {
		var snap eventstore.Snapshot
		if err := json.Unmarshal([]byte(item), &snap); err != nil {
			return eventstore.NoSnapshot, false, eventstore.WrapBackendError("GetSnapshot", err)
		}
		if maxRev == -1 || snap.Revision <= maxRev {
			best, found = snap, true
		}
	}
	return best, found, nil
}

func (s *Store) GetUndispatchedEvents(ctx context.Context) ([]eventstore.Event, error) {
	raw, err := s.client.SMembers(ctx, undispatchedKey()).Result()
	if err != nil {
		return nil, eventstore.WrapBackendError("GetUndispatchedEvents", err)
	}
	return s.decodeAll(raw)
}

func (s *Store) SetEventToDispatched(ctx context.Context, event eventstore.Event) error {
	data, err := s.encode(event)
	if err != nil {
		return eventstore.WrapBackendError("SetEventToDispatched", err)
	}
	if err := s.client.SRem(ctx, undispatchedKey(), data).Err(); err != nil && err != redis.Nil {
		return eventstore.WrapBackendError("SetEventToDispatched", err)
	}

	event.Dispatched = true
	dispatchedData, err := s.encode(event)
	if err != nil {
		return eventstore.WrapBackendError("SetEventToDispatched", err)
	}

	raw, err := s.client.LRange(ctx, streamKey(event.StreamID), 0, -1).Result()
	if err != nil {
		return eventstore.WrapBackendError("SetEventToDispatched", err)
	}
	for i, item := range raw {
		decoded, err := s.decode(item)
		if err != nil {
			continue
		}
		if decoded.CommitID == event.CommitID && decoded.CommitSequence == event.CommitSequence {
			if err := s.client.LSet(ctx, streamKey(event.StreamID), int64(i), dispatchedData).Err(); err != nil {
				return eventstore.WrapBackendError("SetEventToDispatched", err)
			}
			break
		}
	}
	return nil
}

func (s *Store) GetID(context.Context) (string, error) {
	return uuid.NewString(), nil
}
