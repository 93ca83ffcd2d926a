// Package postgres provides a Storage backend on a Postgres table via
// gorm, with a payload column serialized to JSON the same way
// storage/redis does — reconstructed on read via an
// eventstore.PayloadRegistry keyed on Event.Header["eventType"].
package postgres

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/terraskye/eventstore"
)

// headerColumn stores a map[string]any as a jsonb column. gorm has no
// built-in map scanner, so this implements the minimal
// sql.Scanner/driver.Valuer pair itself.
type headerColumn map[string]any

func (h headerColumn) Value() (driver.Value, error) {
	if h == nil {
		return "{}", nil
	}
	return json.Marshal(map[string]any(h))
}

func (h *headerColumn) Scan(src any) error {
	if src == nil {
		*h = headerColumn{}
		return nil
	}
	bytes, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("headerColumn.Scan: unsupported type %T", src)
	}
	var m map[string]any
	if err := json.Unmarshal(bytes, &m); err != nil {
		return err
	}
	*h = m
	return nil
}

// eventRow is the gorm model backing the events table.
type eventRow struct {
	ID             uint   `gorm:"primaryKey"`
	StreamID       string `gorm:"uniqueIndex:idx_stream_revision,priority:1"`
	StreamRevision int64  `gorm:"uniqueIndex:idx_stream_revision,priority:2"`
	CommitID       string
	CommitSequence int
	CommitStamp    time.Time `gorm:"index"`
	Header         headerColumn
	Dispatched     bool `gorm:"index"`
	EventType      string
	Payload        json.RawMessage
}

func (eventRow) TableName() string { return "eventstore_events" }

type snapshotRow struct {
	ID       string `gorm:"primaryKey"`
	StreamID string `gorm:"index"`
	Revision int64
	Data     json.RawMessage
}

func (snapshotRow) TableName() string { return "eventstore_snapshots" }

// Store is a Storage implementation backed by Postgres via gorm.
type Store struct {
	db       *gorm.DB
	registry *eventstore.PayloadRegistry
}

var _ eventstore.Storage = (*Store)(nil)

// Connect opens a gorm connection to dsn, migrates the schema, and
// returns a Store. registry reconstructs payload types on read.
func Connect(dsn string, registry *eventstore.PayloadRegistry) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get underlying sql.DB")
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&eventRow{}, &snapshotRow{}); err != nil {
		return nil, errors.Wrap(err, "migrate eventstore schema")
	}

	return &Store{db: db, registry: registry}, nil
}

func (s *Store) AddEvents(ctx context.Context, events []eventstore.Event) error {
	if len(events) == 0 {
		return nil
	}
	streamID := events[0].StreamID

	rows := make([]eventRow, 0, len(events))
	for _, e := range events {
		if e.StreamID != streamID {
			return eventstore.ErrInvalidEventBatch
		}
		eventType, _ := e.Header["eventType"].(string)
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return errors.Wrapf(err, "marshal payload for stream %q", streamID)
		}
		rows = append(rows, eventRow{
			StreamID:       e.StreamID,
			StreamRevision: e.StreamRevision,
			CommitID:       e.CommitID,
			CommitSequence: e.CommitSequence,
			CommitStamp:    e.CommitStamp,
			Header:         e.Header,
			Dispatched:     e.Dispatched,
			EventType:      eventType,
			Payload:        payload,
		})
	}

	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return eventstore.WrapBackendError("AddEvents", errors.Wrap(err, "insert events"))
	}
	return nil
}

func (s *Store) AddSnapshot(ctx context.Context, snapshot eventstore.Snapshot) error {
	data, err := json.Marshal(snapshot.Data)
	if err != nil {
		return errors.Wrap(err, "marshal snapshot data")
	}
	row := snapshotRow{ID: snapshot.ID, StreamID: snapshot.StreamID, Revision: snapshot.Revision, Data: data}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return eventstore.WrapBackendError("AddSnapshot", errors.Wrap(err, "insert snapshot"))
	}
	return nil
}

func (s *Store) GetEvents(ctx context.Context, streamID string, minRev, maxRev int64) ([]eventstore.Event, error) {
	q := s.db.WithContext(ctx).
		Where("stream_id = ? AND stream_revision >= ?", streamID, minRev).
		Order("stream_revision ASC")
	if maxRev != -1 {
		q = q.Where("stream_revision < ?", maxRev)
	}

	var rows []eventRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, eventstore.WrapBackendError("GetEvents", errors.Wrap(err, "query events"))
	}
	return s.decodeRows(rows)
}

func (s *Store) GetAllEvents(ctx context.Context) ([]eventstore.Event, error) {
	var rows []eventRow
	if err := s.db.WithContext(ctx).Order("commit_stamp ASC").Find(&rows).Error; err != nil {
		return nil, eventstore.WrapBackendError("GetAllEvents", errors.Wrap(err, "query all events"))
	}
	return s.decodeRows(rows)
}

func (s *Store) GetEventRange(ctx context.Context, index, amount int) ([]eventstore.Event, error) {
	var rows []eventRow
	if err := s.db.WithContext(ctx).
		Order("commit_stamp ASC").
		Offset(index).Limit(amount).
		Find(&rows).Error; err != nil {
		return nil, eventstore.WrapBackendError("GetEventRange", errors.Wrap(err, "query event range"))
	}
	return s.decodeRows(rows)
}

func (s *Store) GetSnapshot(ctx context.Context, streamID string, maxRev int64) (eventstore.Snapshot, bool, error) {
	q := s.db.WithContext(ctx).Where("stream_id = ?", streamID).Order("revision DESC")
	if maxRev != -1 {
		q = q.Where("revision <= ?", maxRev)
	}

	var row snapshotRow
	err := q.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return eventstore.NoSnapshot, false, nil
	}
	if err != nil {
		return eventstore.NoSnapshot, false, eventstore.WrapBackendError("GetSnapshot", errors.Wrap(err, "query snapshot"))
	}

	var data any
	if err := json.Unmarshal(row.Data, &data); err != nil {
		return eventstore.NoSnapshot, false, eventstore.WrapBackendError("GetSnapshot", err)
	}

	return eventstore.Snapshot{ID: row.ID, StreamID: row.StreamID, Revision: row.Revision, Data: data}, true, nil
}

func (s *Store) GetUndispatchedEvents(ctx context.Context) ([]eventstore.Event, error) {
	var rows []eventRow
	if err := s.db.WithContext(ctx).Where("dispatched = ?", false).Find(&rows).Error; err != nil {
		return nil, eventstore.WrapBackendError("GetUndispatchedEvents", errors.Wrap(err, "query undispatched events"))
	}
	return s.decodeRows(rows)
}

func (s *Store) SetEventToDispatched(ctx context.Context, event eventstore.Event) error {
	err := s.db.WithContext(ctx).
		Model(&eventRow{}).
		Where("commit_id = ? AND commit_sequence = ?", event.CommitID, event.CommitSequence).
		Update("dispatched", true).Error
	if err != nil {
		return eventstore.WrapBackendError("SetEventToDispatched", errors.Wrap(err, "update dispatched flag"))
	}
	return nil
}

func (s *Store) GetID(context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) decodeRows(rows []eventRow) ([]eventstore.Event, error) {
	events := make([]eventstore.Event, 0, len(rows))
	for _, row := range rows {
		payload, err := s.registry.New(row.EventType)
		if err != nil {
			return nil, fmt.Errorf("decode event for stream %q: %w", row.StreamID, err)
		}
		if err := json.Unmarshal(row.Payload, payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload for stream %q: %w", row.StreamID, err)
		}

		events = append(events, eventstore.Event{
			StreamID:       row.StreamID,
			StreamRevision: row.StreamRevision,
			CommitID:       row.CommitID,
			CommitSequence: row.CommitSequence,
			CommitStamp:    row.CommitStamp,
			Header:         row.Header,
			Dispatched:     row.Dispatched,
			Payload:        payload,
		})
	}
	return events, nil
}
