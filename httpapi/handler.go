// Package httpapi exposes a Store over HTTP with gin, following the
// same handler/server split sdfpt05-backstage uses for its own gin
// services: request structs validated with go-playground/validator,
// zerolog for logging failed requests, New Relic for tracing via nrgin.
package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/terraskye/eventstore"
)

var validate = validator.New()

// Handler adapts a Store to gin's request/response model.
type Handler struct {
	store *eventstore.Store
}

// NewHandler wraps store for HTTP access.
func NewHandler(store *eventstore.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the handler's endpoints on router.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.POST("/streams/:id/events", h.AppendEvents)
	router.GET("/streams/:id", h.GetStream)
	router.POST("/streams/:id/snapshots", h.CreateSnapshot)
}

// appendEventsRequest is the body of POST /streams/:id/events.
type appendEventsRequest struct {
	ExpectedRevision *int64 `json:"expectedRevision"`
	NoStream         bool   `json:"noStream"`
	StreamExists     bool   `json:"streamExists"`
	Events           []struct {
		EventType string         `json:"eventType" validate:"required"`
		Header    map[string]any `json:"header"`
		Payload   map[string]any `json:"payload" validate:"required"`
	} `json:"events" validate:"required,min=1,dive"`
}

func (r appendEventsRequest) revision() eventstore.Revision {
	switch {
	case r.ExpectedRevision != nil:
		return eventstore.ExplicitRevision(*r.ExpectedRevision)
	case r.NoStream:
		return eventstore.NoStream{}
	case r.StreamExists:
		return eventstore.StreamExists{}
	default:
		return eventstore.Any{}
	}
}

// AppendEvents handles POST /streams/:id/events. Payloads travel as raw
// JSON objects; a caller that wants them reconstructed into a concrete
// Go type on the way back out needs an eventstore.PayloadRegistry
// registered under the same eventType against whichever Storage the
// Store is configured with.
func (h *Handler) AppendEvents(c *gin.Context) {
	streamID := c.Param("id")

	var req appendEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Str("streamID", streamID).Msg("invalid append events request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stream, err := h.store.GetEventStream(c.Request.Context(), streamID, 0, -1)
	if err != nil {
		log.Error().Err(err).Str("streamID", streamID).Msg("load stream failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, e := range req.Events {
		header := e.Header
		if header == nil {
			header = map[string]any{}
		}
		header["eventType"] = e.EventType
		stream.AddEvent(e.Payload, eventstore.WithHeader(header))
	}

	committed, err := h.store.Commit(c.Request.Context(), stream, req.revision())
	if err != nil {
		writeCommitError(c, streamID, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"streamId":     streamID,
		"eventCount":   len(committed.Events),
		"lastRevision": committed.CurrentRevision(),
	})
}

func writeCommitError(c *gin.Context, streamID string, err error) {
	var conflict *eventstore.RevisionConflictError
	switch {
	case errors.As(err, &conflict):
		log.Warn().Err(err).Str("streamID", streamID).Msg("revision conflict")
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, eventstore.ErrStreamExists), errors.Is(err, eventstore.ErrStreamNotFound):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("streamID", streamID).Msg("commit failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// getStreamResponse mirrors an EventStream's committed events.
type getStreamResponse struct {
	StreamID string          `json:"streamId"`
	Events   []eventResponse `json:"events"`
}

type eventResponse struct {
	StreamRevision int64          `json:"streamRevision"`
	CommitID       string         `json:"commitId"`
	CommitSequence int            `json:"commitSequence"`
	Header         map[string]any `json:"header"`
	Payload        any            `json:"payload"`
	Dispatched     bool           `json:"dispatched"`
}

// GetStream handles GET /streams/:id?from=&to=. from/to bound the
// StreamRevision window (default: the whole stream).
func (h *Handler) GetStream(c *gin.Context) {
	streamID := c.Param("id")

	from := parseRevisionQuery(c, "from", 0)
	to := parseRevisionQuery(c, "to", -1)

	stream, err := h.store.GetEventStream(c.Request.Context(), streamID, from, to)
	if err != nil {
		log.Error().Err(err).Str("streamID", streamID).Msg("get stream failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := getStreamResponse{StreamID: streamID, Events: make([]eventResponse, len(stream.Events))}
	for i, e := range stream.Events {
		resp.Events[i] = eventResponse{
			StreamRevision: e.StreamRevision,
			CommitID:       e.CommitID,
			CommitSequence: e.CommitSequence,
			Header:         e.Header,
			Payload:        e.Payload,
			Dispatched:     e.Dispatched,
		}
	}
	c.JSON(http.StatusOK, resp)
}

func parseRevisionQuery(c *gin.Context, key string, def int64) int64 {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	var v int64
	if _, err := fmt.Sscan(raw, &v); err != nil {
		return def
	}
	return v
}

// createSnapshotRequest is the body of POST /streams/:id/snapshots.
type createSnapshotRequest struct {
	Revision int64          `json:"revision" validate:"gte=0"`
	Data     map[string]any `json:"data" validate:"required"`
}

// CreateSnapshot handles POST /streams/:id/snapshots.
func (h *Handler) CreateSnapshot(c *gin.Context) {
	streamID := c.Param("id")

	var req createSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := h.store.CreateSnapshot(c.Request.Context(), streamID, req.Revision, req.Data)
	if err != nil {
		log.Error().Err(err).Str("streamID", streamID).Msg("create snapshot failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       snapshot.ID,
		"streamId": snapshot.StreamID,
		"revision": snapshot.Revision,
	})
}
