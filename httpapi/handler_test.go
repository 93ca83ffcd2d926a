package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/terraskye/eventstore"
	"github.com/terraskye/eventstore/fixtures"
	"github.com/terraskye/eventstore/httpapi"
)

func newTestStore(t *testing.T, storage *fixtures.StorageSpy) *eventstore.Store {
	t.Helper()
	store := eventstore.New()
	if err := store.Use(storage); err != nil {
		t.Fatalf("Use: %v", err)
	}
	if err := store.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { store.Stop() })
	return store
}

func newTestRouter(store *eventstore.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	httpapi.NewHandler(store).RegisterRoutes(router)
	return router
}

func TestAppendEvents_Success(t *testing.T) {
	router := newTestRouter(newTestStore(t, fixtures.EmptyStorage()))

	body := `{"events":[{"eventType":"OrderPlaced","payload":{"orderId":"o-1"}}]}`
	req := httptest.NewRequest(http.MethodPost, "/streams/order-1/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["lastRevision"] != float64(0) {
		t.Errorf("expected lastRevision 0, got %v", resp["lastRevision"])
	}
}

func TestAppendEvents_MissingPayload_BadRequest(t *testing.T) {
	router := newTestRouter(newTestStore(t, fixtures.EmptyStorage()))

	body := `{"events":[{"eventType":"OrderPlaced"}]}`
	req := httptest.NewRequest(http.MethodPost, "/streams/order-1/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAppendEvents_NoStreamConflict(t *testing.T) {
	router := newTestRouter(newTestStore(t, fixtures.StorageWithStream("order-1", 2)))

	body := `{"noStream":true,"events":[{"eventType":"OrderPlaced","payload":{"orderId":"o-1"}}]}`
	req := httptest.NewRequest(http.MethodPost, "/streams/order-1/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetStream_ReturnsCommittedEvents(t *testing.T) {
	router := newTestRouter(newTestStore(t, fixtures.StorageWithStream("order-1", 3)))

	req := httptest.NewRequest(http.MethodGet, "/streams/order-1", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Events []map[string]any `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(resp.Events))
	}
}

func TestCreateSnapshot_Success(t *testing.T) {
	router := newTestRouter(newTestStore(t, fixtures.StorageWithStream("order-1", 5)))

	body := `{"revision":4,"data":{"total":100}}`
	req := httptest.NewRequest(http.MethodPost, "/streams/order-1/snapshots", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}
