package eventstore_test

import (
	"errors"
	"testing"

	"github.com/terraskye/eventstore"
)

func TestRevisionConflictError_Error(t *testing.T) {
	err := &eventstore.RevisionConflictError{
		StreamID:         "order-1",
		ExpectedRevision: eventstore.ExplicitRevision(2),
		ActualRevision:   5,
	}
	if err.Error() == "" {
		t.Fatal("expected non-empty error message")
	}
}

func TestWrapBackendError_NilIsNil(t *testing.T) {
	if err := eventstore.WrapBackendError("GetEvents", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestWrapBackendError_UnwrapsToOriginal(t *testing.T) {
	original := errors.New("connection refused")
	wrapped := eventstore.WrapBackendError("GetEvents", original)

	if !errors.Is(wrapped, original) {
		t.Fatal("expected wrapped error to unwrap to the original")
	}

	var backendErr *eventstore.BackendError
	if !errors.As(wrapped, &backendErr) {
		t.Fatal("expected errors.As to find a BackendError")
	}
	if backendErr.Op != "GetEvents" {
		t.Errorf("expected Op %q, got %q", "GetEvents", backendErr.Op)
	}
}
