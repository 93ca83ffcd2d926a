package servicebus_test

import (
	"testing"

	"github.com/terraskye/eventstore/publisher/servicebus"
)

func TestNew_EmptyConnectionStringFails(t *testing.T) {
	if _, err := servicebus.New("", "eventstore-events"); err == nil {
		t.Fatal("expected error for empty connection string")
	}
}
