package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/terraskye/eventstore/logging"
)

func TestZerologLogger_FoldsArgsIntoFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	l := logging.NewZerologLogger(base)

	l.Info("committed batch", "streamID", "order-1", "count", 3)

	out := buf.String()
	if !strings.Contains(out, `"streamID":"order-1"`) {
		t.Errorf("expected streamID field in output, got %s", out)
	}
	if !strings.Contains(out, `"message":"committed batch"`) {
		t.Errorf("expected message field in output, got %s", out)
	}
}

func TestZerologLogger_OddArgsIgnoresTrailingKey(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewZerologLogger(zerolog.New(&buf))

	l.Warn("dangling key", "onlyKey")

	if !strings.Contains(buf.String(), `"message":"dangling key"`) {
		t.Errorf("expected message to still be logged, got %s", buf.String())
	}
}
