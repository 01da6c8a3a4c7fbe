package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestContextCarriesLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)
	ctx := ContextWithLogger(context.Background(), logger)

	if FromContext(ctx) != logger {
		t.Fatalf("expected logger from context")
	}
	if FromContext(context.Background()) != nil {
		t.Fatalf("expected nil logger for bare context")
	}
	if FromContextOr(context.Background(), logger) != logger {
		t.Fatalf("expected fallback logger")
	}

	FromContext(ctx).Debug("hidden")
	FromContext(ctx).Info("visible", slog.String("project_id", "p-1"))

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "visible" || entry["project_id"] != "p-1" {
		t.Fatalf("unexpected log entry %v", entry)
	}
}
