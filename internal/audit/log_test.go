package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"rentflow.app/internal/agent"
	"rentflow.app/internal/obs"
)

func TestLogEventFlattensFields(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = agent.ContextWithAgent(ctx, &agent.Agent{ID: "agent-42"})

	err := LogEvent(ctx, "application.create", map[string]any{
		"application_id": "app-7",
		"event":          "spoofed",
	})
	if err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "application.create" {
		t.Fatalf("reserved key should win: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["agent_id"] != "agent-42" {
		t.Fatalf("unexpected agent id: %v", entry["agent_id"])
	}
	if entry["application_id"] != "app-7" {
		t.Fatalf("caller field missing: %v", entry["application_id"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatal("expected ts to be stamped")
	}
}

func TestLogEventRejectsBlankName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty event name")
	}
}
