// Package audit emits structured audit events for state-changing API calls.
package audit

import (
	"context"
	"errors"
	"strings"

	"rentflow.app/internal/agent"
	"rentflow.app/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context so audit
// entries can be correlated with request logs.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes one audit line. Event-specific fields are flattened
// into the entry; the reserved keys type, event, request_id and
// agent_id always win over caller-supplied ones.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("audit: event name is required")
	}

	entry := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		entry[k] = v
	}
	entry["type"] = "audit"
	entry["event"] = event
	if rid := requestIDFromContext(ctx); rid != "" {
		entry["request_id"] = rid
	}
	if agentID, ok := agent.IDFromContext(ctx); ok {
		entry["agent_id"] = agentID
	}

	obs.LogRequest(entry)
	return nil
}
