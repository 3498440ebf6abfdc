package agent

import "context"

type ctxKey string

const agentKey ctxKey = "agent"

// ContextWithAgent stores the authenticated agent in the context.
func ContextWithAgent(ctx context.Context, a *Agent) context.Context {
	if a == nil {
		return ctx
	}
	return context.WithValue(ctx, agentKey, a)
}

// FromContext extracts the authenticated agent from the context.
func FromContext(ctx context.Context) (*Agent, bool) {
	a, ok := ctx.Value(agentKey).(*Agent)
	if !ok || a == nil {
		return nil, false
	}
	return a, true
}

// IDFromContext returns the authenticated agent's identifier, if any.
func IDFromContext(ctx context.Context) (string, bool) {
	a, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	return a.ID, true
}
