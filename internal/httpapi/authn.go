package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"rentflow.app/internal/agent"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// requireAgent authenticates the request and returns the agent plus a
// request whose context carries it, or writes a 401 and returns false.
// Failure modes share one message so callers cannot distinguish a
// missing account from a bad token.
func (a *API) requireAgent(w http.ResponseWriter, r *http.Request) (*agent.Agent, *http.Request, bool) {
	token, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "Could not validate credentials")
		return nil, r, false
	}
	current, err := a.agents.CurrentAgent(r.Context(), token)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "Could not validate credentials")
		return nil, r, false
	}
	return current, r.WithContext(agent.ContextWithAgent(r.Context(), current)), true
}

// optionalAgent resolves the bearer token when one is present. Absent
// header means an anonymous applicant; a header that fails to verify is
// still a hard 401, not a silent downgrade.
func (a *API) optionalAgent(w http.ResponseWriter, r *http.Request) (*agent.Agent, *http.Request, bool) {
	if strings.TrimSpace(r.Header.Get(authHeader)) == "" {
		return nil, r, true
	}
	return a.requireAgent(w, r)
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
