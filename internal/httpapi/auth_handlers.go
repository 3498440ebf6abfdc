package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"rentflow.app/internal/agent"
	"rentflow.app/internal/audit"
)

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CompanyName string `json:"company_name"`
	Phone       string `json:"phone"`
	Bio         string `json:"bio"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FullName    string `json:"fullName"`
	CompanyName string `json:"companyName,omitempty"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		writeError(w, r, http.StatusBadRequest, "first_name and last_name are required")
		return
	}

	created, session, err := a.agents.Register(r.Context(), agent.RegisterParams{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		CompanyName: req.CompanyName,
		Phone:       req.Phone,
		Bio:         req.Bio,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"agent_id":   created.ID,
		"email":      created.Email,
		"expires_at": session.ExpiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, authResponse{
		Token: session.Token,
		User:  toUserPayload(created),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	current, session, err := a.agents.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, agent.ErrUnauthorized) {
			// Same body for unknown email and wrong password.
			writeError(w, r, http.StatusUnauthorized, "Incorrect email or password")
			return
		}
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"agent_id":   current.ID,
		"expires_at": session.ExpiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, authResponse{
		Token: session.Token,
		User:  toUserPayload(current),
	})
}

func toUserPayload(a *agent.Agent) userPayload {
	return userPayload{
		ID:          a.ID,
		Email:       a.Email,
		FullName:    a.FullName(),
		CompanyName: a.CompanyName,
	}
}
