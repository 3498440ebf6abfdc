package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentflow.app/internal/ids"
)

// Service provides registration, authentication and settings management
// for agent accounts.
type Service struct {
	store  Store
	signer *TokenSigner
	now    func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the agent service.
func NewService(store Store, signer *TokenSigner, opts ...Option) *Service {
	s := &Service{
		store:  store,
		signer: signer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterParams carries the fields accepted at registration time.
type RegisterParams struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	CompanyName string
	Phone       string
	Bio         string
}

// Session is an issued credential with its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Register creates an agent account and issues a session token. Emails are
// matched exactly as stored (case-sensitive); a duplicate yields
// ErrConflict. The plaintext password is hashed and discarded.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*Agent, Session, error) {
	email := strings.TrimSpace(p.Email)
	if email == "" || p.Password == "" || strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return nil, Session{}, ErrInvalidInput
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, Session{}, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, Session{}, err
	}

	hash, err := HashPassword(p.Password)
	if err != nil {
		return nil, Session{}, err
	}

	now := s.now().UTC()
	a := &Agent{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		CompanyName:  strings.TrimSpace(p.CompanyName),
		Phone:        strings.TrimSpace(p.Phone),
		Bio:          p.Bio,
		Settings:     DefaultSettings(),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, Session{}, err
	}

	session, err := s.issueSession(a.ID)
	if err != nil {
		return nil, Session{}, err
	}
	return a, session, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password both return ErrUnauthorized so account existence never leaks.
func (s *Service) Login(ctx context.Context, email, password string) (*Agent, Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, Session{}, ErrUnauthorized
	}
	a, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, Session{}, ErrUnauthorized
		}
		return nil, Session{}, err
	}
	if err := VerifyPassword(a.PasswordHash, password); err != nil {
		return nil, Session{}, ErrUnauthorized
	}

	session, err := s.issueSession(a.ID)
	if err != nil {
		return nil, Session{}, err
	}
	return a, session, nil
}

// CurrentAgent resolves a session token to the live agent record. The
// token only proves identity; the record is re-fetched so a deactivated
// account fails on its next request.
func (s *Service) CurrentAgent(ctx context.Context, token string) (*Agent, error) {
	agentID, err := s.signer.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	a, err := s.store.Find(ctx, agentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !a.IsActive {
		return nil, ErrUnauthorized
	}
	return a, nil
}

// GetSettings returns the agent's current settings document.
func (s *Service) GetSettings(ctx context.Context, agentID string) (Settings, error) {
	a, err := s.store.Find(ctx, agentID)
	if err != nil {
		return Settings{}, err
	}
	return a.Settings, nil
}

// UpdateSettings replaces the agent's settings document wholesale.
func (s *Service) UpdateSettings(ctx context.Context, agentID string, settings Settings) (Settings, error) {
	if err := s.store.UpdateSettings(ctx, agentID, settings, s.now().UTC()); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// SetLogoURL records a freshly uploaded logo on the agent's settings.
func (s *Service) SetLogoURL(ctx context.Context, agentID, url string) error {
	return s.store.SetLogoURL(ctx, agentID, url, s.now().UTC())
}

// SetBackgroundImageURL records a freshly uploaded background image.
func (s *Service) SetBackgroundImageURL(ctx context.Context, agentID, url string) error {
	return s.store.SetBackgroundImageURL(ctx, agentID, url, s.now().UTC())
}

func (s *Service) issueSession(agentID string) (Session, error) {
	token, expiresAt, err := s.signer.Sign(agentID)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt}, nil
}
