package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rentflow.app/internal/ids"
	"rentflow.app/internal/obs"
)

// Notifier receives lifecycle events worth telling the owning agent
// about. Implementations must not block the caller.
type Notifier interface {
	DocumentUploaded(app *Application)
}

// discardNotifier drops every event.
type discardNotifier struct{}

func (discardNotifier) DocumentUploaded(*Application) {}

// Service implements the application lifecycle on top of a Store.
type Service struct {
	store       Store
	notifier    Notifier
	frontendURL string
	now         func() time.Time
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

// WithNotifier installs the notification sink for lifecycle events.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// NewService constructs the application service. frontendURL is the
// public base used when composing shareable link URLs.
func NewService(store Store, frontendURL string, opts ...Option) *Service {
	s := &Service{
		store:       store,
		notifier:    discardNotifier{},
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueLink creates a shareable link tied to the issuing agent and
// returns the link plus the public URL to hand to applicants.
func (s *Service) IssueLink(ctx context.Context, agentID string) (*Link, string, error) {
	l := &Link{
		ID:        ids.New(),
		AgentID:   agentID,
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertLink(ctx, l); err != nil {
		return nil, "", err
	}
	return l, s.frontendURL + "/apply/" + l.ID, nil
}

// ValidateLink reports whether the link exists and is still active.
// It never errors for unknown links; validity is the answer.
func (s *Service) ValidateLink(ctx context.Context, linkID string) (bool, error) {
	l, err := s.store.FindLink(ctx, linkID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return l.IsActive, nil
}

// DeactivateLink turns off a link so new applications can no longer be
// started from it. Existing applications are untouched.
func (s *Service) DeactivateLink(ctx context.Context, linkID string) error {
	return s.store.DeactivateLink(ctx, linkID)
}

// Start creates a draft application from a shareable link. The link must
// exist and be active. Links issued before agent attribution was added
// carry no agent; those drafts fall back to the link's own identifier as
// owner so they remain addressable, and the anomaly is logged.
func (s *Service) Start(ctx context.Context, linkID string) (*Application, error) {
	l, err := s.store.FindLink(ctx, linkID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidLink
		}
		return nil, err
	}
	if !l.IsActive {
		return nil, ErrInvalidLink
	}

	owner := l.AgentID
	if owner == "" {
		owner = l.ID
		obs.LogRequest(map[string]any{
			"level":   "warn",
			"msg":     "link has no agent attribution, using link id as owner",
			"link_id": l.ID,
		})
	}

	app := NewApplication(ids.New(), owner, s.now().UTC())
	if err := s.store.InsertApplication(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// Create makes a draft application directly for an agent, without going
// through a shareable link.
func (s *Service) Create(ctx context.Context, agentID string) (*Application, error) {
	if strings.TrimSpace(agentID) == "" {
		return nil, fmt.Errorf("%w: agent id is required", ErrInvalidInput)
	}
	app := NewApplication(ids.New(), agentID, s.now().UTC())
	if err := s.store.InsertApplication(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// Get fetches one application. When callerID is set, ownership is
// enforced; a mismatch reads the same as a missing row so application
// identifiers never leak across tenants.
func (s *Service) Get(ctx context.Context, id, callerID string) (*Application, error) {
	app, err := s.store.FindApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerID != "" && app.AgentID != callerID {
		return nil, ErrNotFound
	}
	return app, nil
}

// List returns the agent's applications, newest first, optionally
// filtered by status.
func (s *Service) List(ctx context.Context, agentID string, status *Status) ([]*Application, error) {
	return s.store.ListApplications(ctx, agentID, status)
}

// Update applies a partial update. Status changes must move forward;
// the first bio payload stamps bio_submitted_at.
func (s *Service) Update(ctx context.Context, id string, upd Update, callerID string) (*Application, error) {
	app, err := s.Get(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if upd.Empty() {
		return app, nil
	}

	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *upd.Status)
		}
		if !app.Status.CanTransitionTo(*upd.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, app.Status, *upd.Status)
		}
	}

	var bioSubmittedAt *time.Time
	if upd.BioInfo != nil && app.BioSubmittedAt == nil {
		ts := s.now().UTC()
		bioSubmittedAt = &ts
	}

	return s.store.UpdateApplication(ctx, id, upd, bioSubmittedAt, s.now().UTC())
}

// AttachDocument records a supporting document. Every attachment forces
// the application into review, regardless of its current status, and
// refreshes the latest-document mirror fields. The type is optional and
// defaults to "Unknown". The owning agent is notified out of band.
func (s *Service) AttachDocument(ctx context.Context, id, docType, url, callerID string) (*Application, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: document url is required", ErrInvalidInput)
	}
	if docType = strings.TrimSpace(docType); docType == "" {
		docType = "Unknown"
	}
	if _, err := s.Get(ctx, id, callerID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	doc := Document{Type: docType, URL: url, UploadedAt: now}
	app, err := s.store.AppendDocument(ctx, id, doc, now)
	if err != nil {
		return nil, err
	}

	s.notifier.DocumentUploaded(app.Clone())
	return app, nil
}
