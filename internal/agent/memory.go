package agent

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used in tests and when the service
// runs without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	agents  map[string]*Agent
	byEmail map[string]string
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		agents:  make(map[string]*Agent),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryStore) Create(_ context.Context, a *Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[a.Email]; exists {
		return ErrConflict
	}
	clone := *a
	s.agents[a.ID] = &clone
	s.byEmail[a.Email] = a.ID
	return nil
}

func (s *MemoryStore) Find(_ context.Context, id string) (*Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *s.agents[id]
	return &clone, nil
}

func (s *MemoryStore) UpdateSettings(_ context.Context, id string, settings Settings, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return ErrNotFound
	}
	a.Settings = settings
	a.UpdatedAt = now
	return nil
}

func (s *MemoryStore) SetLogoURL(_ context.Context, id, url string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return ErrNotFound
	}
	a.Settings.LogoURL = url
	a.UpdatedAt = now
	return nil
}

func (s *MemoryStore) SetBackgroundImageURL(_ context.Context, id, url string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return ErrNotFound
	}
	a.Settings.BackgroundImageURL = url
	a.UpdatedAt = now
	return nil
}
