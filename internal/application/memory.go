package application

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used in tests and when the service
// runs without a database.
type MemoryStore struct {
	mu    sync.RWMutex
	apps  map[string]*Application
	links map[string]*Link
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		apps:  make(map[string]*Application),
		links: make(map[string]*Link),
	}
}

func (s *MemoryStore) InsertApplication(_ context.Context, a *Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[a.ID] = a.Clone()
	return nil
}

func (s *MemoryStore) FindApplication(_ context.Context, id string) (*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.apps[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a.Clone(), nil
}

func (s *MemoryStore) ListApplications(_ context.Context, agentID string, status *Status) ([]*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*Application{}
	for _, a := range s.apps {
		if a.AgentID != agentID {
			continue
		}
		if status != nil && a.Status != *status {
			continue
		}
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) UpdateApplication(_ context.Context, id string, upd Update, bioSubmittedAt *time.Time, now time.Time) (*Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Status != nil {
		a.Status = *upd.Status
	}
	if upd.BioInfo != nil {
		a.BioInfo = *upd.BioInfo
	}
	if upd.OREAForm != nil {
		form := *upd.OREAForm
		a.OREAForm = &form
	}
	if upd.Notes != nil {
		a.Notes = *upd.Notes
	}
	if bioSubmittedAt != nil {
		ts := *bioSubmittedAt
		a.BioSubmittedAt = &ts
	}
	a.UpdatedAt = now
	return a.Clone(), nil
}

func (s *MemoryStore) AppendDocument(_ context.Context, id string, doc Document, now time.Time) (*Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Documents = append(a.Documents, doc)
	a.DocumentType = doc.Type
	a.DocumentURL = doc.URL
	ts := now
	a.DocumentUploadedAt = &ts
	a.Status = StatusInReview
	a.UpdatedAt = now
	return a.Clone(), nil
}

func (s *MemoryStore) CountApplications(_ context.Context, f Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, a := range s.apps {
		if matchesFilter(a, f) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ListCompleted(_ context.Context, f Filter) ([]*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	approved := StatusApproved
	f.Status = &approved
	out := []*Application{}
	for _, a := range s.apps {
		if !matchesFilter(a, f) {
			continue
		}
		if a.BioSubmittedAt == nil || a.DocumentUploadedAt == nil {
			continue
		}
		out = append(out, a.Clone())
	}
	return out, nil
}

func matchesFilter(a *Application, f Filter) bool {
	if f.AgentID != "" && a.AgentID != f.AgentID {
		return false
	}
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	if f.CreatedFrom != nil && a.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && a.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.CreatedBefore != nil && !a.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	return true
}

func (s *MemoryStore) InsertLink(_ context.Context, l *Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *l
	s.links[l.ID] = &clone
	return nil
}

func (s *MemoryStore) FindLink(_ context.Context, id string) (*Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.links[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *l
	return &clone, nil
}

func (s *MemoryStore) DeactivateLink(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.links[id]
	if !ok {
		return ErrNotFound
	}
	l.IsActive = false
	return nil
}
