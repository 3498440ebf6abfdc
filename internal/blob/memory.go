package blob

import (
	"context"
	"io"
	"strings"
	"sync"
)

// MemStore keeps objects in memory. Test use only.
type MemStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	baseURL string
}

// NewMemStore constructs an empty in-memory store.
func NewMemStore(baseURL string) *MemStore {
	return &MemStore{
		objects: make(map[string][]byte),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *MemStore) Put(_ context.Context, key, _ string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()
	return s.baseURL + "/" + key, nil
}

// Get returns a stored object for assertions.
func (s *MemStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}
