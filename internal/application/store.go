package application

import (
	"context"
	"strings"
	"sync"

	"identity-manager/pkg/sentinel"
)

// Store keeps the application listing in creation order.
type Store interface {
	Create(ctx context.Context, app Application) error
	Delete(ctx context.Context, name string) error
	All(ctx context.Context) ([]Application, error)
}

type MemoryStore struct {
	mu   sync.RWMutex
	apps []Application
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Create(_ context.Context, app Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.apps {
		if strings.EqualFold(existing.Name, app.Name) {
			return sentinel.ErrConflict
		}
	}
	s.apps = append(s.apps, app)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.apps {
		if strings.EqualFold(existing.Name, name) {
			s.apps = append(s.apps[:i], s.apps[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *MemoryStore) All(_ context.Context) ([]Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Application{}, s.apps...), nil
}
