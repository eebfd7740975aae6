package replica

import (
	"context"
	"sync"

	"identity-manager/internal/account/models"
	"identity-manager/pkg/sentinel"
)

// MemoryReplica keeps the latest pushed snapshot in memory. It doubles as a
// BackupPort so restore round-trips can run without external services.
type MemoryReplica struct {
	mu     sync.RWMutex
	last   []models.Account
	pushes int
}

func NewMemoryReplica() *MemoryReplica {
	return &MemoryReplica{}
}

func (r *MemoryReplica) PushSnapshot(_ context.Context, accounts []models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make([]models.Account, len(accounts))
	for i, acc := range accounts {
		snapshot[i] = acc.Clone()
	}
	r.last = snapshot
	r.pushes++
	return nil
}

func (r *MemoryReplica) Fetch(_ context.Context, _, _ string) ([]models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return nil, sentinel.ErrNotFound
	}
	snapshot := make([]models.Account, len(r.last))
	for i, acc := range r.last {
		snapshot[i] = acc.Clone()
	}
	return snapshot, nil
}

// Pushes reports how many snapshots have been received.
func (r *MemoryReplica) Pushes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pushes
}
