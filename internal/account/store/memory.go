package store

import (
	"context"
	"sort"
	"sync"

	"identity-manager/internal/account/models"
	"identity-manager/pkg/sentinel"
)

// anchorSeed keeps generated anchors clear of the ranges reserved for
// migrated Internet Identity anchors.
const anchorSeed = 10_000

// Memory is the in-process store. It favors clarity over performance and is
// the reference for the Postgres implementation's behavior.
type Memory struct {
	mu          sync.RWMutex
	byPrincipal map[string]models.Account
	anchorIdx   map[uint64]string
	phoneIdx    map[string]string
	removed     map[uint64]models.Account
	nextAnchor  uint64
}

func NewMemory() *Memory {
	return &Memory{
		byPrincipal: make(map[string]models.Account),
		anchorIdx:   make(map[uint64]string),
		phoneIdx:    make(map[string]string),
		removed:     make(map[uint64]models.Account),
		nextAnchor:  anchorSeed,
	}
}

func (m *Memory) NextAnchor(_ context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		m.nextAnchor++
		if _, taken := m.anchorIdx[m.nextAnchor]; !taken {
			return m.nextAnchor, nil
		}
	}
}

func (m *Memory) Create(_ context.Context, acc models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byPrincipal[acc.PrincipalID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := m.anchorIdx[acc.Anchor]; exists {
		return sentinel.ErrConflict
	}
	if acc.PhoneNumberHash != nil {
		if _, exists := m.phoneIdx[*acc.PhoneNumberHash]; exists {
			return sentinel.ErrConflict
		}
		m.phoneIdx[*acc.PhoneNumberHash] = acc.PrincipalID
	}
	m.byPrincipal[acc.PrincipalID] = acc.Clone()
	m.anchorIdx[acc.Anchor] = acc.PrincipalID
	return nil
}

func (m *Memory) GetByPrincipal(_ context.Context, principal string) (models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.byPrincipal[principal]
	if !ok {
		return models.Account{}, sentinel.ErrNotFound
	}
	return acc.Clone(), nil
}

func (m *Memory) GetByAnchor(_ context.Context, anchor uint64) (models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	principal, ok := m.anchorIdx[anchor]
	if !ok {
		return models.Account{}, sentinel.ErrNotFound
	}
	return m.byPrincipal[principal].Clone(), nil
}

func (m *Memory) Update(_ context.Context, acc models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.byPrincipal[acc.PrincipalID]
	if !ok {
		return sentinel.ErrNotFound
	}
	// Keep the phone index consistent when the bound hash changes.
	if prev.PhoneNumberHash != nil {
		delete(m.phoneIdx, *prev.PhoneNumberHash)
	}
	if acc.PhoneNumberHash != nil {
		if owner, exists := m.phoneIdx[*acc.PhoneNumberHash]; exists && owner != acc.PrincipalID {
			if prev.PhoneNumberHash != nil {
				m.phoneIdx[*prev.PhoneNumberHash] = prev.PrincipalID
			}
			return sentinel.ErrConflict
		}
		m.phoneIdx[*acc.PhoneNumberHash] = acc.PrincipalID
	}
	m.byPrincipal[acc.PrincipalID] = acc.Clone()
	return nil
}

func (m *Memory) Remove(_ context.Context, principal string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.byPrincipal[principal]
	if !ok {
		return models.Account{}, sentinel.ErrNotFound
	}
	delete(m.byPrincipal, principal)
	delete(m.anchorIdx, acc.Anchor)
	if acc.PhoneNumberHash != nil {
		delete(m.phoneIdx, *acc.PhoneNumberHash)
	}
	m.removed[acc.Anchor] = acc
	return acc.Clone(), nil
}

func (m *Memory) TakeRemoved(_ context.Context, anchor uint64) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.removed[anchor]
	if !ok {
		return models.Account{}, sentinel.ErrNotFound
	}
	delete(m.removed, anchor)
	return acc.Clone(), nil
}

func (m *Memory) PhoneHashOwner(_ context.Context, phoneHash string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	owner, ok := m.phoneIdx[phoneHash]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return owner, nil
}

func (m *Memory) All(_ context.Context) ([]models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Account, 0, len(m.byPrincipal))
	for _, acc := range m.byPrincipal {
		out = append(out, acc.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Anchor < out[j].Anchor })
	return out, nil
}

func (m *Memory) ReplaceAll(_ context.Context, accounts []models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byPrincipal = make(map[string]models.Account, len(accounts))
	m.anchorIdx = make(map[uint64]string, len(accounts))
	m.phoneIdx = make(map[string]string)
	for _, acc := range accounts {
		m.byPrincipal[acc.PrincipalID] = acc.Clone()
		m.anchorIdx[acc.Anchor] = acc.PrincipalID
		if acc.PhoneNumberHash != nil {
			m.phoneIdx[*acc.PhoneNumberHash] = acc.PrincipalID
		}
		if acc.Anchor > m.nextAnchor {
			m.nextAnchor = acc.Anchor
		}
	}
	return nil
}
