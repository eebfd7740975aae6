package phone

import (
	"context"
	"sync"
	"time"

	"identity-manager/pkg/sentinel"
)

// TokenStore keeps pending tokens, consumed proofs, and the per-principal
// activity stamp that drives the refresh-window rate limit. TTL expiry is
// judged by the service against the runtime configuration; stores only hold
// state.
type TokenStore interface {
	SaveToken(ctx context.Context, token Token) error
	Token(ctx context.Context, principal string) (Token, error)
	DeleteToken(ctx context.Context, principal string) error

	SaveProof(ctx context.Context, proof Proof) error
	// TakeProof pops the proof for principal; single consumer wins.
	TakeProof(ctx context.Context, principal string) (Proof, error)

	TouchActivity(ctx context.Context, principal string, at time.Time) error
	LastActivity(ctx context.Context, principal string) (time.Time, error)
}

// MemoryTokenStore is the in-process TokenStore.
type MemoryTokenStore struct {
	mu       sync.Mutex
	tokens   map[string]Token
	proofs   map[string]Proof
	activity map[string]time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		tokens:   make(map[string]Token),
		proofs:   make(map[string]Proof),
		activity: make(map[string]time.Time),
	}
}

func (s *MemoryTokenStore) SaveToken(_ context.Context, token Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.Principal] = token
	return nil
}

func (s *MemoryTokenStore) Token(_ context.Context, principal string) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[principal]
	if !ok {
		return Token{}, sentinel.ErrNotFound
	}
	return t, nil
}

func (s *MemoryTokenStore) DeleteToken(_ context.Context, principal string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, principal)
	return nil
}

func (s *MemoryTokenStore) SaveProof(_ context.Context, proof Proof) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proofs[proof.Principal] = proof
	return nil
}

func (s *MemoryTokenStore) TakeProof(_ context.Context, principal string) (Proof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proofs[principal]
	if !ok {
		return Proof{}, sentinel.ErrNotFound
	}
	delete(s.proofs, principal)
	return p, nil
}

func (s *MemoryTokenStore) TouchActivity(_ context.Context, principal string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity[principal] = at
	return nil
}

func (s *MemoryTokenStore) LastActivity(_ context.Context, principal string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.activity[principal]
	if !ok {
		return time.Time{}, sentinel.ErrNotFound
	}
	return at, nil
}
