package verifier

import (
	"context"
	"encoding/hex"
	"sync"

	"identity-manager/pkg/sentinel"
)

// TokenStore keeps pending phone-number tokens keyed by their random key.
type TokenStore interface {
	SaveToken(ctx context.Context, token Token) error
	// TakeToken removes and returns the token for key. Tokens are single-use.
	TakeToken(ctx context.Context, key [KeySize]byte) (Token, error)
}

// CredentialStore keeps the latest resolved credential per client principal.
type CredentialStore interface {
	SaveCredential(ctx context.Context, cred Credential) error
	LatestByPrincipal(ctx context.Context, principal string) (Credential, error)
}

type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]Token
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]Token)}
}

func (s *MemoryTokenStore) SaveToken(_ context.Context, token Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[hex.EncodeToString(token.Key[:])] = token
	return nil
}

func (s *MemoryTokenStore) TakeToken(_ context.Context, key [KeySize]byte) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := hex.EncodeToString(key[:])
	token, ok := s.tokens[k]
	if !ok {
		return Token{}, sentinel.ErrNotFound
	}
	delete(s.tokens, k)
	return token, nil
}

type MemoryCredentialStore struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{creds: make(map[string]Credential)}
}

func (s *MemoryCredentialStore) SaveCredential(_ context.Context, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.ClientPrincipal] = cred
	return nil
}

func (s *MemoryCredentialStore) LatestByPrincipal(_ context.Context, principal string) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[principal]
	if !ok {
		return Credential{}, sentinel.ErrNotFound
	}
	return cred, nil
}
