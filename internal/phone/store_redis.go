package phone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"identity-manager/pkg/sentinel"
)

// RedisTokenStore backs the token flow with Redis so multiple registry
// instances share pending tokens. Keys carry a generous TTL as a safety net;
// authoritative expiry still happens in the service against the runtime
// configuration.
type RedisTokenStore struct {
	client redis.UniversalClient
	keyTTL time.Duration
}

func NewRedisTokenStore(client redis.UniversalClient) *RedisTokenStore {
	return &RedisTokenStore{client: client, keyTTL: 24 * time.Hour}
}

func tokenKey(principal string) string    { return "phone:token:" + principal }
func proofKey(principal string) string    { return "phone:proof:" + principal }
func activityKey(principal string) string { return "phone:activity:" + principal }

func (s *RedisTokenStore) SaveToken(ctx context.Context, token Token) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	return s.client.Set(ctx, tokenKey(token.Principal), payload, s.keyTTL).Err()
}

func (s *RedisTokenStore) Token(ctx context.Context, principal string) (Token, error) {
	raw, err := s.client.Get(ctx, tokenKey(principal)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Token{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Token{}, fmt.Errorf("get token: %w", err)
	}
	var token Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return Token{}, fmt.Errorf("decode token: %w", err)
	}
	return token, nil
}

func (s *RedisTokenStore) DeleteToken(ctx context.Context, principal string) error {
	return s.client.Del(ctx, tokenKey(principal)).Err()
}

func (s *RedisTokenStore) SaveProof(ctx context.Context, proof Proof) error {
	payload, err := json.Marshal(proof)
	if err != nil {
		return fmt.Errorf("encode proof: %w", err)
	}
	return s.client.Set(ctx, proofKey(proof.Principal), payload, s.keyTTL).Err()
}

func (s *RedisTokenStore) TakeProof(ctx context.Context, principal string) (Proof, error) {
	raw, err := s.client.GetDel(ctx, proofKey(principal)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Proof{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Proof{}, fmt.Errorf("take proof: %w", err)
	}
	var proof Proof
	if err := json.Unmarshal(raw, &proof); err != nil {
		return Proof{}, fmt.Errorf("decode proof: %w", err)
	}
	return proof, nil
}

func (s *RedisTokenStore) TouchActivity(ctx context.Context, principal string, at time.Time) error {
	return s.client.Set(ctx, activityKey(principal), at.UnixNano(), s.keyTTL).Err()
}

func (s *RedisTokenStore) LastActivity(ctx context.Context, principal string) (time.Time, error) {
	nanos, err := s.client.Get(ctx, activityKey(principal)).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, sentinel.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get activity: %w", err)
	}
	return time.Unix(0, nanos), nil
}
