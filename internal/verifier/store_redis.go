package verifier

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"identity-manager/pkg/sentinel"
)

// RedisTokenStore shares pending tokens between verifier instances. The key
// TTL is a safety net; authoritative expiry happens in the service against
// the configured token TTL.
type RedisTokenStore struct {
	client redis.UniversalClient
	keyTTL time.Duration
}

func NewRedisTokenStore(client redis.UniversalClient) *RedisTokenStore {
	return &RedisTokenStore{client: client, keyTTL: time.Hour}
}

func redisTokenKey(key [KeySize]byte) string {
	return "verifier:token:" + hex.EncodeToString(key[:])
}

func (s *RedisTokenStore) SaveToken(ctx context.Context, token Token) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	return s.client.Set(ctx, redisTokenKey(token.Key), payload, s.keyTTL).Err()
}

func (s *RedisTokenStore) TakeToken(ctx context.Context, key [KeySize]byte) (Token, error) {
	raw, err := s.client.GetDel(ctx, redisTokenKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Token{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Token{}, fmt.Errorf("take token: %w", err)
	}
	var token Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return Token{}, fmt.Errorf("decode token: %w", err)
	}
	token.Key = key
	return token, nil
}
