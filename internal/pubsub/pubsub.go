// Package pubsub is a lightweight broadcast channel between devices of one
// identity: named topics holding a bounded queue of opaque string messages.
// Topics are ephemeral and expire after a quiet period.
package pubsub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"identity-manager/internal/platform/middleware"
	"identity-manager/pkg/response"
)

const (
	// DefaultTopicTTL is how long a topic survives without activity.
	DefaultTopicTTL = 90 * time.Second
	// MaxMessages bounds the queue length per topic.
	MaxMessages = 30
	// MaxMessageLength bounds a single message, in characters.
	MaxMessageLength = 3500
)

type topic struct {
	messages []string
	touched  time.Time
}

// Service owns the topic map. All operations reject anonymous callers.
type Service struct {
	mu     sync.Mutex
	topics map[string]*topic
	ttl    time.Duration
	log    *slog.Logger
	clock  func() time.Time
}

func NewService(log *slog.Logger) *Service {
	return &Service{
		topics: make(map[string]*topic),
		ttl:    DefaultTopicTTL,
		log:    log,
		clock:  time.Now,
	}
}

// WithTTL overrides the topic lifetime.
func (s *Service) WithTTL(ttl time.Duration) *Service {
	s.ttl = ttl
	return s
}

// WithClock overrides the time source, used by expiry tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// live returns the topic if present and unexpired, dropping it otherwise.
// Callers hold s.mu.
func (s *Service) live(name string, now time.Time) (*topic, bool) {
	t, ok := s.topics[name]
	if !ok {
		return nil, false
	}
	if now.Sub(t.touched) > s.ttl {
		delete(s.topics, name)
		return nil, false
	}
	return t, true
}

// CreateTopic registers an empty topic. Creating it twice is refused and
// leaves the existing queue untouched.
func (s *Service) CreateTopic(ctx context.Context, caller, name string) response.Envelope[string] {
	if middleware.IsAnonymous(caller) {
		return response.Error[string](401, "User is anonymous")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if _, ok := s.live(name, now); ok {
		return response.Conflict[string]("Topic exist")
	}
	s.topics[name] = &topic{messages: []string{}, touched: now}
	return response.Ok("Ok")
}

// DeleteTopic removes a topic and everything queued on it.
func (s *Service) DeleteTopic(ctx context.Context, caller, name string) response.Envelope[string] {
	if middleware.IsAnonymous(caller) {
		return response.Error[string](401, "User is anonymous")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(name, s.clock()); !ok {
		return response.NotFound[string]("No such topic")
	}
	delete(s.topics, name)
	return response.Ok("Ok")
}

// PostMessages queues messages on a topic, newest first. The whole batch is
// rejected when it would overflow the queue or any message is oversized.
func (s *Service) PostMessages(ctx context.Context, caller, name string, messages []string) response.Envelope[string] {
	if middleware.IsAnonymous(caller) {
		return response.Error[string](401, "User is anonymous")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	t, ok := s.live(name, now)
	if !ok {
		return response.NotFound[string]("No such topic")
	}
	if len(t.messages)+len(messages) > MaxMessages {
		return response.BadRequest[string]("More than 30 messages in channel")
	}
	for _, msg := range messages {
		if len([]rune(msg)) > MaxMessageLength {
			return response.BadRequest[string]("One of messages is more than 3500 chars")
		}
	}
	t.messages = append(append([]string{}, messages...), t.messages...)
	t.touched = now
	return response.Ok("Ok")
}

// GetMessages peeks at the queue without consuming it.
func (s *Service) GetMessages(ctx context.Context, caller, name string) response.Envelope[[]string] {
	if middleware.IsAnonymous(caller) {
		return response.Error[[]string](401, "User is anonymous")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	t, ok := s.live(name, now)
	if !ok {
		return response.NotFound[[]string]("No such topic")
	}
	t.touched = now
	return response.Ok(append([]string{}, t.messages...))
}

// DrainMessages returns the queue and clears it.
func (s *Service) DrainMessages(ctx context.Context, caller, name string) response.Envelope[[]string] {
	if middleware.IsAnonymous(caller) {
		return response.Error[[]string](401, "User is anonymous")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	t, ok := s.live(name, now)
	if !ok {
		return response.NotFound[[]string]("No such topic")
	}
	drained := t.messages
	t.messages = []string{}
	t.touched = now
	return response.Ok(drained)
}

// Sweep drops expired topics. The heartbeat worker calls it periodically so
// idle topics do not outlive their TTL waiting for a lazy check.
func (s *Service) Sweep(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	removed := 0
	for name, t := range s.topics {
		if now.Sub(t.touched) > s.ttl {
			delete(s.topics, name)
			removed++
		}
	}
	if removed > 0 {
		s.log.DebugContext(ctx, "swept expired topics", "removed", removed)
	}
	return removed
}
