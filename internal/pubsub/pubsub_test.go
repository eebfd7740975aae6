package pubsub

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type PubSubSuite struct {
	suite.Suite
	service *Service
	now     time.Time
}

func TestPubSubSuite(t *testing.T) {
	suite.Run(t, new(PubSubSuite))
}

func (s *PubSubSuite) SetupTest() {
	s.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewService(log).WithClock(func() time.Time { return s.now })
}

func (s *PubSubSuite) TestCreateTopic() {
	ctx := context.Background()

	s.Run("anonymous caller is rejected", func() {
		env := s.service.CreateTopic(ctx, "2vxsx-fae", "pairing")
		s.EqualValues(401, env.StatusCode)
		s.Equal("User is anonymous", *env.Error)
	})

	s.Run("creates a topic", func() {
		env := s.service.CreateTopic(ctx, "alice", "pairing")
		s.Require().Nil(env.Error)
	})

	s.Run("second create is refused and non-destructive", func() {
		s.Require().Nil(s.service.PostMessages(ctx, "alice", "pairing", []string{"m1"}).Error)
		env := s.service.CreateTopic(ctx, "alice", "pairing")
		s.EqualValues(409, env.StatusCode)
		s.Equal("Topic exist", *env.Error)

		msgs := s.service.GetMessages(ctx, "alice", "pairing")
		s.Len(*msgs.Data, 1)
	})
}

func (s *PubSubSuite) TestPostMessages() {
	ctx := context.Background()
	s.Require().Nil(s.service.CreateTopic(ctx, "alice", "pairing").Error)

	s.Run("unknown topic", func() {
		env := s.service.PostMessages(ctx, "alice", "ghost", []string{"m"})
		s.Equal("No such topic", *env.Error)
	})

	s.Run("newest messages come first", func() {
		s.Require().Nil(s.service.PostMessages(ctx, "alice", "pairing", []string{"first"}).Error)
		s.Require().Nil(s.service.PostMessages(ctx, "alice", "pairing", []string{"second"}).Error)
		env := s.service.GetMessages(ctx, "alice", "pairing")
		s.Require().Nil(env.Error)
		s.Equal([]string{"second", "first"}, *env.Data)
	})

	s.Run("queue overflow rejects the whole batch", func() {
		batch := make([]string, MaxMessages)
		for i := range batch {
			batch[i] = "m"
		}
		env := s.service.PostMessages(ctx, "alice", "pairing", batch)
		s.Equal("More than 30 messages in channel", *env.Error)
	})

	s.Run("oversized message rejects the whole batch", func() {
		env := s.service.PostMessages(ctx, "alice", "pairing", []string{"ok", strings.Repeat("x", MaxMessageLength+1)})
		s.Equal("One of messages is more than 3500 chars", *env.Error)

		msgs := s.service.GetMessages(ctx, "alice", "pairing")
		s.Len(*msgs.Data, 2)
	})
}

func (s *PubSubSuite) TestDrainMessages() {
	ctx := context.Background()
	s.Require().Nil(s.service.CreateTopic(ctx, "alice", "pairing").Error)
	s.Require().Nil(s.service.PostMessages(ctx, "alice", "pairing", []string{"m1", "m2"}).Error)

	s.Run("peek keeps the queue", func() {
		env := s.service.GetMessages(ctx, "alice", "pairing")
		s.Len(*env.Data, 2)
		env = s.service.GetMessages(ctx, "alice", "pairing")
		s.Len(*env.Data, 2)
	})

	s.Run("drain clears the queue", func() {
		env := s.service.DrainMessages(ctx, "alice", "pairing")
		s.Len(*env.Data, 2)
		env = s.service.DrainMessages(ctx, "alice", "pairing")
		s.Empty(*env.Data)
	})
}

func (s *PubSubSuite) TestDeleteTopic() {
	ctx := context.Background()
	s.Require().Nil(s.service.CreateTopic(ctx, "alice", "pairing").Error)

	s.Run("deletes the topic", func() {
		env := s.service.DeleteTopic(ctx, "alice", "pairing")
		s.Require().Nil(env.Error)
	})

	s.Run("deleting again fails", func() {
		env := s.service.DeleteTopic(ctx, "alice", "pairing")
		s.Equal("No such topic", *env.Error)
	})
}

func (s *PubSubSuite) TestExpiry() {
	ctx := context.Background()
	s.Require().Nil(s.service.CreateTopic(ctx, "alice", "pairing").Error)

	s.Run("idle topic expires after the TTL", func() {
		s.now = s.now.Add(DefaultTopicTTL + time.Second)
		env := s.service.GetMessages(ctx, "alice", "pairing")
		s.Equal("No such topic", *env.Error)
	})

	s.Run("activity keeps the topic alive", func() {
		s.Require().Nil(s.service.CreateTopic(ctx, "alice", "fresh").Error)
		s.now = s.now.Add(DefaultTopicTTL / 2)
		s.Require().Nil(s.service.PostMessages(ctx, "alice", "fresh", []string{"m"}).Error)
		s.now = s.now.Add(DefaultTopicTTL / 2)
		env := s.service.GetMessages(ctx, "alice", "fresh")
		s.Require().Nil(env.Error)
		s.Len(*env.Data, 1)
	})

	s.Run("sweep drops idle topics", func() {
		s.Require().Nil(s.service.CreateTopic(ctx, "alice", "stale").Error)
		s.now = s.now.Add(DefaultTopicTTL + time.Second)
		s.Equal(2, s.service.Sweep(ctx))
	})
}
