package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"identity-manager/internal/account/models"
	"identity-manager/pkg/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Memory
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
}

func account(anchor uint64, principal string, hash *string) models.Account {
	return models.Account{Anchor: anchor, PrincipalID: principal, PhoneNumberHash: hash}
}

func (s *MemoryStoreSuite) TestNextAnchor() {
	ctx := context.Background()

	a1, err := s.store.NextAnchor(ctx)
	s.Require().NoError(err)
	s.EqualValues(10_001, a1)

	a2, err := s.store.NextAnchor(ctx)
	s.Require().NoError(err)
	s.EqualValues(10_002, a2)
}

func (s *MemoryStoreSuite) TestNextAnchorSkipsTaken() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, account(10_001, "alice", nil)))

	a, err := s.store.NextAnchor(ctx)
	s.Require().NoError(err)
	s.EqualValues(10_002, a)
}

func (s *MemoryStoreSuite) TestCreateConflicts() {
	ctx := context.Background()
	hash := "h1"
	s.Require().NoError(s.store.Create(ctx, account(10_001, "alice", &hash)))

	s.Run("duplicate principal", func() {
		err := s.store.Create(ctx, account(10_002, "alice", nil))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("duplicate anchor", func() {
		err := s.store.Create(ctx, account(10_001, "bob", nil))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("duplicate phone hash", func() {
		err := s.store.Create(ctx, account(10_002, "bob", &hash))
		s.ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *MemoryStoreSuite) TestUpdatePhoneIndex() {
	ctx := context.Background()
	h1, h2 := "h1", "h2"
	s.Require().NoError(s.store.Create(ctx, account(10_001, "alice", &h1)))
	s.Require().NoError(s.store.Create(ctx, account(10_002, "bob", &h2)))

	s.Run("rebinding to a foreign hash conflicts and rolls back", func() {
		acc, _ := s.store.GetByPrincipal(ctx, "alice")
		acc.PhoneNumberHash = &h2
		s.ErrorIs(s.store.Update(ctx, acc), sentinel.ErrConflict)

		owner, err := s.store.PhoneHashOwner(ctx, h1)
		s.Require().NoError(err)
		s.Equal("alice", owner)
	})

	s.Run("dropping the hash frees it", func() {
		acc, _ := s.store.GetByPrincipal(ctx, "alice")
		acc.PhoneNumberHash = nil
		s.Require().NoError(s.store.Update(ctx, acc))

		_, err := s.store.PhoneHashOwner(ctx, h1)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestRemoveAndTakeRemoved() {
	ctx := context.Background()
	hash := "h1"
	s.Require().NoError(s.store.Create(ctx, account(10_001, "alice", &hash)))

	removed, err := s.store.Remove(ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", removed.PrincipalID)

	s.Run("account is gone from lookups", func() {
		_, err := s.store.GetByPrincipal(ctx, "alice")
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.GetByAnchor(ctx, 10_001)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.PhoneHashOwner(ctx, hash)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("same principal can create a new account", func() {
		s.Require().NoError(s.store.Create(ctx, account(10_002, "alice", &hash)))

		got, err := s.store.GetByPrincipal(ctx, "alice")
		s.Require().NoError(err)
		s.EqualValues(10_002, got.Anchor)
	})

	s.Run("take removed pops it once", func() {
		acc, err := s.store.TakeRemoved(ctx, 10_001)
		s.Require().NoError(err)
		s.Equal("alice", acc.PrincipalID)

		_, err = s.store.TakeRemoved(ctx, 10_001)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestAllAndReplaceAll() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, account(10_002, "bob", nil)))
	s.Require().NoError(s.store.Create(ctx, account(10_001, "alice", nil)))

	s.Run("listing is ordered by anchor", func() {
		all, err := s.store.All(ctx)
		s.Require().NoError(err)
		s.Len(all, 2)
		s.Equal("alice", all[0].PrincipalID)
		s.Equal("bob", all[1].PrincipalID)
	})

	s.Run("replace swaps the whole state and bumps the counter", func() {
		s.Require().NoError(s.store.ReplaceAll(ctx, []models.Account{account(10_500, "carol", nil)}))

		_, err := s.store.GetByPrincipal(ctx, "alice")
		s.ErrorIs(err, sentinel.ErrNotFound)

		next, err := s.store.NextAnchor(ctx)
		s.Require().NoError(err)
		s.EqualValues(10_501, next)
	})
}

func (s *MemoryStoreSuite) TestClonesAreIsolated() {
	ctx := context.Background()
	acc := account(10_001, "alice", nil)
	acc.AccessPoints = []models.AccessPoint{{PrincipalID: "ap-1"}}
	s.Require().NoError(s.store.Create(ctx, acc))

	got, err := s.store.GetByPrincipal(ctx, "alice")
	s.Require().NoError(err)
	got.AccessPoints[0].PrincipalID = "mutated"

	fresh, err := s.store.GetByPrincipal(ctx, "alice")
	s.Require().NoError(err)
	s.Equal("ap-1", fresh.AccessPoints[0].PrincipalID)
}
