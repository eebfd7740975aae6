package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"identity-manager/internal/account/models"
)

type AccessPointSuite struct {
	suite.Suite
	*fixture
	now time.Time
}

func TestAccessPointSuite(t *testing.T) {
	suite.Run(t, new(AccessPointSuite))
}

func (s *AccessPointSuite) SetupTest() {
	s.fixture = newFixture()
	s.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.service.WithClock(func() time.Time { return s.now })

	s.verify("alice", "hash-a")
	s.Require().Nil(s.service.CreateAccount(context.Background(), "alice").Error)
}

func request(pubKey string) models.AccessPointRequest {
	return models.AccessPointRequest{
		PubKey:     pubKey,
		Icon:       "laptop",
		Device:     "MacBook",
		Browser:    "Safari",
		DeviceType: models.DevicePasskey,
	}
}

func (s *AccessPointSuite) TestCreateAccessPoint() {
	ctx := context.Background()

	s.Run("missing account", func() {
		env := s.service.CreateAccessPoint(ctx, "nobody", request("pk-1"))
		s.Equal("Unable to find Account.", *env.Error)
	})

	s.Run("creates and stamps account activity", func() {
		env := s.service.CreateAccessPoint(ctx, "alice", request("pk-1"))
		s.Require().Nil(env.Error)
		s.Len(*env.Data, 1)
		s.Equal(s.now, (*env.Data)[0].LastUsed)

		acc := s.service.GetAccount(ctx, "alice")
		s.Equal(s.now, acc.Data.LastUsed)
	})

	s.Run("same public key is rejected", func() {
		env := s.service.CreateAccessPoint(ctx, "alice", request("pk-1"))
		s.Equal("Access Point exists.", *env.Error)

		listed := s.service.ReadAccessPoints(ctx, "alice")
		s.Len(*listed.Data, 1)
	})

	s.Run("listing keeps creation order", func() {
		s.Require().Nil(s.service.CreateAccessPoint(ctx, "alice", request("pk-2")).Error)
		env := s.service.ReadAccessPoints(ctx, "alice")
		s.Require().Nil(env.Error)
		s.Len(*env.Data, 2)
		s.Equal(accessPointID("pk-1"), (*env.Data)[0].PrincipalID)
		s.Equal(accessPointID("pk-2"), (*env.Data)[1].PrincipalID)
	})
}

func (s *AccessPointSuite) TestUpdateAccessPoint() {
	ctx := context.Background()
	s.Require().Nil(s.service.CreateAccessPoint(ctx, "alice", request("pk-1")).Error)
	s.Require().Nil(s.service.CreateAccessPoint(ctx, "alice", request("pk-2")).Error)

	s.Run("updates in place", func() {
		req := request("pk-1")
		req.Browser = "Chrome"
		env := s.service.UpdateAccessPoint(ctx, "alice", req)
		s.Require().Nil(env.Error)
		s.Equal("Chrome", (*env.Data)[0].Browser)
		s.Equal(accessPointID("pk-2"), (*env.Data)[1].PrincipalID)
	})

	s.Run("unknown endpoint", func() {
		env := s.service.UpdateAccessPoint(ctx, "alice", request("pk-9"))
		s.Equal("Access Point not exists.", *env.Error)
	})
}

func (s *AccessPointSuite) TestRemoveAccessPoint() {
	ctx := context.Background()
	s.Require().Nil(s.service.CreateAccessPoint(ctx, "alice", request("pk-1")).Error)

	s.Run("removes by public key", func() {
		env := s.service.RemoveAccessPoint(ctx, "alice", "pk-1")
		s.Require().Nil(env.Error)
		s.Empty(*env.Data)
	})

	s.Run("removing again fails", func() {
		env := s.service.RemoveAccessPoint(ctx, "alice", "pk-1")
		s.Equal("Access Point not exists.", *env.Error)
	})
}

func (s *AccessPointSuite) TestUseAccessPoints() {
	ctx := context.Background()
	s.Require().Nil(s.service.CreateAccessPoint(ctx, "alice", request("pk-1")).Error)
	s.Require().Nil(s.service.CreateAccessPoint(ctx, "alice", request("pk-2")).Error)
	accountStamp := s.service.GetAccount(ctx, "alice").Data.LastUsed

	s.now = s.now.Add(time.Hour)

	s.Run("stamps only the named endpoints", func() {
		env := s.service.UseAccessPoints(ctx, "alice", []string{"pk-1"})
		s.Require().Nil(env.Error)
		s.Equal(s.now, (*env.Data)[0].LastUsed)
		s.NotEqual(s.now, (*env.Data)[1].LastUsed)
	})

	s.Run("account activity is untouched", func() {
		acc := s.service.GetAccount(ctx, "alice")
		s.Equal(accountStamp, acc.Data.LastUsed)
	})

	s.Run("no names stamps everything", func() {
		s.now = s.now.Add(time.Hour)
		env := s.service.UseAccessPoints(ctx, "alice", nil)
		s.Require().Nil(env.Error)
		s.Equal(s.now, (*env.Data)[0].LastUsed)
		s.Equal(s.now, (*env.Data)[1].LastUsed)
	})

	s.Run("unknown endpoint fails", func() {
		env := s.service.UseAccessPoints(ctx, "alice", []string{"pk-9"})
		s.Equal("Access Point not exists.", *env.Error)
	})
}
