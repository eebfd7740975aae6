package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"identity-manager/internal/account/models"
	"identity-manager/internal/platform/config"
)

type PersonaSuite struct {
	suite.Suite
	*fixture
}

func TestPersonaSuite(t *testing.T) {
	suite.Run(t, new(PersonaSuite))
}

func (s *PersonaSuite) SetupTest() {
	s.fixture = newFixture()
	s.verify("alice", "hash-a")
	s.Require().Nil(s.service.CreateAccount(context.Background(), "alice").Error)
}

func (s *PersonaSuite) TestCreatePersona() {
	ctx := context.Background()

	s.Run("missing account", func() {
		env := s.service.CreatePersona(ctx, "nobody", models.PersonaRequest{Domain: "app.io"})
		s.Equal("Unable to find Account.", *env.Error)
	})

	s.Run("oversized domain is invalid", func() {
		env := s.service.CreatePersona(ctx, "alice", models.PersonaRequest{Domain: strings.Repeat("x", 65)})
		s.Equal("Invalid persona", *env.Error)
	})

	s.Run("empty domain is invalid", func() {
		env := s.service.CreatePersona(ctx, "alice", models.PersonaRequest{})
		s.Equal("Invalid persona", *env.Error)
	})

	s.Run("domain over the limit is refused", func() {
		s.limits.over = true
		env := s.service.CreatePersona(ctx, "alice", models.PersonaRequest{Domain: "app.io"})
		s.Equal("Impossible to link this domain. Over limit.", *env.Error)
		s.limits.over = false
	})

	s.Run("creates with a generated id", func() {
		env := s.service.CreatePersona(ctx, "alice", models.PersonaRequest{Domain: "app.io", PersonaName: "work"})
		s.Require().Nil(env.Error)
		s.Require().Len(env.Data.Personas, 1)
		p := env.Data.Personas[0]
		s.NotEmpty(p.PersonaID)
		s.Equal("app.io", p.Domain)
		s.Equal(models.ProviderNFID, p.Provider)
		s.False(p.Certified)
	})

	s.Run("keeps a caller-supplied id", func() {
		env := s.service.CreatePersona(ctx, "alice", models.PersonaRequest{Domain: "app.io", PersonaID: "p-7"})
		s.Require().Nil(env.Error)
		s.Equal("p-7", env.Data.Personas[1].PersonaID)
	})
}

func (s *PersonaSuite) TestUpdatePersona() {
	ctx := context.Background()
	created := s.service.CreatePersona(ctx, "alice", models.PersonaRequest{Domain: "app.io", PersonaName: "work"})
	s.Require().Nil(created.Error)
	id := created.Data.Personas[0].PersonaID

	s.Run("rewrites the matching persona", func() {
		env := s.service.UpdatePersona(ctx, "alice", models.PersonaRequest{PersonaID: id, Domain: "app.io", PersonaName: "home"})
		s.Require().Nil(env.Error)
		s.Equal("home", env.Data.Personas[0].PersonaName)
	})

	s.Run("unknown id", func() {
		env := s.service.UpdatePersona(ctx, "alice", models.PersonaRequest{PersonaID: "ghost", Domain: "app.io"})
		s.Equal("Unable to find Persona to update.", *env.Error)
	})
}

func (s *PersonaSuite) TestRemovePersona() {
	ctx := context.Background()
	created := s.service.CreatePersona(ctx, "alice", models.PersonaRequest{Domain: "app.io", PersonaID: "p-1"})
	s.Require().Nil(created.Error)

	s.Run("removes by id", func() {
		env := s.service.RemovePersona(ctx, "alice", "p-1")
		s.Require().Nil(env.Error)
		s.Empty(env.Data.Personas)
	})

	s.Run("removing again fails", func() {
		env := s.service.RemovePersona(ctx, "alice", "p-1")
		s.Equal("Unable to find Persona to update.", *env.Error)
	})
}

func (s *PersonaSuite) TestRemoveNFIDPersonas() {
	ctx := context.Background()
	operator := "op-principal"
	s.runtime.Apply(config.ConfigureRequest{Operator: &operator})

	s.Require().Nil(s.service.CreatePersona(ctx, "alice", models.PersonaRequest{Domain: "a.io", PersonaID: "p-1"}).Error)
	s.Require().Nil(s.service.CreatePersona(ctx, "alice", models.PersonaRequest{Domain: "b.io", PersonaID: "p-2"}).Error)

	s.Run("non-operator is rejected", func() {
		env := s.service.RemoveNFIDPersonas(ctx, "alice")
		s.EqualValues(403, env.StatusCode)
	})

	s.Run("removes every nfid persona", func() {
		env := s.service.RemoveNFIDPersonas(ctx, operator)
		s.Require().Nil(env.Error)
		s.EqualValues(2, *env.Data)

		listed := s.service.ReadPersonas(ctx, "alice")
		s.Empty(*listed.Data)
	})
}

func (s *PersonaSuite) TestCertifyPhoneNumberSha2() {
	ctx := context.Background()
	s.Require().Nil(s.service.CreatePersona(ctx, "alice", models.PersonaRequest{Domain: "app.io", PersonaID: "p-1"}).Error)

	s.Run("missing account", func() {
		env := s.service.CertifyPhoneNumberSha2(ctx, "nobody", "app.io")
		s.Equal("Unable to find Account.", *env.Error)
	})

	s.Run("no persona for the domain", func() {
		env := s.service.CertifyPhoneNumberSha2(ctx, "alice", "other.io")
		s.Equal("No persona with such domain", *env.Error)
	})

	s.Run("returns the phone hash and certifies", func() {
		env := s.service.CertifyPhoneNumberSha2(ctx, "alice", "app.io")
		s.Require().Nil(env.Error)
		s.Equal("hash-a", *env.Data)

		listed := s.service.ReadPersonas(ctx, "alice")
		s.True((*listed.Data)[0].Certified)
	})

	s.Run("second certification needs another persona", func() {
		env := s.service.CertifyPhoneNumberSha2(ctx, "alice", "app.io")
		s.Equal("No non-certified persona with such domain", *env.Error)
	})

	s.Run("account without a phone on file", func() {
		s.verify("bob", "")
		s.Require().Nil(s.service.CreateAccount(ctx, "bob").Error)
		s.Require().Nil(s.service.CreatePersona(ctx, "bob", models.PersonaRequest{Domain: "app.io", PersonaID: "p-b"}).Error)

		env := s.service.CertifyPhoneNumberSha2(ctx, "bob", "app.io")
		s.Equal("Phone number not found", *env.Error)
	})
}
