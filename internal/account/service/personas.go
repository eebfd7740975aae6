package service

import (
	"context"

	"github.com/google/uuid"

	"identity-manager/internal/account/models"
	"identity-manager/pkg/response"
)

// Frontend-supplied persona fields are bounded to keep aggregates small.
const maxPersonaFieldLength = 64

func validPersonaRequest(req models.PersonaRequest) bool {
	if req.Domain == "" || len(req.Domain) > maxPersonaFieldLength {
		return false
	}
	return len(req.PersonaName) <= maxPersonaFieldLength && len(req.PersonaID) <= maxPersonaFieldLength
}

// CreatePersona binds a new domain-scoped persona to the caller's account,
// honoring the application user limit for that domain.
func (s *Service) CreatePersona(ctx context.Context, caller string, req models.PersonaRequest) response.Envelope[models.Account] {
	if !validPersonaRequest(req) {
		return response.NotFound[models.Account]("Invalid persona")
	}
	acc, err := s.store.GetByPrincipal(ctx, caller)
	if err != nil {
		return response.NotFound[models.Account]("Unable to find Account.")
	}
	if s.limits.IsOverTheLimit(ctx, acc, req.Domain) {
		return response.NotFound[models.Account]("Impossible to link this domain. Over limit.")
	}

	personaID := req.PersonaID
	if personaID == "" {
		personaID = uuid.NewString()
	}
	acc.Personas = append(acc.Personas, models.Persona{
		PersonaID:   personaID,
		Domain:      req.Domain,
		PersonaName: req.PersonaName,
		Provider:    models.ProviderNFID,
	})
	if err := s.store.Update(ctx, acc); err != nil {
		s.log.ErrorContext(ctx, "store persona", "error", err.Error())
		return response.Error[models.Account](500, "Unable to store persona.")
	}
	return response.Ok(acc)
}

// ReadPersonas lists the caller's personas in creation order. The listing
// is stable across process restarts via the backing store.
func (s *Service) ReadPersonas(ctx context.Context, caller string) response.Envelope[[]models.Persona] {
	acc, err := s.store.GetByPrincipal(ctx, caller)
	if err != nil {
		return response.NotFound[[]models.Persona]("Unable to find Account.")
	}
	return response.Ok(acc.Personas)
}

// UpdatePersona rewrites the persona with the matching id in place.
func (s *Service) UpdatePersona(ctx context.Context, caller string, req models.PersonaRequest) response.Envelope[models.Account] {
	if !validPersonaRequest(req) {
		return response.NotFound[models.Account]("Invalid persona")
	}
	acc, err := s.store.GetByPrincipal(ctx, caller)
	if err != nil {
		return response.NotFound[models.Account]("Unable to find Account.")
	}

	found := false
	for i := range acc.Personas {
		if acc.Personas[i].PersonaID != req.PersonaID {
			continue
		}
		acc.Personas[i].Domain = req.Domain
		acc.Personas[i].PersonaName = req.PersonaName
		found = true
		break
	}
	if !found {
		return response.NotFound[models.Account]("Unable to find Persona to update.")
	}
	if err := s.store.Update(ctx, acc); err != nil {
		s.log.ErrorContext(ctx, "store persona", "error", err.Error())
		return response.Error[models.Account](500, "Unable to store persona.")
	}
	return response.Ok(acc)
}

// RemovePersona drops a persona by id.
func (s *Service) RemovePersona(ctx context.Context, caller string, personaID string) response.Envelope[models.Account] {
	acc, err := s.store.GetByPrincipal(ctx, caller)
	if err != nil {
		return response.NotFound[models.Account]("Unable to find Account.")
	}

	kept := acc.Personas[:0:0]
	for _, p := range acc.Personas {
		if p.PersonaID != personaID {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(acc.Personas) {
		return response.NotFound[models.Account]("Unable to find Persona to update.")
	}
	acc.Personas = kept
	if err := s.store.Update(ctx, acc); err != nil {
		s.log.ErrorContext(ctx, "store persona", "error", err.Error())
		return response.Error[models.Account](500, "Unable to store persona.")
	}
	return response.Ok(acc)
}

// RemoveNFIDPersonas bulk-removes every NFID-provider persona across all
// accounts. Operator-only; returns the number removed.
func (s *Service) RemoveNFIDPersonas(ctx context.Context, caller string) response.Envelope[uint64] {
	cfg := s.runtime.Snapshot()
	if cfg.Operator == "" || caller != cfg.Operator {
		return response.Unauthorized[uint64]()
	}

	accounts, err := s.store.All(ctx)
	if err != nil {
		return response.Error[uint64](500, "Unable to read Accounts.")
	}
	var removed uint64
	for _, acc := range accounts {
		kept := acc.Personas[:0:0]
		for _, p := range acc.Personas {
			if p.Provider == models.ProviderNFID {
				removed++
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == len(acc.Personas) {
			continue
		}
		acc.Personas = kept
		if err := s.store.Update(ctx, acc); err != nil {
			s.log.ErrorContext(ctx, "store persona", "principal", acc.PrincipalID, "error", err.Error())
			return response.Error[uint64](500, "Unable to store persona.")
		}
	}
	return response.Ok(removed)
}
