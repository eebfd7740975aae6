package application

import (
	"context"
	"errors"
	"strings"

	"identity-manager/internal/account/models"
	"identity-manager/pkg/response"
	"identity-manager/pkg/sentinel"
)

// Service owns the application registry and answers persona-limit queries
// for the account registry.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) CreateApplication(ctx context.Context, app Application) response.Envelope[[]Application] {
	if app.Name == "" || app.Domain == "" {
		return response.BadRequest[[]Application]("Application name and domain are required.")
	}
	if err := s.store.Create(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return response.NotFound[[]Application]("Unable to create Application. Application exists")
		}
		return response.Error[[]Application](500, "Unable to store Application.")
	}
	apps, err := s.store.All(ctx)
	if err != nil {
		return response.Error[[]Application](500, "Unable to read Applications.")
	}
	return response.Ok(apps)
}

func (s *Service) ReadApplications(ctx context.Context) response.Envelope[[]Application] {
	apps, err := s.store.All(ctx)
	if err != nil {
		return response.Error[[]Application](500, "Unable to read Applications.")
	}
	return response.Ok(apps)
}

func (s *Service) DeleteApplication(ctx context.Context, name string) response.Envelope[bool] {
	if err := s.store.Delete(ctx, name); err != nil {
		return response.NotFound[bool]("Unable to remove app with such name.")
	}
	return response.Ok(true)
}

// IsOverTheApplicationLimit is the query form of IsOverTheLimit.
func (s *Service) IsOverTheApplicationLimit(ctx context.Context, acc models.Account, domain string) response.Envelope[bool] {
	return response.Ok(s.IsOverTheLimit(ctx, acc, domain))
}

// IsOverTheLimit reports whether the account already holds as many personas
// for domain as the domain's limit allows. The lowest configured limit wins
// when several applications share the domain; unconfigured domains fall back
// to DefaultUserLimit.
func (s *Service) IsOverTheLimit(ctx context.Context, acc models.Account, domain string) bool {
	apps, err := s.store.All(ctx)
	if err != nil {
		return false
	}
	limit := DefaultUserLimit
	configured := false
	for _, app := range apps {
		if !strings.EqualFold(app.Domain, domain) {
			continue
		}
		if !configured || app.UserLimit < limit {
			limit = app.UserLimit
		}
		configured = true
	}
	return uint16(acc.PersonaCount(domain)) >= limit
}
