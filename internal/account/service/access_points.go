package service

import (
	"context"

	"identity-manager/internal/account/models"
	"identity-manager/pkg/phonehash"
	"identity-manager/pkg/response"
)

// accessPointID derives the stable hash identity of an endpoint from its
// public key. Two registrations with the same key are the same endpoint.
func accessPointID(pubKey string) string {
	return phonehash.Sum(nil, pubKey)
}

// CreateAccessPoint registers a new endpoint on the caller's account. A
// duplicate hash is rejected and the stored listing stays untouched.
// Creation also stamps the account-level last_used.
func (s *Service) CreateAccessPoint(ctx context.Context, caller string, req models.AccessPointRequest) response.Envelope[[]models.AccessPoint] {
	acc, err := s.store.GetByPrincipal(ctx, caller)
	if err != nil {
		return response.NotFound[[]models.AccessPoint]("Unable to find Account.")
	}

	id := accessPointID(req.PubKey)
	for _, ap := range acc.AccessPoints {
		if ap.PrincipalID == id {
			return response.NotFound[[]models.AccessPoint]("Access Point exists.")
		}
	}

	now := s.clock()
	acc.AccessPoints = append(acc.AccessPoints, models.AccessPoint{
		PrincipalID:  id,
		CredentialID: req.CredentialID,
		Icon:         req.Icon,
		Device:       req.Device,
		Browser:      req.Browser,
		DeviceType:   req.DeviceType,
		LastUsed:     now,
	})
	acc.LastUsed = now
	if err := s.store.Update(ctx, acc); err != nil {
		s.log.ErrorContext(ctx, "store access points", "error", err.Error())
		return response.Error[[]models.AccessPoint](500, "Unable to store Access Point.")
	}
	return response.Ok(acc.AccessPoints)
}

// ReadAccessPoints lists the caller's endpoints in creation order.
func (s *Service) ReadAccessPoints(ctx context.Context, caller string) response.Envelope[[]models.AccessPoint] {
	acc, err := s.store.GetByPrincipal(ctx, caller)
	if err != nil {
		return response.NotFound[[]models.AccessPoint]("Unable to find Account.")
	}
	return response.Ok(acc.AccessPoints)
}

// UpdateAccessPoint rewrites an endpoint's metadata in place, keeping the
// listing order stable.
func (s *Service) UpdateAccessPoint(ctx context.Context, caller string, req models.AccessPointRequest) response.Envelope[[]models.AccessPoint] {
	acc, err := s.store.GetByPrincipal(ctx, caller)
	if err != nil {
		return response.NotFound[[]models.AccessPoint]("Unable to find Account.")
	}

	id := accessPointID(req.PubKey)
	found := false
	for i := range acc.AccessPoints {
		if acc.AccessPoints[i].PrincipalID != id {
			continue
		}
		acc.AccessPoints[i].CredentialID = req.CredentialID
		acc.AccessPoints[i].Icon = req.Icon
		acc.AccessPoints[i].Device = req.Device
		acc.AccessPoints[i].Browser = req.Browser
		acc.AccessPoints[i].DeviceType = req.DeviceType
		found = true
		break
	}
	if !found {
		return response.NotFound[[]models.AccessPoint]("Access Point not exists.")
	}
	if err := s.store.Update(ctx, acc); err != nil {
		s.log.ErrorContext(ctx, "store access points", "error", err.Error())
		return response.Error[[]models.AccessPoint](500, "Unable to store Access Point.")
	}
	return response.Ok(acc.AccessPoints)
}

// RemoveAccessPoint drops an endpoint by its hash identity.
func (s *Service) RemoveAccessPoint(ctx context.Context, caller string, pubKey string) response.Envelope[[]models.AccessPoint] {
	acc, err := s.store.GetByPrincipal(ctx, caller)
	if err != nil {
		return response.NotFound[[]models.AccessPoint]("Unable to find Account.")
	}

	id := accessPointID(pubKey)
	kept := acc.AccessPoints[:0:0]
	for _, ap := range acc.AccessPoints {
		if ap.PrincipalID != id {
			kept = append(kept, ap)
		}
	}
	if len(kept) == len(acc.AccessPoints) {
		return response.NotFound[[]models.AccessPoint]("Access Point not exists.")
	}
	acc.AccessPoints = kept
	if err := s.store.Update(ctx, acc); err != nil {
		s.log.ErrorContext(ctx, "store access points", "error", err.Error())
		return response.Error[[]models.AccessPoint](500, "Unable to store Access Point.")
	}
	return response.Ok(acc.AccessPoints)
}

// UseAccessPoints is the activity ping. It stamps last_used on the named
// endpoints (all of them when none are named) without touching the
// account-level last_used; session tracking and account activity are
// deliberately decoupled timestamps.
func (s *Service) UseAccessPoints(ctx context.Context, caller string, pubKeys []string) response.Envelope[[]models.AccessPoint] {
	acc, err := s.store.GetByPrincipal(ctx, caller)
	if err != nil {
		return response.NotFound[[]models.AccessPoint]("Unable to find Account.")
	}

	wanted := make(map[string]struct{}, len(pubKeys))
	for _, pk := range pubKeys {
		wanted[accessPointID(pk)] = struct{}{}
	}
	now := s.clock()
	touched := false
	for i := range acc.AccessPoints {
		if len(wanted) > 0 {
			if _, ok := wanted[acc.AccessPoints[i].PrincipalID]; !ok {
				continue
			}
		}
		acc.AccessPoints[i].LastUsed = now
		touched = true
	}
	if !touched {
		return response.NotFound[[]models.AccessPoint]("Access Point not exists.")
	}
	if err := s.store.Update(ctx, acc); err != nil {
		s.log.ErrorContext(ctx, "store access points", "error", err.Error())
		return response.Error[[]models.AccessPoint](500, "Unable to store Access Point.")
	}
	return response.Ok(acc.AccessPoints)
}
