package service

import (
	"context"
	"strings"

	"identity-manager/pkg/response"
)

// CertifyPhoneNumberSha2 hands the account's phone hash to the credential
// issuer for the given domain and marks one of the domain's personas as
// certified. Each persona is certified at most once; a follow-up request
// for the same domain needs another uncertified persona.
func (s *Service) CertifyPhoneNumberSha2(ctx context.Context, principal string, domain string) response.Envelope[string] {
	acc, err := s.store.GetByPrincipal(ctx, principal)
	if err != nil {
		return response.NotFound[string]("Unable to find Account.")
	}

	idx := -1
	seen := false
	for i := range acc.Personas {
		if !strings.EqualFold(acc.Personas[i].Domain, domain) {
			continue
		}
		seen = true
		if !acc.Personas[i].Certified {
			idx = i
			break
		}
	}
	if !seen {
		return response.NotFound[string]("No persona with such domain")
	}
	if idx < 0 {
		return response.NotFound[string]("No non-certified persona with such domain")
	}
	if acc.PhoneNumberHash == nil || *acc.PhoneNumberHash == "" {
		return response.NotFound[string]("Phone number not found")
	}

	acc.Personas[idx].Certified = true
	if err := s.store.Update(ctx, acc); err != nil {
		s.log.ErrorContext(ctx, "store persona", "error", err.Error())
		return response.Error[string](500, "Unable to store persona.")
	}

	s.metrics.CertificatesResolved.Inc()
	return response.Ok(*acc.PhoneNumberHash)
}
