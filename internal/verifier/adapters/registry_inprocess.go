package adapters

import (
	"context"
	"errors"

	accountservice "identity-manager/internal/account/service"
	"identity-manager/internal/verifier/ports"
)

// InProcessRegistryAdapter bridges the port to the account service inside a
// single binary. Swapping it for HTTPRegistryAdapter splits the deployment
// without touching the verifier.
type InProcessRegistryAdapter struct {
	accounts *accountservice.Service
}

func NewInProcessRegistryAdapter(accounts *accountservice.Service) *InProcessRegistryAdapter {
	return &InProcessRegistryAdapter{accounts: accounts}
}

var _ ports.RegistryPort = (*InProcessRegistryAdapter)(nil)

func (a *InProcessRegistryAdapter) CertifyPhoneNumberSha2(ctx context.Context, principal, domain string) (string, error) {
	env := a.accounts.CertifyPhoneNumberSha2(ctx, principal, domain)
	if env.Error != nil {
		return "", errors.New(*env.Error)
	}
	if env.Data == nil {
		return "", errors.New("registry returned no data")
	}
	return *env.Data, nil
}
