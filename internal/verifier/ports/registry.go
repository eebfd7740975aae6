// Package ports holds the verifier's outbound interfaces. The verifier never
// talks to the identity registry directly; it goes through RegistryPort so
// the transport can be swapped without touching the service.
package ports

import "context"

//go:generate mockgen -source=registry.go -destination=mocks/registry_mock.go -package=mocks

// RegistryPort certifies a client's phone number with the identity registry.
type RegistryPort interface {
	// CertifyPhoneNumberSha2 asks the registry to certify the principal's
	// phone number for domain and returns its sha2 digest. The error message
	// carries the registry's own wording when certification is refused.
	CertifyPhoneNumberSha2(ctx context.Context, principal, domain string) (string, error)
}
