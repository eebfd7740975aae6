package verifier

import "time"

// KeySize is the byte length of a phone-number token key.
const KeySize = 32

// Token is a short-lived, single-use handle minted for a (principal, domain)
// pair. Resolving it produces a Credential.
type Token struct {
	Key             [KeySize]byte `json:"-"`
	ClientPrincipal string        `json:"client_principal"`
	Domain          string        `json:"domain"`
	Created         time.Time     `json:"created_date"`
}

// Credential is the resolved phone-number attestation for a client.
type Credential struct {
	ClientPrincipal string    `json:"client_principal"`
	Domain          string    `json:"domain"`
	PhoneNumberSha2 *string   `json:"phone_number_sha2,omitempty"`
	Created         time.Time `json:"created_date"`
}
