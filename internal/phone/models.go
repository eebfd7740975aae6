package phone

import "time"

// Token is a pending one-time verification code bound to a principal. Only
// the keyed code hash is stored. One outstanding token per principal.
type Token struct {
	Principal   string    `json:"principal"`
	PhoneNumber string    `json:"phone_number"`
	PhoneHash   string    `json:"phone_hash"`
	CodeHash    string    `json:"code_hash"`
	IssuedAt    time.Time `json:"issued_at"`
}

// Proof records a completed verification. Account creation consumes it; a
// verification against an existing account binds the hash immediately.
type Proof struct {
	Principal  string    `json:"principal"`
	PhoneHash  string    `json:"phone_hash"`
	VerifiedAt time.Time `json:"verified_at"`
}

// TokenRequest is the post_token payload. The lambda posts on behalf of the
// principal it verified out-of-band.
type TokenRequest struct {
	PhoneNumberEncrypted string `json:"phone_number_encrypted"`
	PhoneNumberHash      string `json:"phone_number_hash"`
	Token                string `json:"token"`
	PrincipalID          string `json:"principal_id"`
}

// ValidateRequest is the validate_phone payload.
type ValidateRequest struct {
	PhoneNumberHash string `json:"phone_number_hash"`
	PrincipalID     string `json:"principal_id"`
}
