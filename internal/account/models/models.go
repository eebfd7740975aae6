package models

import (
	"strings"
	"time"
)

// DeviceType mirrors the registered endpoint kinds the frontend reports.
type DeviceType string

const (
	DeviceEmail    DeviceType = "Email"
	DevicePasskey  DeviceType = "Passkey"
	DeviceRecovery DeviceType = "Recovery"
	DeviceUnknown  DeviceType = "Unknown"
	DevicePassword DeviceType = "Password"
)

// Provider marks which identity provider minted a persona.
type Provider string

const (
	ProviderNFID Provider = "nfid"
	ProviderII   Provider = "ii"
)

// AccessPoint is a registered device/browser endpoint. PrincipalID is the
// hash identity derived from the endpoint public key; two access points with
// the same PrincipalID are the same endpoint.
type AccessPoint struct {
	PrincipalID  string     `json:"principal_id"`
	CredentialID *string    `json:"credential_id"`
	Icon         string     `json:"icon"`
	Device       string     `json:"device"`
	Browser      string     `json:"browser"`
	DeviceType   DeviceType `json:"device_type"`
	LastUsed     time.Time  `json:"last_used"`
}

// Persona is a domain-scoped sub-identity of an account.
type Persona struct {
	PersonaID   string   `json:"persona_id"`
	Domain      string   `json:"domain"`
	PersonaName string   `json:"persona_name"`
	Provider    Provider `json:"provider"`
	Certified   bool     `json:"certified"`
}

// Account is the registry aggregate. Anchor and PrincipalID are each
// globally unique; PhoneNumberHash is unique across accounts when set.
// AccessPoints and Personas keep creation order.
type Account struct {
	Anchor          uint64        `json:"anchor"`
	PrincipalID     string        `json:"principal_id"`
	Name            *string       `json:"name"`
	PhoneNumber     *string       `json:"phone_number"`
	PhoneNumberHash *string       `json:"-"`
	AccessPoints    []AccessPoint `json:"access_points"`
	Personas        []Persona     `json:"personas"`
	LastUsed        time.Time     `json:"last_used"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Clone deep-copies the aggregate so stores can hand out values without
// sharing slices with callers.
func (a Account) Clone() Account {
	out := a
	if a.Name != nil {
		n := *a.Name
		out.Name = &n
	}
	if a.PhoneNumber != nil {
		p := *a.PhoneNumber
		out.PhoneNumber = &p
	}
	if a.PhoneNumberHash != nil {
		h := *a.PhoneNumberHash
		out.PhoneNumberHash = &h
	}
	out.AccessPoints = make([]AccessPoint, len(a.AccessPoints))
	copy(out.AccessPoints, a.AccessPoints)
	out.Personas = make([]Persona, len(a.Personas))
	copy(out.Personas, a.Personas)
	return out
}

// PersonaCount returns the number of personas bound to domain,
// case-insensitively, matching the limit bookkeeping.
func (a Account) PersonaCount(domain string) int {
	n := 0
	for _, p := range a.Personas {
		if strings.EqualFold(p.Domain, domain) {
			n++
		}
	}
	return n
}

// AccessPointRequest is the create/update payload for an access point.
type AccessPointRequest struct {
	PubKey       string     `json:"pub_key"`
	CredentialID *string    `json:"credential_id"`
	Icon         string     `json:"icon"`
	Device       string     `json:"device"`
	Browser      string     `json:"browser"`
	DeviceType   DeviceType `json:"device_type"`
}

// PersonaRequest is the create/update payload for a persona.
type PersonaRequest struct {
	Domain      string `json:"domain"`
	PersonaName string `json:"persona_name"`
	PersonaID   string `json:"persona_id"`
}

// AccountUpdateRequest carries the mutable account fields.
type AccountUpdateRequest struct {
	Name *string `json:"name"`
}
