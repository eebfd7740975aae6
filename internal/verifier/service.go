package verifier

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"identity-manager/internal/platform/metrics"
	"identity-manager/internal/platform/middleware"
	"identity-manager/internal/verifier/ports"
	"identity-manager/pkg/response"
)

// DefaultTokenTTL bounds how long a minted token stays resolvable.
const DefaultTokenTTL = 60 * time.Second

// ConfigureRequest is the admin settings payload. Absent fields keep their
// current value.
type ConfigureRequest struct {
	IdentityManager *string `json:"identity_manager,omitempty"`
	TokenTTL        *uint64 `json:"token_ttl,omitempty"`
}

type settings struct {
	identityManager string
	tokenTTL        time.Duration
}

// Service mints phone-number tokens and resolves them into credentials via
// the registry port. Per (principal, domain) the state moves from no
// certificate to pending to resolved.
type Service struct {
	mu       sync.RWMutex
	cfg      settings
	operator string

	tokens   TokenStore
	creds    CredentialStore
	registry ports.RegistryPort
	metrics  *metrics.Metrics
	log      *slog.Logger
	clock    func() time.Time
}

func NewService(
	tokens TokenStore,
	creds CredentialStore,
	registry ports.RegistryPort,
	operator string,
	m *metrics.Metrics,
	log *slog.Logger,
) *Service {
	return &Service{
		cfg:      settings{tokenTTL: DefaultTokenTTL},
		operator: operator,
		tokens:   tokens,
		creds:    creds,
		registry: registry,
		metrics:  m,
		log:      log,
		clock:    time.Now,
	}
}

// WithClock overrides the time source, used by TTL tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Configure updates the verifier settings. Operator-only.
func (s *Service) Configure(ctx context.Context, caller string, req ConfigureRequest) response.Envelope[bool] {
	if s.operator == "" || caller != s.operator {
		return response.Unauthorized[bool]()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.IdentityManager != nil {
		s.cfg.identityManager = *req.IdentityManager
	}
	if req.TokenTTL != nil {
		s.cfg.tokenTTL = time.Duration(*req.TokenTTL) * time.Second
	}
	s.log.InfoContext(ctx, "verifier configured",
		"identity_manager", s.cfg.identityManager,
		"token_ttl", s.cfg.tokenTTL.String())
	return response.Ok(true)
}

func (s *Service) tokenTTL() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.tokenTTL
}

// GeneratePNToken mints a random key bound to the caller and domain and
// returns it hex-encoded. The token is single-use and expires after the
// configured TTL.
func (s *Service) GeneratePNToken(ctx context.Context, caller string, domain string) response.Envelope[string] {
	if middleware.IsAnonymous(caller) {
		return response.Unauthorized[string]()
	}

	var key [KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		s.log.ErrorContext(ctx, "mint token key", "error", err.Error())
		return response.Error[string](500, "Unable to generate token.")
	}
	token := Token{
		Key:             key,
		ClientPrincipal: caller,
		Domain:          domain,
		Created:         s.clock(),
	}
	if err := s.tokens.SaveToken(ctx, token); err != nil {
		s.log.ErrorContext(ctx, "save token", "error", err.Error())
		return response.Error[string](500, "Unable to generate token.")
	}

	s.metrics.TokensIssued.Inc()
	return response.Ok(hex.EncodeToString(key[:]))
}

// ResolveToken consumes a token and exchanges it for a credential. Unknown,
// malformed, and expired keys all answer 404; the registry's refusal message
// is passed through verbatim.
func (s *Service) ResolveToken(ctx context.Context, rawKey string) response.Envelope[Credential] {
	decoded, err := hex.DecodeString(rawKey)
	if err != nil || len(decoded) != KeySize {
		s.metrics.TokensRejected.Inc()
		return response.NotFound[Credential]("Token not found")
	}
	var key [KeySize]byte
	copy(key[:], decoded)

	token, err := s.tokens.TakeToken(ctx, key)
	if err != nil {
		s.metrics.TokensRejected.Inc()
		return response.NotFound[Credential]("Token not found")
	}
	if s.clock().Sub(token.Created) > s.tokenTTL() {
		s.metrics.TokensRejected.Inc()
		return response.NotFound[Credential]("Token not found")
	}

	sha2, err := s.registry.CertifyPhoneNumberSha2(ctx, token.ClientPrincipal, token.Domain)
	if err != nil {
		s.metrics.TokensRejected.Inc()
		return response.NotFound[Credential](err.Error())
	}

	cred := Credential{
		ClientPrincipal: token.ClientPrincipal,
		Domain:          token.Domain,
		PhoneNumberSha2: &sha2,
		Created:         s.clock(),
	}
	if err := s.creds.SaveCredential(ctx, cred); err != nil {
		s.log.ErrorContext(ctx, "save credential", "error", err.Error())
		return response.Error[Credential](500, "Unable to store credential.")
	}

	s.metrics.TokensVerified.Inc()
	return response.Ok(cred)
}

// IsPhoneNumberApproved reports whether the principal's latest credential
// carries a certified phone number. Idempotent.
func (s *Service) IsPhoneNumberApproved(ctx context.Context, principal string) response.Envelope[bool] {
	cred, err := s.creds.LatestByPrincipal(ctx, principal)
	return response.Ok(err == nil && cred.PhoneNumberSha2 != nil)
}

// IsOwner reports whether the principal has resolved a credential of its
// own. Idempotent.
func (s *Service) IsOwner(ctx context.Context, principal string) response.Envelope[bool] {
	cred, err := s.creds.LatestByPrincipal(ctx, principal)
	return response.Ok(err == nil && cred.ClientPrincipal == principal)
}
