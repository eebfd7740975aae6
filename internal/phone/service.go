package phone

import (
	"context"
	"errors"
	"log/slog"
	"time"

	accountstore "identity-manager/internal/account/store"
	"identity-manager/internal/platform/config"
	"identity-manager/internal/platform/metrics"
	"identity-manager/internal/platform/middleware"
	"identity-manager/pkg/phonehash"
	"identity-manager/pkg/response"
	"identity-manager/pkg/sentinel"
)

// Service implements the phone verification flow. Token issuance is
// principal-scoped and independent of account existence so the
// create-account bootstrap can verify first; validation always requires an
// account.
type Service struct {
	tokens   TokenStore
	accounts accountstore.Store
	runtime  *config.Runtime
	hashKey  []byte
	metrics  *metrics.Metrics
	log      *slog.Logger
	clock    func() time.Time
}

func NewService(tokens TokenStore, accounts accountstore.Store, runtime *config.Runtime, hashKey []byte, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		tokens:   tokens,
		accounts: accounts,
		runtime:  runtime,
		hashKey:  hashKey,
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

// PostToken stores a fresh one-time code for the principal named in the
// request. Re-issuing inside the refresh window is throttled with 429;
// outside it the previous token is overwritten.
func (s *Service) PostToken(ctx context.Context, caller string, req TokenRequest) response.Envelope[bool] {
	cfg := s.runtime.Snapshot()
	if middleware.IsAnonymous(caller) {
		return response.Unauthorized[bool]()
	}
	if cfg.Lambda != "" && caller != cfg.Lambda {
		return response.Unauthorized[bool]()
	}

	now := s.clock()
	if prev, err := s.tokens.Token(ctx, req.PrincipalID); err == nil {
		if now.Sub(prev.IssuedAt) < cfg.TokenRefreshTTL {
			return response.TooManyRequests[bool]()
		}
	}

	token := Token{
		Principal:   req.PrincipalID,
		PhoneNumber: req.PhoneNumberEncrypted,
		PhoneHash:   req.PhoneNumberHash,
		CodeHash:    phonehash.Sum(s.hashKey, req.Token),
		IssuedAt:    now,
	}
	if err := s.tokens.SaveToken(ctx, token); err != nil {
		s.log.ErrorContext(ctx, "save token", "error", err.Error())
		return response.Error[bool](500, "Unable to store token.")
	}
	// post_token opens the refresh window that validate_phone honors.
	_ = s.tokens.TouchActivity(ctx, req.PrincipalID, now)
	s.metrics.TokensIssued.Inc()
	return response.Ok(true)
}

// VerifyToken consumes the pending token for the caller when the code
// matches, leaving behind a proof for account creation or binding the phone
// hash directly when the caller already owns an account.
func (s *Service) VerifyToken(ctx context.Context, caller string, code string) response.Envelope[bool] {
	cfg := s.runtime.Snapshot()
	if middleware.IsAnonymous(caller) {
		return response.Unauthorized[bool]()
	}

	token, err := s.tokens.Token(ctx, caller)
	if err != nil {
		return response.NotFound[bool]("Phone number not found")
	}
	now := s.clock()
	if now.Sub(token.IssuedAt) > cfg.TokenTTL {
		_ = s.tokens.DeleteToken(ctx, caller)
		return response.NotFound[bool]("Phone number not found")
	}
	if !phonehash.Equal(token.CodeHash, phonehash.Sum(s.hashKey, code)) {
		s.metrics.TokensRejected.Inc()
		return response.BadRequest[bool](cfg.TokenMismatchMessage)
	}

	if err := s.tokens.DeleteToken(ctx, caller); err != nil {
		s.log.ErrorContext(ctx, "delete token", "error", err.Error())
	}
	proof := Proof{Principal: caller, PhoneHash: token.PhoneHash, VerifiedAt: now}

	// With a live account the verification binds the hash immediately; the
	// bootstrap path leaves the proof for create_account to consume.
	if acc, err := s.accounts.GetByPrincipal(ctx, caller); err == nil {
		if owner, err := s.accounts.PhoneHashOwner(ctx, token.PhoneHash); err == nil && owner != caller {
			return response.NotFound[bool]("Phone number already exists.")
		}
		hash := token.PhoneHash
		acc.PhoneNumberHash = &hash
		if err := s.accounts.Update(ctx, acc); err != nil {
			s.log.ErrorContext(ctx, "bind phone hash", "error", err.Error())
			return response.Error[bool](500, "Unable to store phone number.")
		}
	} else {
		if err := s.tokens.SaveProof(ctx, proof); err != nil {
			s.log.ErrorContext(ctx, "save proof", "error", err.Error())
			return response.Error[bool](500, "Unable to store proof.")
		}
	}
	s.metrics.TokensVerified.Inc()
	env := response.Ok(true)
	env.Data = nil // success carries a null payload
	return env
}

// ValidatePhone reports whether the principal's phone on file matches the
// presented hash: 204 match, 200/null no phone on file, 404 no account,
// 429 inside the refresh window. Whitelisted numbers bypass everything.
func (s *Service) ValidatePhone(ctx context.Context, req ValidateRequest) response.Envelope[bool] {
	cfg := s.runtime.Snapshot()

	for number := range cfg.WhitelistedPhones {
		if phonehash.Equal(req.PhoneNumberHash, phonehash.Sum(s.hashKey, number)) {
			return response.NoContent[bool]()
		}
	}

	acc, err := s.accounts.GetByPrincipal(ctx, req.PrincipalID)
	if err != nil {
		return response.NotFound[bool]("Unable to find Account.")
	}

	now := s.clock()
	if last, err := s.tokens.LastActivity(ctx, req.PrincipalID); err == nil {
		if now.Sub(last) < cfg.TokenRefreshTTL {
			return response.TooManyRequests[bool]()
		}
	}
	_ = s.tokens.TouchActivity(ctx, req.PrincipalID, now)

	if acc.PhoneNumberHash != nil && phonehash.Equal(*acc.PhoneNumberHash, req.PhoneNumberHash) {
		return response.NoContent[bool]()
	}
	return response.Envelope[bool]{StatusCode: 200}
}

// ConsumeProof hands the verified proof for principal to the account
// registry; sentinel.ErrNotFound when verification never completed.
func (s *Service) ConsumeProof(ctx context.Context, principal string) (Proof, error) {
	return s.tokens.TakeProof(ctx, principal)
}

// RemoveAccountByPhoneNumber is the operator path for dropping the account
// bound to a phone number, freeing the hash for re-verification.
func (s *Service) RemoveAccountByPhoneNumber(ctx context.Context, caller, phoneNumber string) response.Envelope[bool] {
	cfg := s.runtime.Snapshot()
	if middleware.IsAnonymous(caller) {
		return response.Unauthorized[bool]()
	}
	if cfg.Lambda != "" && caller != cfg.Lambda && caller != cfg.Operator {
		return response.Unauthorized[bool]()
	}

	hash := phonehash.Sum(s.hashKey, phoneNumber)
	owner, err := s.accounts.PhoneHashOwner(ctx, hash)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return response.NotFound[bool]("Phone number not found")
		}
		return response.Error[bool](500, "Unable to resolve phone number.")
	}
	if _, err := s.accounts.Remove(ctx, owner); err != nil {
		return response.NotFound[bool]("Unable to remove Account.")
	}
	return response.Ok(true)
}
