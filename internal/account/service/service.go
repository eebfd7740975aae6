package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"identity-manager/internal/account/models"
	"identity-manager/internal/account/store"
	"identity-manager/internal/audit"
	"identity-manager/internal/phone"
	"identity-manager/internal/platform/config"
	"identity-manager/internal/platform/metrics"
	"identity-manager/internal/platform/middleware"
	"identity-manager/pkg/response"
	"identity-manager/pkg/sentinel"
)

// PhoneProofs supplies verified phone proofs for account creation.
type PhoneProofs interface {
	ConsumeProof(ctx context.Context, principal string) (phone.Proof, error)
}

// ApplicationLimits answers persona-limit queries per domain.
type ApplicationLimits interface {
	IsOverTheLimit(ctx context.Context, acc models.Account, domain string) bool
}

// RecoveryVerifier validates recovery assertions minted by the identity
// provider after device re-authentication.
type RecoveryVerifier interface {
	VerifyRecoveryProof(proof string) (anchor uint64, principal string, err error)
}

// BackupSource pulls full account snapshots for the administrative restore.
type BackupSource interface {
	Fetch(ctx context.Context, source, backupCanisterID string) ([]models.Account, error)
}

// Service is the account registry: the single writer for Account aggregates
// and their uniqueness invariants.
type Service struct {
	store   store.Store
	proofs  PhoneProofs
	limits  ApplicationLimits
	recover RecoveryVerifier
	backup  BackupSource
	runtime *config.Runtime
	audit   *audit.Service
	metrics *metrics.Metrics
	log     *slog.Logger
	clock   func() time.Time
}

func NewService(
	st store.Store,
	proofs PhoneProofs,
	limits ApplicationLimits,
	recovery RecoveryVerifier,
	backup BackupSource,
	runtime *config.Runtime,
	auditSvc *audit.Service,
	m *metrics.Metrics,
	log *slog.Logger,
) *Service {
	return &Service{
		store:   st,
		proofs:  proofs,
		limits:  limits,
		recover: recovery,
		backup:  backup,
		runtime: runtime,
		audit:   auditSvc,
		metrics: m,
		log:     log,
		clock:   time.Now,
	}
}

// WithClock overrides the time source, used by timestamp tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// CreateAccount allocates an anchor for the caller after consuming its
// verified phone proof. One account per principal, anchor, and phone hash.
func (s *Service) CreateAccount(ctx context.Context, caller string) response.Envelope[models.Account] {
	if middleware.IsAnonymous(caller) {
		return response.Unauthorized[models.Account]()
	}

	if _, err := s.store.GetByPrincipal(ctx, caller); err == nil {
		return response.NotFound[models.Account]("Anchor already exists.")
	}

	proof, err := s.proofs.ConsumeProof(ctx, caller)
	if err != nil {
		return response.Error[models.Account](403, "Phone number is not verified.")
	}

	if owner, err := s.store.PhoneHashOwner(ctx, proof.PhoneHash); err == nil && owner != caller {
		return response.NotFound[models.Account]("Phone number already exists.")
	}

	anchor, err := s.store.NextAnchor(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "allocate anchor", "error", err.Error())
		return response.Error[models.Account](500, "Unable to create Account.")
	}

	now := s.clock()
	hash := proof.PhoneHash
	acc := models.Account{
		Anchor:          anchor,
		PrincipalID:     caller,
		PhoneNumberHash: &hash,
		AccessPoints:    []models.AccessPoint{},
		Personas:        []models.Persona{},
		LastUsed:        now,
		CreatedAt:       now,
	}
	if err := s.store.Create(ctx, acc); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return response.NotFound[models.Account]("Anchor already exists.")
		}
		s.log.ErrorContext(ctx, "create account", "error", err.Error())
		return response.Error[models.Account](500, "Unable to create Account.")
	}

	s.metrics.AccountsCreated.Inc()
	s.audit.Emit(ctx, audit.Event{Principal: caller, Anchor: anchor, Action: audit.ActionAccountCreated})
	return response.Ok(acc)
}

// GetAccount returns the caller's account.
func (s *Service) GetAccount(ctx context.Context, caller string) response.Envelope[models.Account] {
	acc, err := s.store.GetByPrincipal(ctx, caller)
	if err != nil {
		return response.NotFound[models.Account]("Unable to find Account.")
	}
	return response.Ok(acc)
}

// GetAccountByAnchor looks an account up by anchor.
func (s *Service) GetAccountByAnchor(ctx context.Context, anchor uint64) response.Envelope[models.Account] {
	acc, err := s.store.GetByAnchor(ctx, anchor)
	if err != nil {
		return response.NotFound[models.Account]("Anchor not registered.")
	}
	return response.Ok(acc)
}

// GetAccountByPrincipal looks an account up by principal.
func (s *Service) GetAccountByPrincipal(ctx context.Context, principal string) response.Envelope[models.Account] {
	acc, err := s.store.GetByPrincipal(ctx, principal)
	if err != nil {
		return response.NotFound[models.Account]("Principal not registered.")
	}
	return response.Ok(acc)
}

// UpdateAccountName sets the display name.
func (s *Service) UpdateAccountName(ctx context.Context, caller string, name string) response.Envelope[models.Account] {
	return s.mutate(ctx, caller, func(acc *models.Account) {
		acc.Name = &name
	})
}

// UpdateAccount applies the full mutable-field update.
func (s *Service) UpdateAccount(ctx context.Context, caller string, req models.AccountUpdateRequest) response.Envelope[models.Account] {
	return s.mutate(ctx, caller, func(acc *models.Account) {
		if req.Name != nil {
			acc.Name = req.Name
		}
	})
}

func (s *Service) mutate(ctx context.Context, caller string, apply func(*models.Account)) response.Envelope[models.Account] {
	acc, err := s.store.GetByPrincipal(ctx, caller)
	if err != nil {
		return response.NotFound[models.Account]("Unable to find Account.")
	}
	apply(&acc)
	if err := s.store.Update(ctx, acc); err != nil {
		s.log.ErrorContext(ctx, "update account", "error", err.Error())
		return response.Error[models.Account](500, "Unable to store Account.")
	}
	return response.Ok(acc)
}

// RemoveAccount delists the caller's account. A second call fails with
// "Unable to remove Account." rather than a plain not-found: removal is not
// idempotent-success.
func (s *Service) RemoveAccount(ctx context.Context, caller string) response.Envelope[bool] {
	acc, err := s.store.Remove(ctx, caller)
	if err != nil {
		return response.NotFound[bool]("Unable to remove Account.")
	}
	s.metrics.AccountsRemoved.Inc()
	s.audit.Emit(ctx, audit.Event{Principal: caller, Anchor: acc.Anchor, Action: audit.ActionAccountRemoved})
	return response.Ok(true)
}

// RecoverAccount restores a delisted account for its anchor, bound to the
// calling principal, after checking the recovery assertion vouches for that
// anchor. When nothing is delisted and the anchor is free, a fresh empty
// account is minted so the anchor stays usable.
func (s *Service) RecoverAccount(ctx context.Context, caller string, anchor uint64, proof string) response.Envelope[models.Account] {
	if middleware.IsAnonymous(caller) {
		return response.Unauthorized[models.Account]()
	}
	provenAnchor, _, err := s.recover.VerifyRecoveryProof(proof)
	if err != nil || provenAnchor != anchor {
		return response.Unauthorized[models.Account]()
	}

	if live, err := s.store.GetByAnchor(ctx, anchor); err == nil {
		if live.PrincipalID == caller {
			return response.Ok(live)
		}
		return response.NotFound[models.Account]("Anchor already exists.")
	}

	now := s.clock()
	acc, err := s.store.TakeRemoved(ctx, anchor)
	if err != nil {
		acc = models.Account{
			Anchor:       anchor,
			AccessPoints: []models.AccessPoint{},
			Personas:     []models.Persona{},
			CreatedAt:    now,
		}
	}
	acc.PrincipalID = caller
	acc.LastUsed = now
	if err := s.store.Create(ctx, acc); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return response.NotFound[models.Account]("Anchor already exists.")
		}
		s.log.ErrorContext(ctx, "recover account", "error", err.Error())
		return response.Error[models.Account](500, "Unable to recover Account.")
	}

	s.metrics.AccountsRecovered.Inc()
	s.audit.Emit(ctx, audit.Event{Principal: caller, Anchor: anchor, Action: audit.ActionAccountRecovered})
	return response.Ok(acc)
}

// RestoreAccounts replaces the full registry state from a named backup.
// Operator-only.
func (s *Service) RestoreAccounts(ctx context.Context, caller, source, backupCanisterID string) response.Envelope[bool] {
	cfg := s.runtime.Snapshot()
	if cfg.Operator == "" || caller != cfg.Operator {
		return response.Unauthorized[bool]()
	}
	accounts, err := s.backup.Fetch(ctx, source, backupCanisterID)
	if err != nil {
		s.log.ErrorContext(ctx, "fetch backup", "source", source, "error", err.Error())
		return response.NotFound[bool]("Unable to fetch backup.")
	}
	if err := s.store.ReplaceAll(ctx, accounts); err != nil {
		s.log.ErrorContext(ctx, "replace accounts", "error", err.Error())
		return response.Error[bool](500, "Unable to restore Accounts.")
	}
	s.audit.Emit(ctx, audit.Event{Principal: caller, Action: audit.ActionAccountRestored, Detail: source})
	return response.Ok(true)
}

// AllAccounts snapshots the registry for replication.
func (s *Service) AllAccounts(ctx context.Context) ([]models.Account, error) {
	return s.store.All(ctx)
}

// AcceptSnapshot replaces local state with a replicated snapshot. Only the
// internal replica surface reaches this.
func (s *Service) AcceptSnapshot(ctx context.Context, accounts []models.Account) error {
	return s.store.ReplaceAll(ctx, accounts)
}
