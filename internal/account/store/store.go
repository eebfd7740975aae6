package store

import (
	"context"

	"identity-manager/internal/account/models"
)

// Store owns Account persistence plus the uniqueness indexes the registry
// invariants rely on (anchor, principal, phone hash). Implementations return
// sentinel errors; services translate them into envelope responses.
type Store interface {
	// NextAnchor allocates the next unused anchor.
	NextAnchor(ctx context.Context) (uint64, error)

	// Create persists a new account. sentinel.ErrConflict when the
	// principal or anchor is taken.
	Create(ctx context.Context, acc models.Account) error

	GetByPrincipal(ctx context.Context, principal string) (models.Account, error)
	GetByAnchor(ctx context.Context, anchor uint64) (models.Account, error)

	// Update replaces the stored aggregate. sentinel.ErrNotFound when the
	// principal has no live account.
	Update(ctx context.Context, acc models.Account) error

	// Remove delists the account recoverably. sentinel.ErrNotFound when the
	// principal has no live account.
	Remove(ctx context.Context, principal string) (models.Account, error)

	// TakeRemoved pops a delisted account by anchor for recovery.
	TakeRemoved(ctx context.Context, anchor uint64) (models.Account, error)

	// PhoneHashOwner returns the principal the phone hash is bound to, or
	// sentinel.ErrNotFound.
	PhoneHashOwner(ctx context.Context, phoneHash string) (string, error)

	// All returns every live account ordered by anchor.
	All(ctx context.Context) ([]models.Account, error)

	// ReplaceAll swaps the full state, used by the administrative restore
	// path and the replica mirror.
	ReplaceAll(ctx context.Context, accounts []models.Account) error
}
