package repository

import (
	"context"
	"time"

	"github.com/repricelab/ebay-connect/internal/domain"
	"github.com/repricelab/ebay-connect/internal/domain/ebay"
)

// UserRepository exposes persistence for platform users.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID int64) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
}

// AccountRepository persists linked eBay seller accounts. Disconnecting an
// account is logical (SetActive false); rows are never deleted so references
// from pricing rules and price logs stay valid.
type AccountRepository interface {
	Create(ctx context.Context, account ebay.Account) (ebay.Account, error)
	GetByID(ctx context.Context, accountID int64) (ebay.Account, error)
	ListActiveByUser(ctx context.Context, userID int64) ([]ebay.Account, error)
	SetActive(ctx context.Context, accountID int64, active bool) error
	// UpdateTokens replaces the access token and expiry, and the refresh token
	// only when refreshToken is non-empty. The credential columns are immutable.
	UpdateTokens(ctx context.Context, accountID int64, accessToken, refreshToken string, expiry time.Time) error
}

// PendingAuthStore holds user-supplied credentials between OAuth initiation
// and callback. Begin overwrites any prior context for the user; Consume is an
// atomic read-and-delete so concurrent callbacks cannot both succeed.
type PendingAuthStore interface {
	Begin(ctx context.Context, userID int64, pending ebay.PendingAuth, ttl time.Duration) error
	Consume(ctx context.Context, userID int64) (*ebay.PendingAuth, error)
}
