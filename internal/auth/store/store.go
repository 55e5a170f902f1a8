package store

import (
	"context"
	"errors"
	"time"

	"github.com/botflowhq/botflow/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. Sub-repositories keep concerns tidy and
// testable, and make it harder to accidentally nest transactions.
type Store interface {
	Accounts() Accounts

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction: rolled back if fn errors,
	// committed otherwise. This is the recommended way to run multi-step
	// operations that must be atomic (e.g. refresh rotation).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Same repos plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmailOrUsername resolves the login identity. Matching is
	// case-sensitive exact, on either column.
	GetAccountByEmailOrUsername(ctx context.Context, identity string) (domain.Account, error)

	// GetAccountByEmail is used by the forgot-password flow.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// GetAccountByRefreshTokenHash resolves a refresh-token fingerprint to
	// its account. Expiry is checked by the caller, not here.
	GetAccountByRefreshTokenHash(ctx context.Context, hash string) (domain.Account, error)

	// GetAccountByResetTokenHash resolves a reset-token fingerprint.
	GetAccountByResetTokenHash(ctx context.Context, hash string) (domain.Account, error)

	// CreateAccount inserts a new account (id is provided by app via ULID).
	// Returns ErrAlreadyExists when email or username is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	// SetFailedLoginState writes the failure counter and lockout deadline.
	SetFailedLoginState(ctx context.Context, accountID string, attempts int, lockedUntil *time.Time) error

	// RecordLogin zeroes the failure counter and stamps last_login_at.
	RecordLogin(ctx context.Context, accountID string, at time.Time) error

	// SetRefreshToken overwrites the stored refresh-token fingerprint and
	// expiry. Nil values clear the pair (revocation).
	SetRefreshToken(ctx context.Context, accountID string, hash *string, expiresAt *time.Time) error

	// SetResetToken overwrites the stored reset-token fingerprint and
	// expiry. Nil values clear the pair (consumption).
	SetResetToken(ctx context.Context, accountID string, hash *string, expiresAt *time.Time) error

	// UpdatePassword sets a new hash+salt pair and bumps updated_at.
	UpdatePassword(ctx context.Context, accountID string, hash, salt string) error

	// SetActive flips the soft-disable flag.
	SetActive(ctx context.Context, accountID string, active bool) error

	// IsEmpty returns true if there are no accounts (bootstrap check).
	IsEmpty(ctx context.Context) (bool, error)

	// ClearExpiredRefreshTokens nulls refresh-token columns past expiry
	// and reports the number of accounts touched.
	ClearExpiredRefreshTokens(ctx context.Context) (int64, error)

	// ClearExpiredResetTokens nulls reset-token columns past expiry and
	// reports the number of accounts touched.
	ClearExpiredResetTokens(ctx context.Context) (int64, error)
}
