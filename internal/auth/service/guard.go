package service

import (
	"context"
	"time"

	"github.com/botflowhq/botflow/internal/auth/domain"
	"github.com/botflowhq/botflow/internal/auth/store"
)

const (
	// MaxFailedLoginAttempts is the failure count that triggers a lockout.
	MaxFailedLoginAttempts = 5

	// LockoutDuration is how long an account stays locked after the
	// threshold is reached.
	LockoutDuration = 15 * time.Minute
)

// Guard tracks failed login attempts and temporary lockouts. Lock status
// is computed on read: the account becomes usable again once the window
// passes, but the counter is only zeroed by a successful login.
type Guard struct {
	Store store.Store

	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

func (g *Guard) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// IsLockedOut is a pure predicate with no side effects.
func (g *Guard) IsLockedOut(a domain.Account) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(g.now())
}

// RecordFailedLogin increments the failure counter and, once the
// threshold is reached, sets the lockout deadline. The counter is never
// reset here; that only happens on a successful login.
func (g *Guard) RecordFailedLogin(ctx context.Context, a domain.Account) error {
	attempts := a.FailedLoginAttempts + 1
	lockedUntil := a.LockedUntil
	if attempts >= MaxFailedLoginAttempts {
		deadline := g.now().Add(LockoutDuration)
		lockedUntil = &deadline
	}
	return g.Store.Accounts().SetFailedLoginState(ctx, a.ID, attempts, lockedUntil)
}

// RecordSuccessfulLogin stamps last_login_at and zeroes the failure
// counter. The lockout deadline is left alone; a successful login can
// only happen when the account is not locked, so it is already moot.
func (g *Guard) RecordSuccessfulLogin(ctx context.Context, a domain.Account) error {
	return g.Store.Accounts().RecordLogin(ctx, a.ID, g.now())
}
