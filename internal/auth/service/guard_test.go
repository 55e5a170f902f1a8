package service

import (
	"context"
	"testing"
	"time"

	"github.com/botflowhq/botflow/internal/auth/domain"
	"github.com/botflowhq/botflow/internal/auth/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T) (*Guard, *sqlite.Store, *time.Time) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	now := time.Now()
	g := &Guard{Store: st, Now: func() time.Time { return now }}
	return g, st, &now
}

func TestGuardLockoutThreshold(t *testing.T) {
	ctx := context.Background()
	g, st, _ := newGuard(t)

	account := seedAccount(t, st, domain.RoleStandard, "alice@example.com", "alice", testPassword)

	for i := 1; i < MaxFailedLoginAttempts; i++ {
		require.NoError(t, g.RecordFailedLogin(ctx, account))

		account, _ = st.Accounts().GetAccountByID(ctx, account.ID)
		require.Equal(t, i, account.FailedLoginAttempts)
		require.False(t, g.IsLockedOut(account), "locked before the threshold at attempt %d", i)
	}

	require.NoError(t, g.RecordFailedLogin(ctx, account))
	account, _ = st.Accounts().GetAccountByID(ctx, account.ID)
	require.Equal(t, MaxFailedLoginAttempts, account.FailedLoginAttempts)
	require.True(t, g.IsLockedOut(account))
}

func TestGuardLockExpiresButCounterStays(t *testing.T) {
	ctx := context.Background()
	g, st, now := newGuard(t)

	account := seedAccount(t, st, domain.RoleStandard, "alice@example.com", "alice", testPassword)

	for i := 0; i < MaxFailedLoginAttempts; i++ {
		require.NoError(t, g.RecordFailedLogin(ctx, account))
		account, _ = st.Accounts().GetAccountByID(ctx, account.ID)
	}
	require.True(t, g.IsLockedOut(account))

	*now = now.Add(LockoutDuration + time.Second)
	require.False(t, g.IsLockedOut(account))

	// The counter survives the window, so the next failure locks again.
	require.Equal(t, MaxFailedLoginAttempts, account.FailedLoginAttempts)
	require.NoError(t, g.RecordFailedLogin(ctx, account))
	account, _ = st.Accounts().GetAccountByID(ctx, account.ID)
	require.True(t, g.IsLockedOut(account))
}

func TestGuardSuccessfulLoginResets(t *testing.T) {
	ctx := context.Background()
	g, st, _ := newGuard(t)

	account := seedAccount(t, st, domain.RoleStandard, "alice@example.com", "alice", testPassword)

	require.NoError(t, g.RecordFailedLogin(ctx, account))
	require.NoError(t, g.RecordFailedLogin(ctx, account))

	require.NoError(t, g.RecordSuccessfulLogin(ctx, account))

	account, err := st.Accounts().GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	require.Zero(t, account.FailedLoginAttempts)
	require.NotNil(t, account.LastLoginAt)
}
