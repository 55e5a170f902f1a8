package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/botflowhq/botflow/internal/auth/domain"
	"github.com/botflowhq/botflow/internal/auth/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func TestBootstrap(t *testing.T) {
	ctx := context.Background()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	svc := &BootstrapService{Store: st, Token: "bootstrap-secret"}

	input := BootstrapInput{
		Email:      "root@example.com",
		Username:   "root",
		GivenName:  "Root",
		FamilyName: "Operator",
		Password:   testPassword,
	}

	t.Run("wrong token rejected", func(t *testing.T) {
		_, err := svc.Bootstrap(ctx, "nope", input)
		require.ErrorIs(t, err, ErrBootstrapUnauthorized)
	})

	t.Run("short password rejected", func(t *testing.T) {
		bad := input
		bad.Password = "short"
		_, err := svc.Bootstrap(ctx, "bootstrap-secret", bad)
		require.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("creates the first super admin", func(t *testing.T) {
		account, err := svc.Bootstrap(ctx, "bootstrap-secret", input)
		require.NoError(t, err)
		require.Equal(t, domain.RoleSuperAdmin, account.Role)
		require.True(t, account.Active)
		require.True(t, account.EmailVerified)

		bootstrapped, err := svc.IsBootstrapped(ctx)
		require.NoError(t, err)
		require.True(t, bootstrapped)
	})

	t.Run("refuses once any account exists", func(t *testing.T) {
		_, err := svc.Bootstrap(ctx, "bootstrap-secret", input)
		require.ErrorIs(t, err, ErrBootstrapAlready)
	})

	t.Run("wrong token does not reveal bootstrap state", func(t *testing.T) {
		_, err := svc.Bootstrap(ctx, "nope", input)
		require.ErrorIs(t, err, ErrBootstrapUnauthorized)
	})
}

func TestBootstrapSingleOperator(t *testing.T) {
	ctx := context.Background()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	svc := &BootstrapService{Store: st, Token: "bootstrap-secret"}

	const attempts = 8
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func(i int) {
			_, err := svc.Bootstrap(ctx, "bootstrap-secret", BootstrapInput{
				Email:    fmt.Sprintf("op%d@example.com", i),
				Username: fmt.Sprintf("op%d", i),
				Password: testPassword,
			})
			results <- err
		}(i)
	}

	var seeded int
	for i := 0; i < attempts; i++ {
		if err := <-results; err == nil {
			seeded++
		} else {
			require.ErrorIs(t, err, ErrBootstrapAlready)
		}
	}
	require.Equal(t, 1, seeded)
}

func TestBootstrapDisabledWithoutToken(t *testing.T) {
	ctx := context.Background()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	svc := &BootstrapService{Store: st}

	_, err = svc.Bootstrap(ctx, "", BootstrapInput{Email: "root@example.com", Username: "root", Password: testPassword})
	require.ErrorIs(t, err, ErrBootstrapUnauthorized)
}
