package service

import (
	"context"
	"errors"

	"github.com/botflowhq/botflow/internal/auth/domain"
	"github.com/botflowhq/botflow/internal/auth/store"
	"github.com/botflowhq/botflow/pkg/cryptox"
	"github.com/botflowhq/botflow/pkg/idx"
	"github.com/botflowhq/botflow/pkg/slogx"
)

var (
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
)

// BootstrapService seeds the first super-admin operator account. It only
// works on an empty accounts table and requires the pre-configured token.
type BootstrapService struct {
	Store store.Store
	Token string // pre-configured bootstrap token
}

type BootstrapInput struct {
	Email      string
	Username   string
	GivenName  string
	FamilyName string
	Password   string
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Accounts().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

func (s *BootstrapService) Bootstrap(ctx context.Context, token string, in BootstrapInput) (domain.Account, error) {
	l := slogx.FromContext(ctx)

	// The token gate comes first so unauthenticated callers learn nothing
	// about bootstrap state.
	if s.Token == "" || token != s.Token {
		l.Warn("unauthorized bootstrap attempt")
		return domain.Account{}, ErrBootstrapUnauthorized
	}

	if len(in.Password) < MinPasswordLength {
		return domain.Account{}, ErrWeakPassword
	}

	hash, salt, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.Account{}, err
	}

	account := domain.Account{
		ID:            idx.New().String(),
		Email:         in.Email,
		Username:      in.Username,
		GivenName:     in.GivenName,
		FamilyName:    in.FamilyName,
		Plan:          "enterprise",
		PasswordHash:  hash,
		PasswordSalt:  salt,
		Role:          domain.RoleSuperAdmin,
		EmailVerified: true,
		Active:        true,
	}

	// Emptiness check and insert share a transaction so concurrent
	// bootstrap attempts cannot both seed an operator.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		empty, err := tx.Accounts().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			return ErrBootstrapAlready
		}
		return tx.Accounts().CreateAccount(ctx, account)
	})
	if err != nil {
		if errors.Is(err, ErrBootstrapAlready) {
			l.Warn("attempted bootstrap on already-bootstrapped system")
		}
		return domain.Account{}, err
	}

	l.Info("bootstrap complete", "account_id", account.ID)
	return account, nil
}
