package service

import (
	"context"
	"errors"

	"github.com/botflowhq/botflow/internal/auth/domain"
	"github.com/botflowhq/botflow/internal/auth/store"
	"github.com/botflowhq/botflow/pkg/slogx"
)

var ErrAccountNotFound = errors.New("account not found")

// AccountService exposes account administration operations used by the
// admin surface and the authenticated profile endpoint.
type AccountService struct {
	Store store.Store
}

func (s *AccountService) GetByID(ctx context.Context, id string) (domain.Account, error) {
	account, err := s.Store.Accounts().GetAccountByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, ErrAccountNotFound
	}
	return account, err
}

// Suspend deactivates an account. Suspended accounts cannot log in and
// their outstanding refresh and reset tokens are revoked immediately.
func (s *AccountService) Suspend(ctx context.Context, id string) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Accounts().GetAccountByID(ctx, id); err != nil {
			return err
		}
		if err := tx.Accounts().SetActive(ctx, id, false); err != nil {
			return err
		}
		if err := tx.Accounts().SetRefreshToken(ctx, id, nil, nil); err != nil {
			return err
		}
		return tx.Accounts().SetResetToken(ctx, id, nil, nil)
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrAccountNotFound
	}
	if err == nil {
		slogx.FromContext(ctx).Info("account suspended", "account_id", id)
	}
	return err
}

// Activate re-enables a previously suspended account.
func (s *AccountService) Activate(ctx context.Context, id string) error {
	err := s.Store.Accounts().SetActive(ctx, id, true)
	if errors.Is(err, store.ErrNotFound) {
		return ErrAccountNotFound
	}
	if err == nil {
		slogx.FromContext(ctx).Info("account activated", "account_id", id)
	}
	return err
}
