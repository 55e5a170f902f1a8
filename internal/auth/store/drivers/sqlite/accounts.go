package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/botflowhq/botflow/internal/auth/domain"
	"github.com/botflowhq/botflow/internal/auth/store"
)

type accountsRepo struct {
	q querier
}

const accountColumns = `id, email, username, given_name, family_name, company, plan,
	password_hash, password_salt, role, email_verified, active,
	failed_login_attempts, locked_until,
	refresh_token_hash, refresh_token_expires_at,
	reset_token_hash, reset_token_expires_at,
	last_login_at, created_at, updated_at`

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByEmailOrUsername(ctx context.Context, identity string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ? OR username = ?`,
		identity, identity)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByRefreshTokenHash(ctx context.Context, hash string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE refresh_token_hash = ?`, hash)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByResetTokenHash(ctx context.Context, hash string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE reset_token_hash = ?`, hash)
	return scanAccount(row)
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO accounts (
			id, email, username, given_name, family_name, company, plan,
			password_hash, password_salt, role, email_verified, active,
			failed_login_attempts, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		a.ID, a.Email, a.Username, a.GivenName, a.FamilyName, a.Company, a.Plan,
		a.PasswordHash, a.PasswordSalt, string(a.Role),
		a.EmailVerified, a.Active, now, now,
	)
	return mapConstraint(err)
}

func (r *accountsRepo) SetFailedLoginState(ctx context.Context, accountID string, attempts int, lockedUntil *time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET failed_login_attempts = ?, locked_until = ?, updated_at = ?
		WHERE id = ?`,
		attempts, optionalTime(lockedUntil), time.Now().UTC(), accountID,
	)
}

func (r *accountsRepo) RecordLogin(ctx context.Context, accountID string, at time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET failed_login_attempts = 0, last_login_at = ?, updated_at = ?
		WHERE id = ?`,
		at.UTC(), time.Now().UTC(), accountID,
	)
}

func (r *accountsRepo) SetRefreshToken(ctx context.Context, accountID string, hash *string, expiresAt *time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET refresh_token_hash = ?, refresh_token_expires_at = ?, updated_at = ?
		WHERE id = ?`,
		optionalString(hash), optionalTime(expiresAt), time.Now().UTC(), accountID,
	)
}

func (r *accountsRepo) SetResetToken(ctx context.Context, accountID string, hash *string, expiresAt *time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET reset_token_hash = ?, reset_token_expires_at = ?, updated_at = ?
		WHERE id = ?`,
		optionalString(hash), optionalTime(expiresAt), time.Now().UTC(), accountID,
	)
}

func (r *accountsRepo) UpdatePassword(ctx context.Context, accountID string, hash, salt string) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET password_hash = ?, password_salt = ?, updated_at = ?
		WHERE id = ?`,
		hash, salt, time.Now().UTC(), accountID,
	)
}

func (r *accountsRepo) SetActive(ctx context.Context, accountID string, active bool) error {
	return r.exec(ctx, `
		UPDATE accounts SET active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), accountID,
	)
}

func (r *accountsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *accountsRepo) ClearExpiredRefreshTokens(ctx context.Context) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET refresh_token_hash = NULL, refresh_token_expires_at = NULL
		WHERE refresh_token_expires_at IS NOT NULL AND refresh_token_expires_at < ?`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *accountsRepo) ClearExpiredResetTokens(ctx context.Context) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET reset_token_hash = NULL, reset_token_expires_at = NULL
		WHERE reset_token_expires_at IS NOT NULL AND reset_token_expires_at < ?`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// exec runs an UPDATE that must touch exactly one row; a miss means the
// account id was stale.
func (r *accountsRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a           domain.Account
		role        string
		lockedUntil sql.NullTime
		refreshHash sql.NullString
		refreshExp  sql.NullTime
		resetHash   sql.NullString
		resetExp    sql.NullTime
		lastLogin   sql.NullTime
	)

	err := row.Scan(
		&a.ID, &a.Email, &a.Username, &a.GivenName, &a.FamilyName, &a.Company, &a.Plan,
		&a.PasswordHash, &a.PasswordSalt, &role, &a.EmailVerified, &a.Active,
		&a.FailedLoginAttempts, &lockedUntil,
		&refreshHash, &refreshExp,
		&resetHash, &resetExp,
		&lastLogin, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	a.Role = domain.Role(role)
	a.LockedUntil = nullTimePtr(lockedUntil)
	a.RefreshTokenHash = nullStringPtr(refreshHash)
	a.RefreshTokenExpiresAt = nullTimePtr(refreshExp)
	a.ResetTokenHash = nullStringPtr(resetHash)
	a.ResetTokenExpiresAt = nullTimePtr(resetExp)
	a.LastLoginAt = nullTimePtr(lastLogin)

	return a, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		val := ns.String
		return &val
	}
	return nil
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time
		return &val
	}
	return nil
}

func optionalString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func optionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
