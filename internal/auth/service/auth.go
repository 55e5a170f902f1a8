package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/botflowhq/botflow/internal/auth/domain"
	"github.com/botflowhq/botflow/internal/auth/store"
	"github.com/botflowhq/botflow/pkg/cryptox"
	"github.com/botflowhq/botflow/pkg/idx"
	"github.com/botflowhq/botflow/pkg/jwtx"
	"github.com/botflowhq/botflow/pkg/mailx"
	"github.com/botflowhq/botflow/pkg/slogx"
	"github.com/google/uuid"
)

// Expected auth failures. The HTTP layer maps these to 400/401/403 with
// safe messages; anything else is an unexpected error surfaced as a
// generic 500.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrAccountLocked      = errors.New("account is locked")
	ErrAccessDenied       = errors.New("access denied")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrEmailNotVerified   = errors.New("please verify your email")
	ErrWeakPassword       = errors.New("password does not meet requirements")
)

// MinPasswordLength is enforced on register and reset.
const MinPasswordLength = 8

// AuthService composes the credential hasher, token issuer, account guard
// and refresh-token handling into the register/login/refresh/reset flows.
type AuthService struct {
	Store    store.Store
	Guard    *Guard
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Mailer   mailx.Mailer

	Issuer   string
	Audience []string

	SessionTTL time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration

	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// AuthResult is what the login-family flows return.
type AuthResult struct {
	Account domain.Account
	Tokens  domain.TokenPair
}

type RegisterInput struct {
	Email           string
	Username        string
	GivenName       string
	FamilyName      string
	Company         string
	Password        string
	ConfirmPassword string
}

// Register creates a standard account and signs it in. Email verification
// is force-set at creation; the pending-verification state is structurally
// retained but never reached in this deployment.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	if in.Email == "" || in.Username == "" {
		return nil, ErrInvalidCredentials
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if len(in.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	// Exact case-sensitive matches, same as the unique columns.
	if _, err := s.Store.Accounts().GetAccountByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if _, err := s.Store.Accounts().GetAccountByEmailOrUsername(ctx, in.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, salt, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	account := domain.Account{
		ID:            idx.New().String(),
		Email:         in.Email,
		Username:      in.Username,
		GivenName:     in.GivenName,
		FamilyName:    in.FamilyName,
		Company:       in.Company,
		Plan:          "free",
		PasswordHash:  hash,
		PasswordSalt:  salt,
		Role:          domain.RoleStandard,
		EmailVerified: true, // verification feature disabled in this deployment
		Active:        true,
	}

	if err := s.Store.Accounts().CreateAccount(ctx, account); err != nil {
		// Unique-constraint backstop for races between the checks above
		// and the insert.
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if err := s.Guard.RecordSuccessfulLogin(ctx, account); err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, account)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Account: account, Tokens: tokens}, nil
}

// Login authenticates with no role restriction.
func (s *AuthService) Login(ctx context.Context, identity, password string) (*AuthResult, error) {
	return s.login(ctx, identity, password, domain.AnyRole)
}

// AdminLogin accepts admin and superadmin accounts.
func (s *AuthService) AdminLogin(ctx context.Context, identity, password string) (*AuthResult, error) {
	return s.login(ctx, identity, password, domain.AdminRoles)
}

// SuperAdminLogin accepts only superadmin accounts.
func (s *AuthService) SuperAdminLogin(ctx context.Context, identity, password string) (*AuthResult, error) {
	return s.login(ctx, identity, password, domain.SuperAdminOnly)
}

// login is the single decision tree shared by every login path. The
// lockout check runs on all paths, gated ones included.
func (s *AuthService) login(ctx context.Context, identity, password string, required []domain.Role) (*AuthResult, error) {
	l := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetAccountByEmailOrUsername(ctx, strings.TrimSpace(identity))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same message as a bad password so callers can't probe for
			// registered identities.
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !account.Active {
		return nil, ErrAccountInactive
	}
	if !account.Role.In(required) {
		l.Info("role gate rejected login", "account_id", account.ID, "role", account.Role.String())
		return nil, ErrAccessDenied
	}
	if s.Guard.IsLockedOut(account) {
		return nil, ErrAccountLocked
	}

	if !cryptox.VerifyPassword(password, account.PasswordHash, account.PasswordSalt) {
		if err := s.Guard.RecordFailedLogin(ctx, account); err != nil {
			l.Error("failed to record login failure", "account_id", account.ID, "error", err)
		}
		return nil, ErrInvalidCredentials
	}

	if !account.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	if err := s.Guard.RecordSuccessfulLogin(ctx, account); err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, account)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Account: account, Tokens: tokens}, nil
}

// Refresh redeems a refresh token and rotates it. Redeem and rotate run
// in one transaction so two concurrent redeems of the same token cannot
// both win.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}

	fp := cryptox.FingerprintToken(refreshToken)
	now := s.now()

	var result *AuthResult

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		account, err := tx.Accounts().GetAccountByRefreshTokenHash(ctx, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidToken
			}
			return err
		}

		if account.RefreshTokenExpiresAt == nil || !now.Before(*account.RefreshTokenExpiresAt) {
			return ErrInvalidToken
		}
		if !account.Active {
			return ErrAccountInactive
		}

		tokens, err := s.rotateTokens(ctx, tx, account)
		if err != nil {
			return err
		}

		result = &AuthResult{Account: account, Tokens: tokens}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Logout revokes the refresh token if it exists. Idempotent: an unknown
// token is not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	fp := cryptox.FingerprintToken(refreshToken)
	account, err := s.Store.Accounts().GetAccountByRefreshTokenHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	return s.Store.Accounts().SetRefreshToken(ctx, account.ID, nil, nil)
}

// ForgotPassword starts the reset flow. It returns nil whether or not the
// email exists so responses can't be used to enumerate accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetAccountByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if !account.Active || !account.EmailVerified {
		return nil
	}

	token := uuid.NewString()
	fp := cryptox.FingerprintToken(token)
	expires := s.now().Add(s.resetTTL())

	if err := s.Store.Accounts().SetResetToken(ctx, account.ID, &fp, &expires); err != nil {
		return err
	}

	// Fire-and-forget: delivery failures are logged, never surfaced.
	go func() {
		if err := s.Mailer.SendPasswordReset(context.Background(), account.Email, account.DisplayName(), token); err != nil {
			l.Error("failed to send password reset email", "account_id", account.ID, "error", err)
		}
	}()

	return nil
}

// ResetPassword consumes a reset token and sets a new password. The token
// is single-use: success clears both reset fields.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	l := slogx.FromContext(ctx)

	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	fp := cryptox.FingerprintToken(token)
	account, err := s.Store.Accounts().GetAccountByResetTokenHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if account.ResetTokenExpiresAt == nil || !s.now().Before(*account.ResetTokenExpiresAt) {
		return ErrInvalidToken
	}
	// Suspended accounts must not redeem tokens issued before suspension.
	// Report the same error as an unknown token to avoid leaking state.
	if !account.Active {
		return ErrInvalidToken
	}

	hash, salt, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().UpdatePassword(ctx, account.ID, hash, salt); err != nil {
			return err
		}
		return tx.Accounts().SetResetToken(ctx, account.ID, nil, nil)
	})
	if err != nil {
		return err
	}

	go func() {
		if err := s.Mailer.SendPasswordChangedNotice(context.Background(), account.Email, account.DisplayName()); err != nil {
			l.Error("failed to send password changed notice", "account_id", account.ID, "error", err)
		}
	}()

	return nil
}

// ValidateToken reports whether a session token is currently valid. Any
// verification failure yields false, never an error.
func (s *AuthService) ValidateToken(token string) bool {
	_, err := s.Verifier.Verify(token)
	return err == nil
}

// issueTokens signs a session token and rotates the refresh token using
// the root store.
func (s *AuthService) issueTokens(ctx context.Context, account domain.Account) (domain.TokenPair, error) {
	return s.rotateTokens(ctx, s.Store, account)
}

// rotateTokens mints a session+refresh pair and overwrites the stored
// refresh fingerprint. st may be the root store or a transaction.
func (s *AuthService) rotateTokens(ctx context.Context, st store.Store, account domain.Account) (domain.TokenPair, error) {
	now := s.now()

	claims := jwtx.NewSessionClaims(
		jwtx.SessionProfile{
			AccountID:     account.ID,
			Email:         account.Email,
			Username:      account.Username,
			GivenName:     account.GivenName,
			FamilyName:    account.FamilyName,
			Role:          account.Role.String(),
			Company:       account.Company,
			Plan:          account.Plan,
			EmailVerified: account.EmailVerified,
		},
		s.sessionTTL(),
		s.Issuer,
		slices.Clone(s.Audience),
		now,
	)

	sessionToken, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refreshToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.TokenPair{}, err
	}
	fp := cryptox.FingerprintToken(refreshToken)
	expires := now.Add(s.refreshTTL())

	if err := st.Accounts().SetRefreshToken(ctx, account.ID, &fp, &expires); err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		SessionToken: sessionToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.sessionTTL().Seconds()),
	}, nil
}

// RefreshTokenTTL reports the effective refresh-token lifetime, used by
// the HTTP layer to scope the refresh cookie.
func (s *AuthService) RefreshTokenTTL() time.Duration {
	return s.refreshTTL()
}

func (s *AuthService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return jwtx.DefaultSessionTokenTTL
}

func (s *AuthService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

func (s *AuthService) resetTTL() time.Duration {
	if s.ResetTTL > 0 {
		return s.ResetTTL
	}
	return time.Hour
}
