package domain

import "time"

// Account is the authenticable principal for a BotFlow workspace member.
// Refresh and reset tokens live as columns on the account row (at most
// one live token of each kind per account); only their SHA-256
// fingerprints are stored.
type Account struct {
	ID         string
	Email      string
	Username   string
	GivenName  string
	FamilyName string
	Company    string
	Plan       string

	PasswordHash string // base64 HMAC-SHA512 digest
	PasswordSalt string // base64 random key used as the HMAC key

	Role          Role
	EmailVerified bool
	Active        bool

	FailedLoginAttempts int
	LockedUntil         *time.Time

	RefreshTokenHash      *string
	RefreshTokenExpiresAt *time.Time

	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time

	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName returns the human name used in emails and token claims.
func (a Account) DisplayName() string {
	switch {
	case a.GivenName == "":
		return a.FamilyName
	case a.FamilyName == "":
		return a.GivenName
	default:
		return a.GivenName + " " + a.FamilyName
	}
}
