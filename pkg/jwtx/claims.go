package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants for session flows. These are sensible
// security defaults and can be overridden per-service via config.
const (
	// DefaultSessionTokenTTL is the default lifetime for session tokens.
	DefaultSessionTokenTTL = 60 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims are the session-token claims asserted for an authenticated
// account. The role is emitted twice: Roles carries the standard claim
// shape, Role is a flat string kept for client compatibility.
type Claims struct {
	jwt.RegisteredClaims

	Email         string   `json:"email,omitempty"`
	Username      string   `json:"username,omitempty"`
	GivenName     string   `json:"given_name,omitempty"`
	FamilyName    string   `json:"family_name,omitempty"`
	Name          string   `json:"name,omitempty"`
	Roles         []string `json:"roles,omitempty"`
	Role          string   `json:"role,omitempty"`
	Company       string   `json:"company,omitempty"`
	EmailVerified bool     `json:"email_verified"`
	Plan          string   `json:"plan,omitempty"`
}

// SessionProfile carries the identity fields embedded into a session token.
type SessionProfile struct {
	AccountID     string
	Email         string
	Username      string
	GivenName     string
	FamilyName    string
	Role          string
	Company       string
	Plan          string
	EmailVerified bool
}

// NewSessionClaims builds minimally-correct claims for a session token.
func NewSessionClaims(
	p SessionProfile,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.AccountID,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Email:         p.Email,
		Username:      p.Username,
		GivenName:     p.GivenName,
		FamilyName:    p.FamilyName,
		Name:          displayName(p.GivenName, p.FamilyName),
		Roles:         []string{p.Role},
		Role:          p.Role,
		Company:       p.Company,
		EmailVerified: p.EmailVerified,
		Plan:          p.Plan,
	}
}

func displayName(given, family string) string {
	switch {
	case given == "":
		return family
	case family == "":
		return given
	default:
		return given + " " + family
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks the issuer matches the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiryWithLeeway checks exp/nbf with a small grace period for
// clock skew. Expiry comparisons are wall-clock UTC: now >= exp is
// expired.
func (c *Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
