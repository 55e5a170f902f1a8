package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a session token and returns the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// DefaultLeeway allows a small clock-skew window when validating exp/nbf.
const DefaultLeeway = 30 * time.Second

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

type hs256Verifier struct {
	key      []byte
	issuer   string
	audience []string
	leeway   time.Duration
}

// NewVerifierHS256 creates a verifier bound to an HS256 key with the
// expected issuer and audience. Signature, issuer, audience and expiry
// are all enforced on every Verify call.
func NewVerifierHS256(key []byte, issuer string, audience []string) (Verifier, error) {
	if len(key) < MinKeyBytes {
		return nil, ErrKeyTooShort
	}
	return &hs256Verifier{
		key:      key,
		issuer:   issuer,
		audience: audience,
		leeway:   DefaultLeeway,
	}, nil
}

func (v *hs256Verifier) Verify(raw string) (Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) {
			return v.key, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		// Registered-claim checks are done explicitly below so we control
		// leeway and error mapping in one place.
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return Claims{}, ErrInvalidSig
		}
		return Claims{}, ErrMalformed
	}
	if !token.Valid {
		return Claims{}, ErrInvalidSig
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.audience); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiryWithLeeway(v.leeway); err != nil {
		return Claims{}, err
	}

	return claims, nil
}
