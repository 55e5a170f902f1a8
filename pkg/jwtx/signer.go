package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeyBytes is the smallest signing key accepted. HS256 keys shorter
// than the hash output undermine the signature strength.
const MinKeyBytes = 32

// ErrKeyTooShort reports a signing key below MinKeyBytes. There is no
// fallback key: construction fails and the caller must refuse to start.
var ErrKeyTooShort = errors.New("jwtx: signing key too short")

// Signer signs session-token claims.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

type hs256Signer struct {
	key []byte
}

// NewSignerHS256 creates an HS256 signer from a symmetric key. The key is
// mandatory; an empty or short key is a construction error.
func NewSignerHS256(key []byte) (Signer, error) {
	if len(key) < MinKeyBytes {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrKeyTooShort, len(key), MinKeyBytes)
	}
	return &hs256Signer{key: key}, nil
}

func (s *hs256Signer) Alg() string { return "HS256" }

func (s *hs256Signer) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: failed to sign token: %w", err)
	}
	return signed, nil
}
