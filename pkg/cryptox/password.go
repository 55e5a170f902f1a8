package cryptox

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// saltLength is the size of the random HMAC key generated per password.
const saltLength = 128

// HashPassword generates a fresh random key (the salt) and computes an
// HMAC-SHA512 digest of the password using that key. Both values are
// returned base64-encoded; callers persist the pair, nothing is stored
// here.
func HashPassword(password string) (hash, salt string, err error) {
	key := make([]byte, saltLength)
	if _, err := rand.Read(key); err != nil {
		return "", "", fmt.Errorf("cryptox: failed to generate salt: %w", err)
	}

	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(password))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)),
		base64.StdEncoding.EncodeToString(key),
		nil
}

// VerifyPassword recomputes the HMAC-SHA512 digest of password using the
// stored salt as the key and compares it against the stored hash in
// constant time. Empty or malformed stored values fail closed: the result
// is false, never a panic or an error.
func VerifyPassword(password, storedHash, storedSalt string) bool {
	if storedHash == "" || storedSalt == "" {
		return false
	}

	key, err := base64.StdEncoding.DecodeString(storedSalt)
	if err != nil {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(storedHash)
	if err != nil {
		return false
	}

	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(password))

	return subtle.ConstantTimeCompare(mac.Sum(nil), expected) == 1
}
