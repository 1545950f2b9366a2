package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/spec-kit/gradebook-service/pkg/util"
)

// HashPassword produces the hex sha256 digest of a plaintext password.
//
// The digest is unsalted and single-round to stay wire-compatible with the
// credentials already stored by the deployed system. See DESIGN.md before
// changing the scheme.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", util.NewValidationError("password is required", nil)
	}
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

// VerifyPassword reports whether the plaintext password matches the stored
// digest, comparing in constant time.
func VerifyPassword(digest, password string) bool {
	computed, err := HashPassword(password)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
