package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashPassword returns the hex sha256 digest stored for account passwords.
func HashPassword(pw string) string {
	sum := sha256.Sum256([]byte(pw))
	return hex.EncodeToString(sum[:])
}
