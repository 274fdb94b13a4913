package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a stable hex sha256 digest of s, used as a cache key.
func Fingerprint(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
