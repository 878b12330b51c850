package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey returns a stable hex digest for a cache identity string.
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
