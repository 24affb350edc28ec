package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// Hash returns the hex-encoded SHA-256 digest of data.
// Fingerprints are compared for equality only, never decoded.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashFile returns the fingerprint of a file's content
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return Hash(data), nil
}
