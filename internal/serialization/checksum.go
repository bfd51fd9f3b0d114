package serialization

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeChecksum computes the SHA-256 checksum of data as lowercase hex.
func ComputeChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ValidateChecksum compares a computed checksum against a stored one.
// Returns ErrChecksumMismatch if they don't match.
func ValidateChecksum(computed, stored string) error {
	if computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}
