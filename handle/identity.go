package handle

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Digest is a content-identity fingerprint for a copied/shared payload,
// computed over a caller-supplied byte encoding of it. Used by this
// package's tests to confirm the one-fresh-copy-per-object clone property
// on objects that do not carry a cheap pointer-equality check of their own.
func Digest(payload []byte) string {
	sum := sha3.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
