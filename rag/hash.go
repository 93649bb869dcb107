package rag

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the hex sha256 digest of text. It serves as both the
// chunk identity and the dedup key: byte-identical text always hashes to the
// same digest, which makes re-ingestion idempotent and lets retrieval drop
// duplicate hits.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
