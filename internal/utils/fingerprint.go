package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// ClientFingerprint condenses an opaque client signature (typically the
// User-Agent header) into a short stable hash suitable for embedding in
// counter keys. Distinct clients behind one NAT get distinct fingerprints;
// empty signatures all map to the same one.
func ClientFingerprint(signature string) string {
	sum := blake2b.Sum256([]byte(signature))
	return hex.EncodeToString(sum[:8])
}
