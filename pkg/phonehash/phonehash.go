// Package phonehash derives keyed digests for phone numbers and one-time
// codes so raw values never reach a store. The key comes from deployment
// configuration; an empty key still yields stable (unkeyed) digests for
// development setups.
package phonehash

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Sum returns the hex-encoded keyed BLAKE2b-256 digest of value.
func Sum(key []byte, value string) string {
	h, err := blake2b.New256(key)
	if err != nil {
		// Key longer than 64 bytes; fall back to the unkeyed form rather
		// than failing phone verification outright.
		h, _ = blake2b.New256(nil)
	}
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}

// Equal compares two hex digests in constant length-independent fashion.
func Equal(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := 0; i < len(a); i++ {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
