package ingest

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// addressSuffixBytes is the random suffix width: 3 bytes hex-encoded gives
// a fixed 6 characters appended to the normalized base.
const addressSuffixBytes = 3

// addressFallback replaces a base that normalizes to nothing.
const addressFallback = "dataset"

// AllocateAddress derives a URL-safe slug from a display name plus a short
// random suffix. The suffix only reduces collision probability; the hard
// uniqueness guarantee lives in the storage layer's unique constraint and
// the service's retry loop.
func AllocateAddress(displayName string) string {
	base := normalizeBase(displayName)
	if base == "" {
		base = addressFallback
	}

	suffix := make([]byte, addressSuffixBytes)
	// rand.Read never returns an error on supported platforms.
	rand.Read(suffix)

	return base + "-" + hex.EncodeToString(suffix)
}

// normalizeBase lowercases the name, collapses every run of characters
// outside [a-z0-9] into a single hyphen and trims hyphens at both ends.
func normalizeBase(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
