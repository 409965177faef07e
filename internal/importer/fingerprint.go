package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint is the idempotency key of a job: the first 128 bits of the
// SHA-256 of its case-folded title, company, location and sector, in that
// order. Discovery method and timestamps never contribute.
func Fingerprint(title, company, location, sector string) string {
	key := strings.Join([]string{
		fold(title),
		fold(company),
		fold(location),
		fold(sector),
	}, "|")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
