package logic

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainTerm = "tabled/term/v1"
	DomainRule = "tabled/rule/v1"
	DomainKB   = "tabled/kb/v1"
)

// HashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content fingerprint of a term.
func Hash(t *Term) string {
	return HashWithDomain(DomainTerm, []byte(t.key))
}
