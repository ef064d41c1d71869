package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for hash separation. The version suffix enables future
// algorithm migration without hash collisions across uses.
const (
	DomainFacts = "ruleflow/facts/v1"
	DomainTrace = "ruleflow/trace/v1"
)

// Hash computes the domain-separated SHA-256 of a value's canonical JSON
// form: SHA256(domain + 0x00 + canonical). The null byte prevents
// domain/data boundary ambiguity. The value is normalized first, so any
// json.Marshal-able value is accepted.
func Hash(domain string, v any) (string, error) {
	normalized, err := Normalize(v)
	if err != nil {
		return "", err
	}
	data, err := Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MustHash is like Hash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustHash(domain string, v any) string {
	h, err := Hash(domain, v)
	if err != nil {
		panic(err)
	}
	return h
}
