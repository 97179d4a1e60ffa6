package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefix for record digests.
// Version suffix enables future algorithm migration.
const DomainActionRecord = "transitions/action/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordDigest computes the content digest of a record over the canonical
// JSON form of every field except Digest itself.
//
// The digest is stable across a write/read round trip of the record file,
// so a reader can detect hand edits to a log entry.
func RecordDigest(r ActionRecord) (string, error) {
	canonical, err := MarshalCanonical(r.Fields())
	if err != nil {
		return "", fmt.Errorf("RecordDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainActionRecord, canonical), nil
}

// MustRecordDigest is like RecordDigest but panics on error.
// Use only in tests or when the record is known to be valid.
func MustRecordDigest(r ActionRecord) string {
	d, err := RecordDigest(r)
	if err != nil {
		panic(err)
	}
	return d
}
