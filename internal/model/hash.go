package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// algorithm to change without colliding with old hashes.
const (
	DomainSnapshot = "moveng/snapshot/v1"
	DomainRecord   = "moveng/record/v1"
)

// hashWithDomain computes SHA-256(domain + 0x00 + data), hex encoded.
// The null separator keeps domain and data boundaries unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the content hash of a snapshot's ten collections.
// Metadata is excluded, so recompiling unchanged sources yields the same
// fingerprint regardless of when or where it ran.
func Fingerprint(s *Snapshot) (string, error) {
	content := *s
	content.Meta = nil
	data, err := MarshalCanonical(&content)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainSnapshot, data), nil
}

// RecordHash returns the content hash of a single record.
func RecordHash(r Record) (string, error) {
	data, err := MarshalCanonical(r)
	if err != nil {
		return "", fmt.Errorf("record hash %s/%s: %w", r.Collection(), r.RecordID(), err)
	}
	return hashWithDomain(DomainRecord+"/"+r.Collection().Key(), data), nil
}
