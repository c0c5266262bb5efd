package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed digests.
const (
	DomainSummary = "h2o/summary/v1"
	DomainLog     = "h2o/log/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SummaryDigest identifies a run outcome independent of interleaving:
// two correct runs of the same pool have equal digests.
func SummaryDigest(s Summary) (string, error) {
	canonical, err := MarshalCanonical(s)
	if err != nil {
		return "", fmt.Errorf("SummaryDigest: %w", err)
	}
	return hashWithDomain(DomainSummary, canonical), nil
}

// LogDigest identifies one exact interleaving of a run.
func LogDigest(events []Event) (string, error) {
	list := make([]any, len(events))
	for i, ev := range events {
		list[i] = ev
	}
	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("LogDigest: %w", err)
	}
	return hashWithDomain(DomainLog, canonical), nil
}
