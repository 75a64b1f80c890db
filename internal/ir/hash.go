package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainStatement = "querytext/statement/v1"
	DomainDocument  = "querytext/document/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StatementFingerprint identifies a rendered statement: the same dialect,
// text and constants always produce the same fingerprint.
func StatementFingerprint(dialect, sql string, constants []any) (string, error) {
	if constants == nil {
		constants = []any{}
	}
	canonical, err := MarshalCanonical(map[string]any{
		"dialect":   dialect,
		"sql":       sql,
		"constants": constants,
	})
	if err != nil {
		return "", fmt.Errorf("StatementFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainStatement, canonical), nil
}

// DocumentHash identifies the raw bytes of a query document, used to skip
// re-rendering unchanged files in watch mode.
func DocumentHash(data []byte) string {
	return hashWithDomain(DomainDocument, data)
}
