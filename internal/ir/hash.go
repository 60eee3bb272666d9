package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainQuery       = "nlq/query/v1"
	DomainColumns     = "nlq/columns/v1"
	DomainTranslation = "nlq/translation/v1"
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

// QueryID computes the content-addressed ID of a query description.
// Two descriptions share an ID exactly when their canonical JSON is equal,
// so the ID doubles as a determinism check across runs.
func QueryID(desc any) (string, error) {
	canonical, err := MarshalCanonical(desc)
	if err != nil {
		return "", fmt.Errorf("QueryID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainQuery, canonical), nil
}

// ColumnsHash identifies an ordered column schema. Order is significant:
// role resolution walks columns in schema order.
func ColumnsHash(columns []string) string {
	canonical := MustMarshalCanonical(columns)
	return hashWithDomain(DomainColumns, canonical)
}

// TranslationID identifies one logged translation: the same text over the
// same columns in the same collection yielding the same query.
func TranslationID(collection, text, columnsHash, queryID string) string {
	canonical := MustMarshalCanonical([]any{collection, text, columnsHash, queryID})
	return hashWithDomain(DomainTranslation, canonical)
}

// MustQueryID is like QueryID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustQueryID(desc any) string {
	id, err := QueryID(desc)
	if err != nil {
		panic(err)
	}
	return id
}
