package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for an algorithm migration.
const (
	DomainSchema    = "cteq/schema/v1"
	DomainStatement = "cteq/statement/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SchemaHash computes the content hash of a canonical schema description.
// Equal schemas hash equally regardless of map iteration order.
func SchemaHash(desc map[string]any) (string, error) {
	canonical, err := MarshalCanonical(desc)
	if err != nil {
		return "", fmt.Errorf("SchemaHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSchema, canonical), nil
}

// StatementID computes the content-addressed ID of a composed statement.
// IRVersion is folded in so a change of the IR format never reuses an ID.
func StatementID(desc map[string]any) (string, error) {
	obj := map[string]any{
		"ir_version": IRVersion,
		"statement":  desc,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("StatementID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainStatement, canonical), nil
}

// MustStatementID is like StatementID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustStatementID(desc map[string]any) string {
	id, err := StatementID(desc)
	if err != nil {
		panic(err)
	}
	return id
}
