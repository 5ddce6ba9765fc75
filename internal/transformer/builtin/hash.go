// Package builtin contains the pure normalization primitives every dataset
// adapter is built from: identity hashing, text cleanup, price parsing and
// attribute-bag encoding.
package builtin

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Separator terminates every part fed into HashID. It is the ASCII Unit
// Separator, which never occurs in native identifiers.
const Separator = "\x1f"

// HashID computes a deterministic SHA-256 identifier over parts.
//
// Canonicalization rules:
//   - Each part is written followed by Separator, so ("ab","c") and ("a","bc")
//     hash differently and so do ("a") and ("a","").
//   - An absent part is the empty string; callers pass "" for it.
//   - Output is a lowercase hex string (length 64).
func HashID(parts ...string) string {
	var b strings.Builder

	// Heuristic: most identity tuples are three short parts.
	n := 0
	for _, p := range parts {
		n += len(p) + len(Separator)
	}
	b.Grow(n)

	for _, p := range parts {
		b.WriteString(p)
		b.WriteString(Separator)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// ItemID is the canonical item identifier. scope is the merchant/side tag,
// locale or variant that disambiguates native ids inside one dataset; it is
// "" for datasets with a single flat catalog.
func ItemID(dataset, scope, native string) string {
	return HashID(dataset, scope, native)
}

// QueryID is the canonical query identifier for a native query id, or for the
// normalized query text when the source has no id.
func QueryID(dataset, native string) string {
	return HashID(dataset, native)
}

// SessionQueryID identifies the implicit query of a session in logs that
// record no query id. It never equals a QueryID, even for equal native values.
func SessionQueryID(dataset, session string) string {
	return HashID(dataset, "session", session)
}
