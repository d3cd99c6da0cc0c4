package credential

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/member"
)

// Token is the raw provider cookie pair presented by a browser or a
// trusted caller. It is never persisted as-is outside the vault.
type Token struct {
	SWID string
	S2   string
}

// IsZero reports whether the token carries no usable material.
func (t Token) IsZero() bool {
	return strings.TrimSpace(t.SWID) == "" && strings.TrimSpace(t.S2) == ""
}

// Credential is one provider token pair bound to at most one local member.
// SWIDHash and S2Hash are recomputable digests kept for indexed lookups
// and redacted diagnostics.
type Credential struct {
	SWID      string
	S2        string
	SWIDHash  string
	S2Hash    string
	MemberID  string
	Ref       string
	FirstSeen time.Time
	LastSeen  time.Time
}

// Token returns the replayable pair carried by the credential.
func (c Credential) Token() Token {
	return Token{SWID: c.SWID, S2: c.S2}
}

// HasMember reports whether the credential is bound to a real member.
// Ghost bindings do not count.
func (c Credential) HasMember() bool {
	return c.MemberID != "" && !member.IsGhost(c.MemberID)
}

// Hash returns the hex sha256 digest of value.
func Hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// NormalizeSWID canonicalises a provider owner token: trims whitespace,
// upper-cases the GUID body, and guarantees the surrounding braces the
// provider uses on the wire. Empty input stays empty.
func NormalizeSWID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	return "{" + s + "}"
}

// ResolveBinding decides which member a credential row keeps after an
// upsert. A stored real member is never displaced: a different caller
// presenting the same SWID refreshes token material only. Empty or
// ghost bindings may be claimed by an incoming real member.
func ResolveBinding(stored, incoming string) string {
	stored = strings.TrimSpace(stored)
	incoming = strings.TrimSpace(incoming)
	if member.IsGhost(incoming) {
		incoming = ""
	}

	if stored != "" && !member.IsGhost(stored) {
		return stored
	}
	if incoming != "" {
		return incoming
	}
	return stored
}
