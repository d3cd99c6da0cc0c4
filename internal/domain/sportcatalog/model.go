package sportcatalog

import (
	"regexp"
	"strings"
	"time"
)

// TablePrefix heads every per-sport ledger table name.
const TablePrefix = "ff_sport_"

// UnknownCharCode receives rows whose sport slug fails sanitisation.
const UnknownCharCode = "unk"

var charCodeRegex = regexp.MustCompile(`^[a-z0-9_]{1,24}$`)

// SportCode is one registered sport with its stable numeric code.
type SportCode struct {
	CharCode  string    `db:"char_code"`
	NumCode   int       `db:"num_code"`
	CreatedAt time.Time `db:"created_at"`
}

// Entry is the refreshed rollup for one (sport, season).
type Entry struct {
	CharCode          string    `db:"char_code"`
	Season            int       `db:"season"`
	TotalCount        int       `db:"total_count"`
	UniqueSIDCount    int       `db:"unique_sid_count"`
	UniqueMemberCount int       `db:"unique_member_count"`
	RefreshedAt       time.Time `db:"refreshed_at"`
}

// SanitizeCharCode lowercases a sport slug and verifies it is safe to
// embed in a table name. Anything else collapses to UnknownCharCode.
func SanitizeCharCode(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if !charCodeRegex.MatchString(s) {
		return UnknownCharCode
	}
	return s
}

// TableName returns the ledger table for a sport slug.
func TableName(charCode string) string {
	return TablePrefix + SanitizeCharCode(charCode)
}
