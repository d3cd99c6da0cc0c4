package member

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// GhostPrefix marks synthetic member identities minted for teams whose
// real owner could not be resolved.
const GhostPrefix = "GHOST"

var ghostIDRegex = regexp.MustCompile(`^GHOST(\d{3,})$`)

// IsGhost reports whether id is a synthetic ghost member identity.
func IsGhost(id string) bool {
	return ghostIDRegex.MatchString(strings.TrimSpace(id))
}

// FormatGhost renders the ghost identity for suffix n, zero-padded to
// three digits. Suffixes above 999 keep their natural width.
func FormatGhost(n int) string {
	if n < 0 {
		n = 0
	}
	return fmt.Sprintf("%s%03d", GhostPrefix, n)
}

// GhostSuffix extracts the numeric suffix from a ghost identity.
// Returns 0, false for anything that is not a ghost id.
func GhostSuffix(id string) (int, bool) {
	matches := ghostIDRegex.FindStringSubmatch(strings.TrimSpace(id))
	if matches == nil {
		return 0, false
	}

	n, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
