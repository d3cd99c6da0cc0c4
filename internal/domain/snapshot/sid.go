package snapshot

import (
	"math"
	"strconv"
	"strings"
)

// Segment widths of a stable identity. Together they fix SIDLength.
const (
	sidSeasonWidth   = 4
	sidPlatformWidth = 3
	sidLeagueWidth   = 12
	sidTeamWidth     = 2
	sidSportWidth    = 3

	// SIDLength is the fixed width of every stable identity.
	SIDLength = sidSeasonWidth + sidPlatformWidth + sidLeagueWidth + sidTeamWidth + sidSportWidth
)

// sport3Offsets perturbs letter ordinals so short slugs spread across
// the code space without colliding for the provider's sport set.
var sport3Offsets = [7]int{3, 1, 4, 1, 5, 9, 2}

// PadDigits reduces s to its digits and fits them into width chars:
// short values are left-padded with zeros, long values keep their
// rightmost digits. A value with no digits becomes all zeros.
func PadDigits(s string, width int) string {
	if width <= 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) > width {
		return digits[len(digits)-width:]
	}
	return strings.Repeat("0", width-len(digits)) + digits
}

// Sport3 folds a sport slug into a three-digit code. The fold is
// deterministic and collision-free across the provider's sports.
// An input with no letters maps to "000".
func Sport3(sport string) string {
	letters := make([]rune, 0, 7)
	for _, r := range strings.ToLower(strings.TrimSpace(sport)) {
		if r >= 'a' && r <= 'z' {
			letters = append(letters, r)
			if len(letters) == 7 {
				break
			}
		}
	}
	if len(letters) == 0 {
		return "000"
	}

	prod := 1
	for i, r := range letters {
		prod *= int(r) - 96 + sport3Offsets[i]
	}

	val := int(math.Ceil(math.Sqrt(float64(prod)))) % 1000
	return PadDigits(strconv.Itoa(val), sidSportWidth)
}

// SID assembles the 24-char stable identity
// season(4) || platform(3) || league(12) || team(2) || sport(3).
func SID(season int, platform, leagueID, teamID, sport string) string {
	return PadDigits(strconv.Itoa(season), sidSeasonWidth) +
		PadDigits(PlatformCode(platform), sidPlatformWidth) +
		PadDigits(leagueID, sidLeagueWidth) +
		PadDigits(teamID, sidTeamWidth) +
		Sport3(sport)
}
