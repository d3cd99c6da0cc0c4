package snapshot

import (
	"strings"
	"time"
)

// Platform slugs stored in the ledger. Aliases (numeric wire codes) are
// accepted at the edges and normalised to these.
const (
	PlatformESPN    = "espn"
	PlatformSleeper = "sleeper"
)

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"

	StatusActive   = "active"
	StatusArchived = "archived"
)

// Known sport slugs on the primary provider.
const (
	SportFootball = "ffl"
	SportBasket   = "fba"
	SportBaseball = "flb"
	SportHockey   = "fhl"
)

// DefaultSports is the probe order used by league discovery.
var DefaultSports = []string{SportFootball, SportBasket, SportBaseball, SportHockey}

var platformCodes = map[string]string{
	PlatformESPN:    "018",
	PlatformSleeper: "027",
}

var platformAliases = map[string]string{
	"espn":    PlatformESPN,
	"018":     PlatformESPN,
	"sleeper": PlatformSleeper,
	"027":     PlatformSleeper,
}

// NormalizePlatform maps a caller-supplied platform alias to its stored
// slug. Empty input defaults to the primary provider. Unknown aliases
// pass through lowercased so filters simply match nothing.
func NormalizePlatform(alias string) string {
	s := strings.ToLower(strings.TrimSpace(alias))
	if s == "" {
		return PlatformESPN
	}
	if slug, ok := platformAliases[s]; ok {
		return slug
	}
	return s
}

// PlatformCode returns the three-digit wire code for a platform slug.
// Unknown slugs fall back to their digit content, usually "000".
func PlatformCode(platform string) string {
	if code, ok := platformCodes[NormalizePlatform(platform)]; ok {
		return code
	}
	return PadDigits(platform, 3)
}

// League is the canonical header for one provider league bundle.
type League struct {
	Platform        string
	Season          int
	LeagueID        string
	CharCode        string
	Name            string
	Size            int
	Logo            string
	ScoringPeriodID int
	InSeason        bool
	IsLive          bool
}

// Row is one canonical team snapshot as written to a sport ledger table.
type Row struct {
	SID             string
	Platform        string
	Season          int
	LeagueID        string
	TeamID          string
	CharCode        string
	LeagueName      string
	LeagueSize      int
	LeagueLogo      string
	TeamName        string
	TeamAbbrev      string
	TeamLogo        string
	OwnerName       string
	OwnerGUIDs      []string
	FantasyURLs     map[string]string
	ScoringPeriodID int
	InSeason        bool
	IsLive          bool
	ScoringJSON     map[string]any
	DraftJSON       map[string]any
	SourcePayload   map[string]any
	SourceHash      string
	Visibility      string
	Status          string
	FirstSeenAt     time.Time
	LastSeenAt      time.Time
	LastSyncedAt    time.Time
}

// Key identifies a row inside its sport ledger.
type Key struct {
	Platform string
	Season   int
	LeagueID string
	TeamID   string
}

// Key returns the upsert identity of the row.
func (r Row) Key() Key {
	return Key{Platform: r.Platform, Season: r.Season, LeagueID: r.LeagueID, TeamID: r.TeamID}
}
