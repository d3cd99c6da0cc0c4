package snapshot

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Normalize shapes one provider league bundle (mTeam + mSettings views)
// into a canonical league header and one ledger row per team. SIDs and
// source hashes are computed here so every write path shares them.
// fallbackLeagueID is used when the bundle omits its own id.
func Normalize(platform string, season int, sport, fallbackLeagueID string, bundle map[string]any, now time.Time) (League, []Row, error) {
	if len(bundle) == 0 {
		return League{}, nil, fmt.Errorf("empty league bundle")
	}

	platform = NormalizePlatform(platform)
	leagueID := firstNonEmpty(rawID(bundle, "id"), fallbackLeagueID)
	if leagueID == "" {
		return League{}, nil, fmt.Errorf("league bundle has no id")
	}

	settings := getMap(bundle, "settings")
	status := getMap(bundle, "status")

	scoringPeriodID := getInt(bundle, "scoringPeriodId")
	inSeason := getBool(status, "isActive")
	isLive := inSeason && scoringPeriodID > 0 && getInt(status, "currentMatchupPeriod") == scoringPeriodID

	league := League{
		Platform:        platform,
		Season:          season,
		LeagueID:        leagueID,
		CharCode:        strings.ToLower(strings.TrimSpace(sport)),
		Name:            firstNonEmpty(getString(settings, "name"), getString(bundle, "name")),
		Size:            getIntAny(settings, "size", "teamCount"),
		Logo:            firstNonEmpty(getString(settings, "logoUrl"), getString(settings, "logo")),
		ScoringPeriodID: scoringPeriodID,
		InSeason:        inSeason,
		IsLive:          isLive,
	}

	members := memberNames(getList(bundle, "members"))

	teams := getList(bundle, "teams")
	rows := make([]Row, 0, len(teams))
	for _, item := range teams {
		team, ok := item.(map[string]any)
		if !ok {
			continue
		}
		teamID := rawID(team, "id")
		if teamID == "" {
			continue
		}

		// Hash per team so an untouched roster keeps its hash even
		// when a sibling team changes.
		slim := SlimPayload(team)
		hash, err := SourceHash(team)
		if err != nil {
			return League{}, nil, fmt.Errorf("hash team %s in league %s: %w", teamID, leagueID, err)
		}

		rows = append(rows, Row{
			SID:             SID(season, platform, leagueID, teamID, league.CharCode),
			Platform:        platform,
			Season:          season,
			LeagueID:        leagueID,
			TeamID:          teamID,
			CharCode:        league.CharCode,
			LeagueName:      league.Name,
			LeagueSize:      league.Size,
			LeagueLogo:      league.Logo,
			TeamName:        teamName(team),
			TeamAbbrev:      getString(team, "abbrev"),
			TeamLogo:        getString(team, "logo"),
			OwnerName:       ownerName(team, members),
			OwnerGUIDs:      ownerGUIDs(team),
			FantasyURLs:     fantasyURLs(league.CharCode, season, leagueID, teamID),
			ScoringPeriodID: scoringPeriodID,
			InSeason:        inSeason,
			IsLive:          isLive,
			ScoringJSON:     getMap(settings, "scoringSettings"),
			DraftJSON:       getMap(settings, "draftSettings"),
			SourcePayload:   slim,
			SourceHash:      hash,
			Visibility:      VisibilityPublic,
			Status:          StatusActive,
			LastSeenAt:      now,
			LastSyncedAt:    now,
		})
	}

	return league, rows, nil
}

// BundleSummary pulls the identifying header fields out of a raw league
// bundle without normalising the whole thing. Discovery uses it to label
// tuples before the full ingest pass runs.
func BundleSummary(bundle map[string]any) (leagueID, name string, size int) {
	settings := getMap(bundle, "settings")
	leagueID = rawID(bundle, "id")
	name = firstNonEmpty(getString(settings, "name"), getString(bundle, "name"))
	size = getIntAny(settings, "size", "teamCount")
	return leagueID, name, size
}

func teamName(team map[string]any) string {
	if name := getString(team, "name"); name != "" {
		return name
	}
	location := getString(team, "location")
	nickname := getString(team, "nickname")
	return strings.TrimSpace(location + " " + nickname)
}

// ownerGUIDs returns the team's owner tokens in provider order.
func ownerGUIDs(team map[string]any) []string {
	raw := getList(team, "owners")
	guids := make([]string, 0, len(raw))
	for _, item := range raw {
		if guid, ok := item.(string); ok && strings.TrimSpace(guid) != "" {
			guids = append(guids, strings.TrimSpace(guid))
		}
	}
	return guids
}

func ownerName(team map[string]any, members map[string]string) string {
	primary := getString(team, "primaryOwner")
	if primary == "" {
		if guids := ownerGUIDs(team); len(guids) > 0 {
			primary = guids[0]
		}
	}
	if primary == "" {
		return ""
	}
	return members[strings.ToUpper(primary)]
}

// memberNames indexes league member display names by upper-cased GUID.
func memberNames(raw []any) map[string]string {
	names := make(map[string]string, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		guid := strings.ToUpper(getString(m, "id"))
		if guid == "" {
			continue
		}
		name := firstNonEmpty(
			getString(m, "displayName"),
			strings.TrimSpace(getString(m, "firstName")+" "+getString(m, "lastName")),
		)
		if name != "" {
			names[guid] = name
		}
	}
	return names
}

// fantasyURLs builds the provider deep links for one team.
func fantasyURLs(sport string, season int, leagueID, teamID string) map[string]string {
	query := url.Values{}
	query.Set("leagueId", leagueID)
	query.Set("seasonId", strconv.Itoa(season))

	base := "https://fantasy.espn.com/" + url.PathEscape(sport)
	league := base + "/league?" + query.Encode()

	query.Set("teamId", teamID)
	team := base + "/team?" + query.Encode()

	return map[string]string{
		"league": league,
		"team":   team,
	}
}

// rawID renders a numeric or string id field as its string form.
func rawID(src map[string]any, key string) string {
	if src == nil {
		return ""
	}
	switch typed := src[key].(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatInt(int64(typed), 10)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	default:
		return ""
	}
}

func getString(src map[string]any, key string) string {
	if src == nil {
		return ""
	}
	value, ok := src[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func getInt(src map[string]any, key string) int {
	if src == nil {
		return 0
	}
	switch typed := src[key].(type) {
	case float64:
		return int(typed)
	case int:
		return typed
	case int64:
		return int(typed)
	case string:
		v, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return 0
		}
		return v
	default:
		return 0
	}
}

func getIntAny(src map[string]any, keys ...string) int {
	for _, key := range keys {
		if value := getInt(src, key); value != 0 {
			return value
		}
	}
	return 0
}

func getBool(src map[string]any, key string) bool {
	if src == nil {
		return false
	}
	value, ok := src[key].(bool)
	return ok && value
}

func getMap(src map[string]any, key string) map[string]any {
	if src == nil {
		return nil
	}
	value, ok := src[key].(map[string]any)
	if !ok {
		return nil
	}
	return value
}

func getList(src map[string]any, key string) []any {
	if src == nil {
		return nil
	}
	value, ok := src[key].([]any)
	if !ok {
		return nil
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, item := range values {
		if strings.TrimSpace(item) != "" {
			return strings.TrimSpace(item)
		}
	}
	return ""
}
