package snapshot

import "strings"

// FanLeague is one fantasy entry lifted out of the provider's fan
// preference bag.
type FanLeague struct {
	Sport      string
	Season     int
	LeagueID   string
	LeagueName string
	TeamID     string
}

// FanLeagues extracts the fantasy entries from a fan preference bag.
// Each preference carries one entry which may span several groups; one
// FanLeague is emitted per (entry, group) pair that names a league.
func FanLeagues(bag map[string]any) []FanLeague {
	prefs := getList(bag, "preferences")
	leagues := make([]FanLeague, 0, len(prefs))

	for _, item := range prefs {
		pref, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entry := getMap(getMap(pref, "metaData"), "entry")
		if entry == nil {
			continue
		}

		sport := strings.ToLower(getString(entry, "abbrev"))
		season := getInt(entry, "seasonId")
		teamID := rawID(entry, "entryId")
		if sport == "" || season <= 0 {
			continue
		}

		for _, rawGroup := range getList(entry, "groups") {
			group, ok := rawGroup.(map[string]any)
			if !ok {
				continue
			}
			leagueID := rawID(group, "groupId")
			if leagueID == "" {
				continue
			}
			leagues = append(leagues, FanLeague{
				Sport:      sport,
				Season:     season,
				LeagueID:   leagueID,
				LeagueName: getString(group, "groupName"),
				TeamID:     teamID,
			})
		}
	}

	return leagues
}
