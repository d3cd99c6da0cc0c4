package snapshot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// sleeperSports maps the secondary provider's sport labels onto our
// char codes.
var sleeperSports = map[string]string{
	"nfl": SportFootball,
	"nba": SportBasket,
	"mlb": SportBaseball,
	"nhl": SportHockey,
}

// NormalizeSleeper shapes a secondary-provider league plus its rosters
// and users into the same canonical form the primary provider uses.
// Rosters become team rows keyed by roster id.
func NormalizeSleeper(league map[string]any, rosters, users []map[string]any, now time.Time) (League, []Row, error) {
	leagueID := getString(league, "league_id")
	if leagueID == "" {
		return League{}, nil, fmt.Errorf("sleeper league has no id")
	}

	season := getInt(league, "season")
	sport := sleeperSports[strings.ToLower(getString(league, "sport"))]
	if sport == "" {
		sport = SportFootball
	}

	header := League{
		Platform: PlatformSleeper,
		Season:   season,
		LeagueID: leagueID,
		CharCode: sport,
		Name:     getString(league, "name"),
		Size:     getInt(league, "total_rosters"),
		InSeason: strings.EqualFold(getString(league, "status"), "in_season"),
	}

	names := make(map[string]string, len(users))
	for _, user := range users {
		if id := getString(user, "user_id"); id != "" {
			names[id] = firstNonEmpty(getString(user, "display_name"), getString(user, "username"))
		}
	}

	rows := make([]Row, 0, len(rosters))
	for _, roster := range rosters {
		rosterID := getInt(roster, "roster_id")
		if rosterID == 0 {
			continue
		}
		teamID := strconv.Itoa(rosterID)
		ownerID := getString(roster, "owner_id")

		slim := SlimPayload(roster)
		hash, err := SourceHash(roster)
		if err != nil {
			return League{}, nil, fmt.Errorf("hash roster %s in league %s: %w", teamID, leagueID, err)
		}

		var guids []string
		if ownerID != "" {
			guids = []string{ownerID}
		}

		rows = append(rows, Row{
			SID:           SID(season, PlatformSleeper, leagueID, teamID, sport),
			Platform:      PlatformSleeper,
			Season:        season,
			LeagueID:      leagueID,
			TeamID:        teamID,
			CharCode:      sport,
			LeagueName:    header.Name,
			LeagueSize:    header.Size,
			TeamName:      firstNonEmpty(names[ownerID], "Roster "+teamID),
			OwnerName:     names[ownerID],
			OwnerGUIDs:    guids,
			FantasyURLs:   map[string]string{"league": "https://sleeper.app/leagues/" + leagueID},
			InSeason:      header.InSeason,
			SourcePayload: slim,
			SourceHash:    hash,
			Visibility:    VisibilityPublic,
			Status:        StatusActive,
			LastSeenAt:    now,
			LastSyncedAt:  now,
		})
	}

	return header, rows, nil
}
