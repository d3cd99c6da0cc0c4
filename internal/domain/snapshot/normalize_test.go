package snapshot

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

const leagueBundleFixture = `{
	"id": 864927,
	"seasonId": 2025,
	"scoringPeriodId": 3,
	"status": {"isActive": true, "currentMatchupPeriod": 3, "latestScoringPeriod": 3},
	"settings": {
		"name": "Main Street League",
		"size": 10,
		"scoringSettings": {"matchupPeriods": {"1": [1]}},
		"draftSettings": {"type": "SNAKE"}
	},
	"members": [
		{"id": "{GUID-A}", "displayName": "alpha"},
		{"id": "{GUID-B}", "firstName": "Bea", "lastName": "Trix"}
	],
	"teams": [
		{"id": 1, "abbrev": "ONE", "name": "First Squad", "logo": "https://cdn/one.png", "owners": ["{GUID-A}"], "primaryOwner": "{GUID-A}", "playoffSeed": 2},
		{"id": 7, "abbrev": "SVN", "location": "Seventh", "nickname": "Sons", "owners": ["{GUID-B}", "{GUID-A}"]}
	]
}`

func decodeBundle(t *testing.T) map[string]any {
	t.Helper()

	var bundle map[string]any
	if err := sonic.Unmarshal([]byte(leagueBundleFixture), &bundle); err != nil {
		t.Fatalf("decode bundle: %v", err)
	}
	return bundle
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.September, 10, 12, 0, 0, 0, time.UTC)
	league, rows, err := Normalize("espn", 2025, "ffl", "", decodeBundle(t), now)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	if league.LeagueID != "864927" {
		t.Fatalf("league id = %q, want 864927", league.LeagueID)
	}
	if league.Name != "Main Street League" || league.Size != 10 {
		t.Fatalf("unexpected league header: %+v", league)
	}
	if !league.InSeason || !league.IsLive {
		t.Fatalf("expected in-season live league, got %+v", league)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.TeamID != "1" || first.TeamName != "First Squad" || first.TeamAbbrev != "ONE" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.OwnerName != "alpha" {
		t.Fatalf("owner name = %q, want alpha", first.OwnerName)
	}
	if want := SID(2025, "espn", "864927", "1", "ffl"); first.SID != want {
		t.Fatalf("sid = %q, want %q", first.SID, want)
	}
	if len(first.SID) != SIDLength {
		t.Fatalf("sid length = %d, want %d", len(first.SID), SIDLength)
	}
	if first.SourceHash == "" || first.LeagueName != "Main Street League" {
		t.Fatalf("row missing provenance: %+v", first)
	}
	if first.Visibility != VisibilityPublic || first.Status != StatusActive {
		t.Fatalf("unexpected defaults: %+v", first)
	}
	if _, ok := first.SourcePayload["playoffSeed"]; ok {
		t.Fatal("slim payload should drop volatile fields")
	}

	second := rows[1]
	if second.TeamName != "Seventh Sons" {
		t.Fatalf("expected location+nickname fallback, got %q", second.TeamName)
	}
	if len(second.OwnerGUIDs) != 2 || second.OwnerGUIDs[0] != "{GUID-B}" {
		t.Fatalf("unexpected owner guids: %v", second.OwnerGUIDs)
	}
	if second.OwnerName != "Bea Trix" {
		t.Fatalf("expected first-owner name fallback, got %q", second.OwnerName)
	}
	if second.SourceHash == first.SourceHash {
		t.Fatal("distinct teams should not share a source hash")
	}

	if first.FantasyURLs["team"] == "" || first.FantasyURLs["league"] == "" {
		t.Fatalf("missing fantasy urls: %v", first.FantasyURLs)
	}
}

func TestNormalizeUsesFallbackLeagueID(t *testing.T) {
	t.Parallel()

	bundle := decodeBundle(t)
	delete(bundle, "id")

	league, rows, err := Normalize("018", 2024, "fba", "555", bundle, time.Now())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if league.LeagueID != "555" {
		t.Fatalf("league id = %q, want fallback 555", league.LeagueID)
	}
	if league.Platform != PlatformESPN {
		t.Fatalf("platform alias not normalised: %q", league.Platform)
	}
	for _, row := range rows {
		if row.LeagueID != "555" || row.Season != 2024 {
			t.Fatalf("row did not inherit identity: %+v", row)
		}
	}
}

func TestNormalizeRejectsEmptyBundle(t *testing.T) {
	t.Parallel()

	if _, _, err := Normalize("espn", 2025, "ffl", "1", nil, time.Now()); err == nil {
		t.Fatal("expected error for empty bundle")
	}
	if _, _, err := Normalize("espn", 2025, "ffl", "", map[string]any{"teams": []any{}}, time.Now()); err == nil {
		t.Fatal("expected error when no league id can be derived")
	}
}
