package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/credential"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/snapshot"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/teamowner"
	"github.com/fortifiedfantasy/fein-engine/internal/infrastructure/repository/memory"
)

func seedLedgerForQueries(t *testing.T) (*memory.SnapshotRepository, *memory.TeamOwnerRepository) {
	t.Helper()

	owners := memory.NewTeamOwnerRepository()
	snapshots := memory.NewSnapshotRepository(owners)
	ctx := context.Background()
	now := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)

	rows := []snapshot.Row{
		{Platform: "espn", Season: 2025, LeagueID: "L1", TeamID: "1", CharCode: "ffl", TeamName: "Team One", LastSeenAt: now},
		{Platform: "espn", Season: 2025, LeagueID: "L1", TeamID: "2", CharCode: "ffl", TeamName: "Team Two", LastSeenAt: now},
		{Platform: "espn", Season: 2024, LeagueID: "L2", TeamID: "3", CharCode: "ffl", TeamName: "Old Team", LastSeenAt: now},
	}
	for i := range rows {
		rows[i].SID = snapshot.SID(rows[i].Season, rows[i].Platform, rows[i].LeagueID, rows[i].TeamID, rows[i].CharCode)
	}
	if _, err := snapshots.UpsertRows(ctx, "ffl", rows); err != nil {
		t.Fatalf("seed rows: %v", err)
	}

	seedMappings := []teamowner.Mapping{
		{Platform: "espn", Season: 2025, LeagueID: "L1", TeamID: "1", MemberID: "M1", OwnerKind: teamowner.KindReal},
		{Platform: "espn", Season: 2025, LeagueID: "L1", TeamID: "2", MemberID: "GHOST001", OwnerKind: teamowner.KindGhost},
		{Platform: "espn", Season: 2024, LeagueID: "L2", TeamID: "3", MemberID: "M2", OwnerKind: teamowner.KindReal},
	}
	for _, m := range seedMappings {
		if _, err := owners.Upsert(ctx, m); err != nil {
			t.Fatalf("seed mapping: %v", err)
		}
	}

	return snapshots, owners
}

func TestTeamQueryService_Teams_OnlyMineAndExcludeGhosts(t *testing.T) {
	t.Parallel()

	snapshots, _ := seedLedgerForQueries(t)
	svc := NewTeamQueryService(nil, nil, snapshots, nil)
	ctx := context.Background()

	mine, err := svc.Teams(ctx, TeamQueryInput{Sport: "ffl", Season: 2025, OnlyMine: true, MemberID: "M1"})
	if err != nil {
		t.Fatalf("Teams only-mine error: %v", err)
	}
	if len(mine) != 1 || mine[0].TeamID != "1" || mine[0].MemberID != "M1" {
		t.Fatalf("only_mine returned wrong rows: %+v", mine)
	}

	noGhosts, err := svc.Teams(ctx, TeamQueryInput{Sport: "ffl", ExcludeGhosts: true})
	if err != nil {
		t.Fatalf("Teams exclude-ghosts error: %v", err)
	}
	for _, row := range noGhosts {
		if row.OwnerKind == teamowner.KindGhost {
			t.Fatalf("ghost row leaked: %+v", row)
		}
	}
	if len(noGhosts) != 2 {
		t.Fatalf("expected 2 non-ghost rows, got=%d", len(noGhosts))
	}
}

func TestTeamQueryService_Teams_FiltersAreOptIn(t *testing.T) {
	t.Parallel()

	snapshots, _ := seedLedgerForQueries(t)
	svc := NewTeamQueryService(nil, nil, snapshots, nil)

	all, err := svc.Teams(context.Background(), TeamQueryInput{Sport: "ffl"})
	if err != nil {
		t.Fatalf("Teams error: %v", err)
	}
	// No filters requested, so ghosts and every season come back.
	if len(all) != 3 {
		t.Fatalf("expected all 3 rows without filters, got=%d", len(all))
	}
}

func TestTeamQueryService_Teams_OrdersSeasonDescThenLeagueThenNumericTeam(t *testing.T) {
	t.Parallel()

	snapshots, _ := seedLedgerForQueries(t)
	svc := NewTeamQueryService(nil, nil, snapshots, nil)

	rows, err := svc.Teams(context.Background(), TeamQueryInput{Sport: "ffl"})
	if err != nil {
		t.Fatalf("Teams error: %v", err)
	}

	if rows[0].Season != 2025 || rows[0].TeamID != "1" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Season != 2025 || rows[1].TeamID != "2" {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
	if rows[2].Season != 2024 {
		t.Fatalf("older season should sort last: %+v", rows[2])
	}
}

func TestTeamQueryService_Teams_PlatformAlias(t *testing.T) {
	t.Parallel()

	snapshots, _ := seedLedgerForQueries(t)
	svc := NewTeamQueryService(nil, nil, snapshots, nil)
	ctx := context.Background()

	viaAlias, err := svc.Teams(ctx, TeamQueryInput{Sport: "ffl", Platform: "018"})
	if err != nil {
		t.Fatalf("Teams alias error: %v", err)
	}
	if len(viaAlias) != 3 {
		t.Fatalf("alias 018 should match espn rows, got=%d", len(viaAlias))
	}

	other, err := svc.Teams(ctx, TeamQueryInput{Sport: "ffl", Platform: "sleeper"})
	if err != nil {
		t.Fatalf("Teams sleeper error: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("sleeper filter should match nothing here, got=%d", len(other))
	}
}

func TestTeamQueryService_Teams_EmptyLedgerIsNotAnError(t *testing.T) {
	t.Parallel()

	owners := memory.NewTeamOwnerRepository()
	svc := NewTeamQueryService(nil, nil, memory.NewSnapshotRepository(owners), nil)

	rows, err := svc.Teams(context.Background(), TeamQueryInput{Sport: "fhl", Season: 2025})
	if err != nil {
		t.Fatalf("Teams error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty result, got=%d", len(rows))
	}
}

func TestTeamQueryService_Teams_OnlyMineNeedsMember(t *testing.T) {
	t.Parallel()

	snapshots, _ := seedLedgerForQueries(t)
	svc := NewTeamQueryService(nil, nil, snapshots, nil)

	_, err := svc.Teams(context.Background(), TeamQueryInput{Sport: "ffl", OnlyMine: true})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestTeamQueryService_LiveLeague_RequiresToken(t *testing.T) {
	t.Parallel()

	svc := NewTeamQueryService(&stubLeagueProvider{}, nil, nil, nil)

	_, _, err := svc.LiveLeague(context.Background(), LiveLeagueInput{Season: 2025, LeagueID: "L1"})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestTeamQueryService_LiveLeague_NormalizesWithoutPersisting(t *testing.T) {
	t.Parallel()

	provider := &stubLeagueProvider{
		league: func(_ context.Context, sport string, season int, leagueID string, _ credential.Token) (map[string]any, error) {
			if sport != "ffl" || season != 2025 || leagueID != "L1" {
				t.Fatalf("unexpected fetch: %s/%d/%s", sport, season, leagueID)
			}
			return seedLeagueBundle(), nil
		},
	}
	owners := memory.NewTeamOwnerRepository()
	snapshots := memory.NewSnapshotRepository(owners)
	svc := NewTeamQueryService(provider, nil, snapshots, nil)

	league, rows, err := svc.LiveLeague(context.Background(), LiveLeagueInput{
		Season:   2025,
		LeagueID: "L1",
		Token:    credential.Token{SWID: "{AAA}", S2: "s2"},
	})
	if err != nil {
		t.Fatalf("LiveLeague error: %v", err)
	}
	if league.Name != "Founders League" || len(rows) != 2 {
		t.Fatalf("unexpected live league: %+v rows=%d", league, len(rows))
	}

	persisted, err := snapshots.Query(context.Background(), snapshot.Query{CharCode: "ffl"})
	if err != nil {
		t.Fatalf("query ledger: %v", err)
	}
	if len(persisted) != 0 {
		t.Fatalf("live fetch must not persist rows, found %d", len(persisted))
	}
}

func TestTeamQueryService_LiveLeague_SleeperPath(t *testing.T) {
	t.Parallel()

	sleeperStub := &stubSleeperProvider{
		league: map[string]any{
			"league_id":     "987654",
			"name":          "Dynasty Degens",
			"sport":         "nfl",
			"season":        "2025",
			"status":        "in_season",
			"total_rosters": float64(2),
		},
		rosters: []map[string]any{
			{"roster_id": float64(1), "owner_id": "U1"},
			{"roster_id": float64(2), "owner_id": "U2"},
		},
		users: []map[string]any{
			{"user_id": "U1", "display_name": "DegenOne"},
			{"user_id": "U2", "display_name": "DegenTwo"},
		},
	}
	svc := NewTeamQueryService(nil, sleeperStub, nil, nil)

	league, rows, err := svc.LiveLeague(context.Background(), LiveLeagueInput{
		Platform: "sleeper",
		LeagueID: "987654",
	})
	if err != nil {
		t.Fatalf("LiveLeague sleeper error: %v", err)
	}
	if league.Platform != snapshot.PlatformSleeper || league.Season != 2025 {
		t.Fatalf("unexpected sleeper header: %+v", league)
	}
	if len(rows) != 2 || rows[0].TeamName != "DegenOne" {
		t.Fatalf("unexpected sleeper rows: %+v", rows)
	}
}

type stubSleeperProvider struct {
	league  map[string]any
	rosters []map[string]any
	users   []map[string]any
}

func (s *stubSleeperProvider) League(_ context.Context, _ string) (map[string]any, error) {
	return s.league, nil
}

func (s *stubSleeperProvider) Rosters(_ context.Context, _ string) ([]map[string]any, error) {
	return s.rosters, nil
}

func (s *stubSleeperProvider) Users(_ context.Context, _ string) ([]map[string]any, error) {
	return s.users, nil
}
