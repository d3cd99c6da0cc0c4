package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/member"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/teamowner"
	qb "github.com/fortifiedfantasy/fein-engine/internal/platform/querybuilder"
)

const teamOwnerColumns = "platform, season, league_id, team_id, member_id, owner_kind, owner_guids, created_at, updated_at"

// teamIDNumericOrder sorts digit team ids numerically and pushes
// non-numeric ids behind them.
const teamIDNumericOrder = "(CASE WHEN team_id ~ '^[0-9]+$' THEN team_id::bigint END) ASC NULLS LAST, team_id"

type TeamOwnerRepository struct {
	db *sqlx.DB
}

func NewTeamOwnerRepository(db *sqlx.DB) *TeamOwnerRepository {
	return &TeamOwnerRepository{db: db}
}

func (r *TeamOwnerRepository) Get(ctx context.Context, platform string, season int, leagueID, teamID string) (teamowner.Mapping, bool, error) {
	query, args, err := qb.Select(teamOwnerColumns).From("ff_team_owners").
		Where(
			qb.Eq("platform", platform),
			qb.Eq("season", season),
			qb.Eq("league_id", leagueID),
			qb.Eq("team_id", teamID),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return teamowner.Mapping{}, false, fmt.Errorf("build select team owner query: %w", err)
	}

	var row teamOwnerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return teamowner.Mapping{}, false, nil
		}
		return teamowner.Mapping{}, false, fmt.Errorf("select team owner: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *TeamOwnerRepository) ListByLeague(ctx context.Context, platform string, season int, leagueID string) ([]teamowner.Mapping, error) {
	query, args, err := qb.Select(teamOwnerColumns).From("ff_team_owners").
		Where(
			qb.Eq("platform", platform),
			qb.Eq("season", season),
			qb.Eq("league_id", leagueID),
		).
		OrderBy(teamIDNumericOrder).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select team owners query: %w", err)
	}

	var rows []teamOwnerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select team owners: %w", err)
	}

	out := make([]teamowner.Mapping, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *TeamOwnerRepository) Upsert(ctx context.Context, mapping teamowner.Mapping) (teamowner.Mapping, error) {
	insertModel := teamOwnerInsertModel{
		Platform:   mapping.Platform,
		Season:     mapping.Season,
		LeagueID:   mapping.LeagueID,
		TeamID:     mapping.TeamID,
		MemberID:   mapping.MemberID,
		OwnerKind:  mapping.OwnerKind,
		OwnerGUIDs: pq.StringArray(mapping.OwnerGUIDs),
	}

	query, args, err := qb.InsertModel("ff_team_owners", insertModel, `ON CONFLICT (platform, season, league_id, team_id)
DO UPDATE SET
    member_id = EXCLUDED.member_id,
    owner_kind = EXCLUDED.owner_kind,
    owner_guids = EXCLUDED.owner_guids,
    updated_at = NOW()`)
	if err != nil {
		return teamowner.Mapping{}, fmt.Errorf("build upsert team owner query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return teamowner.Mapping{}, fmt.Errorf("upsert team owner league_id=%s team_id=%s: %w", mapping.LeagueID, mapping.TeamID, err)
	}

	saved, found, err := r.Get(ctx, mapping.Platform, mapping.Season, mapping.LeagueID, mapping.TeamID)
	if err != nil {
		return teamowner.Mapping{}, err
	}
	if !found {
		return teamowner.Mapping{}, fmt.Errorf("team owner vanished after upsert league_id=%s team_id=%s", mapping.LeagueID, mapping.TeamID)
	}
	return saved, nil
}

// AllocateGhost mints the next ghost identity within the league scope.
// Existing ghost rows are locked so concurrent allocations for the same
// scope serialize; a race that still slips through (first ghost in an
// empty scope) trips the partial unique index and is retried once with
// a fresh max.
func (r *TeamOwnerRepository) AllocateGhost(ctx context.Context, mapping teamowner.Mapping) (teamowner.Mapping, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		existing, found, err := r.Get(ctx, mapping.Platform, mapping.Season, mapping.LeagueID, mapping.TeamID)
		if err != nil {
			return teamowner.Mapping{}, err
		}
		if found {
			return existing, nil
		}

		saved, err := r.allocateGhostOnce(ctx, mapping)
		if err == nil {
			return saved, nil
		}
		if !isUniqueViolation(err) {
			return teamowner.Mapping{}, err
		}
		lastErr = err
	}
	return teamowner.Mapping{}, fmt.Errorf("allocate ghost lost race twice league_id=%s team_id=%s: %w", mapping.LeagueID, mapping.TeamID, lastErr)
}

func (r *TeamOwnerRepository) allocateGhostOnce(ctx context.Context, mapping teamowner.Mapping) (teamowner.Mapping, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return teamowner.Mapping{}, fmt.Errorf("begin tx allocate ghost: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const ghostScopeQuery = `
SELECT member_id FROM ff_team_owners
WHERE platform = $1 AND season = $2 AND league_id = $3 AND owner_kind = $4
FOR UPDATE`

	var ghostIDs []string
	if err := tx.SelectContext(ctx, &ghostIDs, ghostScopeQuery, mapping.Platform, mapping.Season, mapping.LeagueID, teamowner.KindGhost); err != nil {
		return teamowner.Mapping{}, fmt.Errorf("lock ghost scope: %w", err)
	}

	maxSuffix := 0
	for _, id := range ghostIDs {
		if n, ok := member.GhostSuffix(id); ok && n > maxSuffix {
			maxSuffix = n
		}
	}

	mapping.MemberID = member.FormatGhost(maxSuffix + 1)
	mapping.OwnerKind = teamowner.KindGhost

	insertModel := teamOwnerInsertModel{
		Platform:   mapping.Platform,
		Season:     mapping.Season,
		LeagueID:   mapping.LeagueID,
		TeamID:     mapping.TeamID,
		MemberID:   mapping.MemberID,
		OwnerKind:  mapping.OwnerKind,
		OwnerGUIDs: pq.StringArray(mapping.OwnerGUIDs),
	}
	query, args, err := qb.InsertModel("ff_team_owners", insertModel, "")
	if err != nil {
		return teamowner.Mapping{}, fmt.Errorf("build insert ghost mapping query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return teamowner.Mapping{}, fmt.Errorf("insert ghost mapping: %w", err)
	}

	var saved teamOwnerTableModel
	const reload = "SELECT " + teamOwnerColumns + " FROM ff_team_owners WHERE platform = $1 AND season = $2 AND league_id = $3 AND team_id = $4"
	if err := tx.GetContext(ctx, &saved, reload, mapping.Platform, mapping.Season, mapping.LeagueID, mapping.TeamID); err != nil {
		return teamowner.Mapping{}, fmt.Errorf("reload ghost mapping: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return teamowner.Mapping{}, fmt.Errorf("commit allocate ghost tx: %w", err)
	}
	return saved.toDomain(), nil
}
