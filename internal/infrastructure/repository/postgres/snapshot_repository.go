package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/snapshot"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/sportcatalog"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/teamowner"
	qb "github.com/fortifiedfantasy/fein-engine/internal/platform/querybuilder"
)

var snapshotInsertColumns = []string{
	"sid", "platform", "season", "league_id", "team_id", "char_code",
	"league_name", "league_size", "league_logo",
	"team_name", "team_abbrev", "team_logo",
	"owner_name", "owner_guids", "fantasy_urls",
	"scoring_period_id", "in_season", "is_live",
	"scoring_json", "draft_json", "source_payload", "source_hash",
	"visibility", "status",
}

const snapshotUpsertSuffix = `ON CONFLICT (platform, season, league_id, team_id)
DO UPDATE SET
    sid = EXCLUDED.sid,
    char_code = EXCLUDED.char_code,
    league_name = EXCLUDED.league_name,
    league_size = EXCLUDED.league_size,
    league_logo = EXCLUDED.league_logo,
    team_name = EXCLUDED.team_name,
    team_abbrev = EXCLUDED.team_abbrev,
    team_logo = EXCLUDED.team_logo,
    owner_name = EXCLUDED.owner_name,
    owner_guids = EXCLUDED.owner_guids,
    fantasy_urls = EXCLUDED.fantasy_urls,
    scoring_period_id = EXCLUDED.scoring_period_id,
    in_season = EXCLUDED.in_season,
    is_live = EXCLUDED.is_live,
    scoring_json = EXCLUDED.scoring_json,
    draft_json = EXCLUDED.draft_json,
    source_payload = EXCLUDED.source_payload,
    source_hash = EXCLUDED.source_hash,
    visibility = EXCLUDED.visibility,
    status = EXCLUDED.status,
    last_seen_at = NOW(),
    last_synced_at = NOW(),
    updated_at = NOW()`

type SnapshotRepository struct {
	db *sqlx.DB
}

func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// UpsertRows writes one batch of team rows into the sport's ledger
// table. first_seen_at is set only on first insert and never touched
// again. Returns the number of rows written.
func (r *SnapshotRepository) UpsertRows(ctx context.Context, charCode string, rows []snapshot.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	table := sportcatalog.TableName(charCode)

	builder := qb.InsertInto(table).Columns(snapshotInsertColumns...)
	for _, row := range rows {
		urls, err := encodeJSONColumn(row.FantasyURLs)
		if err != nil {
			return 0, fmt.Errorf("encode fantasy_urls sid=%s: %w", row.SID, err)
		}
		scoring, err := encodeJSONColumn(row.ScoringJSON)
		if err != nil {
			return 0, fmt.Errorf("encode scoring_json sid=%s: %w", row.SID, err)
		}
		draft, err := encodeJSONColumn(row.DraftJSON)
		if err != nil {
			return 0, fmt.Errorf("encode draft_json sid=%s: %w", row.SID, err)
		}
		payload, err := encodeJSONColumn(row.SourcePayload)
		if err != nil {
			return 0, fmt.Errorf("encode source_payload sid=%s: %w", row.SID, err)
		}

		builder.Values(
			row.SID, row.Platform, row.Season, row.LeagueID, row.TeamID, row.CharCode,
			row.LeagueName, row.LeagueSize, row.LeagueLogo,
			row.TeamName, row.TeamAbbrev, row.TeamLogo,
			row.OwnerName, pq.StringArray(row.OwnerGUIDs), urls,
			row.ScoringPeriodID, row.InSeason, row.IsLive,
			scoring, draft, payload, row.SourceHash,
			row.Visibility, row.Status,
		)
	}

	query, args, err := builder.Suffix(snapshotUpsertSuffix).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build upsert snapshot query: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx upsert snapshots: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("upsert snapshots table=%s rows=%d: %w", table, len(rows), err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert snapshots tx: %w", err)
	}
	return len(rows), nil
}

// Query reads the sport ledger joined to ownership. Member and ghost
// filters apply only when set; everything else is a plain column match.
func (r *SnapshotRepository) Query(ctx context.Context, q snapshot.Query) ([]snapshot.OwnedRow, error) {
	table := sportcatalog.TableName(q.CharCode)

	columns := make([]string, 0, len(snapshotInsertColumns)+5)
	for _, col := range snapshotInsertColumns {
		columns = append(columns, "t."+col)
	}
	columns = append(columns,
		"t.first_seen_at", "t.last_seen_at", "t.last_synced_at",
		"o.member_id AS owner_member_id", "o.owner_kind AS owner_kind",
	)

	from := table + ` t
LEFT JOIN ff_team_owners o
    ON o.platform = t.platform AND o.season = t.season AND o.league_id = t.league_id AND o.team_id = t.team_id`

	builder := qb.Select(columns...).From(from)
	if q.Platform != "" {
		builder.Where(qb.Eq("t.platform", q.Platform))
	}
	if q.Season > 0 {
		builder.Where(qb.Eq("t.season", q.Season))
	}
	if q.LeagueID != "" {
		builder.Where(qb.Eq("t.league_id", q.LeagueID))
	}
	if q.MemberID != "" {
		builder.Where(qb.Eq("o.member_id", q.MemberID))
	}
	if q.ExcludeGhosts {
		builder.Where(qb.Expr("(o.owner_kind IS NULL OR o.owner_kind <> ?)", teamowner.KindGhost))
	}
	if q.Visibility != "" {
		builder.Where(qb.Eq("t.visibility", q.Visibility))
	}
	if q.Status != "" {
		builder.Where(qb.Eq("t.status", q.Status))
	}

	query, args, err := builder.
		OrderBy("t.season DESC", "t.league_id", "(CASE WHEN t.team_id ~ '^[0-9]+$' THEN t.team_id::bigint END) ASC NULLS LAST", "t.team_id").
		Limit(q.Limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select snapshots query: %w", err)
	}

	var models []snapshotRowModel
	if err := r.db.SelectContext(ctx, &models, query, args...); err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("select snapshots table=%s: %w", table, err)
	}

	out := make([]snapshot.OwnedRow, 0, len(models))
	for _, model := range models {
		row, err := model.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}
