package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/sportcatalog"
	qb "github.com/fortifiedfantasy/fein-engine/internal/platform/querybuilder"
)

// sportTableDDL is the additive schema for one sport ledger. Everything
// here is IF NOT EXISTS; existing tables only ever gain columns.
const sportTableDDL = `
CREATE TABLE IF NOT EXISTS %[1]s (
    sid               CHAR(24)     NOT NULL,
    platform          TEXT         NOT NULL,
    season            INT          NOT NULL,
    league_id         TEXT         NOT NULL,
    team_id           TEXT         NOT NULL,
    char_code         TEXT         NOT NULL,
    league_name       TEXT         NOT NULL DEFAULT '',
    league_size       INT          NOT NULL DEFAULT 0,
    league_logo       TEXT         NOT NULL DEFAULT '',
    team_name         TEXT         NOT NULL DEFAULT '',
    team_abbrev       TEXT         NOT NULL DEFAULT '',
    team_logo         TEXT         NOT NULL DEFAULT '',
    owner_name        TEXT         NOT NULL DEFAULT '',
    owner_guids       TEXT[]       NOT NULL DEFAULT '{}',
    fantasy_urls      JSONB        NOT NULL DEFAULT '{}',
    scoring_period_id INT          NOT NULL DEFAULT 0,
    in_season         BOOLEAN      NOT NULL DEFAULT FALSE,
    is_live           BOOLEAN      NOT NULL DEFAULT FALSE,
    scoring_json      JSONB        NOT NULL DEFAULT '{}',
    draft_json        JSONB        NOT NULL DEFAULT '{}',
    source_payload    JSONB        NOT NULL DEFAULT '{}',
    source_hash       TEXT         NOT NULL DEFAULT '',
    visibility        TEXT         NOT NULL DEFAULT 'public',
    status            TEXT         NOT NULL DEFAULT 'active',
    first_seen_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    last_seen_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    last_synced_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    created_at        TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    PRIMARY KEY (platform, season, league_id, team_id)
);
CREATE UNIQUE INDEX IF NOT EXISTS %[1]s_sid_idx ON %[1]s (sid);
CREATE INDEX IF NOT EXISTS %[1]s_season_idx ON %[1]s (season, league_id);
ALTER TABLE %[1]s ADD COLUMN IF NOT EXISTS owner_name TEXT NOT NULL DEFAULT '';
ALTER TABLE %[1]s ADD COLUMN IF NOT EXISTS is_live BOOLEAN NOT NULL DEFAULT FALSE;`

type SportCatalogRepository struct {
	db *sqlx.DB
}

func NewSportCatalogRepository(db *sqlx.DB) *SportCatalogRepository {
	return &SportCatalogRepository{db: db}
}

// EnsureSport registers the slug and creates its ledger table when
// missing. Concurrent first sights of different slugs can compute the
// same num_code; the unique index rejects one and the insert is retried
// with a fresh max.
func (r *SportCatalogRepository) EnsureSport(ctx context.Context, charCode string) (string, error) {
	code := sportcatalog.SanitizeCharCode(charCode)
	table := sportcatalog.TableName(code)

	const register = `
INSERT INTO ff_sport_codes (char_code, num_code)
SELECT $1, COALESCE(MAX(num_code), 0) + 1 FROM ff_sport_codes
ON CONFLICT (char_code) DO NOTHING`

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if _, err = r.db.ExecContext(ctx, register, code); err == nil {
			break
		}
		if !isUniqueViolation(err) {
			return "", fmt.Errorf("register sport code %s: %w", code, err)
		}
	}
	if err != nil {
		return "", fmt.Errorf("register sport code %s lost race twice: %w", code, err)
	}

	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(sportTableDDL, table)); err != nil {
		return "", fmt.Errorf("ensure sport table %s: %w", table, err)
	}
	return table, nil
}

func (r *SportCatalogRepository) ListCodes(ctx context.Context) ([]sportcatalog.SportCode, error) {
	query, args, err := qb.Select("char_code", "num_code", "created_at").From("ff_sport_codes").
		OrderBy("num_code").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select sport codes query: %w", err)
	}

	var rows []sportcatalog.SportCode
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select sport codes: %w", err)
	}
	return rows, nil
}

// RefreshRollup recomputes one (sport, season) summary from the ledger
// joined to ownership, and upserts it.
func (r *SportCatalogRepository) RefreshRollup(ctx context.Context, charCode string, season int) (sportcatalog.Entry, error) {
	code := sportcatalog.SanitizeCharCode(charCode)
	table := sportcatalog.TableName(code)

	rollup := fmt.Sprintf(`
INSERT INTO ff_sport_catalog (char_code, season, total_count, unique_sid_count, unique_member_count, refreshed_at)
SELECT $1, $2, COUNT(*), COUNT(DISTINCT t.sid), COUNT(DISTINCT o.member_id), NOW()
FROM %s t
LEFT JOIN ff_team_owners o
    ON o.platform = t.platform AND o.season = t.season AND o.league_id = t.league_id AND o.team_id = t.team_id
WHERE t.season = $2
ON CONFLICT (char_code, season)
DO UPDATE SET
    total_count = EXCLUDED.total_count,
    unique_sid_count = EXCLUDED.unique_sid_count,
    unique_member_count = EXCLUDED.unique_member_count,
    refreshed_at = NOW()`, table)

	if _, err := r.db.ExecContext(ctx, rollup, code, season); err != nil {
		return sportcatalog.Entry{}, fmt.Errorf("refresh rollup %s season=%d: %w", code, season, err)
	}

	query, args, err := qb.Select("char_code", "season", "total_count", "unique_sid_count", "unique_member_count", "refreshed_at").
		From("ff_sport_catalog").
		Where(qb.Eq("char_code", code), qb.Eq("season", season)).
		ToSQL()
	if err != nil {
		return sportcatalog.Entry{}, fmt.Errorf("build select rollup query: %w", err)
	}

	var entry sportcatalog.Entry
	if err := r.db.GetContext(ctx, &entry, query, args...); err != nil {
		return sportcatalog.Entry{}, fmt.Errorf("select rollup %s season=%d: %w", code, season, err)
	}
	return entry, nil
}

func (r *SportCatalogRepository) ListRollups(ctx context.Context, charCode string) ([]sportcatalog.Entry, error) {
	builder := qb.Select("char_code", "season", "total_count", "unique_sid_count", "unique_member_count", "refreshed_at").
		From("ff_sport_catalog").
		OrderBy("char_code", "season DESC")
	if charCode != "" {
		builder.Where(qb.Eq("char_code", sportcatalog.SanitizeCharCode(charCode)))
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select rollups query: %w", err)
	}

	var rows []sportcatalog.Entry
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select rollups: %w", err)
	}
	return rows, nil
}
