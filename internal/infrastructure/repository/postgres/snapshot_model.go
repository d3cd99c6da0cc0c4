package postgres

import (
	"database/sql"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/lib/pq"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/snapshot"
)

type snapshotRowModel struct {
	SID             string         `db:"sid"`
	Platform        string         `db:"platform"`
	Season          int            `db:"season"`
	LeagueID        string         `db:"league_id"`
	TeamID          string         `db:"team_id"`
	CharCode        string         `db:"char_code"`
	LeagueName      string         `db:"league_name"`
	LeagueSize      int            `db:"league_size"`
	LeagueLogo      string         `db:"league_logo"`
	TeamName        string         `db:"team_name"`
	TeamAbbrev      string         `db:"team_abbrev"`
	TeamLogo        string         `db:"team_logo"`
	OwnerName       string         `db:"owner_name"`
	OwnerGUIDs      pq.StringArray `db:"owner_guids"`
	FantasyURLs     []byte         `db:"fantasy_urls"`
	ScoringPeriodID int            `db:"scoring_period_id"`
	InSeason        bool           `db:"in_season"`
	IsLive          bool           `db:"is_live"`
	ScoringJSON     []byte         `db:"scoring_json"`
	DraftJSON       []byte         `db:"draft_json"`
	SourcePayload   []byte         `db:"source_payload"`
	SourceHash      string         `db:"source_hash"`
	Visibility      string         `db:"visibility"`
	Status          string         `db:"status"`
	FirstSeenAt     time.Time      `db:"first_seen_at"`
	LastSeenAt      time.Time      `db:"last_seen_at"`
	LastSyncedAt    time.Time      `db:"last_synced_at"`
	OwnerMemberID   sql.NullString `db:"owner_member_id"`
	OwnerKind       sql.NullString `db:"owner_kind"`
}

func (m snapshotRowModel) toDomain() (snapshot.OwnedRow, error) {
	row := snapshot.Row{
		SID:             m.SID,
		Platform:        m.Platform,
		Season:          m.Season,
		LeagueID:        m.LeagueID,
		TeamID:          m.TeamID,
		CharCode:        m.CharCode,
		LeagueName:      m.LeagueName,
		LeagueSize:      m.LeagueSize,
		LeagueLogo:      m.LeagueLogo,
		TeamName:        m.TeamName,
		TeamAbbrev:      m.TeamAbbrev,
		TeamLogo:        m.TeamLogo,
		OwnerName:       m.OwnerName,
		OwnerGUIDs:      append([]string(nil), m.OwnerGUIDs...),
		ScoringPeriodID: m.ScoringPeriodID,
		InSeason:        m.InSeason,
		IsLive:          m.IsLive,
		SourceHash:      m.SourceHash,
		Visibility:      m.Visibility,
		Status:          m.Status,
		FirstSeenAt:     m.FirstSeenAt,
		LastSeenAt:      m.LastSeenAt,
		LastSyncedAt:    m.LastSyncedAt,
	}

	if err := decodeJSONColumn(m.FantasyURLs, &row.FantasyURLs); err != nil {
		return snapshot.OwnedRow{}, fmt.Errorf("decode fantasy_urls sid=%s: %w", m.SID, err)
	}
	if err := decodeJSONColumn(m.ScoringJSON, &row.ScoringJSON); err != nil {
		return snapshot.OwnedRow{}, fmt.Errorf("decode scoring_json sid=%s: %w", m.SID, err)
	}
	if err := decodeJSONColumn(m.DraftJSON, &row.DraftJSON); err != nil {
		return snapshot.OwnedRow{}, fmt.Errorf("decode draft_json sid=%s: %w", m.SID, err)
	}
	if err := decodeJSONColumn(m.SourcePayload, &row.SourcePayload); err != nil {
		return snapshot.OwnedRow{}, fmt.Errorf("decode source_payload sid=%s: %w", m.SID, err)
	}

	return snapshot.OwnedRow{
		Row:       row,
		MemberID:  m.OwnerMemberID.String,
		OwnerKind: m.OwnerKind.String,
	}, nil
}

func decodeJSONColumn(raw []byte, target any) error {
	if len(raw) == 0 {
		return nil
	}
	return sonic.Unmarshal(raw, target)
}

func encodeJSONColumn(value any) (string, error) {
	if value == nil {
		return "{}", nil
	}
	raw, err := sonic.Marshal(value)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return "{}", nil
	}
	return string(raw), nil
}
