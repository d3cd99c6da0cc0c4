package postgres

import (
	"time"

	"github.com/lib/pq"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/teamowner"
)

type teamOwnerTableModel struct {
	Platform   string         `db:"platform"`
	Season     int            `db:"season"`
	LeagueID   string         `db:"league_id"`
	TeamID     string         `db:"team_id"`
	MemberID   string         `db:"member_id"`
	OwnerKind  string         `db:"owner_kind"`
	OwnerGUIDs pq.StringArray `db:"owner_guids"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func (m teamOwnerTableModel) toDomain() teamowner.Mapping {
	return teamowner.Mapping{
		Platform:   m.Platform,
		Season:     m.Season,
		LeagueID:   m.LeagueID,
		TeamID:     m.TeamID,
		MemberID:   m.MemberID,
		OwnerKind:  m.OwnerKind,
		OwnerGUIDs: append([]string(nil), m.OwnerGUIDs...),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type teamOwnerInsertModel struct {
	Platform   string         `db:"platform"`
	Season     int            `db:"season"`
	LeagueID   string         `db:"league_id"`
	TeamID     string         `db:"team_id"`
	MemberID   string         `db:"member_id"`
	OwnerKind  string         `db:"owner_kind"`
	OwnerGUIDs pq.StringArray `db:"owner_guids"`
}
