package teamowner

import (
	"time"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/member"
)

const (
	KindReal  = "real"
	KindGhost = "ghost"
)

// Mapping binds one provider team to a member, real or ghost. The
// identity is (platform, season, league_id, team_id); ghosts are scoped
// to their league and season.
type Mapping struct {
	Platform   string
	Season     int
	LeagueID   string
	TeamID     string
	MemberID   string
	OwnerKind  string
	OwnerGUIDs []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsGhost reports whether the mapping points at a minted placeholder.
func (m Mapping) IsGhost() bool {
	return m.OwnerKind == KindGhost || member.IsGhost(m.MemberID)
}

// KindForMember classifies a member id for storage.
func KindForMember(memberID string) string {
	if member.IsGhost(memberID) {
		return KindGhost
	}
	return KindReal
}
