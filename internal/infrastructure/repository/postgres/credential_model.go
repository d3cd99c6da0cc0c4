package postgres

import (
	"database/sql"
	"time"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/credential"
)

type credentialTableModel struct {
	ID        int64          `db:"id"`
	SWID      string         `db:"swid"`
	S2        string         `db:"s2"`
	SWIDHash  string         `db:"swid_hash"`
	S2Hash    string         `db:"s2_hash"`
	MemberID  sql.NullString `db:"member_id"`
	Ref       string         `db:"ref"`
	FirstSeen time.Time      `db:"first_seen"`
	LastSeen  time.Time      `db:"last_seen"`
}

func (m credentialTableModel) toDomain() credential.Credential {
	return credential.Credential{
		SWID:      m.SWID,
		S2:        m.S2,
		SWIDHash:  m.SWIDHash,
		S2Hash:    m.S2Hash,
		MemberID:  m.MemberID.String,
		Ref:       m.Ref,
		FirstSeen: m.FirstSeen,
		LastSeen:  m.LastSeen,
	}
}

type credentialInsertModel struct {
	SWID     string  `db:"swid"`
	S2       string  `db:"s2"`
	SWIDHash string  `db:"swid_hash"`
	S2Hash   string  `db:"s2_hash"`
	MemberID *string `db:"member_id"`
	Ref      string  `db:"ref"`
}
