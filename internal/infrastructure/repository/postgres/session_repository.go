package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/session"
	qb "github.com/fortifiedfantasy/fein-engine/internal/platform/querybuilder"
)

type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Find(ctx context.Context, sessionID string) (session.Session, bool, error) {
	query, args, err := qb.Select("session_id", "member_id", "created_at", "last_seen_at").
		From("ff_sessions").
		Where(qb.Eq("session_id", sessionID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return session.Session{}, false, fmt.Errorf("build select session query: %w", err)
	}

	var row struct {
		SessionID  string    `db:"session_id"`
		MemberID   string    `db:"member_id"`
		CreatedAt  time.Time `db:"created_at"`
		LastSeenAt time.Time `db:"last_seen_at"`
	}
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return session.Session{}, false, nil
		}
		return session.Session{}, false, fmt.Errorf("select session: %w", err)
	}

	return session.Session{
		SessionID:  row.SessionID,
		MemberID:   row.MemberID,
		CreatedAt:  row.CreatedAt,
		LastSeenAt: row.LastSeenAt,
	}, true, nil
}

func (r *SessionRepository) Create(ctx context.Context, s session.Session) error {
	insertModel := struct {
		SessionID string `db:"session_id"`
		MemberID  string `db:"member_id"`
	}{SessionID: s.SessionID, MemberID: s.MemberID}

	query, args, err := qb.InsertModel("ff_sessions", insertModel, `ON CONFLICT (session_id)
DO UPDATE SET member_id = EXCLUDED.member_id, last_seen_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build insert session query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Touch(ctx context.Context, sessionID string) error {
	query, args, err := qb.Update("ff_sessions").
		SetExpr("last_seen_at", "NOW()").
		Where(qb.Eq("session_id", sessionID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build touch session query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}
