package session

import (
	"strings"
	"time"
)

// CookieName carries the session id issued by the account system.
const CookieName = "ff_session"

// Session links a browser session id to a member.
type Session struct {
	SessionID  string
	MemberID   string
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// IsZero reports whether the session is unusable.
func (s Session) IsZero() bool {
	return strings.TrimSpace(s.SessionID) == "" || strings.TrimSpace(s.MemberID) == ""
}
