package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/session"
)

type SessionRepository struct {
	mu   sync.RWMutex
	byID map[string]session.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{byID: make(map[string]session.Session)}
}

func (r *SessionRepository) Find(_ context.Context, sessionID string) (session.Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[sessionID]
	return s, ok, nil
}

func (r *SessionRepository) Create(_ context.Context, s session.Session) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.LastSeenAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.SessionID] = s
	return nil
}

func (r *SessionRepository) Touch(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.byID[sessionID]; ok {
		s.LastSeenAt = time.Now().UTC()
		r.byID[sessionID] = s
	}
	return nil
}
