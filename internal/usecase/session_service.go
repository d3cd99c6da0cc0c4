package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/session"
	"github.com/fortifiedfantasy/fein-engine/internal/platform/logging"
)

// SessionService answers the one question the engine asks about auth:
// which member does this session cookie belong to.
type SessionService struct {
	sessions session.Repository
	logger   *logging.Logger
}

func NewSessionService(sessions session.Repository, logger *logging.Logger) *SessionService {
	if logger == nil {
		logger = logging.Default()
	}

	return &SessionService{
		sessions: sessions,
		logger:   logger,
	}
}

func (s *SessionService) MemberForSession(ctx context.Context, sessionID string) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.MemberForSession")
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", fmt.Errorf("%w: no session on request", ErrUnauthorized)
	}

	found, exists, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("find session: %w", err)
	}
	if !exists || found.MemberID == "" {
		return "", fmt.Errorf("%w: session is not recognized", ErrUnauthorized)
	}

	// Liveness bookkeeping only; a failed touch never blocks the caller.
	if err := s.sessions.Touch(ctx, sessionID); err != nil {
		s.logger.WarnContext(ctx, "session touch failed", "error", err)
	}

	return found.MemberID, nil
}
