package session

import "context"

// Repository reads the session table maintained by the account system.
// This service only consumes it; Create exists for local tooling and
// tests.
type Repository interface {
	Find(ctx context.Context, sessionID string) (Session, bool, error)
	Create(ctx context.Context, s Session) error
	// Touch refreshes last_seen_at. Failures are non-fatal to callers.
	Touch(ctx context.Context, sessionID string) error
}
