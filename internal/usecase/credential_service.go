package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/credential"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/member"
	"github.com/fortifiedfantasy/fein-engine/internal/platform/logging"
)

type LinkCredentialInput struct {
	SWID     string
	S2       string
	MemberID string
	Ref      string
}

// CredentialService fronts the provider token vault. Link is the write
// path behind /api/link; the lookup helpers feed ingest and the cookie
// hydration hook.
type CredentialService struct {
	vault  credential.Repository
	logger *logging.Logger
}

func NewCredentialService(vault credential.Repository, logger *logging.Logger) *CredentialService {
	if logger == nil {
		logger = logging.Default()
	}

	return &CredentialService{
		vault:  vault,
		logger: logger,
	}
}

func (s *CredentialService) Link(ctx context.Context, input LinkCredentialInput) (credential.Credential, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CredentialService.Link")
	defer span.End()

	input.SWID = credential.NormalizeSWID(input.SWID)
	input.S2 = strings.TrimSpace(input.S2)
	input.MemberID = strings.TrimSpace(input.MemberID)
	input.Ref = strings.TrimSpace(input.Ref)

	if input.SWID == "" {
		return credential.Credential{}, fmt.Errorf("%w: swid is required", ErrInvalidInput)
	}
	if input.S2 == "" {
		return credential.Credential{}, fmt.Errorf("%w: s2 is required", ErrInvalidInput)
	}

	saved, err := s.vault.Save(ctx, credential.SaveInput{
		SWID:     input.SWID,
		S2:       input.S2,
		MemberID: input.MemberID,
		Ref:      input.Ref,
	})
	if err != nil {
		return credential.Credential{}, fmt.Errorf("save credential: %w", err)
	}

	return saved, nil
}

// Remember persists a token pair seen on an inbound request without
// letting a vault failure leak into the caller's response. Read paths
// use it to refresh last_seen opportunistically.
func (s *CredentialService) Remember(ctx context.Context, token credential.Token, memberID, ref string) {
	if token.IsZero() {
		return
	}

	_, err := s.Link(ctx, LinkCredentialInput{
		SWID:     token.SWID,
		S2:       token.S2,
		MemberID: memberID,
		Ref:      ref,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "best-effort credential save failed", "ref", ref, "error", err)
	}
}

func (s *CredentialService) BySWID(ctx context.Context, swid string) (credential.Credential, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CredentialService.BySWID")
	defer span.End()

	swid = credential.NormalizeSWID(swid)
	if swid == "" {
		return credential.Credential{}, fmt.Errorf("%w: swid is required", ErrInvalidInput)
	}

	found, exists, err := s.vault.FindBySWID(ctx, swid)
	if err != nil {
		return credential.Credential{}, fmt.Errorf("find credential by swid: %w", err)
	}
	if !exists {
		return credential.Credential{}, fmt.Errorf("%w: no credential stored for swid", ErrNotFound)
	}

	return found, nil
}

// ForMember returns the freshest credential bound to a real member.
// Ghost members never hold tokens, so asking for one is an input error.
func (s *CredentialService) ForMember(ctx context.Context, memberID string) (credential.Credential, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CredentialService.ForMember")
	defer span.End()

	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return credential.Credential{}, fmt.Errorf("%w: member_id is required", ErrInvalidInput)
	}
	if member.IsGhost(memberID) {
		return credential.Credential{}, fmt.Errorf("%w: ghost members hold no credentials", ErrInvalidInput)
	}

	found, exists, err := s.vault.FindByMember(ctx, memberID)
	if err != nil {
		return credential.Credential{}, fmt.Errorf("find credential by member: %w", err)
	}
	if !exists {
		return credential.Credential{}, fmt.Errorf("%w: member %s has no linked provider token", ErrMissingCredential, memberID)
	}

	return found, nil
}

// TokenForMember is the hydration-hook read: the stored token pair for
// an authenticated member, used when the request itself carries none.
func (s *CredentialService) TokenForMember(ctx context.Context, memberID string) (credential.Token, error) {
	found, err := s.ForMember(ctx, memberID)
	if err != nil {
		return credential.Token{}, err
	}

	return found.Token(), nil
}

func (s *CredentialService) S2ForMember(ctx context.Context, memberID string) (string, error) {
	token, err := s.TokenForMember(ctx, memberID)
	if err != nil {
		return "", err
	}
	if token.S2 == "" {
		return "", fmt.Errorf("%w: stored credential for member %s has no s2", ErrMissingCredential, memberID)
	}

	return token.S2, nil
}
