package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/credential"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/snapshot"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/teamowner"
	"github.com/fortifiedfantasy/fein-engine/internal/platform/logging"
)

type ResolveTeamInput struct {
	Platform   string
	Season     int
	LeagueID   string
	TeamID     string
	OwnerGUIDs []string
}

// OwnerService maps provider-side owner tokens to local members. Teams
// whose owners are unknown get a league-scoped ghost identity instead,
// minted once and reused on every later resolve.
type OwnerService struct {
	vault  credential.Repository
	owners teamowner.Repository
	logger *logging.Logger
}

func NewOwnerService(vault credential.Repository, owners teamowner.Repository, logger *logging.Logger) *OwnerService {
	if logger == nil {
		logger = logging.Default()
	}

	return &OwnerService{
		vault:  vault,
		owners: owners,
		logger: logger,
	}
}

// ResolveTeam resolves one team's owner and upserts the mapping.
//
// Resolution order: first owner guid with a member-bound credential wins
// (co-managed teams take the first that resolves), then any prior
// mapping is kept as-is, then a fresh ghost is allocated. A ghost
// mapping flips to real the first time a guid resolves; the reverse
// never happens.
func (s *OwnerService) ResolveTeam(ctx context.Context, input ResolveTeamInput) (teamowner.Mapping, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OwnerService.ResolveTeam")
	defer span.End()

	platform := snapshot.NormalizePlatform(input.Platform)
	leagueID := strings.TrimSpace(input.LeagueID)
	teamID := strings.TrimSpace(input.TeamID)

	if input.Season <= 0 {
		return teamowner.Mapping{}, fmt.Errorf("%w: season is required", ErrInvalidInput)
	}
	if leagueID == "" {
		return teamowner.Mapping{}, fmt.Errorf("%w: league_id is required", ErrInvalidInput)
	}
	if teamID == "" {
		return teamowner.Mapping{}, fmt.Errorf("%w: team_id is required", ErrInvalidInput)
	}

	guids := normalizeOwnerGUIDs(input.OwnerGUIDs)

	memberID := ""
	for _, guid := range guids {
		stored, exists, err := s.vault.FindBySWID(ctx, guid)
		if err != nil {
			return teamowner.Mapping{}, fmt.Errorf("probe credential for owner guid: %w", err)
		}
		if exists && stored.HasMember() {
			memberID = stored.MemberID
			break
		}
	}

	if memberID != "" {
		mapping, err := s.owners.Upsert(ctx, teamowner.Mapping{
			Platform:   platform,
			Season:     input.Season,
			LeagueID:   leagueID,
			TeamID:     teamID,
			MemberID:   memberID,
			OwnerKind:  teamowner.KindReal,
			OwnerGUIDs: guids,
		})
		if err != nil {
			return teamowner.Mapping{}, fmt.Errorf("upsert real owner mapping: %w", err)
		}
		return mapping, nil
	}

	existing, exists, err := s.owners.Get(ctx, platform, input.Season, leagueID, teamID)
	if err != nil {
		return teamowner.Mapping{}, fmt.Errorf("read existing owner mapping: %w", err)
	}
	if exists {
		// Keep the prior identity so re-ingests never churn ghost ids.
		existing.OwnerGUIDs = guids
		mapping, err := s.owners.Upsert(ctx, existing)
		if err != nil {
			return teamowner.Mapping{}, fmt.Errorf("refresh owner mapping: %w", err)
		}
		return mapping, nil
	}

	mapping, err := s.owners.AllocateGhost(ctx, teamowner.Mapping{
		Platform:   platform,
		Season:     input.Season,
		LeagueID:   leagueID,
		TeamID:     teamID,
		OwnerKind:  teamowner.KindGhost,
		OwnerGUIDs: guids,
	})
	if err != nil {
		return teamowner.Mapping{}, fmt.Errorf("allocate ghost owner: %w", err)
	}

	return mapping, nil
}

// List returns the ownership map for one league, ordered by numeric
// team id ascending.
func (s *OwnerService) List(ctx context.Context, platform string, season int, leagueID string) ([]teamowner.Mapping, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OwnerService.List")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if season <= 0 {
		return nil, fmt.Errorf("%w: season is required", ErrInvalidInput)
	}
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league_id is required", ErrInvalidInput)
	}

	mappings, err := s.owners.ListByLeague(ctx, snapshot.NormalizePlatform(platform), season, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list owner mappings: %w", err)
	}

	return mappings, nil
}

func normalizeOwnerGUIDs(raw []string) []string {
	guids := make([]string, 0, len(raw))
	for _, item := range raw {
		if guid := credential.NormalizeSWID(item); guid != "" {
			guids = append(guids, guid)
		}
	}
	return guids
}
