package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/credential"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/snapshot"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/sportcatalog"
	"github.com/fortifiedfantasy/fein-engine/internal/platform/logging"
)

const maxTeamQueryLimit = 500

type TeamQueryInput struct {
	Sport    string
	Platform string
	Season   int
	LeagueID string
	// OnlyMine restricts rows to the caller's teams and requires
	// MemberID. ExcludeGhosts, Visibility and Status are likewise
	// strictly opt-in; leaving them zero applies no filter.
	OnlyMine      bool
	MemberID      string
	ExcludeGhosts bool
	Visibility    string
	Status        string
	Limit         int
}

// SleeperProvider is the secondary-platform surface used for live
// league reads. *sleeper.Client satisfies it.
type SleeperProvider interface {
	League(ctx context.Context, leagueID string) (map[string]any, error)
	Rosters(ctx context.Context, leagueID string) ([]map[string]any, error)
	Users(ctx context.Context, leagueID string) ([]map[string]any, error)
}

// TeamQueryService serves the read surface: persisted ledger rows
// joined to ownership, plus live league fetches for diagnostics.
type TeamQueryService struct {
	provider  LeagueProvider
	sleeper   SleeperProvider
	snapshots snapshot.Repository
	logger    *logging.Logger
	now       func() time.Time
}

func NewTeamQueryService(
	provider LeagueProvider,
	sleeper SleeperProvider,
	snapshots snapshot.Repository,
	logger *logging.Logger,
) *TeamQueryService {
	if logger == nil {
		logger = logging.Default()
	}

	return &TeamQueryService{
		provider:  provider,
		sleeper:   sleeper,
		snapshots: snapshots,
		logger:    logger,
		now:       time.Now,
	}
}

// Teams lists persisted rows for one sport ledger. An empty result is a
// normal answer, never an error.
func (s *TeamQueryService) Teams(ctx context.Context, input TeamQueryInput) ([]snapshot.OwnedRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamQueryService.Teams")
	defer span.End()

	sport := strings.TrimSpace(input.Sport)
	if sport == "" {
		return nil, fmt.Errorf("%w: sport is required", ErrInvalidInput)
	}
	if input.OnlyMine && strings.TrimSpace(input.MemberID) == "" {
		return nil, fmt.Errorf("%w: only_mine requires an authenticated member", ErrUnauthorized)
	}

	query := snapshot.Query{
		CharCode:      sportcatalog.SanitizeCharCode(sport),
		Season:        input.Season,
		LeagueID:      strings.TrimSpace(input.LeagueID),
		ExcludeGhosts: input.ExcludeGhosts,
		Visibility:    strings.TrimSpace(input.Visibility),
		Status:        strings.TrimSpace(input.Status),
		Limit:         clampTeamQueryLimit(input.Limit),
	}
	if platform := strings.TrimSpace(input.Platform); platform != "" {
		query.Platform = snapshot.NormalizePlatform(platform)
	}
	if input.OnlyMine {
		query.MemberID = strings.TrimSpace(input.MemberID)
	}

	rows, err := s.snapshots.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s ledger: %w", query.CharCode, err)
	}

	return rows, nil
}

type LiveLeagueInput struct {
	Platform string
	Sport    string
	Season   int
	LeagueID string
	Token    credential.Token
}

// LiveLeague fetches and normalizes one league straight from the
// provider without touching storage. Diagnostics path.
func (s *TeamQueryService) LiveLeague(ctx context.Context, input LiveLeagueInput) (snapshot.League, []snapshot.Row, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamQueryService.LiveLeague")
	defer span.End()

	leagueID := strings.TrimSpace(input.LeagueID)
	if input.Season <= 0 && snapshot.NormalizePlatform(input.Platform) != snapshot.PlatformSleeper {
		return snapshot.League{}, nil, fmt.Errorf("%w: season is required", ErrInvalidInput)
	}
	if leagueID == "" {
		return snapshot.League{}, nil, fmt.Errorf("%w: league_id is required", ErrInvalidInput)
	}

	switch snapshot.NormalizePlatform(input.Platform) {
	case snapshot.PlatformSleeper:
		return s.liveSleeperLeague(ctx, leagueID)
	default:
		return s.liveProviderLeague(ctx, input, leagueID)
	}
}

func (s *TeamQueryService) liveProviderLeague(ctx context.Context, input LiveLeagueInput, leagueID string) (snapshot.League, []snapshot.Row, error) {
	if s.provider == nil {
		return snapshot.League{}, nil, fmt.Errorf("%w: league provider is not configured", ErrDependencyUnavailable)
	}
	if input.Token.IsZero() {
		return snapshot.League{}, nil, fmt.Errorf("%w: no provider token on request", ErrMissingCredential)
	}

	sport := strings.ToLower(strings.TrimSpace(input.Sport))
	if sport == "" {
		sport = snapshot.SportFootball
	}

	bundle, err := s.provider.League(ctx, sport, input.Season, leagueID, input.Token)
	if err != nil {
		return snapshot.League{}, nil, fmt.Errorf("fetch live league: %w", err)
	}

	league, rows, err := snapshot.Normalize(snapshot.PlatformESPN, input.Season, sport, leagueID, bundle, s.now().UTC())
	if err != nil {
		return snapshot.League{}, nil, fmt.Errorf("normalize live league: %w", err)
	}

	return league, rows, nil
}

func (s *TeamQueryService) liveSleeperLeague(ctx context.Context, leagueID string) (snapshot.League, []snapshot.Row, error) {
	if s.sleeper == nil {
		return snapshot.League{}, nil, fmt.Errorf("%w: sleeper provider is not configured", ErrDependencyUnavailable)
	}

	league, err := s.sleeper.League(ctx, leagueID)
	if err != nil {
		return snapshot.League{}, nil, fmt.Errorf("fetch sleeper league: %w", err)
	}
	rosters, err := s.sleeper.Rosters(ctx, leagueID)
	if err != nil {
		return snapshot.League{}, nil, fmt.Errorf("fetch sleeper rosters: %w", err)
	}
	users, err := s.sleeper.Users(ctx, leagueID)
	if err != nil {
		return snapshot.League{}, nil, fmt.Errorf("fetch sleeper users: %w", err)
	}

	header, rows, err := snapshot.NormalizeSleeper(league, rosters, users, s.now().UTC())
	if err != nil {
		return snapshot.League{}, nil, fmt.Errorf("normalize sleeper league: %w", err)
	}

	return header, rows, nil
}

func clampTeamQueryLimit(limit int) int {
	if limit < 0 {
		return 0
	}
	if limit > maxTeamQueryLimit {
		return maxTeamQueryLimit
	}
	return limit
}
