package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/credential"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/snapshot"
	"github.com/fortifiedfantasy/fein-engine/internal/platform/logging"
)

type IngestConfig struct {
	// Workers bounds the per-owner discovery fan-out inside one ingest.
	Workers int
}

type IngestInput struct {
	Platform string
	Sport    string
	Season   int
	LeagueID string
	// TeamID optionally narrows the discovery fan-out to one team's
	// owners. The seed league is still resolved and written in full.
	TeamID string
	Token  credential.Token
}

// TeamOwnership is one seed-league team with its resolved owner.
type TeamOwnership struct {
	TeamID     string   `json:"team_id"`
	TeamName   string   `json:"team_name,omitempty"`
	MemberID   string   `json:"member_id,omitempty"`
	OwnerKind  string   `json:"owner_kind,omitempty"`
	OwnerGUIDs []string `json:"owner_guids,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// TupleResult reports one discovered (sport, season, league) write.
// Queued=false carries the reason; siblings are unaffected.
type TupleResult struct {
	Sport      string `json:"sport"`
	Season     int    `json:"season"`
	LeagueID   string `json:"league_id"`
	Queued     bool   `json:"queued"`
	Rows       int    `json:"rows"`
	Reason     string `json:"reason,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type OwnerIngest struct {
	OwnerGUID  string             `json:"owner_guid"`
	Discovered []DiscoveredLeague `json:"discovered"`
	Results    []TupleResult      `json:"results"`
}

type IngestResult struct {
	Platform   string          `json:"platform"`
	Sport      string          `json:"sport"`
	Season     int             `json:"season"`
	LeagueID   string          `json:"league_id"`
	Mapped     []TeamOwnership `json:"mapped"`
	FanIngest  []OwnerIngest   `json:"fan_ingest"`
	RowCount   int             `json:"row_count"`
	DurationMs int64           `json:"duration_ms"`
}

// IngestService drives the full ingest pass: fetch the seed league,
// resolve every team's owner, then walk each unique owner's other
// leagues and snapshot all of them. One failed tuple never aborts its
// siblings; the response carries per-tuple outcomes instead.
type IngestService struct {
	provider  LeagueProvider
	ownerSvc  *OwnerService
	discovery *DiscoveryService
	catalog   *CatalogService
	snapshots snapshot.Repository
	dispatch  ingestDispatcher
	cfg       IngestConfig
	logger    *logging.Logger
	now       func() time.Time
}

// ingestDispatcher defers an ingest to a background worker. The run
// callback receives a context detached from the inbound request.
type ingestDispatcher interface {
	Dispatch(ctx context.Context, job string, run func(ctx context.Context)) (string, error)
}

func NewIngestService(
	provider LeagueProvider,
	ownerSvc *OwnerService,
	discovery *DiscoveryService,
	catalog *CatalogService,
	snapshots snapshot.Repository,
	dispatch ingestDispatcher,
	cfg IngestConfig,
	logger *logging.Logger,
) *IngestService {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &IngestService{
		provider:  provider,
		ownerSvc:  ownerSvc,
		discovery: discovery,
		catalog:   catalog,
		snapshots: snapshots,
		dispatch:  dispatch,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (IngestResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestService.Ingest")
	defer span.End()

	platform := snapshot.NormalizePlatform(input.Platform)
	sport := strings.ToLower(strings.TrimSpace(input.Sport))
	if sport == "" {
		sport = snapshot.SportFootball
	}
	leagueID := strings.TrimSpace(input.LeagueID)
	focusTeamID := strings.TrimSpace(input.TeamID)

	if input.Season <= 0 {
		return IngestResult{}, fmt.Errorf("%w: season is required", ErrInvalidInput)
	}
	if leagueID == "" {
		return IngestResult{}, fmt.Errorf("%w: league_id is required", ErrInvalidInput)
	}
	if input.Token.IsZero() {
		return IngestResult{}, fmt.Errorf("%w: no provider token on request", ErrMissingCredential)
	}
	if s.provider == nil || s.ownerSvc == nil || s.discovery == nil || s.catalog == nil || s.snapshots == nil {
		return IngestResult{}, fmt.Errorf("%w: ingest pipeline is not fully configured", ErrDependencyUnavailable)
	}

	started := s.now()

	if _, err := s.catalog.EnsureSport(ctx, sport); err != nil {
		return IngestResult{}, err
	}

	bundle, err := s.provider.League(ctx, sport, input.Season, leagueID, input.Token)
	if err != nil {
		return IngestResult{}, fmt.Errorf("fetch seed league %s season %d: %w", leagueID, input.Season, err)
	}

	league, rows, err := snapshot.Normalize(platform, input.Season, sport, leagueID, bundle, s.now().UTC())
	if err != nil {
		return IngestResult{}, fmt.Errorf("normalize seed league: %w", err)
	}

	mapped, owners := s.resolveSeedOwners(ctx, league, rows, focusTeamID)

	written, err := s.snapshots.UpsertRows(ctx, sport, rows)
	if err != nil {
		return IngestResult{}, fmt.Errorf("write seed league rows: %w", err)
	}

	tracker := newTupleTracker()
	tracker.claim(tupleKey(sport, input.Season, league.LeagueID))

	fanIngest := make([]OwnerIngest, len(owners))
	fanOut := pool.New().WithMaxGoroutines(s.cfg.Workers)
	for i, guid := range owners {
		i, guid := i, guid
		fanOut.Go(func() {
			fanIngest[i] = s.ingestOwner(ctx, guid, input.Token, tracker)
		})
	}
	fanOut.Wait()

	rowCount := written
	affected := map[string]discoveryProbe{
		tupleKey(sport, input.Season, ""): {sport: sport, season: input.Season},
	}
	for _, owner := range fanIngest {
		for _, tuple := range owner.Results {
			rowCount += tuple.Rows
			if tuple.Queued && tuple.Rows > 0 {
				affected[tupleKey(tuple.Sport, tuple.Season, "")] = discoveryProbe{sport: tuple.Sport, season: tuple.Season}
			}
		}
	}

	for _, probe := range affected {
		if _, err := s.catalog.RefreshRollup(ctx, probe.sport, probe.season); err != nil {
			s.logger.WarnContext(ctx,
				"rollup refresh failed after ingest",
				"sport", probe.sport,
				"season", probe.season,
				"error", err,
			)
		}
	}

	return IngestResult{
		Platform:   platform,
		Sport:      sport,
		Season:     input.Season,
		LeagueID:   league.LeagueID,
		Mapped:     mapped,
		FanIngest:  fanIngest,
		RowCount:   rowCount,
		DurationMs: time.Since(started).Milliseconds(),
	}, nil
}

// resolveSeedOwners maps every seed-league team and collects the owner
// guids that feed the discovery fan-out. A single team's resolve
// failure is recorded on its entry and the rest continue.
func (s *IngestService) resolveSeedOwners(ctx context.Context, league snapshot.League, rows []snapshot.Row, focusTeamID string) ([]TeamOwnership, []string) {
	mapped := make([]TeamOwnership, 0, len(rows))
	seen := make(map[string]struct{})
	owners := make([]string, 0, len(rows))

	for _, row := range rows {
		entry := TeamOwnership{
			TeamID:     row.TeamID,
			TeamName:   row.TeamName,
			OwnerGUIDs: normalizeOwnerGUIDs(row.OwnerGUIDs),
		}

		mapping, err := s.ownerSvc.ResolveTeam(ctx, ResolveTeamInput{
			Platform:   league.Platform,
			Season:     league.Season,
			LeagueID:   league.LeagueID,
			TeamID:     row.TeamID,
			OwnerGUIDs: row.OwnerGUIDs,
		})
		if err != nil {
			s.logger.WarnContext(ctx,
				"owner resolution failed for team",
				"league_id", league.LeagueID,
				"team_id", row.TeamID,
				"error", err,
			)
			entry.Error = err.Error()
			mapped = append(mapped, entry)
			continue
		}

		entry.MemberID = mapping.MemberID
		entry.OwnerKind = mapping.OwnerKind
		mapped = append(mapped, entry)

		if focusTeamID != "" && row.TeamID != focusTeamID {
			continue
		}
		for _, guid := range entry.OwnerGUIDs {
			if _, dup := seen[guid]; dup {
				continue
			}
			seen[guid] = struct{}{}
			owners = append(owners, guid)
		}
	}

	return mapped, owners
}

func (s *IngestService) ingestOwner(ctx context.Context, ownerGUID string, token credential.Token, tracker *tupleTracker) OwnerIngest {
	out := OwnerIngest{OwnerGUID: ownerGUID}

	discovered, err := s.discovery.Discover(ctx, ownerGUID, token)
	if err != nil {
		s.logger.WarnContext(ctx, "discovery failed for owner", "error", err)
		return out
	}
	out.Discovered = discovered
	out.Results = make([]TupleResult, 0, len(discovered))

	for _, tuple := range discovered {
		start := s.now()
		result := TupleResult{
			Sport:    tuple.Sport,
			Season:   tuple.Season,
			LeagueID: tuple.LeagueID,
		}

		if !tracker.claim(tupleKey(tuple.Sport, tuple.Season, tuple.LeagueID)) {
			result.Queued = true
			result.Reason = "already ingested in this run"
			result.DurationMs = time.Since(start).Milliseconds()
			out.Results = append(out.Results, result)
			continue
		}

		rows, err := s.ingestTuple(ctx, tuple, token)
		if err != nil {
			result.Reason = err.Error()
		} else {
			result.Queued = true
			result.Rows = rows
		}
		result.DurationMs = time.Since(start).Milliseconds()
		out.Results = append(out.Results, result)
	}

	return out
}

func (s *IngestService) ingestTuple(ctx context.Context, tuple DiscoveredLeague, token credential.Token) (int, error) {
	if _, err := s.catalog.EnsureSport(ctx, tuple.Sport); err != nil {
		return 0, err
	}

	bundle := tuple.Bundle
	if len(bundle) == 0 {
		fetched, err := s.provider.League(ctx, tuple.Sport, tuple.Season, tuple.LeagueID, token)
		if err != nil {
			return 0, fmt.Errorf("fetch league: %w", err)
		}
		bundle = fetched
	}

	_, rows, err := snapshot.Normalize(snapshot.PlatformESPN, tuple.Season, tuple.Sport, tuple.LeagueID, bundle, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("normalize league: %w", err)
	}

	written, err := s.snapshots.UpsertRows(ctx, tuple.Sport, rows)
	if err != nil {
		return 0, fmt.Errorf("write rows: %w", err)
	}

	return written, nil
}

// Queue accepts the ingest for deferred execution and returns a job id.
// Validation happens up front so a bad request still fails fast.
func (s *IngestService) Queue(ctx context.Context, input IngestInput) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestService.Queue")
	defer span.End()

	if input.Season <= 0 {
		return "", fmt.Errorf("%w: season is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.LeagueID) == "" {
		return "", fmt.Errorf("%w: league_id is required", ErrInvalidInput)
	}
	if input.Token.IsZero() {
		return "", fmt.Errorf("%w: no provider token on request", ErrMissingCredential)
	}
	if s.dispatch == nil {
		return "", fmt.Errorf("%w: ingest dispatcher is not configured", ErrDependencyUnavailable)
	}

	jobID, err := s.dispatch.Dispatch(ctx, "ingest", func(jobCtx context.Context) {
		result, err := s.Ingest(jobCtx, input)
		if err != nil {
			s.logger.ErrorContext(jobCtx,
				"queued ingest failed",
				"league_id", input.LeagueID,
				"season", input.Season,
				"error", err,
			)
			return
		}
		s.logger.InfoContext(jobCtx,
			"queued ingest finished",
			"league_id", input.LeagueID,
			"season", input.Season,
			"row_count", result.RowCount,
			"duration_ms", result.DurationMs,
		)
	})
	if err != nil {
		return "", fmt.Errorf("dispatch ingest job: %w", err)
	}

	return jobID, nil
}

type tupleTracker struct {
	mu   sync.Mutex
	done map[string]struct{}
}

func newTupleTracker() *tupleTracker {
	return &tupleTracker{done: make(map[string]struct{})}
}

// claim reports whether the caller is first to take the tuple.
func (t *tupleTracker) claim(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, dup := t.done[key]; dup {
		return false
	}
	t.done[key] = struct{}{}
	return true
}

func tupleKey(sport string, season int, leagueID string) string {
	return fmt.Sprintf("%s|%d|%s", sport, season, leagueID)
}
