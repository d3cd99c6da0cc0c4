package usecase

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/credential"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/snapshot"
	"github.com/fortifiedfantasy/fein-engine/internal/platform/logging"
)

// LeagueProvider is the upstream surface the discovery walker and the
// ingest orchestrator consume. *espn.Client satisfies it directly.
type LeagueProvider interface {
	League(ctx context.Context, sport string, season int, leagueID string, token credential.Token) (map[string]any, error)
	LeaguesForOwner(ctx context.Context, sport string, season int, ownerGUID string, token credential.Token, conditional http.Header) ([]map[string]any, error)
	Fan(ctx context.Context, ownerGUID string, token credential.Token) (map[string]any, error)
}

type DiscoveryConfig struct {
	// Sports to probe, in output order. Defaults to the known slugs.
	Sports []string
	// SeasonWindow is how many seasons back from the current year each
	// sport is probed, current year included.
	SeasonWindow int
	Workers      int
}

// DiscoveredLeague is one deduped (sport, season, league) tuple found
// for an owner. Bundle carries the provider payload when the listing
// endpoint returned it, so ingest can skip a second fetch.
type DiscoveredLeague struct {
	Sport    string `json:"sport"`
	Season   int    `json:"season"`
	LeagueID string `json:"league_id"`
	Name     string `json:"league_name,omitempty"`
	Size     int    `json:"league_size,omitempty"`

	Bundle map[string]any `json:"-"`
}

// DiscoveryService walks the sport by season probe matrix for one owner
// token. A failed probe contributes nothing; the walk always finishes
// after len(Sports) * SeasonWindow calls.
type DiscoveryService struct {
	provider LeagueProvider
	cfg      DiscoveryConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewDiscoveryService(provider LeagueProvider, cfg DiscoveryConfig, logger *logging.Logger) *DiscoveryService {
	if len(cfg.Sports) == 0 {
		cfg.Sports = snapshot.DefaultSports
	}
	if cfg.SeasonWindow <= 0 {
		cfg.SeasonWindow = 7
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &DiscoveryService{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

type discoveryProbe struct {
	sport  string
	season int
}

func (s *DiscoveryService) probes() []discoveryProbe {
	currentSeason := s.now().UTC().Year()

	probes := make([]discoveryProbe, 0, len(s.cfg.Sports)*s.cfg.SeasonWindow)
	for _, sport := range s.cfg.Sports {
		for back := 0; back < s.cfg.SeasonWindow; back++ {
			probes = append(probes, discoveryProbe{sport: sport, season: currentSeason - back})
		}
	}
	return probes
}

// Discover enumerates every league the owner participates in across the
// configured sport by season matrix. Upstream failures on individual
// probes are logged and treated as empty; two runs against the same
// upstream within the window return the same deduped tuples.
func (s *DiscoveryService) Discover(ctx context.Context, ownerGUID string, token credential.Token) ([]DiscoveredLeague, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DiscoveryService.Discover")
	defer span.End()

	ownerGUID = credential.NormalizeSWID(ownerGUID)
	if ownerGUID == "" {
		return nil, fmt.Errorf("%w: owner guid is required", ErrInvalidInput)
	}
	if s.provider == nil {
		return nil, fmt.Errorf("%w: league provider is not configured", ErrDependencyUnavailable)
	}

	probes := s.probes()
	perProbe := make([][]DiscoveredLeague, len(probes))

	workerCount := s.cfg.Workers
	if workerCount > len(probes) {
		workerCount = len(probes)
	}
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, fmt.Errorf("create discovery pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for i, probe := range probes {
		i, probe := i, probe
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			perProbe[i] = s.runProbe(ctx, probe, ownerGUID, token)
		}); err != nil {
			workers.Done()
			return nil, fmt.Errorf("submit discovery probe: %w", err)
		}
	}
	workers.Wait()

	// Probe order is sport-major with seasons descending, so the dedupe
	// scan below keeps output deterministic across runs.
	seen := make(map[string]struct{})
	discovered := make([]DiscoveredLeague, 0)
	for _, batch := range perProbe {
		for _, item := range batch {
			key := item.Sport + "|" + formatSeason(item.Season) + "|" + item.LeagueID
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			discovered = append(discovered, item)
		}
	}

	return discovered, nil
}

func (s *DiscoveryService) runProbe(ctx context.Context, probe discoveryProbe, ownerGUID string, token credential.Token) []DiscoveredLeague {
	bundles, err := s.provider.LeaguesForOwner(ctx, probe.sport, probe.season, ownerGUID, token, nil)
	if err != nil {
		s.logger.WarnContext(ctx,
			"discovery probe returned nothing",
			"sport", probe.sport,
			"season", probe.season,
			"error", err,
		)
		return nil
	}

	found := make([]DiscoveredLeague, 0, len(bundles))
	for _, bundle := range bundles {
		leagueID, name, size := snapshot.BundleSummary(bundle)
		if leagueID == "" {
			continue
		}
		found = append(found, DiscoveredLeague{
			Sport:    probe.sport,
			Season:   probe.season,
			LeagueID: leagueID,
			Name:     name,
			Size:     size,
			Bundle:   bundle,
		})
	}
	return found
}

// DiscoverViaFan reads the owner's fan preference bag instead of the
// league listing matrix. Diagnostics only; the probe matrix stays
// authoritative when the two disagree.
func (s *DiscoveryService) DiscoverViaFan(ctx context.Context, ownerGUID string, token credential.Token) ([]DiscoveredLeague, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DiscoveryService.DiscoverViaFan")
	defer span.End()

	ownerGUID = credential.NormalizeSWID(ownerGUID)
	if ownerGUID == "" {
		return nil, fmt.Errorf("%w: owner guid is required", ErrInvalidInput)
	}
	if s.provider == nil {
		return nil, fmt.Errorf("%w: league provider is not configured", ErrDependencyUnavailable)
	}

	bag, err := s.provider.Fan(ctx, ownerGUID, token)
	if err != nil {
		return nil, fmt.Errorf("fetch fan preferences: %w", err)
	}

	seen := make(map[string]struct{})
	discovered := make([]DiscoveredLeague, 0)
	for _, entry := range snapshot.FanLeagues(bag) {
		key := entry.Sport + "|" + formatSeason(entry.Season) + "|" + entry.LeagueID
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		discovered = append(discovered, DiscoveredLeague{
			Sport:    entry.Sport,
			Season:   entry.Season,
			LeagueID: entry.LeagueID,
			Name:     entry.LeagueName,
		})
	}

	return discovered, nil
}

func formatSeason(season int) string {
	return fmt.Sprintf("%d", season)
}
