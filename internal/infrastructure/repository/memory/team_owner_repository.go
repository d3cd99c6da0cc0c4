package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/member"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/teamowner"
)

type teamOwnerKey struct {
	platform string
	season   int
	leagueID string
	teamID   string
}

type leagueScope struct {
	platform string
	season   int
	leagueID string
}

// TeamOwnerRepository is the in-memory ownership store for tests and
// local runs. Ghost allocation is serialized by the repository mutex.
type TeamOwnerRepository struct {
	mu       sync.RWMutex
	mappings map[teamOwnerKey]teamowner.Mapping
}

func NewTeamOwnerRepository() *TeamOwnerRepository {
	return &TeamOwnerRepository{mappings: make(map[teamOwnerKey]teamowner.Mapping)}
}

func (r *TeamOwnerRepository) Get(_ context.Context, platform string, season int, leagueID, teamID string) (teamowner.Mapping, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mapping, ok := r.mappings[teamOwnerKey{platform, season, leagueID, teamID}]
	return mapping, ok, nil
}

func (r *TeamOwnerRepository) ListByLeague(_ context.Context, platform string, season int, leagueID string) ([]teamowner.Mapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]teamowner.Mapping, 0, 16)
	for key, mapping := range r.mappings {
		if key.platform == platform && key.season == season && key.leagueID == leagueID {
			out = append(out, mapping)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		left, leftErr := strconv.Atoi(out[i].TeamID)
		right, rightErr := strconv.Atoi(out[j].TeamID)
		if leftErr == nil && rightErr == nil {
			return left < right
		}
		if leftErr == nil {
			return true
		}
		if rightErr == nil {
			return false
		}
		return out[i].TeamID < out[j].TeamID
	})
	return out, nil
}

func (r *TeamOwnerRepository) Upsert(_ context.Context, mapping teamowner.Mapping) (teamowner.Mapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.storeLocked(mapping), nil
}

func (r *TeamOwnerRepository) AllocateGhost(_ context.Context, mapping teamowner.Mapping) (teamowner.Mapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := teamOwnerKey{mapping.Platform, mapping.Season, mapping.LeagueID, mapping.TeamID}
	if existing, ok := r.mappings[key]; ok {
		return existing, nil
	}

	scope := leagueScope{mapping.Platform, mapping.Season, mapping.LeagueID}
	maxSuffix := 0
	for k, m := range r.mappings {
		if (leagueScope{k.platform, k.season, k.leagueID}) != scope {
			continue
		}
		if n, ok := member.GhostSuffix(m.MemberID); ok && n > maxSuffix {
			maxSuffix = n
		}
	}

	mapping.MemberID = member.FormatGhost(maxSuffix + 1)
	mapping.OwnerKind = teamowner.KindGhost
	return r.storeLocked(mapping), nil
}

func (r *TeamOwnerRepository) storeLocked(mapping teamowner.Mapping) teamowner.Mapping {
	key := teamOwnerKey{mapping.Platform, mapping.Season, mapping.LeagueID, mapping.TeamID}
	now := time.Now().UTC()

	if existing, ok := r.mappings[key]; ok {
		mapping.CreatedAt = existing.CreatedAt
	} else {
		mapping.CreatedAt = now
	}
	mapping.UpdatedAt = now
	mapping.OwnerGUIDs = append([]string(nil), mapping.OwnerGUIDs...)

	r.mappings[key] = mapping
	return mapping
}
