package cache

import (
	"context"
	"strconv"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/snapshot"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/sportcatalog"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/teamowner"
	basecache "github.com/fortifiedfantasy/fein-engine/internal/platform/cache"
)

// SnapshotRepository caches ledger reads. Writes pass through and drop
// every cached query for the written sport.
type SnapshotRepository struct {
	next  snapshot.Repository
	cache *basecache.Store
}

func NewSnapshotRepository(next snapshot.Repository, cache *basecache.Store) *SnapshotRepository {
	return &SnapshotRepository{next: next, cache: cache}
}

func (r *SnapshotRepository) UpsertRows(ctx context.Context, charCode string, rows []snapshot.Row) (int, error) {
	n, err := r.next.UpsertRows(ctx, charCode, rows)
	if err != nil {
		return n, err
	}
	r.cache.DeletePrefix(ctx, ledgerPrefix(charCode))
	return n, nil
}

func (r *SnapshotRepository) Query(ctx context.Context, q snapshot.Query) ([]snapshot.OwnedRow, error) {
	v, err := r.cache.GetOrLoad(ctx, ledgerQueryKey(q), func(ctx context.Context) (any, error) {
		items, err := r.next.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		return append([]snapshot.OwnedRow(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]snapshot.OwnedRow)
	return append([]snapshot.OwnedRow(nil), items...), nil
}

func ledgerPrefix(charCode string) string {
	return "ledger:" + charCode + ":"
}

func ledgerQueryKey(q snapshot.Query) string {
	return ledgerPrefix(q.CharCode) +
		q.Platform + ":" +
		strconv.Itoa(q.Season) + ":" +
		q.LeagueID + ":" +
		q.MemberID + ":" +
		strconv.FormatBool(q.ExcludeGhosts) + ":" +
		q.Visibility + ":" +
		q.Status + ":" +
		strconv.Itoa(q.Limit)
}

// TeamOwnerRepository caches ownership mappings. A mapping write also
// drops every cached ledger query: owned rows join on this table across
// all sports.
type TeamOwnerRepository struct {
	next  teamowner.Repository
	cache *basecache.Store
}

func NewTeamOwnerRepository(next teamowner.Repository, cache *basecache.Store) *TeamOwnerRepository {
	return &TeamOwnerRepository{next: next, cache: cache}
}

func (r *TeamOwnerRepository) Get(ctx context.Context, platform string, season int, leagueID, teamID string) (teamowner.Mapping, bool, error) {
	key := ownerByIDKey(platform, season, leagueID, teamID)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.Get(ctx, platform, season, leagueID, teamID)
		if err != nil {
			return nil, err
		}
		return cachedOwnerByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return teamowner.Mapping{}, false, err
	}

	cached, _ := v.(cachedOwnerByID)
	return cached.value, cached.exists, nil
}

func (r *TeamOwnerRepository) ListByLeague(ctx context.Context, platform string, season int, leagueID string) ([]teamowner.Mapping, error) {
	key := ownerListKey(platform, season, leagueID)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByLeague(ctx, platform, season, leagueID)
		if err != nil {
			return nil, err
		}
		return append([]teamowner.Mapping(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]teamowner.Mapping)
	return append([]teamowner.Mapping(nil), items...), nil
}

func (r *TeamOwnerRepository) Upsert(ctx context.Context, mapping teamowner.Mapping) (teamowner.Mapping, error) {
	saved, err := r.next.Upsert(ctx, mapping)
	if err != nil {
		return teamowner.Mapping{}, err
	}
	r.invalidate(ctx, saved)
	return saved, nil
}

func (r *TeamOwnerRepository) AllocateGhost(ctx context.Context, mapping teamowner.Mapping) (teamowner.Mapping, error) {
	saved, err := r.next.AllocateGhost(ctx, mapping)
	if err != nil {
		return teamowner.Mapping{}, err
	}
	r.invalidate(ctx, saved)
	return saved, nil
}

func (r *TeamOwnerRepository) invalidate(ctx context.Context, mapping teamowner.Mapping) {
	r.cache.Delete(ctx, ownerByIDKey(mapping.Platform, mapping.Season, mapping.LeagueID, mapping.TeamID))
	r.cache.Delete(ctx, ownerListKey(mapping.Platform, mapping.Season, mapping.LeagueID))
	r.cache.DeletePrefix(ctx, "ledger:")
}

type cachedOwnerByID struct {
	value  teamowner.Mapping
	exists bool
}

func ownerByIDKey(platform string, season int, leagueID, teamID string) string {
	return "owner:id:" + platform + ":" + strconv.Itoa(season) + ":" + leagueID + ":" + teamID
}

func ownerListKey(platform string, season int, leagueID string) string {
	return "owner:list:" + platform + ":" + strconv.Itoa(season) + ":" + leagueID
}

// SportCatalogRepository caches the sport registry and its rollups.
type SportCatalogRepository struct {
	next  sportcatalog.Repository
	cache *basecache.Store
}

func NewSportCatalogRepository(next sportcatalog.Repository, cache *basecache.Store) *SportCatalogRepository {
	return &SportCatalogRepository{next: next, cache: cache}
}

func (r *SportCatalogRepository) EnsureSport(ctx context.Context, charCode string) (string, error) {
	table, err := r.next.EnsureSport(ctx, charCode)
	if err != nil {
		return "", err
	}
	r.cache.Delete(ctx, "sport:codes")
	return table, nil
}

func (r *SportCatalogRepository) ListCodes(ctx context.Context) ([]sportcatalog.SportCode, error) {
	v, err := r.cache.GetOrLoad(ctx, "sport:codes", func(ctx context.Context) (any, error) {
		items, err := r.next.ListCodes(ctx)
		if err != nil {
			return nil, err
		}
		return append([]sportcatalog.SportCode(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]sportcatalog.SportCode)
	return append([]sportcatalog.SportCode(nil), items...), nil
}

func (r *SportCatalogRepository) RefreshRollup(ctx context.Context, charCode string, season int) (sportcatalog.Entry, error) {
	entry, err := r.next.RefreshRollup(ctx, charCode, season)
	if err != nil {
		return sportcatalog.Entry{}, err
	}
	r.cache.Delete(ctx, rollupListKey(charCode))
	return entry, nil
}

func (r *SportCatalogRepository) ListRollups(ctx context.Context, charCode string) ([]sportcatalog.Entry, error) {
	v, err := r.cache.GetOrLoad(ctx, rollupListKey(charCode), func(ctx context.Context) (any, error) {
		items, err := r.next.ListRollups(ctx, charCode)
		if err != nil {
			return nil, err
		}
		return append([]sportcatalog.Entry(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]sportcatalog.Entry)
	return append([]sportcatalog.Entry(nil), items...), nil
}

func rollupListKey(charCode string) string {
	return "sport:rollups:" + charCode
}
