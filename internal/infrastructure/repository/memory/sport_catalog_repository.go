package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/snapshot"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/sportcatalog"
)

type rollupKey struct {
	charCode string
	season   int
}

// SportCatalogRepository tracks sport codes and rollups in memory.
// Rollups are recomputed from the snapshot repository it wraps.
type SportCatalogRepository struct {
	mu        sync.Mutex
	codes     map[string]sportcatalog.SportCode
	rollups   map[rollupKey]sportcatalog.Entry
	snapshots *SnapshotRepository
}

func NewSportCatalogRepository(snapshots *SnapshotRepository) *SportCatalogRepository {
	return &SportCatalogRepository{
		codes:     make(map[string]sportcatalog.SportCode),
		rollups:   make(map[rollupKey]sportcatalog.Entry),
		snapshots: snapshots,
	}
}

func (r *SportCatalogRepository) EnsureSport(_ context.Context, charCode string) (string, error) {
	code := sportcatalog.SanitizeCharCode(charCode)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.codes[code]; !ok {
		maxCode := 0
		for _, sc := range r.codes {
			if sc.NumCode > maxCode {
				maxCode = sc.NumCode
			}
		}
		r.codes[code] = sportcatalog.SportCode{
			CharCode:  code,
			NumCode:   maxCode + 1,
			CreatedAt: time.Now().UTC(),
		}
	}
	return sportcatalog.TableName(code), nil
}

func (r *SportCatalogRepository) ListCodes(_ context.Context) ([]sportcatalog.SportCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]sportcatalog.SportCode, 0, len(r.codes))
	for _, sc := range r.codes {
		out = append(out, sc)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NumCode < out[j].NumCode })
	return out, nil
}

func (r *SportCatalogRepository) RefreshRollup(ctx context.Context, charCode string, season int) (sportcatalog.Entry, error) {
	code := sportcatalog.SanitizeCharCode(charCode)

	entry := sportcatalog.Entry{
		CharCode:    code,
		Season:      season,
		RefreshedAt: time.Now().UTC(),
	}

	if r.snapshots != nil {
		rows, err := r.snapshots.Query(ctx, snapshot.Query{CharCode: code, Season: season})
		if err != nil {
			return sportcatalog.Entry{}, err
		}

		sids := make(map[string]struct{}, len(rows))
		members := make(map[string]struct{}, len(rows))
		for _, row := range rows {
			entry.TotalCount++
			sids[row.SID] = struct{}{}
			if row.MemberID != "" {
				members[row.MemberID] = struct{}{}
			}
		}
		entry.UniqueSIDCount = len(sids)
		entry.UniqueMemberCount = len(members)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollups[rollupKey{code, season}] = entry
	return entry, nil
}

func (r *SportCatalogRepository) ListRollups(_ context.Context, charCode string) ([]sportcatalog.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]sportcatalog.Entry, 0, len(r.rollups))
	for key, entry := range r.rollups {
		if charCode != "" && key.charCode != sportcatalog.SanitizeCharCode(charCode) {
			continue
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CharCode != out[j].CharCode {
			return out[i].CharCode < out[j].CharCode
		}
		return out[i].Season > out[j].Season
	})
	return out, nil
}
