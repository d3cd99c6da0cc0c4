package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/snapshot"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/sportcatalog"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/teamowner"
)

// SnapshotRepository is the in-memory ledger used by tests and local
// runs. Filters and ordering match the durable implementation.
type SnapshotRepository struct {
	mu     sync.RWMutex
	tables map[string]map[snapshot.Key]snapshot.Row
	owners *TeamOwnerRepository
}

// NewSnapshotRepository joins reads against owners when it is non-nil.
func NewSnapshotRepository(owners *TeamOwnerRepository) *SnapshotRepository {
	return &SnapshotRepository{
		tables: make(map[string]map[snapshot.Key]snapshot.Row),
		owners: owners,
	}
}

func (r *SnapshotRepository) UpsertRows(_ context.Context, charCode string, rows []snapshot.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	table := sportcatalog.TableName(charCode)
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	rowsByKey, ok := r.tables[table]
	if !ok {
		rowsByKey = make(map[snapshot.Key]snapshot.Row)
		r.tables[table] = rowsByKey
	}

	for _, row := range rows {
		key := row.Key()
		if existing, ok := rowsByKey[key]; ok {
			row.FirstSeenAt = existing.FirstSeenAt
		} else {
			row.FirstSeenAt = now
		}
		row.LastSeenAt = now
		row.LastSyncedAt = now
		rowsByKey[key] = row
	}
	return len(rows), nil
}

func (r *SnapshotRepository) Query(ctx context.Context, q snapshot.Query) ([]snapshot.OwnedRow, error) {
	r.mu.RLock()
	rowsByKey := r.tables[sportcatalog.TableName(q.CharCode)]
	rows := make([]snapshot.Row, 0, len(rowsByKey))
	for _, row := range rowsByKey {
		rows = append(rows, row)
	}
	r.mu.RUnlock()

	out := make([]snapshot.OwnedRow, 0, len(rows))
	for _, row := range rows {
		owned := snapshot.OwnedRow{Row: row}
		if r.owners != nil {
			if mapping, ok, err := r.owners.Get(ctx, row.Platform, row.Season, row.LeagueID, row.TeamID); err == nil && ok {
				owned.MemberID = mapping.MemberID
				owned.OwnerKind = mapping.OwnerKind
			}
		}
		if !matchesQuery(owned, q) {
			continue
		}
		out = append(out, owned)
	}

	sortOwnedRows(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matchesQuery(row snapshot.OwnedRow, q snapshot.Query) bool {
	if q.Platform != "" && row.Platform != q.Platform {
		return false
	}
	if q.Season > 0 && row.Season != q.Season {
		return false
	}
	if q.LeagueID != "" && row.LeagueID != q.LeagueID {
		return false
	}
	if q.MemberID != "" && row.MemberID != q.MemberID {
		return false
	}
	if q.ExcludeGhosts && row.OwnerKind == teamowner.KindGhost {
		return false
	}
	if q.Visibility != "" && row.Visibility != q.Visibility {
		return false
	}
	if q.Status != "" && row.Status != q.Status {
		return false
	}
	return true
}

// sortOwnedRows orders by season descending, then league, then numeric
// team id with non-numeric ids last.
func sortOwnedRows(rows []snapshot.OwnedRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Season != rows[j].Season {
			return rows[i].Season > rows[j].Season
		}
		if rows[i].LeagueID != rows[j].LeagueID {
			return rows[i].LeagueID < rows[j].LeagueID
		}

		left, leftErr := strconv.Atoi(rows[i].TeamID)
		right, rightErr := strconv.Atoi(rows[j].TeamID)
		if leftErr == nil && rightErr == nil && left != right {
			return left < right
		}
		if leftErr == nil && rightErr != nil {
			return true
		}
		if leftErr != nil && rightErr == nil {
			return false
		}
		return rows[i].TeamID < rows[j].TeamID
	})
}
