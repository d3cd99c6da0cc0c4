package sportcatalog

import "context"

// Repository manages the sport registry, its lazily created ledger
// tables, and per-season rollups. All DDL it issues is additive;
// nothing here ever drops or narrows a table.
type Repository interface {
	// EnsureSport registers the slug (assigning the next num_code on
	// first sight) and creates its ledger table when missing. Returns
	// the ledger table name.
	EnsureSport(ctx context.Context, charCode string) (string, error)
	ListCodes(ctx context.Context) ([]SportCode, error)
	// RefreshRollup recomputes and stores the (sport, season) entry.
	RefreshRollup(ctx context.Context, charCode string, season int) (Entry, error)
	ListRollups(ctx context.Context, charCode string) ([]Entry, error)
}
