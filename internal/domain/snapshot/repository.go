package snapshot

import "context"

// Query filters the read surface. Zero values mean "no filter" except
// MemberID and ExcludeGhosts, which are strictly opt-in.
type Query struct {
	CharCode      string
	Platform      string
	Season        int
	LeagueID      string
	MemberID      string
	ExcludeGhosts bool
	Visibility    string
	Status        string
	Limit         int
}

// OwnedRow is a ledger row joined with its ownership mapping. MemberID
// and OwnerKind are empty when no mapping exists yet.
type OwnedRow struct {
	Row
	MemberID  string
	OwnerKind string
}

// Repository is the storage port for sport ledgers. Upserts key on
// (platform, season, league_id, team_id); first_seen_at survives
// re-ingest untouched.
type Repository interface {
	UpsertRows(ctx context.Context, charCode string, rows []Row) (int, error)
	Query(ctx context.Context, q Query) ([]OwnedRow, error)
}
