package teamowner

import "context"

// Repository is the storage port for team-to-member mappings.
//
// AllocateGhost mints the next GHOST### identity inside the league
// scope and inserts the mapping in one transaction. When the team
// already has a mapping the existing one is returned untouched, so a
// lost allocation race degrades to a read.
type Repository interface {
	Get(ctx context.Context, platform string, season int, leagueID, teamID string) (Mapping, bool, error)
	ListByLeague(ctx context.Context, platform string, season int, leagueID string) ([]Mapping, error)
	Upsert(ctx context.Context, mapping Mapping) (Mapping, error)
	AllocateGhost(ctx context.Context, mapping Mapping) (Mapping, error)
}
