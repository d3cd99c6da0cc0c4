package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/snapshot"
	"github.com/fortifiedfantasy/fein-engine/internal/usecase"
)

type leagueHeaderDTO struct {
	Platform        string `json:"platform"`
	Season          int    `json:"season"`
	LeagueID        string `json:"leagueId"`
	Sport           string `json:"sport"`
	Name            string `json:"name"`
	Size            int    `json:"size"`
	Logo            string `json:"logo,omitempty"`
	ScoringPeriodID int    `json:"scoringPeriodId"`
	InSeason        bool   `json:"inSeason"`
	IsLive          bool   `json:"isLive"`
}

type teamRowDTO struct {
	SID          string            `json:"sid"`
	Platform     string            `json:"platform"`
	Season       int               `json:"season"`
	LeagueID     string            `json:"leagueId"`
	TeamID       string            `json:"teamId"`
	Sport        string            `json:"sport"`
	LeagueName   string            `json:"leagueName"`
	LeagueSize   int               `json:"leagueSize"`
	TeamName     string            `json:"teamName"`
	TeamAbbrev   string            `json:"teamAbbrev,omitempty"`
	TeamLogo     string            `json:"teamLogo,omitempty"`
	OwnerName    string            `json:"ownerName,omitempty"`
	OwnerGUIDs   []string          `json:"ownerGuids,omitempty"`
	MemberID     string            `json:"memberId,omitempty"`
	OwnerKind    string            `json:"ownerKind,omitempty"`
	FantasyURLs  map[string]string `json:"fantasyUrls,omitempty"`
	Visibility   string            `json:"visibility,omitempty"`
	Status       string            `json:"status,omitempty"`
	SourceHash   string            `json:"sourceHash,omitempty"`
	InSeason     bool              `json:"inSeason"`
	IsLive       bool              `json:"isLive"`
	LastSyncedAt time.Time         `json:"lastSyncedAt"`
}

type leagueTeamsResponse struct {
	OK     bool            `json:"ok"`
	League leagueHeaderDTO `json:"league"`
	Count  int             `json:"count"`
	Teams  []teamRowDTO    `json:"teams"`
}

// LeagueTeams fetches one league live from its platform and returns the
// normalized teams without touching storage. ESPN reads require a token
// pair; sleeper is public.
func (h *Handler) LeagueTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LeagueTeams")
	defer span.End()

	q := r.URL.Query()
	season, err := parseIntParam(q.Get("season"), "season")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.LiveLeagueInput{
		Platform: q.Get("platform"),
		Sport:    q.Get("sport"),
		Season:   season,
		LeagueID: q.Get("leagueId"),
	}

	if snapshot.NormalizePlatform(input.Platform) != snapshot.PlatformSleeper {
		token, err := h.tokenForRequest(ctx, w, r)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		input.Token = token
		h.credentials.Remember(ctx, token, h.memberFromRequest(ctx, r), "teams")
	}

	league, rows, err := h.teams.LiveLeague(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "live league fetch failed",
			"platform", input.Platform,
			"league_id", input.LeagueID,
			"season", input.Season,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	teams := make([]teamRowDTO, 0, len(rows))
	for _, row := range rows {
		teams = append(teams, rowToDTO(row))
	}

	writeJSON(ctx, w, http.StatusOK, leagueTeamsResponse{
		OK:     true,
		League: leagueToDTO(league),
		Count:  len(teams),
		Teams:  teams,
	})
}

type poolTeamsResponse struct {
	OK    bool         `json:"ok"`
	Count int          `json:"count"`
	Teams []teamRowDTO `json:"teams"`
}

// PoolTeams lists persisted ledger rows joined to ownership. Every
// filter is opt-in; an unfiltered call pages through the whole sport
// ledger and an empty match is a 200 with count zero.
func (h *Handler) PoolTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PoolTeams")
	defer span.End()

	q := r.URL.Query()
	season, err := parseIntParam(q.Get("season"), "season")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	limit, err := parseIntParam(q.Get("limit"), "limit")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.TeamQueryInput{
		Sport:         q.Get("sport"),
		Platform:      q.Get("platform"),
		Season:        season,
		LeagueID:      q.Get("leagueId"),
		OnlyMine:      parseBoolParam(q.Get("onlyMine")),
		ExcludeGhosts: parseBoolParam(q.Get("excludeGhosts")),
		Visibility:    q.Get("visibility"),
		Status:        q.Get("status"),
		Limit:         limit,
	}
	if input.OnlyMine {
		input.MemberID = h.memberFromRequest(ctx, r)
	}

	rows, err := h.teams.Teams(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "pool teams query failed",
			"sport", input.Sport,
			"season", input.Season,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	h.hydrateProviderCookies(ctx, w, r)

	teams := make([]teamRowDTO, 0, len(rows))
	for _, row := range rows {
		teams = append(teams, ownedRowToDTO(row))
	}

	writeJSON(ctx, w, http.StatusOK, poolTeamsResponse{
		OK:    true,
		Count: len(teams),
		Teams: teams,
	})
}

func leagueToDTO(league snapshot.League) leagueHeaderDTO {
	return leagueHeaderDTO{
		Platform:        league.Platform,
		Season:          league.Season,
		LeagueID:        league.LeagueID,
		Sport:           league.CharCode,
		Name:            league.Name,
		Size:            league.Size,
		Logo:            league.Logo,
		ScoringPeriodID: league.ScoringPeriodID,
		InSeason:        league.InSeason,
		IsLive:          league.IsLive,
	}
}

func rowToDTO(row snapshot.Row) teamRowDTO {
	return teamRowDTO{
		SID:          row.SID,
		Platform:     row.Platform,
		Season:       row.Season,
		LeagueID:     row.LeagueID,
		TeamID:       row.TeamID,
		Sport:        row.CharCode,
		LeagueName:   row.LeagueName,
		LeagueSize:   row.LeagueSize,
		TeamName:     row.TeamName,
		TeamAbbrev:   row.TeamAbbrev,
		TeamLogo:     row.TeamLogo,
		OwnerName:    row.OwnerName,
		OwnerGUIDs:   row.OwnerGUIDs,
		FantasyURLs:  row.FantasyURLs,
		Visibility:   row.Visibility,
		Status:       row.Status,
		SourceHash:   row.SourceHash,
		InSeason:     row.InSeason,
		IsLive:       row.IsLive,
		LastSyncedAt: row.LastSyncedAt,
	}
}

func ownedRowToDTO(row snapshot.OwnedRow) teamRowDTO {
	dto := rowToDTO(row.Row)
	dto.MemberID = row.MemberID
	dto.OwnerKind = row.OwnerKind
	return dto
}

func parseIntParam(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, name)
	}
	return value, nil
}

func parseBoolParam(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
