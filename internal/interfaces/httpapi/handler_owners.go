package httpapi

import (
	"net/http"
	"time"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/teamowner"
)

type ownerMappingDTO struct {
	Platform   string    `json:"platform"`
	Season     int       `json:"season"`
	LeagueID   string    `json:"leagueId"`
	TeamID     string    `json:"teamId"`
	MemberID   string    `json:"memberId"`
	OwnerKind  string    `json:"ownerKind"`
	OwnerGUIDs []string  `json:"ownerGuids,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type ownersResponse struct {
	OK     bool              `json:"ok"`
	Count  int               `json:"count"`
	Owners []ownerMappingDTO `json:"owners"`
}

// Owners returns the ownership map for one league, ghosts included,
// ordered by numeric team id.
func (h *Handler) Owners(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Owners")
	defer span.End()

	q := r.URL.Query()
	season, err := parseIntParam(q.Get("season"), "season")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	mappings, err := h.owners.List(ctx, q.Get("platform"), season, q.Get("leagueId"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	owners := make([]ownerMappingDTO, 0, len(mappings))
	for _, mapping := range mappings {
		owners = append(owners, mappingToDTO(mapping))
	}

	writeJSON(ctx, w, http.StatusOK, ownersResponse{
		OK:     true,
		Count:  len(owners),
		Owners: owners,
	})
}

func mappingToDTO(mapping teamowner.Mapping) ownerMappingDTO {
	return ownerMappingDTO{
		Platform:   mapping.Platform,
		Season:     mapping.Season,
		LeagueID:   mapping.LeagueID,
		TeamID:     mapping.TeamID,
		MemberID:   mapping.MemberID,
		OwnerKind:  mapping.OwnerKind,
		OwnerGUIDs: mapping.OwnerGUIDs,
		UpdatedAt:  mapping.UpdatedAt,
	}
}
