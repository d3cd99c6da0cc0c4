package httpapi

import (
	"net/http"
	"time"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/sportcatalog"
)

type sportRollupDTO struct {
	Season            int       `json:"season"`
	TotalCount        int       `json:"totalCount"`
	UniqueSIDCount    int       `json:"uniqueSidCount"`
	UniqueMemberCount int       `json:"uniqueMemberCount"`
	RefreshedAt       time.Time `json:"refreshedAt"`
}

type sportCatalogDTO struct {
	Sport   string           `json:"sport"`
	NumCode int              `json:"numCode"`
	Seasons []sportRollupDTO `json:"seasons"`
}

type sportsResponse struct {
	OK     bool              `json:"ok"`
	Count  int               `json:"count"`
	Sports []sportCatalogDTO `json:"sports"`
}

// Sports lists the registered sport ledgers with their per-season
// rollup counts. Serves the dashboard's quick-counts view without
// touching the ledger tables.
func (h *Handler) Sports(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Sports")
	defer span.End()

	codes, err := h.catalog.Codes(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	sports := make([]sportCatalogDTO, 0, len(codes))
	for _, code := range codes {
		rollups, err := h.catalog.Rollups(ctx, code.CharCode)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		seasons := make([]sportRollupDTO, 0, len(rollups))
		for _, entry := range rollups {
			seasons = append(seasons, rollupToDTO(entry))
		}
		sports = append(sports, sportCatalogDTO{
			Sport:   code.CharCode,
			NumCode: code.NumCode,
			Seasons: seasons,
		})
	}

	writeJSON(ctx, w, http.StatusOK, sportsResponse{
		OK:     true,
		Count:  len(sports),
		Sports: sports,
	})
}

type rollupRefreshRequest struct {
	Sport  string `json:"sport" validate:"required"`
	Season int    `json:"season" validate:"required,gt=0"`
}

type rollupRefreshResponse struct {
	OK     bool           `json:"ok"`
	Rollup sportRollupDTO `json:"rollup"`
}

// RollupRefresh recomputes one (sport, season) rollup on demand.
// Internal maintenance endpoint; ingest refreshes the same counters on
// its own after every run.
func (h *Handler) RollupRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RollupRefresh")
	defer span.End()

	var req rollupRefreshRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	entry, err := h.catalog.RefreshRollup(ctx, req.Sport, req.Season)
	if err != nil {
		h.logger.WarnContext(ctx, "rollup refresh failed",
			"sport", req.Sport,
			"season", req.Season,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, rollupRefreshResponse{OK: true, Rollup: rollupToDTO(entry)})
}

func rollupToDTO(entry sportcatalog.Entry) sportRollupDTO {
	return sportRollupDTO{
		Season:            entry.Season,
		TotalCount:        entry.TotalCount,
		UniqueSIDCount:    entry.UniqueSIDCount,
		UniqueMemberCount: entry.UniqueMemberCount,
		RefreshedAt:       entry.RefreshedAt,
	}
}
