package httpapi

import (
	"net/http"

	"github.com/fortifiedfantasy/fein-engine/internal/usecase"
)

type ingestRequest struct {
	Platform string `json:"platform"`
	Sport    string `json:"sport"`
	Season   int    `json:"season" validate:"required,gt=0"`
	LeagueID string `json:"leagueId" validate:"required"`
	TeamID   string `json:"teamId"`
	Ref      string `json:"ref"`
}

type ingestResponse struct {
	OK bool `json:"ok"`
	usecase.IngestResult
}

// GhostIngest runs the full orchestrated ingest inline: seed league,
// owner resolution, discovery fan-out, rollups. Partial failures come
// back as per-tuple reasons on a 200, never as a batch abort.
func (h *Handler) GhostIngest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GhostIngest")
	defer span.End()

	var req ingestRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	token, err := h.tokenForRequest(ctx, w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	// An ingest touching the vault refreshes last_seen and can claim a
	// ghost binding for the caller.
	h.credentials.Remember(ctx, token, h.memberFromRequest(ctx, r), req.Ref)

	result, err := h.ingest.Ingest(ctx, usecase.IngestInput{
		Platform: req.Platform,
		Sport:    req.Sport,
		Season:   req.Season,
		LeagueID: req.LeagueID,
		TeamID:   req.TeamID,
		Token:    token,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "ingest failed",
			"league_id", req.LeagueID,
			"season", req.Season,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "ingest finished",
		"league_id", result.LeagueID,
		"season", result.Season,
		"sport", result.Sport,
		"row_count", result.RowCount,
		"duration_ms", result.DurationMs,
	)

	writeJSON(ctx, w, http.StatusOK, ingestResponse{OK: true, IngestResult: result})
}

type queuedIngestResponse struct {
	OK     bool   `json:"ok"`
	Queued bool   `json:"queued"`
	JobID  string `json:"jobId"`
}

// QueueIngest validates the same request as GhostIngest, defers the run
// to the background dispatcher and answers 202 with the job id.
func (h *Handler) QueueIngest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.QueueIngest")
	defer span.End()

	var req ingestRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	token, err := h.tokenForRequest(ctx, w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	h.credentials.Remember(ctx, token, h.memberFromRequest(ctx, r), req.Ref)

	jobID, err := h.ingest.Queue(ctx, usecase.IngestInput{
		Platform: req.Platform,
		Sport:    req.Sport,
		Season:   req.Season,
		LeagueID: req.LeagueID,
		TeamID:   req.TeamID,
		Token:    token,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "ingest enqueue failed",
			"league_id", req.LeagueID,
			"season", req.Season,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusAccepted, queuedIngestResponse{OK: true, Queued: true, JobID: jobID})
}
