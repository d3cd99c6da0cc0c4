package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fortifiedfantasy/fein-engine/internal/usecase"
)

type linkRequest struct {
	SWID string `json:"swid" validate:"required"`
	S2   string `json:"s2" validate:"required"`
	Ref  string `json:"ref"`
	To   string `json:"to"`
}

type linkResponse struct {
	OK     bool `json:"ok"`
	Linked bool `json:"linked"`
}

// Link vaults a provider token pair and mirrors it onto first-party
// cookies. Browser flows land here via GET with query parameters and
// leave through a redirect; API callers POST JSON and get the envelope.
func (h *Handler) Link(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Link")
	defer span.End()

	req, err := h.linkRequestFrom(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	memberID := h.memberFromRequest(ctx, r)
	saved, err := h.credentials.Link(ctx, usecase.LinkCredentialInput{
		SWID:     req.SWID,
		S2:       req.S2,
		MemberID: memberID,
		Ref:      req.Ref,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "credential link failed",
			"ref", req.Ref,
			"client_ip", resolveClientIP(ctx, r),
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	setProviderCookies(w, saved.Token(), h.cookies)

	h.logger.InfoContext(ctx, "credential linked",
		"member_id", saved.MemberID,
		"ref", req.Ref,
		"client_ip", resolveClientIP(ctx, r),
		"client_country", resolveCountryCode(ctx, r),
	)

	if r.Method == http.MethodGet || strings.TrimSpace(req.To) != "" {
		http.Redirect(w, r, safeRedirectTarget(r, req.To, h.cookies.redirectFallback()), http.StatusFound)
		return
	}

	writeJSON(ctx, w, http.StatusOK, linkResponse{OK: true, Linked: saved.HasMember()})
}

// linkRequestFrom accepts the pair as a JSON body or as query/form
// values, so the provider-side bookmarklet and plain API clients share
// one endpoint.
func (h *Handler) linkRequestFrom(r *http.Request) (linkRequest, error) {
	if r.Method == http.MethodPost && strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var req linkRequest
		if err := h.decodeJSON(r, &req); err != nil {
			return linkRequest{}, err
		}
		return req, nil
	}

	return linkRequest{
		SWID: r.FormValue("swid"),
		S2:   r.FormValue("s2"),
		Ref:  r.FormValue("ref"),
		To:   r.FormValue("to"),
	}, nil
}

type credStatusResponse struct {
	OK         bool   `json:"ok"`
	HasCookies bool   `json:"hasCookies"`
	SwidSource string `json:"swidSource,omitempty"`
}

// CredStatus reports whether the request carries a usable token pair.
// A member with a vaulted credential but no cookies gets the pair
// replayed onto the response; hydration failures are logged, never
// surfaced.
func (h *Handler) CredStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CredStatus")
	defer span.End()

	token, source := credentialFromRequest(r)
	memberID := h.memberFromRequest(ctx, r)

	switch {
	case token.IsZero() && memberID != "":
		stored, err := h.credentials.TokenForMember(ctx, memberID)
		if err != nil {
			if !errors.Is(err, usecase.ErrMissingCredential) && !errors.Is(err, usecase.ErrInvalidInput) {
				h.logger.WarnContext(ctx, "cookie hydration failed", "error", err)
			}
			break
		}
		setProviderCookies(w, stored, h.cookies)
		token, source = stored, "vault"
	case !token.IsZero():
		// Passing tokens refresh last_seen and may claim a ghost
		// binding; Remember never blocks the probe.
		h.credentials.Remember(ctx, token, memberID, "cred-probe")
	}

	writeJSON(ctx, w, http.StatusOK, credStatusResponse{
		OK:         true,
		HasCookies: !token.IsZero(),
		SwidSource: source,
	})
}
