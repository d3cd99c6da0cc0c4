package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/credential"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/session"
	"github.com/fortifiedfantasy/fein-engine/internal/platform/logging"
	"github.com/fortifiedfantasy/fein-engine/internal/usecase"
)

type Handler struct {
	credentials *usecase.CredentialService
	ingest      *usecase.IngestService
	owners      *usecase.OwnerService
	teams       *usecase.TeamQueryService
	catalog     *usecase.CatalogService
	sessions    *usecase.SessionService
	cookies     CookieConfig
	logger      *logging.Logger
	validator   *validator.Validate
}

func NewHandler(
	credentials *usecase.CredentialService,
	ingest *usecase.IngestService,
	owners *usecase.OwnerService,
	teams *usecase.TeamQueryService,
	catalog *usecase.CatalogService,
	sessions *usecase.SessionService,
	cookies CookieConfig,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		credentials: credentials,
		ingest:      ingest,
		owners:      owners,
		teams:       teams,
		catalog:     catalog,
		sessions:    sessions,
		cookies:     cookies,
		logger:      logger,
		validator:   validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeJSON(ctx, w, http.StatusOK, map[string]any{"ok": true, "status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) decodeJSON(r *http.Request, target any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

// memberFromRequest resolves the caller to a member id. The session
// cookie is authoritative; the X-FF-Member header is accepted for
// trusted internal callers. Anonymous requests resolve to "".
func (h *Handler) memberFromRequest(ctx context.Context, r *http.Request) string {
	if memberID, ok := memberFromContext(ctx); ok {
		return memberID
	}

	if c, err := r.Cookie(session.CookieName); err == nil && h.sessions != nil {
		memberID, err := h.sessions.MemberForSession(ctx, c.Value)
		if err == nil {
			return memberID
		}
		if !errors.Is(err, usecase.ErrUnauthorized) {
			h.logger.WarnContext(ctx, "session lookup failed", "error", err)
		}
	}

	return strings.TrimSpace(r.Header.Get(headerMember))
}

// tokenForRequest extracts the provider token, falling back to the
// member's vaulted credential. A vault hit is mirrored onto response
// cookies so later requests carry it first-party (hydration hook).
func (h *Handler) tokenForRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) (credential.Token, error) {
	token, _ := credentialFromRequest(r)
	if !token.IsZero() {
		return token, nil
	}

	memberID := h.memberFromRequest(ctx, r)
	if memberID == "" || h.credentials == nil {
		return credential.Token{}, fmt.Errorf("%w: no provider token on request", usecase.ErrMissingCredential)
	}

	stored, err := h.credentials.TokenForMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			// Ghost callers cannot hold tokens; report it as missing.
			return credential.Token{}, fmt.Errorf("%w: no provider token resolvable for caller", usecase.ErrMissingCredential)
		}
		return credential.Token{}, err
	}

	setProviderCookies(w, stored, h.cookies)
	return stored, nil
}

// hydrateProviderCookies replays a member's vaulted pair onto the
// response when the request carried no token. Best-effort: failures are
// logged and the read proceeds unchanged.
func (h *Handler) hydrateProviderCookies(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if token, _ := credentialFromRequest(r); !token.IsZero() {
		return
	}
	memberID := h.memberFromRequest(ctx, r)
	if memberID == "" {
		return
	}

	stored, err := h.credentials.TokenForMember(ctx, memberID)
	if err != nil {
		if !errors.Is(err, usecase.ErrMissingCredential) && !errors.Is(err, usecase.ErrInvalidInput) {
			h.logger.WarnContext(ctx, "cookie hydration failed", "error", err)
		}
		return
	}

	setProviderCookies(w, stored, h.cookies)
}
