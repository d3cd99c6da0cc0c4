package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/credential"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/session"
	"github.com/fortifiedfantasy/fein-engine/internal/infrastructure/jobqueue"
	"github.com/fortifiedfantasy/fein-engine/internal/infrastructure/repository/memory"
	"github.com/fortifiedfantasy/fein-engine/internal/platform/logging"
	"github.com/fortifiedfantasy/fein-engine/internal/usecase"
)

type stubProvider struct {
	league          func(ctx context.Context, sport string, season int, leagueID string, token credential.Token) (map[string]any, error)
	leaguesForOwner func(ctx context.Context, sport string, season int, ownerGUID string, token credential.Token, conditional http.Header) ([]map[string]any, error)
}

func (s *stubProvider) League(ctx context.Context, sport string, season int, leagueID string, token credential.Token) (map[string]any, error) {
	return s.league(ctx, sport, season, leagueID, token)
}

func (s *stubProvider) LeaguesForOwner(ctx context.Context, sport string, season int, ownerGUID string, token credential.Token, conditional http.Header) ([]map[string]any, error) {
	if s.leaguesForOwner == nil {
		return nil, nil
	}
	return s.leaguesForOwner(ctx, sport, season, ownerGUID, token, conditional)
}

func (s *stubProvider) Fan(context.Context, string, credential.Token) (map[string]any, error) {
	return nil, nil
}

func founderLeagueBundle() map[string]any {
	return map[string]any{
		"id":              "L1",
		"scoringPeriodId": float64(3),
		"status":          map[string]any{"isActive": true, "currentMatchupPeriod": float64(3)},
		"settings":        map[string]any{"name": "Founders League", "size": float64(2)},
		"members": []any{
			map[string]any{"id": "{GUID-A}", "displayName": "Alpha"},
			map[string]any{"id": "{GUID-B}", "displayName": "Bravo"},
		},
		"teams": []any{
			map[string]any{
				"id": float64(1), "name": "Team One", "abbrev": "ONE",
				"owners": []any{"{GUID-A}"}, "primaryOwner": "{GUID-A}",
			},
			map[string]any{
				"id": float64(2), "name": "Team Two", "abbrev": "TWO",
				"owners": []any{"{GUID-B}"}, "primaryOwner": "{GUID-B}",
			},
		},
	}
}

type apiHarness struct {
	vault      *memory.CredentialRepository
	owners     *memory.TeamOwnerRepository
	snapshots  *memory.SnapshotRepository
	sessions   *memory.SessionRepository
	router     http.Handler
	dispatcher *jobqueue.Dispatcher
}

// newAPIHarness wires the full router over in-memory storage and a
// provider that only knows league L1 of ffl 2025. Session sess-1
// belongs to member M1.
func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	h := &apiHarness{
		vault:    memory.NewCredentialRepository(),
		owners:   memory.NewTeamOwnerRepository(),
		sessions: memory.NewSessionRepository(),
	}
	h.snapshots = memory.NewSnapshotRepository(h.owners)
	catalogRepo := memory.NewSportCatalogRepository(h.snapshots)

	if err := h.sessions.Create(context.Background(), session.Session{
		SessionID: "sess-1",
		MemberID:  "M1",
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	provider := &stubProvider{
		league: func(_ context.Context, sport string, season int, leagueID string, token credential.Token) (map[string]any, error) {
			if token.IsZero() {
				return nil, fmt.Errorf("no token offered")
			}
			if sport == "ffl" && season == 2025 && leagueID == "L1" {
				return founderLeagueBundle(), nil
			}
			return nil, fmt.Errorf("no such league %s/%d/%s", sport, season, leagueID)
		},
	}

	logger := logging.NewNop()

	dispatcher, err := jobqueue.NewDispatcher(jobqueue.DispatcherConfig{Workers: 1}, nil, logger)
	if err != nil {
		t.Fatalf("create dispatcher: %v", err)
	}
	h.dispatcher = dispatcher
	t.Cleanup(dispatcher.Close)

	credentials := usecase.NewCredentialService(h.vault, logger)
	ownerSvc := usecase.NewOwnerService(h.vault, h.owners, logger)
	discovery := usecase.NewDiscoveryService(provider, usecase.DiscoveryConfig{Workers: 1, SeasonWindow: 2}, logger)
	catalog := usecase.NewCatalogService(catalogRepo)
	ingest := usecase.NewIngestService(provider, ownerSvc, discovery, catalog, h.snapshots, dispatcher, usecase.IngestConfig{Workers: 2}, logger)
	teams := usecase.NewTeamQueryService(provider, nil, h.snapshots, logger)
	sessionSvc := usecase.NewSessionService(h.sessions, logger)

	handler := NewHandler(credentials, ingest, ownerSvc, teams, catalog, sessionSvc, CookieConfig{Secure: true}, logger)
	h.router = NewRouter(handler, logger, true, nil, "job-token")
	return h
}

func (h *apiHarness) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body %q: %v", rec.Body.String(), err)
	}
	return body
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func withProviderHeaders(req *http.Request) *http.Request {
	req.Header.Set("X-Provider-SWID", "{GUID-A}")
	req.Header.Set("X-Provider-S2", "s2-material")
	return req
}

func TestRouter_LinkThenCredRoundTrip(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/api/link", strings.NewReader(`{"swid":"{AAA-BBB-CCC}","s2":"xyz","ref":"bookmarklet"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "sess-1"})
	rec := h.do(t, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("link status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["ok"] != true || body["linked"] != true {
		t.Fatalf("unexpected link envelope: %v", body)
	}

	swidCookie := cookieByName(rec, "SWID")
	if swidCookie == nil {
		t.Fatalf("expected SWID cookie on link response")
	}
	if swidCookie.Value != "{AAA-BBB-CCC}" {
		t.Fatalf("SWID cookie = %q, want raw braced guid", swidCookie.Value)
	}
	if !swidCookie.HttpOnly || !swidCookie.Secure || swidCookie.Path != "/" {
		t.Fatalf("SWID cookie attributes wrong: %+v", swidCookie)
	}
	if swidCookie.MaxAge < 360*24*60*60 {
		t.Fatalf("SWID cookie max age = %d, want about a year", swidCookie.MaxAge)
	}

	s2Cookie := cookieByName(rec, "s2")
	if s2Cookie == nil || s2Cookie.Value != "xyz" {
		t.Fatalf("s2 cookie = %+v, want value xyz", s2Cookie)
	}

	marker := cookieByName(rec, "has_provider")
	if marker == nil || marker.Value != "1" {
		t.Fatalf("has_provider cookie = %+v, want value 1", marker)
	}
	if marker.HttpOnly {
		t.Fatalf("has_provider must stay readable by the front-end")
	}

	stored, exists, err := h.vault.FindBySWID(context.Background(), "{AAA-BBB-CCC}")
	if err != nil || !exists {
		t.Fatalf("vault lookup after link: exists=%v err=%v", exists, err)
	}
	if stored.MemberID != "M1" {
		t.Fatalf("stored member = %q, want M1", stored.MemberID)
	}

	probe := httptest.NewRequest(http.MethodGet, "/api/cred", nil)
	probe.AddCookie(&http.Cookie{Name: "SWID", Value: "{AAA-BBB-CCC}"})
	probe.AddCookie(&http.Cookie{Name: "s2", Value: "xyz"})
	rec = h.do(t, probe)

	if rec.Code != http.StatusOK {
		t.Fatalf("cred status = %d", rec.Code)
	}
	body = decodeBody(t, rec)
	if body["hasCookies"] != true || body["swidSource"] != "cookie" {
		t.Fatalf("unexpected cred envelope: %v", body)
	}
}

func TestRouter_LinkRedirects(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)

	tests := []struct {
		name string
		to   string
		want string
	}{
		{name: "relative path allowed", to: "/dashboard", want: "/dashboard"},
		{name: "same host allowed", to: "http://example.com/after", want: "http://example.com/after"},
		{name: "foreign host falls back", to: "https://evil.example.net/phish", want: "/fein"},
		{name: "scheme relative falls back", to: "//evil.example.net/phish", want: "/fein"},
		{name: "empty target falls back", to: "", want: "/fein"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/api/link?swid=%7BAAA-BBB-CCC%7D&s2=xyz"
			if tt.to != "" {
				target += "&to=" + strings.ReplaceAll(tt.to, "/", "%2F")
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			rec := h.do(t, req)

			if rec.Code != http.StatusFound {
				t.Fatalf("status = %d, want 302; body %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Location"); got != tt.want {
				t.Fatalf("Location = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRouter_LinkRejectsMissingFields(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/api/link", strings.NewReader(`{"swid":"{AAA}"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := h.do(t, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["ok"] != false {
		t.Fatalf("expected ok=false envelope, got %v", body)
	}
}

func TestRouter_CredHydratesFromVault(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	ctx := context.Background()

	if _, err := h.vault.Save(ctx, credential.SaveInput{SWID: "{AAA-BBB-CCC}", S2: "stored-s2", MemberID: "M1"}); err != nil {
		t.Fatalf("seed credential: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/cred", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "sess-1"})
	rec := h.do(t, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["hasCookies"] != true || body["swidSource"] != "vault" {
		t.Fatalf("unexpected envelope after hydration: %v", body)
	}

	if c := cookieByName(rec, "SWID"); c == nil || c.Value != "{AAA-BBB-CCC}" {
		t.Fatalf("expected hydrated SWID cookie, got %+v", c)
	}
	if c := cookieByName(rec, "s2"); c == nil || c.Value != "stored-s2" {
		t.Fatalf("expected hydrated s2 cookie, got %+v", c)
	}
}

func TestRouter_CredWithoutAnythingIsStillOK(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)

	rec := h.do(t, httptest.NewRequest(http.MethodGet, "/api/cred", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["hasCookies"] != false {
		t.Fatalf("expected hasCookies=false, got %v", body)
	}
}

func TestRouter_TeamsWithoutCredentialIs401(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)

	rec := h.do(t, httptest.NewRequest(http.MethodGet, "/api/teams?season=2025&leagueId=L1", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["ok"] != false {
		t.Fatalf("expected ok=false, got %v", body)
	}
	if got, _ := body["link"].(string); got != "/api/link" {
		t.Fatalf("expected link hint, got %q", got)
	}
}

func TestRouter_TeamsLiveFetch(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)

	req := withProviderHeaders(httptest.NewRequest(http.MethodGet, "/api/teams?season=2025&leagueId=L1", nil))
	rec := h.do(t, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(2) {
		t.Fatalf("count = %v, want 2", body["count"])
	}
	league, _ := body["league"].(map[string]any)
	if league["name"] != "Founders League" || league["isLive"] != true {
		t.Fatalf("unexpected league header: %v", league)
	}

	teams, _ := body["teams"].([]any)
	if len(teams) != 2 {
		t.Fatalf("teams length = %d", len(teams))
	}
	first, _ := teams[0].(map[string]any)
	if first["sid"] == "" || first["teamId"] != "1" {
		t.Fatalf("unexpected first team row: %v", first)
	}
}

func TestRouter_GhostIngestBindsAndMints(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	ctx := context.Background()

	if _, err := h.vault.Save(ctx, credential.SaveInput{SWID: "{GUID-A}", S2: "s2-material", MemberID: "M1"}); err != nil {
		t.Fatalf("seed credential: %v", err)
	}

	runIngest := func() map[string]any {
		req := withProviderHeaders(httptest.NewRequest(http.MethodPost, "/api/ghost/ingest", strings.NewReader(`{"sport":"ffl","season":2025,"leagueId":"L1"}`)))
		req.Header.Set("Content-Type", "application/json")
		rec := h.do(t, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("ingest status = %d, body %s", rec.Code, rec.Body.String())
		}
		return decodeBody(t, rec)
	}

	body := runIngest()
	if body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body)
	}

	mapped, _ := body["mapped"].([]any)
	if len(mapped) != 2 {
		t.Fatalf("mapped length = %d, want 2", len(mapped))
	}
	byTeam := map[string]map[string]any{}
	for _, entry := range mapped {
		m, _ := entry.(map[string]any)
		byTeam[m["team_id"].(string)] = m
	}
	if byTeam["1"]["member_id"] != "M1" || byTeam["1"]["owner_kind"] != "real" {
		t.Fatalf("team 1 mapping = %v, want M1/real", byTeam["1"])
	}
	if byTeam["2"]["member_id"] != "GHOST001" || byTeam["2"]["owner_kind"] != "ghost" {
		t.Fatalf("team 2 mapping = %v, want GHOST001/ghost", byTeam["2"])
	}

	// A second pass reuses the minted ghost instead of minting GHOST002.
	body = runIngest()
	mapped, _ = body["mapped"].([]any)
	for _, entry := range mapped {
		m, _ := entry.(map[string]any)
		if m["team_id"] == "2" && m["member_id"] != "GHOST001" {
			t.Fatalf("re-ingest minted a new ghost: %v", m)
		}
	}

	rec := h.do(t, httptest.NewRequest(http.MethodGet, "/api/owners?platform=espn&season=2025&leagueId=L1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("owners status = %d", rec.Code)
	}
	ownersBody := decodeBody(t, rec)
	if ownersBody["count"] != float64(2) {
		t.Fatalf("owners count = %v, want 2", ownersBody["count"])
	}
}

func TestRouter_PoolTeamsFilters(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	ctx := context.Background()

	if _, err := h.vault.Save(ctx, credential.SaveInput{SWID: "{GUID-A}", S2: "s2-material", MemberID: "M1"}); err != nil {
		t.Fatalf("seed credential: %v", err)
	}

	req := withProviderHeaders(httptest.NewRequest(http.MethodPost, "/api/ghost/ingest", strings.NewReader(`{"sport":"ffl","season":2025,"leagueId":"L1"}`)))
	req.Header.Set("Content-Type", "application/json")
	if rec := h.do(t, req); rec.Code != http.StatusOK {
		t.Fatalf("seed ingest status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec := h.do(t, httptest.NewRequest(http.MethodGet, "/api/pp/teams?sport=ffl&season=2025", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("pool status = %d, body %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["count"] != float64(2) {
		t.Fatalf("unfiltered count = %v, want 2", body["count"])
	}

	mine := httptest.NewRequest(http.MethodGet, "/api/pp/teams?sport=ffl&season=2025&onlyMine=true", nil)
	mine.AddCookie(&http.Cookie{Name: session.CookieName, Value: "sess-1"})
	rec = h.do(t, mine)
	if rec.Code != http.StatusOK {
		t.Fatalf("onlyMine status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(1) {
		t.Fatalf("onlyMine count = %v, want 1", body["count"])
	}
	teams, _ := body["teams"].([]any)
	row, _ := teams[0].(map[string]any)
	if row["teamId"] != "1" || row["memberId"] != "M1" {
		t.Fatalf("onlyMine row = %v, want team 1 of M1", row)
	}

	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/api/pp/teams?sport=ffl&season=2025&excludeGhosts=true", nil))
	body = decodeBody(t, rec)
	if body["count"] != float64(1) {
		t.Fatalf("excludeGhosts count = %v, want 1", body["count"])
	}

	// onlyMine with no resolvable member is a 401, not an empty result.
	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/api/pp/teams?sport=ffl&season=2025&onlyMine=true", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous onlyMine status = %d, want 401", rec.Code)
	}
}

func TestRouter_PoolTeamsEmptyIsCountZero(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)

	rec := h.do(t, httptest.NewRequest(http.MethodGet, "/api/pp/teams?sport=ffl&season=1999", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for empty result", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(0) {
		t.Fatalf("count = %v, want 0", body["count"])
	}
}

func TestRouter_QueueIngestAccepted(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)

	req := withProviderHeaders(httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(`{"sport":"ffl","season":2025,"leagueId":"L1"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := h.do(t, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["ok"] != true || body["queued"] != true {
		t.Fatalf("unexpected queue envelope: %v", body)
	}
	if jobID, _ := body["jobId"].(string); jobID == "" {
		t.Fatalf("expected a job id, got %v", body["jobId"])
	}
}

func TestRouter_InternalRollupRequiresJobToken(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/api/internal/rollup", strings.NewReader(`{"sport":"ffl","season":2025}`))
	req.Header.Set("Content-Type", "application/json")
	if rec := h.do(t, req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/internal/rollup", strings.NewReader(`{"sport":"ffl","season":2025}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Job-Token", "job-token")
	rec := h.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status with token = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body)
	}
}

func TestRouter_HealthzAndDocs(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)

	rec := h.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["ok"] != true {
		t.Fatalf("unexpected healthz body: %v", body)
	}

	rec = h.do(t, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "openapi:") {
		t.Fatalf("openapi.yaml not served: status %d", rec.Code)
	}
}
