package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerCredentialRoutes(mux *http.ServeMux, handler *Handler) {
	// GET /api/link serves the provider-side bookmarklet redirect flow.
	mux.HandleFunc("POST /api/link", handler.Link)
	mux.HandleFunc("GET /api/link", handler.Link)
	mux.HandleFunc("GET /api/cred", handler.CredStatus)
}

func registerLedgerRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/teams", handler.LeagueTeams)
	mux.HandleFunc("GET /api/pp/teams", handler.PoolTeams)
	mux.HandleFunc("GET /api/owners", handler.Owners)
	mux.HandleFunc("GET /api/sports", handler.Sports)
}

func registerIngestRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /api/ghost/ingest", handler.GhostIngest)
	mux.HandleFunc("POST /api/ingest", handler.QueueIngest)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /api/internal/rollup", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RollupRefresh)))
}
