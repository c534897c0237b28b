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

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/seasons", handler.ListSeasons)
	mux.HandleFunc("GET /v1/conferences", handler.ListConferences)
	mux.HandleFunc("GET /v1/conferences/{conferenceID}", handler.GetConference)
	mux.HandleFunc("GET /v1/conferences/{conferenceID}/teams", handler.ListConferenceTeams)
	mux.HandleFunc("GET /v1/conferences/{conferenceID}/league", handler.GetConferenceLeague)
	mux.HandleFunc("GET /v1/players/{playerID}/status", handler.GetPlayerStatus)
	mux.HandleFunc("POST /v1/players/status/batch", handler.BatchPlayerStatus)
	mux.HandleFunc("POST /v1/rosters/refresh", handler.RefreshRosters)
	mux.HandleFunc("GET /v1/rosters/metrics", handler.RosterMetrics)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/refresh-rosters", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRefreshRostersJob)))
}
