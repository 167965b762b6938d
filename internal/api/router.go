package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter mounts every route under /api/v1.
//
//	GET  /health /stats /levels /levels/{module} /default-level   open
//	GET  /ws                                                      token or ticket
//	PUT  /levels/{module} /default-level                          token
//	POST /levels/save /levels/reload /auth/ws-ticket              token
//
// Tokens are only checked when security.jwt.secret is set.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestMiddleware, s.recoveryMiddleware, s.corsMiddleware, s.limitBody)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Get("/levels", s.handleListLevels)
		r.Get("/levels/{module}", s.handleGetLevel)
		r.Get("/default-level", s.handleGetDefaultLevel)
		r.Get("/ws", s.handleWebSocket)

		r.With(s.authMiddleware).Group(func(r chi.Router) {
			r.Put("/levels/{module}", s.handleSetLevel)
			r.Put("/default-level", s.handleSetDefaultLevel)
			r.Post("/levels/save", s.handleSaveLevels)
			r.Post("/levels/reload", s.handleReloadLevels)
			r.Post("/auth/ws-ticket", s.handleWSTicket)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"clients": s.hub.ClientCount(),
	})
}
