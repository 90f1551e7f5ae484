package monitor

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hausnet/knxnetip/address"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/groups", s.handleListGroups)
		r.Get("/groups/*", s.handleGetGroup)
		r.Get("/stream", s.handleStream)
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleListGroups(w http.ResponseWriter, _ *http.Request) {
	entries := s.cache.All()
	snapshots := make([]groupSnapshot, 0, len(entries))
	for ga, e := range entries {
		snapshots = append(snapshots, toGroupSnapshot(ga, e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": snapshots})
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	ga, err := address.ParseGroupAddress(chi.URLParam(r, "*"))
	if err != nil {
		writeNotFound(w, "invalid group address")
		return
	}
	entry, err := s.cache.Get(ga)
	if err != nil {
		writeNotFound(w, "group address not configured")
		return
	}
	writeJSON(w, http.StatusOK, toGroupSnapshot(ga, entry))
}
