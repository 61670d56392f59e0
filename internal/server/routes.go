package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/scrawlgg/scrawl-backend/internal"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(s.requestLogger)

	r.HandleFunc("/health", s.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/rooms", s.ListRoomsHandler).Methods(http.MethodGet)
	r.Handle("/ws", s.adapter)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORS.AllowedOrigins,
		AllowedMethods: s.cfg.CORS.AllowedMethods,
		AllowedHeaders: s.cfg.CORS.AllowedHeaders,
	})
	return c.Handler(r)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"durationMs", time.Since(start).Milliseconds(),
		)
	})
}

// HealthHandler reports process liveness and store reachability.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	status := http.StatusOK
	data := map[string]any{
		"status": "ok",
		"rooms":  s.engine.Registry().Count(),
	}
	if err := s.store.Health(r.Context()); err != nil {
		status = http.StatusServiceUnavailable
		data["status"] = "degraded"
		data["store"] = err.Error()
	}
	s.writeJSON(w, status, data, started)
}

// ListRoomsHandler lists joinable public rooms.
func (s *Server) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	s.writeJSON(w, http.StatusOK, s.engine.Registry().PublicRooms(), started)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any, started time.Time) {
	finished := time.Now()
	resp := internal.Response{
		StatusCode: status,
		StartedAt:  started.UnixMilli(),
		FinishedAt: finished.UnixMilli(),
		ElapsedMs:  finished.UnixMilli() - started.UnixMilli(),
		Data:       data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error("encode response failed", "err", err)
	}
}
