// Package rest exposes the session query surface over HTTP.
package rest

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/crossfade/internal/core/services"
)

// Handler manages the HTTP interface for the application.
type Handler struct {
	svc    *services.SetService
	router chi.Router
	logger zerolog.Logger
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(svc *services.SetService, logger zerolog.Logger) *Handler {
	h := &Handler{
		svc:    svc,
		router: chi.NewRouter(),
		logger: logger.With().Str("component", "rest").Logger(),
	}

	h.router.Use(middleware.RequestID)
	h.router.Use(middleware.Recoverer)
	h.router.Use(h.requestLogger)

	h.routes()
	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	h.router.Get("/health", h.HealthCheck)
	h.router.Get("/tracks", h.GetTrending)
	h.router.Route("/sets", func(r chi.Router) {
		r.Post("/", h.StartSet)
		r.Get("/{userID}/tracks", h.GetSetList)
		r.Post("/{userID}/tracks", h.CommitTrack)
		r.Get("/{userID}/suggestions", h.SuggestNext)
	})
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one line per request with timing.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), "application/json")
}
