package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ewilliams-labs/crossfade/internal/core/domain"
)

type startSetRequest struct {
	UserID  string `json:"user_id"`
	Genre   string `json:"genre"`
	Country string `json:"country"`
}

type startSetResponse struct {
	SetID   string `json:"set_id"`
	UserID  string `json:"user_id"`
	Genre   string `json:"genre"`
	Country string `json:"country"`
}

// StartSet handles POST /sets
func (h *Handler) StartSet(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	// 1. Decode the Request Body
	var req startSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// 2. Validate Input
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	// 3. Call the Service
	sess, err := h.svc.StartSet(r.Context(), req.UserID, req.Genre, req.Country)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSession) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// 4. Respond
	writeJSON(w, http.StatusCreated, startSetResponse{
		SetID:   sess.SetID,
		UserID:  sess.UserID,
		Genre:   sess.Genre,
		Country: sess.Country,
	})
}

type commitTrackRequest struct {
	TrackID string `json:"track_id"`
}

type commitTrackResponse struct {
	Track      domain.Track            `json:"track"`
	Resolution domain.ResolutionStatus `json:"resolution"`
}

// CommitTrack handles POST /sets/{userID}/tracks
func (h *Handler) CommitTrack(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	userID := chi.URLParam(r, "userID")

	var req commitTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TrackID == "" {
		writeError(w, http.StatusBadRequest, "track_id is required")
		return
	}

	track, status, err := h.svc.CommitTrack(r.Context(), userID, req.TrackID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoActiveSet):
			writeError(w, http.StatusNotFound, "no active set: start a set first")
		case errors.Is(err, domain.ErrInvalidSession):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, commitTrackResponse{Track: track, Resolution: status})
}

// GetSetList handles GET /sets/{userID}/tracks
func (h *Handler) GetSetList(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	tracks := h.svc.SetList(r.Context(), userID)
	if tracks == nil {
		tracks = []domain.Track{}
	}
	writeJSON(w, http.StatusOK, tracks)
}

// SuggestNext handles GET /sets/{userID}/suggestions
func (h *Handler) SuggestNext(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	suggestions, err := h.svc.SuggestNext(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveSet) {
			writeError(w, http.StatusNotFound, "no active set: start a set first")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if suggestions == nil {
		suggestions = []domain.Track{}
	}
	writeJSON(w, http.StatusOK, suggestions)
}

// GetTrending handles GET /tracks?genre=&country=
// It returns the trending pool for a scope without touching session
// state.
func (h *Handler) GetTrending(w http.ResponseWriter, r *http.Request) {
	genre := r.URL.Query().Get("genre")
	country := r.URL.Query().Get("country")

	tracks := h.svc.Trending(r.Context(), genre, country)
	if tracks == nil {
		tracks = []domain.Track{}
	}
	writeJSON(w, http.StatusOK, tracks)
}
