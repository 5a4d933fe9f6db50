package controllers

import (
	"errors"
	"net/http"
	"time"
	"unifeed/internal/models"
	"unifeed/internal/providers"
	"unifeed/internal/services"

	json "github.com/goccy/go-json"
)

const (
	maxRequestBodySize = 1 << 20 // 1 MB

	HeaderViewerID   = "X-Viewer-ID"
	HeaderViewerRole = "X-Viewer-Role"
)

type ApiController struct {
	logger   providers.Logger
	sessions services.SessionManagerInterface
}

func NewApiController(logger providers.Logger, sessions services.SessionManagerInterface) *ApiController {
	return &ApiController{
		logger:   logger,
		sessions: sessions,
	}
}

type timelineResponse struct {
	Entries     []models.TimelineEntry `json:"entries"`
	AboveFold   int                    `json:"aboveFold"`
	RefreshedAt *time.Time             `json:"refreshedAt,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Retry bool   `json:"retry,omitempty"`
}

type ignoredResponse struct {
	Ignored bool `json:"ignored"`
}

type entryRequest struct {
	Ref      string `json:"ref"`
	Reaction string `json:"reaction,omitempty"`
	Text     string `json:"text,omitempty"`
}

func viewerFromRequest(r *http.Request) (models.Viewer, bool) {
	id := r.Header.Get(HeaderViewerID)
	if id == "" {
		return models.Viewer{}, false
	}
	role := models.Role(r.Header.Get(HeaderViewerRole))
	switch role {
	case models.RoleModerator, models.RoleAdmin:
	default:
		role = models.RoleUser
	}
	return models.Viewer{ID: id, Role: role}, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	gson, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

// openSession resolves the caller's session, writing the error response itself
// when it cannot.
func (ac *ApiController) openSession(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	viewer, ok := viewerFromRequest(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing " + HeaderViewerID})
		return nil, false
	}
	s, err := ac.sessions.Open(r.Context(), viewer)
	if err != nil {
		ac.logger.Errorf(providers.TypeApp, "Open session for %s: %v", viewer.ID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "session unavailable"})
		return nil, false
	}
	return s, true
}

func decodeEntryRequest(w http.ResponseWriter, r *http.Request) (entryRequest, models.EntryRef, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload entryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return payload, models.EntryRef{}, false
	}
	ref, err := models.ParseEntryRef(payload.Ref)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return payload, models.EntryRef{}, false
	}
	return payload, ref, true
}

// writeMutationResult maps coordinator outcomes onto HTTP statuses. A rejected
// write carries the one user-visible message for the failed action.
func (ac *ApiController) writeMutationResult(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, models.ErrConcurrentMutationIgnored):
		writeJSON(w, http.StatusAccepted, ignoredResponse{Ignored: true})
	case errors.Is(err, models.ErrEntryNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrInvalidReaction), errors.Is(err, models.ErrEmptyComment):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrMutationRejected):
		ac.logger.Warnf(providers.GetLogTypeByRequestType(r.Method), "%s: %v", r.URL.Path, err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		ac.logger.Errorf(providers.GetLogTypeByRequestType(r.Method), "%s: %v", r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (ac *ApiController) GetTimeline(w http.ResponseWriter, r *http.Request) {
	s, ok := ac.openSession(w, r)
	if !ok {
		return
	}
	resp := timelineResponse{
		Entries:   s.GetTimeline(),
		AboveFold: s.AboveFold(),
	}
	if at := s.LastRefreshed(); !at.IsZero() {
		resp.RefreshedAt = &at
	}
	writeJSON(w, http.StatusOK, resp)
}

func (ac *ApiController) Refresh(w http.ResponseWriter, r *http.Request) {
	s, ok := ac.openSession(w, r)
	if !ok {
		return
	}
	err := s.Refresh(r.Context())
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, models.ErrFeedUnavailable):
		ac.logger.Warnf(providers.TypePost, "Refresh for %s: %v", s.Viewer().ID, err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "feed unavailable", Retry: true})
	default:
		ac.logger.Errorf(providers.TypePost, "Refresh for %s: %v", s.Viewer().ID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// mutate resolves the session and the target entry, then runs action.
func (ac *ApiController) mutate(w http.ResponseWriter, r *http.Request, action func(s *services.Session, payload entryRequest, ref models.EntryRef) error) {
	s, ok := ac.openSession(w, r)
	if !ok {
		return
	}
	payload, ref, ok := decodeEntryRequest(w, r)
	if !ok {
		return
	}
	ac.writeMutationResult(w, r, action(s, payload, ref))
}

func (ac *ApiController) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	ac.mutate(w, r, func(s *services.Session, payload entryRequest, ref models.EntryRef) error {
		return s.ToggleReaction(r.Context(), ref, models.ReactionType(payload.Reaction))
	})
}

func (ac *ApiController) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	ac.mutate(w, r, func(s *services.Session, _ entryRequest, ref models.EntryRef) error {
		return s.ToggleBookmark(r.Context(), ref)
	})
}

func (ac *ApiController) AddComment(w http.ResponseWriter, r *http.Request) {
	ac.mutate(w, r, func(s *services.Session, payload entryRequest, ref models.EntryRef) error {
		return s.AddComment(r.Context(), ref, payload.Text)
	})
}

func (ac *ApiController) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	ac.mutate(w, r, func(s *services.Session, _ entryRequest, ref models.EntryRef) error {
		return s.DeleteEntry(r.Context(), ref)
	})
}

func (ac *ApiController) CloseSession(w http.ResponseWriter, r *http.Request) {
	viewer, ok := viewerFromRequest(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing " + HeaderViewerID})
		return
	}
	ac.sessions.Close(viewer.ID)
	w.WriteHeader(http.StatusNoContent)
}
