package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/avorobjovs/tunepin/internal/server/models"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken      string     `json:"access_token"`
	AccessExpiresAt  time.Time  `json:"access_expires_at"`
	RefreshToken     string     `json:"refresh_token,omitempty"`
	RefreshExpiresAt *time.Time `json:"refresh_expires_at,omitempty"`
}

type addItemRequest struct {
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
}

type musicResponse struct {
	ID           string `json:"id"`
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	PinCount     int64  `json:"pin_count"`
	ListenCount  int64  `json:"listen_count"`
}

func toMusicResponse(item *models.MusicItem) musicResponse {
	return musicResponse{
		ID:           item.ID,
		ResourceType: string(item.ResourceType),
		ResourceID:   item.ResourceID,
		PinCount:     item.PinCount,
		ListenCount:  item.ListenCount,
	}
}

func toMusicListResponse(items []*models.MusicItem) []musicResponse {
	result := make([]musicResponse, 0, len(items))
	for _, item := range items {
		result = append(result, toMusicResponse(item))
	}
	return result
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "email and password are required")
		return
	}
	user, err := s.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Email: user.Email})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	// callers see themselves only; other IDs look like they do not exist
	if mux.Vars(r)["id"] != user.ID {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "not found")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: user.ID, Email: user.Email})
}

// handleCreateTokens exchanges HTTP Basic credentials for a token pair. The
// hot path reuses the caller's current access token.
func (s *Server) handleCreateTokens(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		writeUnauthorized(w)
		return
	}
	user, err := s.auth.VerifyPassword(r.Context(), email, password)
	if err != nil {
		s.logger.Error(r.Context(), "password verification failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}
	if user == nil {
		writeUnauthorized(w)
		return
	}
	s.issueTokens(w, r, user, false)
}

// handleRefreshTokens forces a full rotation; the presented refresh token and
// the current access token are revoked before the new pair is minted.
func (s *Server) handleRefreshTokens(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	s.issueTokens(w, r, user, true)
}

func (s *Server) issueTokens(w http.ResponseWriter, r *http.Request, user *models.User, force bool) {
	pair, err := s.auth.IssueTokens(r.Context(), user, force)
	if err != nil {
		s.logger.Error(r.Context(), "token issuance failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}
	resp := tokenResponse{
		AccessToken:     pair.Access.Value,
		AccessExpiresAt: pair.Access.Expires,
	}
	if pair.Refresh != nil {
		resp.RefreshToken = pair.Refresh.Value
		resp.RefreshExpiresAt = &pair.Refresh.Expires
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteTokens(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	if err := s.auth.RevokeCurrent(r.Context(), user); err != nil {
		s.logger.Error(r.Context(), "token revocation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDefaultList(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.DefaultList(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "default list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toMusicListResponse(items))
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	item, err := s.catalog.AddItem(r.Context(), models.ResourceType(req.ResourceType), req.ResourceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMusicResponse(item))
}

func (s *Server) handleListPinned(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	items, err := s.catalog.ListPinned(r.Context(), user.ID)
	if err != nil {
		s.logger.Error(r.Context(), "pinned list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toMusicListResponse(items))
}

func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	item, err := s.catalog.Pin(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMusicResponse(item))
}

func (s *Server) handleUnpin(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	item, err := s.catalog.Unpin(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMusicResponse(item))
}

func (s *Server) handleListen(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.RegisterListen(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
