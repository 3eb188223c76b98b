package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/lumenphotos/photosharebackend/models"
	"github.com/lumenphotos/photosharebackend/repository"
	"github.com/lumenphotos/photosharebackend/services"
)

const (
	recentEventsLimit   = 100
	expiredSessionLimit = 20
)

// AlbumHandler serves the owner-facing album and sharing management API.
// All routes require AuthMiddleware; album ownership is enforced per request.
type AlbumHandler struct {
	AlbumRepo   repository.AlbumRepositoryInterface
	SessionRepo repository.GuestSessionRepositoryInterface
	EventRepo   repository.ViewEventRepositoryInterface
	Service     *services.SharingService
}

// loadOwnedAlbum resolves {album_id} and verifies the requester owns it.
// Writes the error response and returns nil on any failure.
func (h *AlbumHandler) loadOwnedAlbum(w http.ResponseWriter, r *http.Request) *models.Album {
	user, ok := OwnerFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Could not retrieve user from context")
		return nil
	}

	albumID, err := strconv.ParseUint(chi.URLParam(r, "album_id"), 10, 32)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid album ID")
		return nil
	}

	album, err := h.AlbumRepo.GetByID(uint(albumID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Album not found")
		} else {
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Could not load album")
		}
		return nil
	}

	if album.OwnerID != user.ID {
		WriteAPIError(w, http.StatusForbidden, "forbidden", "You can only manage your own albums")
		return nil
	}
	return album
}

// CreateAlbum handles POST /api/albums
func (h *AlbumHandler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	user, ok := OwnerFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Could not retrieve user from context")
		return
	}

	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Missing required field: name")
		return
	}

	album := &models.Album{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     user.ID,
	}
	if err := h.AlbumRepo.Create(album); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to create album")
		return
	}
	writeJSON(w, http.StatusCreated, album)
}

// ListAlbums handles GET /api/albums
func (h *AlbumHandler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	user, ok := OwnerFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Could not retrieve user from context")
		return
	}

	albums, err := h.AlbumRepo.ListByOwner(user.ID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to list albums")
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

// GetAlbum handles GET /api/albums/{album_id}
func (h *AlbumHandler) GetAlbum(w http.ResponseWriter, r *http.Request) {
	album := h.loadOwnedAlbum(w, r)
	if album == nil {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"album":       album,
		"sharing_url": h.Service.SharingURL(album),
	})
}

// DeleteAlbum handles DELETE /api/albums/{album_id}
func (h *AlbumHandler) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	album := h.loadOwnedAlbum(w, r)
	if album == nil {
		return
	}

	if err := h.AlbumRepo.Delete(album.ID); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to delete album")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EnableSharing handles POST /api/albums/{album_id}/sharing
func (h *AlbumHandler) EnableSharing(w http.ResponseWriter, r *http.Request) {
	album := h.loadOwnedAlbum(w, r)
	if album == nil {
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}

	updated, err := h.Service.EnableSharing(album.ID, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrPasswordTooShort) {
			WriteAPIError(w, http.StatusUnprocessableEntity, "invalid_password", "Sharing password must be at least 6 characters")
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to enable sharing")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"album":       updated,
		"sharing_url": h.Service.SharingURL(updated),
	})
}

// DisableSharing handles DELETE /api/albums/{album_id}/sharing
func (h *AlbumHandler) DisableSharing(w http.ResponseWriter, r *http.Request) {
	album := h.loadOwnedAlbum(w, r)
	if album == nil {
		return
	}

	revoked, err := h.Service.DisableSharing(album.ID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to disable sharing")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sharing_enabled":  false,
		"sessions_revoked": revoked,
	})
}

// MintShortURL handles POST /api/albums/{album_id}/short_url
func (h *AlbumHandler) MintShortURL(w http.ResponseWriter, r *http.Request) {
	album := h.loadOwnedAlbum(w, r)
	if album == nil {
		return
	}

	shortURL, err := h.Service.MintShortURL(album)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusConflict, "sharing_disabled", "Enable sharing before creating a short link")
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to create short URL")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"short_url":  shortURL,
		"short_path": "/s/" + shortURL.Token,
	})
}

// ListGuestSessions handles GET /api/albums/{album_id}/guest_sessions
func (h *AlbumHandler) ListGuestSessions(w http.ResponseWriter, r *http.Request) {
	album := h.loadOwnedAlbum(w, r)
	if album == nil {
		return
	}

	active, err := h.SessionRepo.ListActiveByAlbum(album.ID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to list guest sessions")
		return
	}
	expired, err := h.SessionRepo.ListExpiredByAlbum(album.ID, expiredSessionLimit)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to list guest sessions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sharing_enabled":  album.SharingEnabled,
		"active_sessions":  active,
		"expired_sessions": expired,
	})
}

// RevokeGuestSession handles DELETE /api/albums/{album_id}/guest_sessions/{session_token}
func (h *AlbumHandler) RevokeGuestSession(w http.ResponseWriter, r *http.Request) {
	album := h.loadOwnedAlbum(w, r)
	if album == nil {
		return
	}

	sessionToken := chi.URLParam(r, "session_token")
	wasActive, err := h.Service.RevokeSession(album.ID, sessionToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// already revoked or expired away; revoking again is harmless
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"revoked": false,
				"message": "Session not found or already removed.",
			})
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to revoke guest session")
		return
	}

	message := "Expired session removed from records."
	if wasActive {
		message = "Guest session revoked successfully. The guest user has been logged out."
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"revoked": true,
		"message": message,
	})
}

// RevokeAllGuestSessions handles PATCH /api/albums/{album_id}/guest_sessions/revoke_all
func (h *AlbumHandler) RevokeAllGuestSessions(w http.ResponseWriter, r *http.Request) {
	album := h.loadOwnedAlbum(w, r)
	if album == nil {
		return
	}

	revoked, err := h.Service.RevokeAllSessions(album.ID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to revoke guest sessions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"revoked": revoked,
	})
}

// ViewEvents handles GET /api/albums/{album_id}/view_events
func (h *AlbumHandler) ViewEvents(w http.ResponseWriter, r *http.Request) {
	album := h.loadOwnedAlbum(w, r)
	if album == nil {
		return
	}

	since := time.Now().Add(-h.Service.Cfg.AuditRetention)
	events, err := h.EventRepo.ListRecentByAlbum(album.ID, since, recentEventsLimit)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to list view events")
		return
	}

	stats, err := h.EventRepo.Stats(album.ID, since)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to compute view event stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"stats":  stats,
	})
}
