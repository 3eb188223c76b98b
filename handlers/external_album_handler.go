package handlers

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lumenphotos/photosharebackend/models"
	"github.com/lumenphotos/photosharebackend/repository"
	"github.com/lumenphotos/photosharebackend/services"
)

// Cookie names handed to guest browsers. The access cookie carries the signed
// credential and is HttpOnly; the expiry cookie is plaintext unix seconds so
// client-side JavaScript can render a countdown without polling.
const (
	AlbumAccessCookie   = "album_access"
	SessionExpiryCookie = "guest_session_expires_at"
)

// ExternalAlbumHandler serves the unauthenticated guest-facing routes under
// /shared/albums/{token}.
type ExternalAlbumHandler struct {
	Service   *services.SharingService
	PhotoRepo repository.PhotoRepositoryInterface
}

func clientIP(r *http.Request) string {
	// chi's middleware.RealIP has already rewritten RemoteAddr behind proxies
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func requestContext(r *http.Request) services.RequestContext {
	return services.RequestContext{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	}
}

// resolveAlbum maps the URL token to an album or writes the uniform 404. An
// unknown token and a disabled album produce the same response so guests
// cannot probe for album existence.
func (h *ExternalAlbumHandler) resolveAlbum(w http.ResponseWriter, r *http.Request) *models.Album {
	token := chi.URLParam(r, "token")
	album, err := h.Service.ResolveSharedAlbum(token)
	if err != nil {
		WriteAPIError(w, http.StatusNotFound, "not_found", "The requested page could not be found")
		return nil
	}
	return album
}

func passwordFormPath(token string) string {
	return fmt.Sprintf("/shared/albums/%s/password", token)
}

// validSession extracts the signed cookie and validates (and extends) the
// guest session. Any failure redirects to the password form; a tampered or
// mismatched credential is treated identically to no credential.
func (h *ExternalAlbumHandler) validSession(w http.ResponseWriter, r *http.Request, album *models.Album) *models.GuestSession {
	cookie, err := r.Cookie(AlbumAccessCookie)
	if err != nil {
		http.Redirect(w, r, passwordFormPath(*album.SharingToken), http.StatusFound)
		return nil
	}

	session, ok := h.Service.ValidateSession(album, cookie.Value)
	if !ok {
		http.Redirect(w, r, passwordFormPath(*album.SharingToken), http.StatusFound)
		return nil
	}

	// the window slid; both cookie lifetimes follow it
	h.setSessionCookies(w, cookie.Value, session)
	return session
}

// setSessionCookies sets the HttpOnly credential cookie and the plaintext
// countdown cookie, both expiring with the session's sliding window.
func (h *ExternalAlbumHandler) setSessionCookies(w http.ResponseWriter, credential string, session *models.GuestSession) {
	http.SetCookie(w, &http.Cookie{
		Name:     AlbumAccessCookie,
		Value:    credential,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.setExpiryCookie(w, session)
}

func (h *ExternalAlbumHandler) setExpiryCookie(w http.ResponseWriter, session *models.GuestSession) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionExpiryCookie,
		Value:    strconv.FormatInt(session.ExpiresAt.Unix(), 10),
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: false, // readable by the client countdown script
	})
}

// ShowSharedAlbum handles GET /shared/albums/{token}
func (h *ExternalAlbumHandler) ShowSharedAlbum(w http.ResponseWriter, r *http.Request) {
	album := h.resolveAlbum(w, r)
	if album == nil {
		return
	}

	session := h.validSession(w, r, album)
	if session == nil {
		return
	}

	photos, err := h.PhotoRepo.ListByAlbum(album.ID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Could not load album contents")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"album": map[string]interface{}{
			"id":          album.ID,
			"name":        album.Name,
			"description": album.Description,
		},
		"photos":                     photos,
		"session_expires_at":         session.ExpiresAt.Unix(),
		"session_expires_in_seconds": session.ExpiresInSeconds(),
	})
}

// PasswordForm handles GET /shared/albums/{token}/password
func (h *ExternalAlbumHandler) PasswordForm(w http.ResponseWriter, r *http.Request) {
	album := h.resolveAlbum(w, r)
	if album == nil {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"password_required": true,
		"authenticate_path": fmt.Sprintf("/shared/albums/%s/authenticate", *album.SharingToken),
	})
}

// Authenticate handles POST /shared/albums/{token}/authenticate
func (h *ExternalAlbumHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	album := h.resolveAlbum(w, r)
	if album == nil {
		return
	}

	var payload struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid request payload")
		return
	}

	result, err := h.Service.Authenticate(album, payload.Password, requestContext(r))
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Authentication failed unexpectedly")
		return
	}

	switch result.Outcome {
	case services.AuthLockedOut:
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"error":               "Too many incorrect password attempts. Please try again later.",
			"retry_after_minutes": result.LockoutMinutes,
		})
	case services.AuthDenied:
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error":              deniedMessage(result.RemainingAttempts),
			"remaining_attempts": result.RemainingAttempts,
		})
	case services.AuthGranted:
		h.setSessionCookies(w, result.Credential, result.Session)
		http.Redirect(w, r, fmt.Sprintf("/shared/albums/%s", *album.SharingToken), http.StatusFound)
	}
}

func deniedMessage(remaining int) string {
	switch {
	case remaining == 1:
		return "Incorrect password. Warning: You have 1 more attempt before access is temporarily blocked."
	case remaining > 1:
		return fmt.Sprintf("Incorrect password. You have %d attempts remaining.", remaining)
	default:
		return "Incorrect password. This was your last attempt - access is now temporarily blocked."
	}
}

// TrackPhotoView handles POST /shared/albums/{token}/track_photo_view
func (h *ExternalAlbumHandler) TrackPhotoView(w http.ResponseWriter, r *http.Request) {
	album := h.resolveAlbum(w, r)
	if album == nil {
		return
	}

	session := h.validSession(w, r, album)
	if session == nil {
		return
	}

	var payload struct {
		PhotoID uint `json:"photo_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid request payload")
		return
	}

	contains, err := h.PhotoRepo.AlbumContains(album.ID, payload.PhotoID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Could not verify photo")
		return
	}
	if !contains {
		WriteAPIError(w, http.StatusNotFound, "not_found", "Photo not found")
		return
	}

	h.Service.RecordPhotoView(album.ID, payload.PhotoID, requestContext(r), session.SessionToken)
	w.WriteHeader(http.StatusOK)
}
