package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumenphotos/photosharebackend/repository"
	"github.com/lumenphotos/photosharebackend/services"
)

// ShortURLHandler redirects compact /s/{token} links to the full guest-facing
// sharing URL.
type ShortURLHandler struct {
	ShortURLRepo repository.ShortURLRepositoryInterface
	Service      *services.SharingService
}

// Redirect handles GET /s/{token}
func (h *ShortURLHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	shortURL, err := h.ShortURLRepo.GetByToken(token)
	if err != nil || shortURL.Expired() {
		WriteAPIError(w, http.StatusNotFound, "not_found", "The requested page could not be found")
		return
	}

	album, err := h.Service.AlbumRepo.GetByID(shortURL.AlbumID)
	if err != nil || !album.SharingEnabled || album.SharingToken == nil {
		WriteAPIError(w, http.StatusNotFound, "not_found", "The requested page could not be found")
		return
	}

	if err := h.ShortURLRepo.TrackAccess(shortURL.ID); err != nil {
		log.Printf("failed to track short URL access for token %s: %v", token, err)
	}

	http.Redirect(w, r, h.Service.SharingURL(album), http.StatusFound)
}
