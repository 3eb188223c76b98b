package repository

import (
	"time"

	"github.com/lumenphotos/photosharebackend/database"
	"github.com/lumenphotos/photosharebackend/models"
)

// AlbumRepositoryInterface defines the methods for album data operations
type AlbumRepositoryInterface interface {
	Create(album *models.Album) error
	GetByID(id uint) (*models.Album, error)
	GetBySharingToken(token string) (*models.Album, error)
	ListByOwner(ownerID uint) ([]models.Album, error)
	Delete(id uint) error

	// sharing configuration lifecycle
	SharingTokenExists(token string) (bool, error)
	EnableSharing(albumID uint, sharingToken, passwordHash string) error
	// DisableSharing clears the sharing columns and deletes the album's guest
	// sessions inside one transaction, returning the number of sessions removed.
	DisableSharing(albumID uint) (int64, error)
}

// PhotoRepositoryInterface defines the methods for photo data operations
type PhotoRepositoryInterface interface {
	Create(photo *models.Photo) error
	AddToAlbum(albumID, photoID uint, position int) error
	ListByAlbum(albumID uint) ([]models.Photo, error)
	AlbumContains(albumID, photoID uint) (bool, error)
}

// GuestSessionRepositoryInterface defines the methods for guest session data operations
type GuestSessionRepositoryInterface interface {
	Create(session *models.GuestSession) error
	GetByAlbumAndToken(albumID uint, sessionToken string) (*models.GuestSession, error)
	// TouchIfActive extends the sliding window in a single conditional update:
	// the session is refreshed only if it belongs to the album and has not yet
	// expired. Returns gorm.ErrRecordNotFound otherwise.
	TouchIfActive(albumID uint, sessionToken string, window time.Duration) (*models.GuestSession, error)
	ListActiveByAlbum(albumID uint) ([]models.GuestSession, error)
	ListExpiredByAlbum(albumID uint, limit int) ([]models.GuestSession, error)
	CountActiveByAlbum(albumID uint) (int64, error)
	DeleteByID(id uint) error
	// DeleteAllByAlbum removes every session for the album and returns how many
	// were still active when deleted.
	DeleteAllByAlbum(albumID uint) (int64, error)
	DeleteExpired() (int64, error)
	DeleteOrphaned() (int64, error)
	CountActive() (int64, error)
}

// ViewEventRepositoryInterface defines the methods for audit event data operations
type ViewEventRepositoryInterface interface {
	Create(event *models.AlbumViewEvent) error
	ListRecentByAlbum(albumID uint, since time.Time, limit int) ([]models.AlbumViewEvent, error)
	Stats(albumID uint, since time.Time) (database.ViewEventStats, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// ShortURLRepositoryInterface defines the methods for short URL data operations
type ShortURLRepositoryInterface interface {
	Create(shortURL *models.ShortURL) error
	GetByToken(token string) (*models.ShortURL, error)
	FindActiveByAlbum(albumID uint) (*models.ShortURL, error)
	TrackAccess(id uint) error
	DeleteExpired() (int64, error)
}

// UserRepositoryInterface defines the methods for user data operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
}
