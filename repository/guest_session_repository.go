package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lumenphotos/photosharebackend/models"
)

// GuestSessionRepository handles database operations for GuestSession entities
type GuestSessionRepository struct {
	DB *gorm.DB
}

// NewGuestSessionRepository creates a new instance of GuestSessionRepository
func NewGuestSessionRepository(db *gorm.DB) *GuestSessionRepository {
	return &GuestSessionRepository{DB: db}
}

// Create persists a new guest session
func (r *GuestSessionRepository) Create(session *models.GuestSession) error {
	if err := r.DB.Create(session).Error; err != nil {
		return fmt.Errorf("failed to create guest session for album %d: %w", session.AlbumID, err)
	}
	return nil
}

// GetByAlbumAndToken retrieves a session scoped to an album. A token that
// belongs to another album is indistinguishable from a missing one.
func (r *GuestSessionRepository) GetByAlbumAndToken(albumID uint, sessionToken string) (*models.GuestSession, error) {
	var session models.GuestSession
	err := r.DB.Where("album_id = ? AND session_token = ?", albumID, sessionToken).First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get guest session for album %d: %w", albumID, err)
	}
	return &session, nil
}

// TouchIfActive slides the expiration window in a single conditional update so
// two concurrent requests can never clobber each other's extension with a
// stale read. A row is updated only when it matches the album and has not
// expired; otherwise gorm.ErrRecordNotFound is returned.
func (r *GuestSessionRepository) TouchIfActive(albumID uint, sessionToken string, window time.Duration) (*models.GuestSession, error) {
	now := time.Now()
	result := r.DB.Model(&models.GuestSession{}).
		Where("album_id = ? AND session_token = ? AND expires_at > ?", albumID, sessionToken, now).
		Updates(map[string]interface{}{
			"accessed_at": now,
			"expires_at":  now.Add(window),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to extend guest session for album %d: %w", albumID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByAlbumAndToken(albumID, sessionToken)
}

// ListActiveByAlbum returns the album's unexpired sessions, most recently active first
func (r *GuestSessionRepository) ListActiveByAlbum(albumID uint) ([]models.GuestSession, error) {
	var sessions []models.GuestSession
	err := r.DB.Where("album_id = ? AND expires_at > ?", albumID, time.Now()).
		Order("accessed_at DESC").Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active guest sessions for album %d: %w", albumID, err)
	}
	return sessions, nil
}

// ListExpiredByAlbum returns recently expired sessions for the owner's records
func (r *GuestSessionRepository) ListExpiredByAlbum(albumID uint, limit int) ([]models.GuestSession, error) {
	var sessions []models.GuestSession
	err := r.DB.Where("album_id = ? AND expires_at <= ?", albumID, time.Now()).
		Order("accessed_at DESC").Limit(limit).Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired guest sessions for album %d: %w", albumID, err)
	}
	return sessions, nil
}

// CountActiveByAlbum counts the album's unexpired sessions
func (r *GuestSessionRepository) CountActiveByAlbum(albumID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&models.GuestSession{}).
		Where("album_id = ? AND expires_at > ?", albumID, time.Now()).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active guest sessions for album %d: %w", albumID, err)
	}
	return count, nil
}

// DeleteByID removes a single session. Deleting an already-removed session is a no-op.
func (r *GuestSessionRepository) DeleteByID(id uint) error {
	result := r.DB.Delete(&models.GuestSession{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete guest session ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteAllByAlbum removes every session for an album and returns how many
// were still active at the moment of deletion. Active rows are deleted first
// against a single timestamp, so the reported count cannot drift while the
// expired remainder is purged.
func (r *GuestSessionRepository) DeleteAllByAlbum(albumID uint) (int64, error) {
	var active int64
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Where("album_id = ? AND expires_at > ?", albumID, now).Delete(&models.GuestSession{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete active guest sessions for album %d: %w", albumID, result.Error)
		}
		active = result.RowsAffected

		result = tx.Where("album_id = ? AND expires_at <= ?", albumID, now).Delete(&models.GuestSession{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete expired guest sessions for album %d: %w", albumID, result.Error)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return active, nil
}

// DeleteExpired removes all sessions whose sliding window has lapsed
func (r *GuestSessionRepository) DeleteExpired() (int64, error) {
	result := r.DB.Where("expires_at <= ?", time.Now()).Delete(&models.GuestSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired guest sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteOrphaned removes sessions whose album is gone (hard-deleted or
// soft-deleted), which can arise when album deletion does not cascade.
func (r *GuestSessionRepository) DeleteOrphaned() (int64, error) {
	result := r.DB.Where("album_id NOT IN (?)",
		r.DB.Model(&models.Album{}).Select("id"),
	).Delete(&models.GuestSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete orphaned guest sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CountActive counts unexpired sessions across all albums
func (r *GuestSessionRepository) CountActive() (int64, error) {
	var count int64
	err := r.DB.Model(&models.GuestSession{}).Where("expires_at > ?", time.Now()).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active guest sessions: %w", err)
	}
	return count, nil
}
