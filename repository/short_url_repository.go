package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lumenphotos/photosharebackend/models"
)

// ShortURLRepository handles database operations for ShortURL entities
type ShortURLRepository struct {
	DB *gorm.DB
}

// NewShortURLRepository creates a new instance of ShortURLRepository
func NewShortURLRepository(db *gorm.DB) *ShortURLRepository {
	return &ShortURLRepository{DB: db}
}

// Create persists a new short URL record
func (r *ShortURLRepository) Create(shortURL *models.ShortURL) error {
	if err := r.DB.Create(shortURL).Error; err != nil {
		return fmt.Errorf("failed to create short URL for album %d: %w", shortURL.AlbumID, err)
	}
	return nil
}

// GetByToken retrieves a short URL by its token
func (r *ShortURLRepository) GetByToken(token string) (*models.ShortURL, error) {
	var shortURL models.ShortURL
	err := r.DB.Where("token = ?", token).First(&shortURL).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get short URL by token: %w", err)
	}
	return &shortURL, nil
}

// FindActiveByAlbum returns an unexpired short URL for the album, if one exists
func (r *ShortURLRepository) FindActiveByAlbum(albumID uint) (*models.ShortURL, error) {
	var shortURL models.ShortURL
	err := r.DB.Where("album_id = ? AND expires_at > ?", albumID, time.Now()).First(&shortURL).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find active short URL for album %d: %w", albumID, err)
	}
	return &shortURL, nil
}

// TrackAccess bumps the access counter and timestamp in one atomic update
func (r *ShortURLRepository) TrackAccess(id uint) error {
	result := r.DB.Model(&models.ShortURL{}).Where("id = ?", id).Updates(map[string]interface{}{
		"accessed_at":  time.Now(),
		"access_count": gorm.Expr("access_count + 1"),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to track access for short URL ID %d: %w", id, result.Error)
	}
	return nil
}

// DeleteExpired removes short URLs past their expiry
func (r *ShortURLRepository) DeleteExpired() (int64, error) {
	result := r.DB.Where("expires_at <= ?", time.Now()).Delete(&models.ShortURL{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired short URLs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
