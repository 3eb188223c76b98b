package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lumenphotos/photosharebackend/models"
)

// AlbumRepository handles database operations for Album entities
type AlbumRepository struct {
	DB *gorm.DB
}

// NewAlbumRepository creates a new instance of AlbumRepository
func NewAlbumRepository(db *gorm.DB) *AlbumRepository {
	return &AlbumRepository{DB: db}
}

// Create creates a new album record in the database
func (r *AlbumRepository) Create(album *models.Album) error {
	now := time.Now().Unix()
	if album.CreatedAt == 0 {
		album.CreatedAt = now
	}
	if album.UpdatedAt == 0 {
		album.UpdatedAt = now
	}

	err := r.DB.Create(album).Error
	if err != nil {
		return fmt.Errorf("failed to create album %s: %w", album.Name, err)
	}
	return nil
}

// GetByID retrieves an album by its ID
func (r *AlbumRepository) GetByID(id uint) (*models.Album, error) {
	var album models.Album
	err := r.DB.First(&album, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get album by ID %d: %w", id, err)
	}
	return &album, nil
}

// GetBySharingToken retrieves an album by its sharing token. Whether sharing is
// still enabled is the caller's concern; the lookup is an exact match.
func (r *AlbumRepository) GetBySharingToken(token string) (*models.Album, error) {
	var album models.Album
	err := r.DB.Where("sharing_token = ?", token).First(&album).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get album by sharing token: %w", err)
	}
	return &album, nil
}

// ListByOwner retrieves all albums belonging to a user, newest first
func (r *AlbumRepository) ListByOwner(ownerID uint) ([]models.Album, error) {
	var albums []models.Album
	err := r.DB.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&albums).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list albums for owner %d: %w", ownerID, err)
	}
	return albums, nil
}

// Delete removes an album by its ID
// this will perform a soft delete because models.Album has gorm.DeletedAt
func (r *AlbumRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.Album{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete album ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SharingTokenExists reports whether any album already holds the given token
func (r *AlbumRepository) SharingTokenExists(token string) (bool, error) {
	var count int64
	err := r.DB.Model(&models.Album{}).Where("sharing_token = ?", token).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check sharing token existence: %w", err)
	}
	return count > 0, nil
}

// EnableSharing persists the enablement flag, token, and password hash in one update
func (r *AlbumRepository) EnableSharing(albumID uint, sharingToken, passwordHash string) error {
	now := time.Now().Unix()
	result := r.DB.Model(&models.Album{}).Where("id = ?", albumID).Updates(map[string]interface{}{
		"sharing_enabled":       true,
		"sharing_token":         sharingToken,
		"sharing_password_hash": passwordHash,
		"updated_at":            now,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to enable sharing for album ID %d: %w", albumID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DisableSharing clears the sharing columns and cascades deletion of the
// album's guest sessions. Both happen in one transaction so a session created
// by a concurrent authentication cannot outlive the disable.
func (r *AlbumRepository) DisableSharing(albumID uint) (int64, error) {
	var revoked int64
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		del := tx.Where("album_id = ?", albumID).Delete(&models.GuestSession{})
		if del.Error != nil {
			return fmt.Errorf("failed to delete guest sessions for album ID %d: %w", albumID, del.Error)
		}
		revoked = del.RowsAffected

		now := time.Now().Unix()
		result := tx.Model(&models.Album{}).Where("id = ?", albumID).Updates(map[string]interface{}{
			"sharing_enabled":       false,
			"sharing_token":         gorm.Expr("NULL"),
			"sharing_password_hash": gorm.Expr("NULL"),
			"updated_at":            now,
		})
		if result.Error != nil {
			return fmt.Errorf("failed to disable sharing for album ID %d: %w", albumID, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return revoked, nil
}
