package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lumenphotos/photosharebackend/models"
)

// PhotoRepository handles database operations for Photo entities
type PhotoRepository struct {
	DB *gorm.DB
}

// NewPhotoRepository creates a new instance of PhotoRepository
func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{DB: db}
}

// Create persists a new photo record
func (r *PhotoRepository) Create(photo *models.Photo) error {
	if err := r.DB.Create(photo).Error; err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

// AddToAlbum joins a photo into an album at the given position
func (r *PhotoRepository) AddToAlbum(albumID, photoID uint, position int) error {
	ap := models.AlbumPhoto{
		AlbumID:  albumID,
		PhotoID:  photoID,
		Position: position,
		AddedAt:  time.Now(),
	}
	if err := r.DB.Create(&ap).Error; err != nil {
		return fmt.Errorf("failed to add photo %d to album %d: %w", photoID, albumID, err)
	}
	return nil
}

// ListByAlbum returns an album's photos ordered by taken time, newest first,
// falling back to creation time for photos without capture metadata
func (r *PhotoRepository) ListByAlbum(albumID uint) ([]models.Photo, error) {
	var photos []models.Photo
	err := r.DB.
		Joins("JOIN album_photos ON album_photos.photo_id = photos.id").
		Where("album_photos.album_id = ?", albumID).
		Order("photos.taken_at DESC, photos.created_at DESC").
		Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list photos for album %d: %w", albumID, err)
	}
	return photos, nil
}

// AlbumContains reports whether the photo belongs to the album
func (r *PhotoRepository) AlbumContains(albumID, photoID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&models.AlbumPhoto{}).
		Where("album_id = ? AND photo_id = ?", albumID, photoID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check album %d membership for photo %d: %w", albumID, photoID, err)
	}
	return count > 0, nil
}
