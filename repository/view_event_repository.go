package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lumenphotos/photosharebackend/database"
	"github.com/lumenphotos/photosharebackend/models"
)

// ViewEventRepository handles database operations for AlbumViewEvent entities
type ViewEventRepository struct {
	DB *gorm.DB
}

// NewViewEventRepository creates a new instance of ViewEventRepository
func NewViewEventRepository(db *gorm.DB) *ViewEventRepository {
	return &ViewEventRepository{DB: db}
}

// Create appends an audit event. Events are immutable once written.
func (r *ViewEventRepository) Create(event *models.AlbumViewEvent) error {
	if !models.IsValidEventType(event.EventType) {
		return fmt.Errorf("invalid view event type %q", event.EventType)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := r.DB.Create(event).Error; err != nil {
		return fmt.Errorf("failed to create view event for album %d: %w", event.AlbumID, err)
	}
	return nil
}

// ListRecentByAlbum returns the newest events within the reporting window
func (r *ViewEventRepository) ListRecentByAlbum(albumID uint, since time.Time, limit int) ([]models.AlbumViewEvent, error) {
	var events []models.AlbumViewEvent
	err := r.DB.Where("album_id = ? AND occurred_at >= ?", albumID, since).
		Order("occurred_at DESC").Limit(limit).Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list view events for album %d: %w", albumID, err)
	}
	return events, nil
}

// Stats aggregates the owner dashboard numbers for an album within the window
func (r *ViewEventRepository) Stats(albumID uint, since time.Time) (database.ViewEventStats, error) {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return database.ViewEventStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	counts, err := database.GetEventCountsByType(sqlDB, albumID, since)
	if err != nil {
		return database.ViewEventStats{}, err
	}
	uniqueVisitors, err := database.CountUniqueVisitors(sqlDB, albumID, since)
	if err != nil {
		return database.ViewEventStats{}, err
	}
	passwordAttempts, err := database.CountEventsOfTypes(sqlDB, albumID, since,
		models.EventTypePasswordEntry, models.EventTypePasswordAttemptFailed)
	if err != nil {
		return database.ViewEventStats{}, err
	}

	return database.ViewEventStats{
		EventCounts:      counts,
		UniqueVisitors:   uniqueVisitors,
		TotalPhotoViews:  counts[models.EventTypePhotoView],
		PasswordAttempts: passwordAttempts,
	}, nil
}

// DeleteOlderThan prunes events outside the retention window
func (r *ViewEventRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.DB.Where("occurred_at < ?", cutoff).Delete(&models.AlbumViewEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old view events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
