package models

import "time"

// ShortURL maps a compact token to an album's guest sharing link so owners can
// hand out short printable links. Rows expire and are purged by the cleanup
// worker.
type ShortURL struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Token       string     `gorm:"not null;uniqueIndex" json:"token"`
	AlbumID     uint       `gorm:"not null;index" json:"album_id"`
	ExpiresAt   time.Time  `gorm:"not null;index" json:"expires_at"`
	AccessedAt  *time.Time `gorm:"" json:"accessed_at,omitempty"` // Nullable until first use
	AccessCount int        `gorm:"not null;default:0" json:"access_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (ShortURL) TableName() string {
	return "short_urls"
}

// Expired reports whether the short URL is past its expiry.
func (s *ShortURL) Expired() bool {
	return !s.ExpiresAt.After(time.Now())
}
