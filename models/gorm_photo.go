package models

import "time"

// Photo is a reference to an uploaded photo. Storage and variant rendering live
// outside this service; only the metadata needed for album membership and
// view-event correlation is kept here.
type Photo struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     *string    `gorm:"" json:"title,omitempty"` // Nullable
	OwnerID   uint       `gorm:"not null;index" json:"owner_id"`
	TakenAt   *time.Time `gorm:"index" json:"taken_at,omitempty"` // Nullable
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (Photo) TableName() string {
	return "photos"
}

// AlbumPhoto joins photos into albums with an explicit position.
type AlbumPhoto struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AlbumID  uint      `gorm:"not null;index:idx_album_photos_pair,unique" json:"album_id"`
	PhotoID  uint      `gorm:"not null;index:idx_album_photos_pair,unique" json:"photo_id"`
	Photo    Photo     `gorm:"foreignKey:PhotoID" json:"-"`
	Position int       `gorm:"not null;default:0" json:"position"`
	AddedAt  time.Time `gorm:"not null" json:"added_at"`
}

// TableName explicitly sets the table name for GORM.
func (AlbumPhoto) TableName() string {
	return "album_photos"
}
