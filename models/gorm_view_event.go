package models

import "time"

// Album view event types. Events are append-only and pruned by the cleanup
// worker once they fall out of the retention window.
const (
	EventTypePasswordEntry         = "password_entry"
	EventTypePasswordAttemptFailed = "password_attempt_failed"
	EventTypePhotoView             = "photo_view"
)

// AlbumViewEvent records a security- or analytics-relevant guest action against
// a shared album. Rows are never updated after creation.
type AlbumViewEvent struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AlbumID      uint      `gorm:"not null;index:idx_view_events_album_occurred" json:"album_id"`
	EventType    string    `gorm:"not null;index" json:"event_type"`
	PhotoID      *uint     `gorm:"index" json:"photo_id,omitempty"` // Nullable, set for photo_view events
	IPAddress    string    `gorm:"" json:"ip_address"`
	UserAgent    string    `gorm:"" json:"user_agent"`
	Referrer     string    `gorm:"" json:"referrer"`
	SessionToken string    `gorm:"index" json:"session_token"`
	OccurredAt   time.Time `gorm:"not null;index:idx_view_events_album_occurred" json:"occurred_at"`
}

// TableName explicitly sets the table name for GORM.
func (AlbumViewEvent) TableName() string {
	return "album_view_events"
}

// IsValidEventType reports whether the given string is a known event type.
func IsValidEventType(eventType string) bool {
	switch eventType {
	case EventTypePasswordEntry, EventTypePasswordAttemptFailed, EventTypePhotoView:
		return true
	}
	return false
}
