package models

import "time"

// GuestSession is a time-bounded credential granted to an unauthenticated guest
// after a successful album password entry. Expiration slides: ExpiresAt is
// always AccessedAt plus the configured session window, so a session lives only
// as long as guest activity continues.
type GuestSession struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	AlbumID      uint      `gorm:"not null;index" json:"album_id"`
	SessionToken string    `gorm:"not null;uniqueIndex" json:"session_token"`
	IPAddress    string    `gorm:"" json:"ip_address"`
	IssuedAt     time.Time `gorm:"not null" json:"issued_at"`
	AccessedAt   time.Time `gorm:"not null" json:"accessed_at"`
	ExpiresAt    time.Time `gorm:"not null;index" json:"expires_at"`
}

// TableName explicitly sets the table name for GORM.
func (GuestSession) TableName() string {
	return "guest_sessions"
}

// Expired reports whether the session's sliding window has lapsed.
func (s *GuestSession) Expired() bool {
	return s.ExpiresAt.Before(time.Now())
}

// ExpiresInSeconds returns the remaining lifetime, clamped at zero.
func (s *GuestSession) ExpiresInSeconds() int {
	if s.Expired() {
		return 0
	}
	return int(time.Until(s.ExpiresAt).Seconds())
}
