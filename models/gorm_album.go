package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Album represents a photo album owned by a user.
// It corresponds to the 'albums' table. The Sharing* columns form the album's
// external sharing configuration: both SharingToken and SharingPasswordHash are
// NULL whenever SharingEnabled is false.
type Album struct {
	ID                  uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                string         `gorm:"not null;index:idx_albums_owner_name,unique" json:"name"`
	Description         *string        `gorm:"" json:"description,omitempty"` // Nullable
	OwnerID             uint           `gorm:"not null;index:idx_albums_owner_name,unique" json:"owner_id"`
	Owner               User           `gorm:"foreignKey:OwnerID" json:"-"`
	SharingEnabled      bool           `gorm:"not null;default:false;index" json:"sharing_enabled"`
	SharingToken        *string        `gorm:"uniqueIndex" json:"sharing_token,omitempty"` // Nullable, set only while sharing is enabled
	SharingPasswordHash *string        `gorm:"" json:"-"`                                  // Nullable, bcrypt hash of the guest password
	CreatedAt           int64          `gorm:"not null" json:"created_at"`                 // Unix timestamp
	UpdatedAt           int64          `gorm:"not null" json:"updated_at"`                 // Unix timestamp
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`          // For soft deletes
}

// TableName explicitly sets the table name for GORM.
func (Album) TableName() string {
	return "albums"
}

// SetSharingPassword hashes the given guest password and sets it on the album.
func (a *Album) SetSharingPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	hash := string(hashedPassword)
	a.SharingPasswordHash = &hash
	return nil
}

// CheckSharingPassword verifies a submitted guest password against the stored hash.
// Albums with sharing disabled or no stored hash never match.
func (a *Album) CheckSharingPassword(password string) bool {
	if !a.SharingEnabled || a.SharingPasswordHash == nil {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(*a.SharingPasswordHash), []byte(password))
	return err == nil
}
