package models

import "time"

// Client is a studio customer. Phone, email and external id are optional
// natural keys, unique when present.
type Client struct {
	ID uint `gorm:"primaryKey" json:"id"`

	FullName    string  `gorm:"size:150;not null" json:"full_name"`
	FullNameKey string  `gorm:"size:150;index" json:"-"`
	PhoneNumber *string `gorm:"size:32;uniqueIndex" json:"phone_number"`
	Email       *string `gorm:"size:150;uniqueIndex" json:"email"`
	ExternalID  *string `gorm:"size:64;uniqueIndex" json:"external_id"`

	DateOfBirth     *time.Time `json:"date_of_birth"`
	FacebookID      string     `gorm:"size:150" json:"facebook_id"`
	InstagramHandle string     `gorm:"size:150" json:"instagram_handle"`
	BooksyUsed      bool       `gorm:"default:false" json:"booksy_used"`
	IsBlacklisted   bool       `gorm:"default:false" json:"is_blacklisted"`
	IsActive        bool       `gorm:"not null" json:"is_active"`
	Notes           string     `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
