package dto

import (
	"time"

	"github.com/laserowo/studio-manager/internal/models"
)

type ClientDTO struct {
	ID              uint      `json:"id"`
	FullName        string    `json:"full_name"`
	PhoneNumber     string    `json:"phone_number,omitempty"`
	Email           string    `json:"email,omitempty"`
	ExternalID      string    `json:"external_id,omitempty"`
	DateOfBirth     *string   `json:"date_of_birth"`
	FacebookID      string    `json:"facebook_id,omitempty"`
	InstagramHandle string    `json:"instagram_handle,omitempty"`
	BooksyUsed      bool      `json:"booksy_used"`
	IsBlacklisted   bool      `json:"is_blacklisted"`
	IsActive        bool      `json:"is_active"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewClientDTO(c *models.Client) ClientDTO {
	out := ClientDTO{
		ID:              c.ID,
		FullName:        c.FullName,
		PhoneNumber:     deref(c.PhoneNumber),
		Email:           deref(c.Email),
		ExternalID:      deref(c.ExternalID),
		FacebookID:      c.FacebookID,
		InstagramHandle: c.InstagramHandle,
		BooksyUsed:      c.BooksyUsed,
		IsBlacklisted:   c.IsBlacklisted,
		IsActive:        c.IsActive,
		Notes:           c.Notes,
		CreatedAt:       c.CreatedAt,
	}
	if c.DateOfBirth != nil {
		s := c.DateOfBirth.Format(DateLayout)
		out.DateOfBirth = &s
	}
	return out
}

func NewClientList(cs []models.Client) []ClientDTO {
	out := make([]ClientDTO, 0, len(cs))
	for i := range cs {
		out = append(out, NewClientDTO(&cs[i]))
	}
	return out
}

// ClientDetailDTO is a client with its visit history.
type ClientDetailDTO struct {
	ClientDTO
	Appointments []AppointmentListDTO `json:"appointments"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
