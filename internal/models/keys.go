package models

import (
	"strings"

	"gorm.io/gorm"
)

// NameKey is the normalized form used for case-insensitive name matching.
func NameKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func (c *Client) BeforeSave(tx *gorm.DB) error {
	c.FullName = strings.TrimSpace(c.FullName)
	c.FullNameKey = NameKey(c.FullName)
	return nil
}

func (r *ReferenceEntity) BeforeSave(tx *gorm.DB) error {
	r.Name = strings.TrimSpace(r.Name)
	r.NameKey = NameKey(r.Name)
	return nil
}
