package models

import "time"

// ReferenceEntity is the shape shared by every lookup table an appointment
// points at. NameKey holds the normalized name and carries the unique index.
type ReferenceEntity struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:150;not null" json:"name"`
	NameKey     string `gorm:"size:150;not null;uniqueIndex" json:"-"`
	Description string `gorm:"size:500" json:"description"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *ReferenceEntity) Base() *ReferenceEntity { return r }

type Service struct {
	ReferenceEntity
	BasePrice   float64 `json:"base_price"`
	DurationMin int     `json:"duration_min"`
	Active      bool    `gorm:"default:true" json:"active"`
}

type TreatmentArea struct {
	ReferenceEntity
}

type PaymentMethod struct {
	ReferenceEntity
}

type Promotion struct {
	ReferenceEntity
	DiscountPercentage float64    `json:"discount_percentage"`
	StartDate          *time.Time `json:"start_date"`
	EndDate            *time.Time `json:"end_date"`
	Active             bool       `gorm:"default:true" json:"active"`
}

type Hardware struct {
	ReferenceEntity
	SerialNumber        *string    `gorm:"size:100;uniqueIndex" json:"serial_number"`
	PurchaseDate        *time.Time `json:"purchase_date"`
	NextMaintenanceDate *time.Time `json:"next_maintenance_date"`
	ImpulseCount        int        `gorm:"default:0" json:"impulse_count"`
	Active              bool       `gorm:"default:true" json:"active"`
}

func (Hardware) TableName() string { return "hardware" }
