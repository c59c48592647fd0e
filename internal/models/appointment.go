package models

import "time"

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID uint   `gorm:"not null;index" json:"client_id"`
	Client   Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	ServiceID *uint    `json:"service_id"`
	Service   *Service `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	AreaID *uint          `gorm:"index" json:"area_id"`
	Area   *TreatmentArea `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	PaymentMethodID *uint          `json:"payment_method_id"`
	PaymentMethod   *PaymentMethod `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	PromotionID *uint      `json:"promotion_id"`
	Promotion   *Promotion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	HardwareID *uint     `json:"hardware_id"`
	Hardware   *Hardware `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	// Date is stored at midnight UTC; StartTime/EndTime are "15:04:05".
	Date      time.Time `gorm:"not null;index" json:"date"`
	StartTime string    `gorm:"size:8;not null" json:"start_time"`
	EndTime   string    `gorm:"size:8" json:"end_time"`

	SessionNumberForArea *int    `json:"session_number_for_area"`
	PowerJcm3            string  `gorm:"size:50" json:"power_j_cm3"`
	Amount               float64 `gorm:"default:0" json:"amount"`

	Status string `gorm:"size:20;default:'Scheduled';index" json:"status"`
	Notes  string `gorm:"type:text" json:"notes"`

	NextSuggestedAppointmentDate *time.Time `json:"next_suggested_appointment_date"`

	OriginalAppointmentID *uint `gorm:"index" json:"original_appointment_id"`

	CancelledAt   *time.Time `json:"cancelled_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	RescheduledAt *time.Time `json:"rescheduled_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
