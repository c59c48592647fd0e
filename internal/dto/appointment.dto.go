package dto

import (
	"time"

	"github.com/laserowo/studio-manager/internal/models"
)

const DateLayout = "2006-01-02"

// AppointmentDTO carries an appointment with the display name of every
// reference it points at.
type AppointmentDTO struct {
	ID uint `json:"id"`

	ClientID   uint   `json:"client_id"`
	ClientName string `json:"client_name"`

	ServiceID         *uint  `json:"service_id"`
	ServiceName       string `json:"service_name,omitempty"`
	AreaID            *uint  `json:"area_id"`
	AreaName          string `json:"area_name,omitempty"`
	PaymentMethodID   *uint  `json:"payment_method_id"`
	PaymentMethodName string `json:"payment_method_name,omitempty"`
	PromotionID       *uint  `json:"promotion_id"`
	PromotionName     string `json:"promotion_name,omitempty"`
	HardwareID        *uint  `json:"hardware_id"`
	HardwareName      string `json:"hardware_name,omitempty"`

	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	SessionNumberForArea *int    `json:"session_number_for_area"`
	PowerJcm3            string  `json:"power_j_cm3,omitempty"`
	Amount               float64 `json:"amount"`
	Status               string  `json:"status"`
	Notes                string  `json:"notes,omitempty"`

	NextSuggestedAppointmentDate *string `json:"next_suggested_appointment_date"`
	OriginalAppointmentID        *uint   `json:"original_appointment_id"`

	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	RescheduledAt *time.Time `json:"rescheduled_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func NewAppointmentDTO(ap *models.Appointment) AppointmentDTO {
	out := AppointmentDTO{
		ID:                    ap.ID,
		ClientID:              ap.ClientID,
		ClientName:            ap.Client.FullName,
		ServiceID:             ap.ServiceID,
		AreaID:                ap.AreaID,
		PaymentMethodID:       ap.PaymentMethodID,
		PromotionID:           ap.PromotionID,
		HardwareID:            ap.HardwareID,
		Date:                  ap.Date.Format(DateLayout),
		StartTime:             ap.StartTime,
		EndTime:               ap.EndTime,
		SessionNumberForArea:  ap.SessionNumberForArea,
		PowerJcm3:             ap.PowerJcm3,
		Amount:                ap.Amount,
		Status:                ap.Status,
		Notes:                 ap.Notes,
		OriginalAppointmentID: ap.OriginalAppointmentID,
		CancelledAt:           ap.CancelledAt,
		CompletedAt:           ap.CompletedAt,
		RescheduledAt:         ap.RescheduledAt,
		CreatedAt:             ap.CreatedAt,
		UpdatedAt:             ap.UpdatedAt,
	}

	if ap.Service != nil {
		out.ServiceName = ap.Service.Name
	}
	if ap.Area != nil {
		out.AreaName = ap.Area.Name
	}
	if ap.PaymentMethod != nil {
		out.PaymentMethodName = ap.PaymentMethod.Name
	}
	if ap.Promotion != nil {
		out.PromotionName = ap.Promotion.Name
	}
	if ap.Hardware != nil {
		out.HardwareName = ap.Hardware.Name
	}
	if ap.NextSuggestedAppointmentDate != nil {
		s := ap.NextSuggestedAppointmentDate.Format(DateLayout)
		out.NextSuggestedAppointmentDate = &s
	}
	return out
}
