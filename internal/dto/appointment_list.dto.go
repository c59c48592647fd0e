package dto

import "github.com/laserowo/studio-manager/internal/models"

// AppointmentListDTO is the compact row used by calendar and search views.
type AppointmentListDTO struct {
	ID          uint   `json:"id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Status      string `json:"status"`
	ClientID    uint   `json:"client_id"`
	ClientName  string `json:"client_name"`
	ServiceName string `json:"service_name"`
	AreaName    string `json:"area_name"`
}

func NewAppointmentListDTO(ap *models.Appointment) AppointmentListDTO {
	out := AppointmentListDTO{
		ID:         ap.ID,
		Date:       ap.Date.Format(DateLayout),
		StartTime:  ap.StartTime,
		EndTime:    ap.EndTime,
		Status:     ap.Status,
		ClientID:   ap.ClientID,
		ClientName: ap.Client.FullName,
	}
	if ap.Service != nil {
		out.ServiceName = ap.Service.Name
	}
	if ap.Area != nil {
		out.AreaName = ap.Area.Name
	}
	return out
}

func NewAppointmentList(aps []models.Appointment) []AppointmentListDTO {
	out := make([]AppointmentListDTO, 0, len(aps))
	for i := range aps {
		out = append(out, NewAppointmentListDTO(&aps[i]))
	}
	return out
}
