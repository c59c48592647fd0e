package appointment

import (
	"time"

	"github.com/laserowo/studio-manager/internal/models"
)

// ===============================
// Domain Actions
// ===============================

func Cancel(ap *models.Appointment, now time.Time) error {
	if err := CanCancel(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCancelled)
	ap.CancelledAt = &now
	return nil
}

func Complete(ap *models.Appointment, now time.Time) error {
	if err := CanComplete(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCompleted)
	ap.CompletedAt = &now
	return nil
}

// Reschedule marks ap as Rescheduled and returns its successor: a copy of
// every field except date and times, pointing back at ap.
// A zero newStart keeps the original start time. The original length of the
// visit is preserved.
func Reschedule(ap *models.Appointment, newDate time.Time, newStart *Clock, now time.Time) (*models.Appointment, error) {
	if err := CanReschedule(Status(ap.Status)); err != nil {
		return nil, err
	}

	oldStart, err := ParseClock(ap.StartTime)
	if err != nil {
		oldStart = DefaultStart
	}
	length := DefaultDuration
	if oldEnd, err := ParseClock(ap.EndTime); err == nil && oldEnd.After(oldStart) {
		length = oldEnd.Sub(oldStart)
	}

	start := oldStart
	if newStart != nil {
		start = *newStart
	}
	end := start.Add(length)

	origID := ap.ID
	next := &models.Appointment{
		ClientID:                     ap.ClientID,
		ServiceID:                    ap.ServiceID,
		AreaID:                       ap.AreaID,
		PaymentMethodID:              ap.PaymentMethodID,
		PromotionID:                  ap.PromotionID,
		HardwareID:                   ap.HardwareID,
		Date:                         DateOnly(newDate),
		StartTime:                    start.String(),
		EndTime:                      end.String(),
		SessionNumberForArea:         ap.SessionNumberForArea,
		PowerJcm3:                    ap.PowerJcm3,
		Amount:                       ap.Amount,
		Status:                       string(StatusScheduled),
		Notes:                        ap.Notes,
		NextSuggestedAppointmentDate: ap.NextSuggestedAppointmentDate,
		OriginalAppointmentID:        &origID,
	}

	ap.Status = string(StatusRescheduled)
	ap.RescheduledAt = &now

	return next, nil
}
