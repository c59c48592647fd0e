package appointment

import (
	"context"
	"strings"

	domain "github.com/laserowo/studio-manager/internal/domain/appointment"
	"github.com/laserowo/studio-manager/internal/dto"
	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/models"
)

type RescheduleAppointmentInput struct {
	UserID        *uint  `json:"-"`
	AppointmentID uint   `json:"id"`
	NewDate       string `json:"new_date"`
	NewStartTime  string `json:"new_start_time"`
}

type RescheduleResult struct {
	Original    dto.AppointmentDTO `json:"original"`
	Appointment dto.AppointmentDTO `json:"appointment"`
}

type RescheduleAppointment struct {
	Deps
}

func NewRescheduleAppointment(deps Deps) *RescheduleAppointment {
	return &RescheduleAppointment{Deps: deps}
}

// Execute marks the appointment Rescheduled and books its successor in one
// transaction.
func (uc *RescheduleAppointment) Execute(
	ctx context.Context,
	in RescheduleAppointmentInput,
) (res *RescheduleResult, err error) {

	defer func() { uc.Metrics.ObserveAppointment("reschedule", err) }()

	date, err := domain.ParseDate(in.NewDate)
	if err != nil {
		return nil, httperr.Validation("new_date", "expected YYYY-MM-DD")
	}

	var start *domain.Clock
	if strings.TrimSpace(in.NewStartTime) != "" {
		c, err := domain.ParseClock(in.NewStartTime)
		if err != nil {
			return nil, httperr.Validation("new_start_time", "expected HH:MM[:SS]")
		}
		start = &c
	}

	var original, next *models.Appointment
	err = uc.Repo.WithinTransaction(ctx, func(tx domain.Repository) error {
		ap, err := load(ctx, tx, in.AppointmentID)
		if err != nil {
			return err
		}

		successor, err := domain.Reschedule(ap, date, start, uc.now())
		if err != nil {
			return err
		}

		if err := tx.UpdateAppointment(ctx, ap); err != nil {
			return httperr.Persistence("mark rescheduled", err)
		}
		if err := tx.CreateAppointment(ctx, successor); err != nil {
			return httperr.Persistence("create successor", err)
		}

		original = ap
		next, err = tx.GetAppointment(ctx, successor.ID)
		return httperr.Persistence("load successor", err)
	})
	if err != nil {
		return nil, err
	}

	uc.dispatch("appointment_rescheduled", in.UserID, original, map[string]uint{"successor_id": next.ID})
	uc.Log.Info().
		Uint("appointment_id", original.ID).
		Uint("successor_id", next.ID).
		Str("new_date", in.NewDate).
		Msg("appointment rescheduled")

	return &RescheduleResult{
		Original:    dto.NewAppointmentDTO(original),
		Appointment: dto.NewAppointmentDTO(next),
	}, nil
}
