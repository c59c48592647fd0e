package appointment

import (
	"context"

	domain "github.com/laserowo/studio-manager/internal/domain/appointment"
	"github.com/laserowo/studio-manager/internal/dto"
	"github.com/laserowo/studio-manager/internal/httperr"
)

type CompleteAppointment struct {
	Deps
}

func NewCompleteAppointment(deps Deps) *CompleteAppointment {
	return &CompleteAppointment{Deps: deps}
}

func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	userID *uint,
	appointmentID uint,
) (out *dto.AppointmentDTO, err error) {

	defer func() { uc.Metrics.ObserveAppointment("complete", err) }()

	ap, err := load(ctx, uc.Repo, appointmentID)
	if err != nil {
		return nil, err
	}

	if err := domain.Complete(ap, uc.now()); err != nil {
		return nil, err
	}

	if err := uc.Repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, httperr.Persistence("complete appointment", err)
	}

	uc.dispatch("appointment_completed", userID, ap, nil)
	uc.Log.Info().Uint("appointment_id", ap.ID).Msg("appointment completed")

	view := dto.NewAppointmentDTO(ap)
	return &view, nil
}
