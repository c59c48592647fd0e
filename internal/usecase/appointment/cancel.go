package appointment

import (
	"context"

	domain "github.com/laserowo/studio-manager/internal/domain/appointment"
	"github.com/laserowo/studio-manager/internal/dto"
	"github.com/laserowo/studio-manager/internal/httperr"
)

type CancelAppointment struct {
	Deps
}

func NewCancelAppointment(deps Deps) *CancelAppointment {
	return &CancelAppointment{Deps: deps}
}

func (uc *CancelAppointment) Execute(
	ctx context.Context,
	userID *uint,
	appointmentID uint,
) (out *dto.AppointmentDTO, err error) {

	defer func() { uc.Metrics.ObserveAppointment("cancel", err) }()

	ap, err := load(ctx, uc.Repo, appointmentID)
	if err != nil {
		return nil, err
	}

	from := ap.Status
	if err := domain.Cancel(ap, uc.now()); err != nil {
		return nil, err
	}

	if err := uc.Repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, httperr.Persistence("cancel appointment", err)
	}

	uc.dispatch("appointment_cancelled", userID, ap, map[string]string{"from": from})
	uc.Log.Info().Uint("appointment_id", ap.ID).Str("from", from).Msg("appointment cancelled")

	view := dto.NewAppointmentDTO(ap)
	return &view, nil
}
