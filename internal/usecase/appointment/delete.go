package appointment

import (
	"context"
	"errors"

	domain "github.com/laserowo/studio-manager/internal/domain/appointment"
	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/models"
)

// DeleteAppointment removes a row outright. Lifecycle changes go through
// cancel or reschedule; this is an administrative correction.
type DeleteAppointment struct {
	Deps
}

func NewDeleteAppointment(deps Deps) *DeleteAppointment {
	return &DeleteAppointment{Deps: deps}
}

func (uc *DeleteAppointment) Execute(
	ctx context.Context,
	userID *uint,
	appointmentID uint,
) (err error) {

	defer func() { uc.Metrics.ObserveAppointment("delete", err) }()

	if err := uc.Repo.DeleteAppointment(ctx, appointmentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return httperr.ErrBusiness(httperr.CodeAppointmentNotFound)
		}
		return httperr.Persistence("delete appointment", err)
	}

	uc.dispatch("appointment_deleted", userID, &models.Appointment{ID: appointmentID}, nil)
	uc.Log.Info().Uint("appointment_id", appointmentID).Msg("appointment deleted")
	return nil
}
