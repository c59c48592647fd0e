package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/laserowo/studio-manager/internal/models"
)

var ErrNotFound = errors.New("appointment not found")

type Repository interface {
	// -------- Appointment (create / read) --------
	CreateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	// GetAppointment loads the row with its client and references.
	GetAppointment(
		ctx context.Context,
		id uint,
	) (*models.Appointment, error)

	// -------- Appointment (state change) --------
	UpdateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	DeleteAppointment(
		ctx context.Context,
		id uint,
	) error

	// -------- Session spacing --------

	// LatestCompletedSession returns nil, nil when the client has no completed
	// session in the area on or before the given date.
	LatestCompletedSession(
		ctx context.Context,
		clientID uint,
		areaID uint,
		onOrBefore time.Time,
	) (*models.Appointment, error)

	// -------- Listing --------
	ListAppointmentsForPeriod(
		ctx context.Context,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	ListAppointmentsForClient(
		ctx context.Context,
		clientID uint,
	) ([]models.Appointment, error)

	SearchAppointments(
		ctx context.Context,
		query string,
	) ([]models.Appointment, error)

	CountAppointmentsForClient(
		ctx context.Context,
		clientID uint,
	) (int64, error)

	// WithinTransaction runs fn against a repository bound to one store
	// transaction, rolled back when fn returns an error.
	WithinTransaction(
		ctx context.Context,
		fn func(tx Repository) error,
	) error
}
