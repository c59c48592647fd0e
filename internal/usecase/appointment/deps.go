package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/laserowo/studio-manager/internal/audit"
	domain "github.com/laserowo/studio-manager/internal/domain/appointment"
	"github.com/laserowo/studio-manager/internal/domain/reconcile"
	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/metrics"
	"github.com/laserowo/studio-manager/internal/models"
	"github.com/laserowo/studio-manager/internal/timezone"
	"github.com/laserowo/studio-manager/internal/usecase/resolver"
)

// Deps are the collaborators shared by the appointment use cases.
type Deps struct {
	Repo     domain.Repository
	Resolver *resolver.Resolver
	Audit    *audit.Dispatcher
	Metrics  *metrics.StudioMetrics
	Log      zerolog.Logger

	// Timezone is the studio's IANA zone, used for audit timestamps.
	Timezone string
	// EnforceSpacing rejects interactive bookings that break session spacing.
	EnforceSpacing bool
	// Now overrides the clock in tests.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return timezone.NowIn(d.Timezone)
}

func (d Deps) dispatch(action string, userID *uint, ap *models.Appointment, meta any) {
	id := ap.ID
	d.Audit.Dispatch(audit.Event{
		UserID:   userID,
		Action:   action,
		Entity:   "appointment",
		EntityID: &id,
		Metadata: meta,
	})
}

// load fetches an appointment or reports appointment_not_found.
func load(ctx context.Context, repo domain.Repository, id uint) (*models.Appointment, error) {
	ap, err := repo.GetAppointment(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, httperr.ErrBusiness(httperr.CodeAppointmentNotFound)
	}
	if err != nil {
		return nil, httperr.Persistence("load appointment", err)
	}
	return ap, nil
}

// optionalRef resolves an optional reference given by id or by name.
// Failures are logged and reported as a warning; the reference stays empty.
func (d Deps) optionalRef(
	ctx context.Context,
	kind reconcile.Kind,
	id *uint,
	name string,
) (*uint, string) {

	var (
		ref reconcile.Ref
		err error
	)

	switch {
	case id != nil && *id != 0:
		ref, err = d.Resolver.ResolveByID(ctx, kind, *id)
	case name != "":
		ref, err = d.Resolver.ResolveReferenceName(ctx, kind, name)
	default:
		return nil, ""
	}

	if err != nil {
		d.Log.Warn().Err(err).
			Str("kind", string(kind)).
			Str("name", name).
			Msg("optional reference not resolved")
		return nil, string(kind) + " not resolved, left empty"
	}

	refID := ref.ID
	return &refID, ""
}
