package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "github.com/laserowo/studio-manager/internal/domain/appointment"
	"github.com/laserowo/studio-manager/internal/domain/reconcile"
	"github.com/laserowo/studio-manager/internal/dto"
	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/models"
	"github.com/laserowo/studio-manager/internal/usecase/resolver"
)

// ======================================================
// INPUT
// ======================================================

type CreateAppointmentInput struct {
	UserID *uint `json:"-"`

	ClientID         *uint  `json:"client_id"`
	ClientName       string `json:"client_name"`
	ClientPhone      string `json:"client_phone"`
	ClientEmail      string `json:"client_email"`
	ClientExternalID string `json:"client_external_id"`

	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	DurationMin *int   `json:"duration_min"`

	ServiceID         *uint  `json:"service_id"`
	ServiceName       string `json:"service_name"`
	AreaID            *uint  `json:"area_id"`
	AreaName          string `json:"area_name"`
	PaymentMethodID   *uint  `json:"payment_method_id"`
	PaymentMethodName string `json:"payment_method_name"`
	PromotionID       *uint  `json:"promotion_id"`
	PromotionName     string `json:"promotion_name"`
	HardwareID        *uint  `json:"hardware_id"`
	HardwareName      string `json:"hardware_name"`

	SessionNumberForArea *int    `json:"session_number_for_area"`
	PowerJcm3            string  `json:"power_j_cm3"`
	Amount               float64 `json:"amount"`
	Notes                string  `json:"notes"`
}

type CreateAppointmentResult struct {
	Appointment   dto.AppointmentDTO `json:"appointment"`
	ClientCreated bool               `json:"client_created"`
	SpacingResult
	Warnings []string `json:"warnings,omitempty"`
}

// ======================================================
// USE CASE
// ======================================================

type CreateAppointment struct {
	Deps
}

func NewCreateAppointment(deps Deps) *CreateAppointment {
	return &CreateAppointment{Deps: deps}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateAppointment) Execute(
	ctx context.Context,
	in CreateAppointmentInput,
) (res *CreateAppointmentResult, err error) {

	defer func() { uc.Metrics.ObserveAppointment("create", err) }()

	// --------------------------------------------------
	// 1️⃣ Date / time
	// --------------------------------------------------
	date, err := domain.ParseDate(in.Date)
	if err != nil {
		return nil, httperr.Validation("date", "expected YYYY-MM-DD")
	}

	start, err := domain.ParseClock(in.StartTime)
	if err != nil {
		return nil, httperr.Validation("start_time", "expected HH:MM[:SS]")
	}

	var end *domain.Clock
	if strings.TrimSpace(in.EndTime) != "" {
		e, err := domain.ParseClock(in.EndTime)
		if err != nil {
			return nil, httperr.Validation("end_time", "expected HH:MM[:SS]")
		}
		end = &e
	}

	var duration *time.Duration
	if in.DurationMin != nil {
		d := time.Duration(*in.DurationMin) * time.Minute
		duration = &d
	}

	// --------------------------------------------------
	// 2️⃣ Client (get or create)
	// --------------------------------------------------
	client, err := uc.resolveClient(ctx, in)
	if err != nil {
		return nil, err
	}

	res = &CreateAppointmentResult{ClientCreated: client.Created}

	// --------------------------------------------------
	// 3️⃣ Optional references
	// --------------------------------------------------
	ap := &models.Appointment{
		ClientID:             client.ID,
		Date:                 date,
		StartTime:            start.String(),
		EndTime:              domain.EndTime(start, end, duration).String(),
		SessionNumberForArea: in.SessionNumberForArea,
		PowerJcm3:            strings.TrimSpace(in.PowerJcm3),
		Amount:               in.Amount,
		Status:               string(domain.InitialStatus()),
		Notes:                in.Notes,
	}

	for _, ref := range []struct {
		kind   reconcile.Kind
		id     *uint
		name   string
		target **uint
	}{
		{reconcile.KindService, in.ServiceID, in.ServiceName, &ap.ServiceID},
		{reconcile.KindTreatmentArea, in.AreaID, in.AreaName, &ap.AreaID},
		{reconcile.KindPaymentMethod, in.PaymentMethodID, in.PaymentMethodName, &ap.PaymentMethodID},
		{reconcile.KindPromotion, in.PromotionID, in.PromotionName, &ap.PromotionID},
		{reconcile.KindHardware, in.HardwareID, in.HardwareName, &ap.HardwareID},
	} {
		id, warning := uc.optionalRef(ctx, ref.kind, ref.id, strings.TrimSpace(ref.name))
		*ref.target = id
		if warning != "" {
			res.Warnings = append(res.Warnings, warning)
		}
	}

	// --------------------------------------------------
	// 4️⃣ Session spacing
	// --------------------------------------------------
	spacing, err := evaluateSpacing(ctx, uc.Repo, ap)
	if err != nil {
		return nil, err
	}
	res.SpacingResult = spacing

	if !spacing.SpacingSatisfied {
		if uc.EnforceSpacing {
			return nil, httperr.Validation("date",
				fmt.Sprintf("session spacing not met, earliest date is %s", *spacing.EarliestDate))
		}
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("session spacing not met, earliest date is %s", *spacing.EarliestDate))
	}

	// --------------------------------------------------
	// 5️⃣ Persist
	// --------------------------------------------------
	var saved *models.Appointment
	err = uc.Repo.WithinTransaction(ctx, func(tx domain.Repository) error {
		if err := tx.CreateAppointment(ctx, ap); err != nil {
			return err
		}
		var err error
		saved, err = tx.GetAppointment(ctx, ap.ID)
		return err
	})
	if err != nil {
		uc.Log.Error().Err(err).Uint("client_id", client.ID).Msg("create appointment failed")
		return nil, httperr.Persistence("create appointment", err)
	}

	// --------------------------------------------------
	// 6️⃣ Audit
	// --------------------------------------------------
	uc.dispatch("appointment_created", in.UserID, saved, nil)
	uc.Log.Info().
		Uint("appointment_id", saved.ID).
		Uint("client_id", saved.ClientID).
		Str("date", in.Date).
		Msg("appointment created")

	res.Appointment = dto.NewAppointmentDTO(saved)
	return res, nil
}

func (uc *CreateAppointment) resolveClient(
	ctx context.Context,
	in CreateAppointmentInput,
) (reconcile.Ref, error) {

	if in.ClientID != nil && *in.ClientID != 0 {
		ref, err := uc.Resolver.ResolveByID(ctx, reconcile.KindClient, *in.ClientID)
		if err != nil {
			return reconcile.Ref{}, httperr.ClientResolutionError{Reason: "client id not found", Err: err}
		}
		return ref, nil
	}

	keys := resolver.ClientKeys(in.ClientExternalID, in.ClientPhone, in.ClientEmail, in.ClientName)
	if len(keys) == 0 {
		return reconcile.Ref{}, httperr.ClientResolutionError{Reason: "no client name or identifier supplied"}
	}

	ref, err := uc.Resolver.ResolveOrCreate(ctx, reconcile.KindClient, keys, resolver.Fields{
		Name: in.ClientName,
		Client: resolver.ClientAttributes{
			PhoneNumber: in.ClientPhone,
			Email:       in.ClientEmail,
			ExternalID:  in.ClientExternalID,
		},
	})
	if err != nil {
		return reconcile.Ref{}, httperr.ClientResolutionError{Reason: "cannot identify or create client", Err: err}
	}
	return ref, nil
}
