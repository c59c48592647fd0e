package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/laserowo/studio-manager/internal/domain/appointment"
	"github.com/laserowo/studio-manager/internal/domain/reconcile"
	"github.com/laserowo/studio-manager/internal/dto"
	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/models"
)

// TextValue accepts a JSON string or number and keeps its text.
type TextValue string

func (v *TextValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = TextValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = TextValue(n.String())
	return nil
}

// UpdateAppointmentInput lists every mutable field. A nil pointer leaves the
// field untouched; an empty name or a zero id clears a reference.
type UpdateAppointmentInput struct {
	UserID        *uint `json:"-"`
	AppointmentID uint  `json:"id"`

	ClientID *uint `json:"client_id"`

	Date      *string `json:"date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`

	ServiceID         *uint   `json:"service_id"`
	ServiceName       *string `json:"service_name"`
	AreaID            *uint   `json:"area_id"`
	AreaName          *string `json:"area_name"`
	PaymentMethodID   *uint   `json:"payment_method_id"`
	PaymentMethodName *string `json:"payment_method_name"`
	PromotionID       *uint   `json:"promotion_id"`
	PromotionName     *string `json:"promotion_name"`
	HardwareID        *uint   `json:"hardware_id"`
	HardwareName      *string `json:"hardware_name"`

	SessionNumberForArea         *int       `json:"session_number_for_area"`
	PowerJcm3                    *string    `json:"power_j_cm3"`
	Amount                       *TextValue `json:"amount"`
	Notes                        *string    `json:"notes"`
	NextSuggestedAppointmentDate *string    `json:"next_suggested_appointment_date"`
}

type UpdateAppointmentResult struct {
	Appointment dto.AppointmentDTO `json:"appointment"`
	Warnings    []string           `json:"warnings,omitempty"`
}

type UpdateAppointment struct {
	Deps
}

func NewUpdateAppointment(deps Deps) *UpdateAppointment {
	return &UpdateAppointment{Deps: deps}
}

// Execute applies the supplied fields. Unparsable dates, times and amounts
// are dropped with a warning instead of failing the update.
func (uc *UpdateAppointment) Execute(
	ctx context.Context,
	in UpdateAppointmentInput,
) (res *UpdateAppointmentResult, err error) {

	defer func() { uc.Metrics.ObserveAppointment("update", err) }()

	ap, err := load(ctx, uc.Repo, in.AppointmentID)
	if err != nil {
		return nil, err
	}

	res = &UpdateAppointmentResult{}
	warn := func(field, value string) {
		uc.Log.Warn().
			Uint("appointment_id", ap.ID).
			Str("field", field).
			Str("value", value).
			Msg("update field dropped")
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s %q not understood, left unchanged", field, value))
	}

	// --------------------------------------------------
	// Owner
	// --------------------------------------------------
	if in.ClientID != nil {
		ref, err := uc.Resolver.ResolveByID(ctx, reconcile.KindClient, *in.ClientID)
		if err != nil {
			return nil, httperr.ClientResolutionError{Reason: "client id not found", Err: err}
		}
		ap.ClientID = ref.ID
	}

	// --------------------------------------------------
	// Date / time
	// --------------------------------------------------
	if in.Date != nil {
		if d, err := domain.ParseDate(*in.Date); err != nil {
			warn("date", *in.Date)
		} else {
			ap.Date = d
		}
	}

	timesChanged := false
	if in.StartTime != nil {
		if c, err := domain.ParseClock(*in.StartTime); err != nil {
			warn("start_time", *in.StartTime)
		} else {
			ap.StartTime = c.String()
			timesChanged = true
		}
	}
	if in.EndTime != nil {
		if c, err := domain.ParseClock(*in.EndTime); err != nil {
			warn("end_time", *in.EndTime)
		} else {
			ap.EndTime = c.String()
			timesChanged = true
		}
	}
	if timesChanged {
		repairTimes(ap)
	}

	if in.NextSuggestedAppointmentDate != nil {
		switch v := strings.TrimSpace(*in.NextSuggestedAppointmentDate); {
		case v == "":
			ap.NextSuggestedAppointmentDate = nil
		default:
			if d, err := domain.ParseDate(v); err != nil {
				warn("next_suggested_appointment_date", v)
			} else {
				ap.NextSuggestedAppointmentDate = &d
			}
		}
	}

	// --------------------------------------------------
	// Amount / details
	// --------------------------------------------------
	if in.Amount != nil {
		if v, err := domain.ParseAmount(string(*in.Amount)); err != nil {
			warn("amount", string(*in.Amount))
		} else {
			ap.Amount = v
		}
	}
	if in.SessionNumberForArea != nil {
		n := *in.SessionNumberForArea
		if n <= 0 {
			ap.SessionNumberForArea = nil
		} else {
			ap.SessionNumberForArea = &n
		}
	}
	if in.PowerJcm3 != nil {
		ap.PowerJcm3 = strings.TrimSpace(*in.PowerJcm3)
	}
	if in.Notes != nil {
		ap.Notes = *in.Notes
	}

	// --------------------------------------------------
	// References
	// --------------------------------------------------
	for _, ref := range []struct {
		kind   reconcile.Kind
		id     *uint
		name   *string
		target **uint
	}{
		{reconcile.KindService, in.ServiceID, in.ServiceName, &ap.ServiceID},
		{reconcile.KindTreatmentArea, in.AreaID, in.AreaName, &ap.AreaID},
		{reconcile.KindPaymentMethod, in.PaymentMethodID, in.PaymentMethodName, &ap.PaymentMethodID},
		{reconcile.KindPromotion, in.PromotionID, in.PromotionName, &ap.PromotionID},
		{reconcile.KindHardware, in.HardwareID, in.HardwareName, &ap.HardwareID},
	} {
		switch {
		case ref.id != nil && *ref.id == 0, ref.name != nil && strings.TrimSpace(*ref.name) == "":
			*ref.target = nil
		case ref.id != nil || ref.name != nil:
			name := ""
			if ref.name != nil {
				name = strings.TrimSpace(*ref.name)
			}
			id, warning := uc.optionalRef(ctx, ref.kind, ref.id, name)
			if warning != "" {
				res.Warnings = append(res.Warnings, warning)
				continue
			}
			*ref.target = id
		}
	}

	// --------------------------------------------------
	// Persist
	// --------------------------------------------------
	var saved *models.Appointment
	err = uc.Repo.WithinTransaction(ctx, func(tx domain.Repository) error {
		if err := tx.UpdateAppointment(ctx, ap); err != nil {
			return err
		}
		var err error
		saved, err = tx.GetAppointment(ctx, ap.ID)
		return err
	})
	if err != nil {
		return nil, httperr.Persistence("update appointment", err)
	}

	uc.dispatch("appointment_updated", in.UserID, saved, nil)
	uc.Log.Info().
		Uint("appointment_id", saved.ID).
		Int("warnings", len(res.Warnings)).
		Msg("appointment updated")

	res.Appointment = dto.NewAppointmentDTO(saved)
	return res, nil
}

// repairTimes applies the interactive end-time rule to stored times.
func repairTimes(ap *models.Appointment) {
	start, err := domain.ParseClock(ap.StartTime)
	if err != nil {
		return
	}

	var end *domain.Clock
	if e, err := domain.ParseClock(ap.EndTime); err == nil {
		end = &e
	}

	ap.EndTime = domain.EndTime(start, end, nil).String()
}
