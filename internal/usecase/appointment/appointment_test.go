package appointment_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/laserowo/studio-manager/internal/db/dbtest"
	domain "github.com/laserowo/studio-manager/internal/domain/appointment"
	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/infra/repository"
	"github.com/laserowo/studio-manager/internal/models"
	usecase "github.com/laserowo/studio-manager/internal/usecase/appointment"
	"github.com/laserowo/studio-manager/internal/usecase/resolver"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	db   *gorm.DB
	deps usecase.Deps
}

func newEnv(t *testing.T) env {
	t.Helper()
	gdb := dbtest.Open(t)
	return env{
		db: gdb,
		deps: usecase.Deps{
			Repo: repository.NewAppointmentGormRepository(gdb),
			Resolver: resolver.New(
				repository.NewClientGormRepository(gdb),
				repository.NewReferenceGormRepository(gdb),
				zerolog.Nop(),
			),
			Log: zerolog.Nop(),
			Now: func() time.Time { return fixedNow },
		},
	}
}

func (e env) create(t *testing.T, in usecase.CreateAppointmentInput) *usecase.CreateAppointmentResult {
	t.Helper()
	res, err := usecase.NewCreateAppointment(e.deps).Execute(context.Background(), in)
	require.NoError(t, err)
	return res
}

func (e env) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }
func uintPtr(u uint) *uint    { return &u }

// ======================================================
// CREATE
// ======================================================

func TestCreateAppointmentEndTime(t *testing.T) {
	cases := []struct {
		name     string
		start    string
		end      string
		duration *int
		want     string
	}{
		{"end before start is repaired", "14:00", "13:00", nil, "15:00:00"},
		{"missing end defaults to one hour", "10:00", "", nil, "11:00:00"},
		{"explicit duration wins", "10:00", "10:15", intPtr(90), "11:30:00"},
		{"valid end kept", "10:00", "10:45:30", nil, "10:45:30"},
		{"late start capped at midnight", "23:30", "", nil, "23:59:59"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t)
			res := e.create(t, usecase.CreateAppointmentInput{
				ClientName:  "Anna Nowak",
				Date:        "2025-03-10",
				StartTime:   tc.start,
				EndTime:     tc.end,
				DurationMin: tc.duration,
			})
			assert.Equal(t, tc.want, res.Appointment.EndTime)

			var stored models.Appointment
			require.NoError(t, e.db.First(&stored, res.Appointment.ID).Error)
			assert.Equal(t, tc.want, stored.EndTime)
		})
	}
}

func TestCreateAppointmentResolvesReferences(t *testing.T) {
	e := newEnv(t)

	res := e.create(t, usecase.CreateAppointmentInput{
		ClientName:        "Anna Nowak",
		ClientPhone:       "600 100 200",
		Date:              "2025-03-10",
		StartTime:         "09:30",
		ServiceName:       "Laser – Legs",
		AreaName:          "Nogi",
		PaymentMethodName: "Karta",
		Amount:            350,
	})

	ap := res.Appointment
	assert.True(t, res.ClientCreated)
	assert.Equal(t, "Scheduled", ap.Status)
	assert.Equal(t, "Anna Nowak", ap.ClientName)
	assert.Equal(t, "Laser – Legs", ap.ServiceName)
	assert.Equal(t, "Nogi", ap.AreaName)
	assert.Equal(t, "Karta", ap.PaymentMethodName)
	assert.Nil(t, ap.PromotionID)
	assert.Equal(t, 350.0, ap.Amount)
	assert.True(t, res.SpacingSatisfied)

	again := e.create(t, usecase.CreateAppointmentInput{
		ClientPhone: "600-100-200",
		ClientName:  "Anna Nowak",
		Date:        "2025-04-10",
		StartTime:   "09:30",
		ServiceName: "laser – legs",
	})
	assert.False(t, again.ClientCreated)
	assert.Equal(t, ap.ServiceID, again.Appointment.ServiceID)
	assert.EqualValues(t, 1, e.count(t, &models.Service{}))
}

func TestCreateAppointmentWithoutClientData(t *testing.T) {
	e := newEnv(t)

	_, err := usecase.NewCreateAppointment(e.deps).Execute(context.Background(), usecase.CreateAppointmentInput{
		Date:      "2025-03-10",
		StartTime: "10:00",
	})

	var cre httperr.ClientResolutionError
	require.ErrorAs(t, err, &cre)
	assert.EqualValues(t, 0, e.count(t, &models.Appointment{}))
}

func TestCreateAppointmentRejectsBadDate(t *testing.T) {
	e := newEnv(t)

	_, err := usecase.NewCreateAppointment(e.deps).Execute(context.Background(), usecase.CreateAppointmentInput{
		ClientName: "Anna",
		Date:       "10.03.2025",
		StartTime:  "10:00",
	})

	var ve httperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "date", ve.Field)
}

func TestCreateAppointmentLeavesUnknownReferenceEmpty(t *testing.T) {
	e := newEnv(t)

	res := e.create(t, usecase.CreateAppointmentInput{
		ClientName: "Anna Nowak",
		Date:       "2025-03-10",
		StartTime:  "10:00",
		ServiceID:  uintPtr(999),
	})

	assert.Nil(t, res.Appointment.ServiceID)
	assert.Len(t, res.Warnings, 1)
	assert.EqualValues(t, 1, e.count(t, &models.Appointment{}))
}

type failingCreateRepo struct {
	domain.Repository
}

func (r failingCreateRepo) WithinTransaction(ctx context.Context, fn func(tx domain.Repository) error) error {
	return r.Repository.WithinTransaction(ctx, func(tx domain.Repository) error {
		return fn(failingCreateRepo{tx})
	})
}

func (failingCreateRepo) CreateAppointment(context.Context, *models.Appointment) error {
	return errors.New("disk full")
}

func TestCreateAppointmentPersistenceFailure(t *testing.T) {
	e := newEnv(t)
	e.deps.Repo = failingCreateRepo{e.deps.Repo}

	_, err := usecase.NewCreateAppointment(e.deps).Execute(context.Background(), usecase.CreateAppointmentInput{
		ClientName:  "Anna Nowak",
		Date:        "2025-03-10",
		StartTime:   "10:00",
		ServiceName: "Laser – Legs",
	})

	var pe httperr.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.EqualValues(t, 0, e.count(t, &models.Appointment{}))
	// resolved sub-entities stay
	assert.EqualValues(t, 1, e.count(t, &models.Client{}))
	assert.EqualValues(t, 1, e.count(t, &models.Service{}))
}

// ======================================================
// SPACING
// ======================================================

func seedCompletedSession(t *testing.T, e env, date string, session int) (clientID, areaID uint) {
	t.Helper()
	res := e.create(t, usecase.CreateAppointmentInput{
		ClientName:           "Ewa Kowalska",
		Date:                 date,
		StartTime:            "10:00",
		AreaName:             "Pachy",
		SessionNumberForArea: intPtr(session),
	})
	_, err := usecase.NewCompleteAppointment(e.deps).Execute(context.Background(), nil, res.Appointment.ID)
	require.NoError(t, err)
	return res.Appointment.ClientID, *res.Appointment.AreaID
}

func TestCreateAppointmentSpacingWarning(t *testing.T) {
	e := newEnv(t)
	clientID, _ := seedCompletedSession(t, e, "2025-01-01", 2)

	res := e.create(t, usecase.CreateAppointmentInput{
		ClientID:             &clientID,
		Date:                 "2025-01-20",
		StartTime:            "10:00",
		AreaName:             "pachy",
		SessionNumberForArea: intPtr(3),
	})

	assert.False(t, res.SpacingSatisfied)
	require.NotNil(t, res.EarliestDate)
	assert.Equal(t, "2025-01-29", *res.EarliestDate)
	assert.Equal(t, 4, res.MinimumWaitWeeks)
	assert.NotEmpty(t, res.Warnings)
}

func TestCreateAppointmentSpacingEnforced(t *testing.T) {
	e := newEnv(t)
	e.deps.EnforceSpacing = true
	clientID, areaID := seedCompletedSession(t, e, "2025-01-01", 2)

	uc := usecase.NewCreateAppointment(e.deps)
	_, err := uc.Execute(context.Background(), usecase.CreateAppointmentInput{
		ClientID:             &clientID,
		Date:                 "2025-01-28",
		StartTime:            "10:00",
		AreaID:               &areaID,
		SessionNumberForArea: intPtr(3),
	})
	var ve httperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "date", ve.Field)

	res, err := uc.Execute(context.Background(), usecase.CreateAppointmentInput{
		ClientID:             &clientID,
		Date:                 "2025-01-29",
		StartTime:            "10:00",
		AreaID:               &areaID,
		SessionNumberForArea: intPtr(3),
	})
	require.NoError(t, err)
	assert.True(t, res.SpacingSatisfied)
}

func TestCheckSpacing(t *testing.T) {
	e := newEnv(t)
	clientID, _ := seedCompletedSession(t, e, "2025-01-01", 10)

	uc := usecase.NewCheckSpacing(e.deps.Repo, repository.NewReferenceGormRepository(e.db))

	res, err := uc.Execute(context.Background(), usecase.CheckSpacingInput{
		ClientID: clientID,
		AreaName: "PACHY",
		Date:     "2025-05-01",
	})
	require.NoError(t, err)
	assert.False(t, res.SpacingSatisfied)
	assert.Equal(t, 20, res.MinimumWaitWeeks)

	res, err = uc.Execute(context.Background(), usecase.CheckSpacingInput{
		ClientID: clientID,
		AreaName: "Twarz",
		Date:     "2025-01-02",
	})
	require.NoError(t, err)
	assert.True(t, res.SpacingSatisfied)
	assert.EqualValues(t, 1, e.count(t, &models.TreatmentArea{}))
}

func TestCheckSpacingReportsZeroWaitAfterFirstSession(t *testing.T) {
	e := newEnv(t)
	clientID, _ := seedCompletedSession(t, e, "2025-01-01", 1)

	uc := usecase.NewCheckSpacing(e.deps.Repo, repository.NewReferenceGormRepository(e.db))
	res, err := uc.Execute(context.Background(), usecase.CheckSpacingInput{
		ClientID: clientID,
		AreaName: "Pachy",
		Date:     "2025-01-01",
	})
	require.NoError(t, err)
	assert.True(t, res.SpacingSatisfied)
	assert.Equal(t, 0, res.MinimumWaitWeeks)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"minimum_wait_weeks":0`)
}

// ======================================================
// LIFECYCLE
// ======================================================

func TestRescheduleChain(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := e.create(t, usecase.CreateAppointmentInput{
		ClientName:  "Anna Nowak",
		Date:        "2025-03-10",
		StartTime:   "14:00",
		EndTime:     "14:45",
		ServiceName: "Laser – Legs",
		Amount:      200,
	}).Appointment

	res, err := usecase.NewRescheduleAppointment(e.deps).Execute(ctx, usecase.RescheduleAppointmentInput{
		AppointmentID: a.ID,
		NewDate:       "2025-03-17",
	})
	require.NoError(t, err)

	b := res.Appointment
	assert.NotEqual(t, a.ID, b.ID)
	require.NotNil(t, b.OriginalAppointmentID)
	assert.Equal(t, a.ID, *b.OriginalAppointmentID)
	assert.Equal(t, "Scheduled", b.Status)
	assert.Equal(t, "2025-03-17", b.Date)
	assert.Equal(t, "14:00:00", b.StartTime)
	assert.Equal(t, "14:45:00", b.EndTime)
	assert.Equal(t, a.ServiceID, b.ServiceID)
	assert.Equal(t, 200.0, b.Amount)
	assert.Equal(t, "Rescheduled", res.Original.Status)

	_, err = usecase.NewCancelAppointment(e.deps).Execute(ctx, nil, b.ID)
	require.NoError(t, err)

	var stored models.Appointment
	require.NoError(t, e.db.First(&stored, a.ID).Error)
	assert.Equal(t, "Rescheduled", stored.Status)
	assert.Nil(t, stored.CancelledAt)
}

func TestRescheduleWithNewStartTime(t *testing.T) {
	e := newEnv(t)

	a := e.create(t, usecase.CreateAppointmentInput{
		ClientName: "Anna Nowak",
		Date:       "2025-03-10",
		StartTime:  "10:00",
		EndTime:    "10:30",
	}).Appointment

	res, err := usecase.NewRescheduleAppointment(e.deps).Execute(context.Background(), usecase.RescheduleAppointmentInput{
		AppointmentID: a.ID,
		NewDate:       "2025-03-11",
		NewStartTime:  "16:15",
	})
	require.NoError(t, err)
	assert.Equal(t, "16:15:00", res.Appointment.StartTime)
	assert.Equal(t, "16:45:00", res.Appointment.EndTime)
}

func TestCancelCompletedAppointmentFails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := e.create(t, usecase.CreateAppointmentInput{
		ClientName: "Anna Nowak",
		Date:       "2025-03-10",
		StartTime:  "10:00",
	}).Appointment

	done, err := usecase.NewCompleteAppointment(e.deps).Execute(ctx, nil, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Completed", done.Status)
	require.NotNil(t, done.CompletedAt)

	_, err = usecase.NewCancelAppointment(e.deps).Execute(ctx, nil, a.ID)
	var st httperr.InvalidStateTransition
	require.ErrorAs(t, err, &st)
	assert.Equal(t, "Completed", st.From)

	_, err = usecase.NewRescheduleAppointment(e.deps).Execute(ctx, usecase.RescheduleAppointmentInput{
		AppointmentID: a.ID,
		NewDate:       "2025-04-01",
	})
	assert.True(t, httperr.IsStateTransition(err))
}

func TestCancelUnknownAppointment(t *testing.T) {
	e := newEnv(t)

	_, err := usecase.NewCancelAppointment(e.deps).Execute(context.Background(), nil, 42)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeAppointmentNotFound))
}

func TestDeleteAppointment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := e.create(t, usecase.CreateAppointmentInput{
		ClientName: "Anna Nowak",
		Date:       "2025-03-10",
		StartTime:  "10:00",
	}).Appointment

	uc := usecase.NewDeleteAppointment(e.deps)
	require.NoError(t, uc.Execute(ctx, nil, a.ID))
	assert.EqualValues(t, 0, e.count(t, &models.Appointment{}))

	err := uc.Execute(ctx, nil, a.ID)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeAppointmentNotFound))
}

// ======================================================
// UPDATE
// ======================================================

func TestUpdateAppointmentDropsUnparsableFields(t *testing.T) {
	e := newEnv(t)

	a := e.create(t, usecase.CreateAppointmentInput{
		ClientName: "Anna Nowak",
		Date:       "2025-03-10",
		StartTime:  "14:00",
		EndTime:    "15:00",
		Amount:     100,
	}).Appointment

	amount := usecase.TextValue("12,50")
	res, err := usecase.NewUpdateAppointment(e.deps).Execute(context.Background(), usecase.UpdateAppointmentInput{
		AppointmentID: a.ID,
		Date:          strPtr("31/02/2025"),
		StartTime:     strPtr("16:00"),
		Amount:        &amount,
		ServiceName:   strPtr("Laser – Face"),
		Notes:         strPtr("moved"),
	})
	require.NoError(t, err)

	ap := res.Appointment
	assert.Equal(t, "2025-03-10", ap.Date)
	assert.Equal(t, "16:00:00", ap.StartTime)
	assert.Equal(t, "17:00:00", ap.EndTime)
	assert.Equal(t, 12.5, ap.Amount)
	assert.Equal(t, "Laser – Face", ap.ServiceName)
	assert.Equal(t, "moved", ap.Notes)
	assert.Len(t, res.Warnings, 1)
}

func TestUpdateAppointmentClearsReference(t *testing.T) {
	e := newEnv(t)

	a := e.create(t, usecase.CreateAppointmentInput{
		ClientName:  "Anna Nowak",
		Date:        "2025-03-10",
		StartTime:   "10:00",
		ServiceName: "Laser – Legs",
	}).Appointment
	require.NotNil(t, a.ServiceID)

	bad := usecase.TextValue("dużo")
	res, err := usecase.NewUpdateAppointment(e.deps).Execute(context.Background(), usecase.UpdateAppointmentInput{
		AppointmentID: a.ID,
		ServiceName:   strPtr(""),
		Amount:        &bad,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Appointment.ServiceID)
	assert.Equal(t, a.Amount, res.Appointment.Amount)
	assert.Len(t, res.Warnings, 1)
}

// ======================================================
// QUERIES
// ======================================================

func TestListAndSearchAppointments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, in := range []usecase.CreateAppointmentInput{
		{ClientName: "Anna Nowak", Date: "2025-03-10", StartTime: "12:00", ServiceName: "Laser – Legs"},
		{ClientName: "Anna Nowak", Date: "2025-03-10", StartTime: "09:00"},
		{ClientName: "Ewa Kowalska", Date: "2025-03-21", StartTime: "10:00", AreaName: "Pachy"},
		{ClientName: "Ewa Kowalska", Date: "2025-04-01", StartTime: "10:00"},
	} {
		e.create(t, in)
	}

	list := usecase.NewListAppointments(e.deps.Repo)

	day, err := list.Execute(ctx, usecase.ListAppointmentsInput{Date: "2025-03-10"})
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "09:00:00", day[0].StartTime)

	month, err := list.Execute(ctx, usecase.ListAppointmentsInput{Year: 2025, Month: 3})
	require.NoError(t, err)
	assert.Len(t, month, 3)

	client, err := list.Execute(ctx, usecase.ListAppointmentsInput{ClientID: uintPtr(day[0].ClientID)})
	require.NoError(t, err)
	assert.Len(t, client, 2)

	_, err = list.Execute(ctx, usecase.ListAppointmentsInput{})
	assert.True(t, httperr.IsValidation(err))

	search := usecase.NewSearchAppointments(e.deps.Repo)

	found, err := search.Execute(ctx, "legs")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Laser – Legs", found[0].ServiceName)

	found, err = search.Execute(ctx, "KOWALSKA")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	got, err := usecase.NewGetAppointment(e.deps.Repo).Execute(ctx, found[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Ewa Kowalska", got.ClientName)
}
