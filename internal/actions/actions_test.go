package actions_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laserowo/studio-manager/internal/actions"
	"github.com/laserowo/studio-manager/internal/db/dbtest"
	"github.com/laserowo/studio-manager/internal/domain/reconcile"
	"github.com/laserowo/studio-manager/internal/dto"
	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/infra/repository"
	"github.com/laserowo/studio-manager/internal/models"
	ucAppointment "github.com/laserowo/studio-manager/internal/usecase/appointment"
	ucClient "github.com/laserowo/studio-manager/internal/usecase/client"
	"github.com/laserowo/studio-manager/internal/usecase/importer"
)

func newDispatcher(t *testing.T) *actions.Dispatcher {
	t.Helper()
	gdb := dbtest.Open(t)
	return actions.New(actions.Deps{
		Appointments: repository.NewAppointmentGormRepository(gdb),
		Clients:      repository.NewClientGormRepository(gdb),
		References:   repository.NewReferenceGormRepository(gdb),
		Log:          zerolog.Nop(),
		Timezone:     "Europe/Warsaw",
	})
}

func dispatch(t *testing.T, d *actions.Dispatcher, action, args string) any {
	t.Helper()
	out, err := d.Dispatch(context.Background(), nil, action, json.RawMessage(args))
	require.NoError(t, err, action)
	return out
}

func TestDispatcherRegistersEveryAction(t *testing.T) {
	d := newDispatcher(t)
	assert.Equal(t, []string{
		"cancel_appointment",
		"check_spacing",
		"complete_appointment",
		"create_appointment",
		"deactivate_client",
		"delete_appointment",
		"get_appointment",
		"get_client",
		"import_spreadsheet",
		"list_appointments",
		"list_references",
		"reschedule_appointment",
		"resolve_client",
		"resolve_reference",
		"search_appointments",
		"search_clients",
		"update_appointment",
	}, d.Names())
}

func TestDispatchUnknownAction(t *testing.T) {
	d := newDispatcher(t)
	_, err := d.Dispatch(context.Background(), nil, "book_everything", nil)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeUnknownAction))
}

func TestDispatchRejectsBadArguments(t *testing.T) {
	d := newDispatcher(t)

	_, err := d.Dispatch(context.Background(), nil, "cancel_appointment", json.RawMessage(`{"id":"seven"}`))
	assert.True(t, httperr.IsValidation(err))

	_, err = d.Dispatch(context.Background(), nil, "get_appointment", nil)
	assert.True(t, httperr.IsValidation(err))
}

func TestDispatchAppointmentLifecycle(t *testing.T) {
	d := newDispatcher(t)

	created := dispatch(t, d, "create_appointment", `{
		"client_name": "Anna Nowak",
		"client_phone": "600 100 200",
		"date": "2025-03-10",
		"start_time": "14:00",
		"area_name": "Nogi",
		"session_number_for_area": 1,
		"amount": 250
	}`).(*ucAppointment.CreateAppointmentResult)

	assert.True(t, created.ClientCreated)
	assert.Equal(t, "15:00:00", created.Appointment.EndTime)
	id := created.Appointment.ID

	got := dispatch(t, d, "get_appointment", `{"id": `+itoa(id)+`}`).(*dto.AppointmentDTO)
	assert.Equal(t, "Nogi", got.AreaName)

	moved := dispatch(t, d, "reschedule_appointment",
		`{"id": `+itoa(id)+`, "new_date": "2025-03-17"}`).(*ucAppointment.RescheduleResult)
	assert.Equal(t, "Rescheduled", moved.Original.Status)
	require.NotNil(t, moved.Appointment.OriginalAppointmentID)
	assert.Equal(t, id, *moved.Appointment.OriginalAppointmentID)

	done := dispatch(t, d, "complete_appointment", `{"id": `+itoa(moved.Appointment.ID)+`}`).(*dto.AppointmentDTO)
	assert.Equal(t, "Completed", done.Status)

	_, err := d.Dispatch(context.Background(), nil, "cancel_appointment",
		json.RawMessage(`{"id": `+itoa(moved.Appointment.ID)+`}`))
	assert.True(t, httperr.IsStateTransition(err))

	spacing := dispatch(t, d, "check_spacing", `{
		"client_id": `+itoa(created.Appointment.ClientID)+`,
		"area_name": "nogi",
		"session_number": 2,
		"date": "2025-03-20"
	}`).(ucAppointment.SpacingResult)
	assert.True(t, spacing.SpacingSatisfied)

	listed := dispatch(t, d, "list_appointments", `{"year": 2025, "month": 3}`).([]dto.AppointmentListDTO)
	assert.Len(t, listed, 2)

	found := dispatch(t, d, "search_appointments", `{"query": "anna"}`).([]dto.AppointmentListDTO)
	assert.Len(t, found, 2)
}

func TestDispatchClientActions(t *testing.T) {
	d := newDispatcher(t)

	ref := dispatch(t, d, "resolve_client", `{"full_name": "Ewa Kowalska", "email": "EWA@example.com"}`).(reconcile.Ref)
	assert.True(t, ref.Created)

	again := dispatch(t, d, "resolve_client", `{"full_name": "Ewa K.", "email": "ewa@example.com"}`).(reconcile.Ref)
	assert.Equal(t, ref.ID, again.ID)
	assert.False(t, again.Created)

	_, err := d.Dispatch(context.Background(), nil, "resolve_client", json.RawMessage(`{}`))
	var cre httperr.ClientResolutionError
	assert.ErrorAs(t, err, &cre)

	clients := dispatch(t, d, "search_clients", `{"query": "kowal"}`).([]dto.ClientDTO)
	require.Len(t, clients, 1)

	detail := dispatch(t, d, "get_client", `{"id": `+itoa(ref.ID)+`}`).(*dto.ClientDetailDTO)
	assert.Empty(t, detail.Appointments)

	res := dispatch(t, d, "deactivate_client", `{"id": `+itoa(ref.ID)+`}`).(*ucClient.DeactivateResult)
	assert.True(t, res.Deleted)
}

func TestDispatchResolveReference(t *testing.T) {
	d := newDispatcher(t)

	a := dispatch(t, d, "resolve_reference", `{"kind": "service", "name": "Laser – Legs"}`).(reconcile.Ref)
	b := dispatch(t, d, "resolve_reference", `{"kind": "SERVICE", "name": "laser – legs"}`).(reconcile.Ref)
	assert.Equal(t, a.ID, b.ID)

	_, err := d.Dispatch(context.Background(), nil, "resolve_reference", json.RawMessage(`{"kind": "client", "name": "x"}`))
	assert.True(t, httperr.IsValidation(err))
}

func TestDispatchListReferences(t *testing.T) {
	d := newDispatcher(t)

	empty := dispatch(t, d, "list_references", `{"kind": "hardware"}`).([]models.ReferenceEntity)
	assert.Empty(t, empty)

	dispatch(t, d, "resolve_reference", `{"kind": "service", "name": "Pachy"}`)
	dispatch(t, d, "resolve_reference", `{"kind": "service", "name": "Bikini"}`)
	dispatch(t, d, "resolve_reference", `{"kind": "promotion", "name": "Pakiet 6"}`)

	refs := dispatch(t, d, "list_references", `{"kind": "service"}`).([]models.ReferenceEntity)
	require.Len(t, refs, 2)
	assert.Equal(t, "Bikini", refs[0].Name)
	assert.Equal(t, "Pachy", refs[1].Name)
	assert.NotZero(t, refs[0].ID)

	_, err := d.Dispatch(context.Background(), nil, "list_references", json.RawMessage(`{"kind": "client"}`))
	assert.True(t, httperr.IsValidation(err))
}

func TestImportSpreadsheetIsAdminOnly(t *testing.T) {
	d := newDispatcher(t)
	assert.True(t, d.AdminOnly("import_spreadsheet"))
	assert.False(t, d.AdminOnly("list_references"))
	assert.False(t, d.AdminOnly("create_appointment"))
}

func TestRemoteImportRefusesLocalPaths(t *testing.T) {
	d := newDispatcher(t)
	ctx := actions.Remote(context.Background())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "KLIENCI.csv"),
		[]byte("ID Klienta,Imię Nazwisko\nEXT-1,Anna Nowak\n"), 0o600))

	for _, args := range []string{
		`{"csv_dir": ` + quote(dir) + `}`,
		`{"file": ` + quote(filepath.Join(dir, "studio.xlsx")) + `}`,
	} {
		_, err := d.Dispatch(ctx, nil, "import_spreadsheet", json.RawMessage(args))
		assert.True(t, httperr.IsValidation(err), args)
	}

	clients := dispatch(t, d, "search_clients", `{"query": "Anna"}`)
	assert.Empty(t, clients)
}

func TestDispatchImportFromCSV(t *testing.T) {
	d := newDispatcher(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "KLIENCI.csv"),
		[]byte("ID Klienta,Imię Nazwisko\nEXT-1,Anna Nowak\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "WIZYTY.csv"),
		[]byte("ID Klienta,Data,Kwota\nEXT-1,10.03.2025,\"150,00\"\n"), 0o600))

	rep := dispatch(t, d, "import_spreadsheet", `{"csv_dir": `+quote(dir)+`}`).(*importer.Report)
	assert.Equal(t, 1, rep.Clients.Imported)
	assert.Equal(t, 1, rep.Appointments.Imported)

	_, err := d.Dispatch(context.Background(), nil, "import_spreadsheet", json.RawMessage(`{}`))
	assert.True(t, httperr.IsValidation(err))
}

func itoa(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
