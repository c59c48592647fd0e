package client_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laserowo/studio-manager/internal/db/dbtest"
	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/infra/repository"
	"github.com/laserowo/studio-manager/internal/models"
	"github.com/laserowo/studio-manager/internal/usecase/client"
)

func TestSearchGetAndDeactivateClients(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	clients := repository.NewClientGormRepository(gdb)
	appointments := repository.NewAppointmentGormRepository(gdb)

	phone := "+48600100200"
	email := "ewa@example.com"
	anna := models.Client{FullName: "Anna Nowak", IsActive: true}
	ewa := models.Client{FullName: "Ewa Kowalska", PhoneNumber: &phone, Email: &email, IsActive: true}
	require.NoError(t, gdb.Create(&anna).Error)
	require.NoError(t, gdb.Create(&ewa).Error)

	require.NoError(t, gdb.Create(&models.Appointment{
		ClientID:  ewa.ID,
		Date:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00:00",
		EndTime:   "11:00:00",
		Status:    "Completed",
	}).Error)

	search := client.NewSearchClients(clients)

	found, err := search.Execute(ctx, "NOWAK", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, anna.ID, found[0].ID)

	found, err = search.Execute(ctx, "600100", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, ewa.ID, found[0].ID)

	found, err = search.Execute(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	detail, err := client.NewGetClient(clients, appointments).Execute(ctx, ewa.ID)
	require.NoError(t, err)
	assert.Equal(t, "ewa@example.com", detail.Email)
	assert.Len(t, detail.Appointments, 1)

	deactivate := client.NewDeactivateClient(clients, appointments, nil, zerolog.Nop())

	res, err := deactivate.Execute(ctx, nil, ewa.ID)
	require.NoError(t, err)
	assert.False(t, res.Deleted)

	var stored models.Client
	require.NoError(t, gdb.First(&stored, ewa.ID).Error)
	assert.False(t, stored.IsActive)

	res, err = deactivate.Execute(ctx, nil, anna.ID)
	require.NoError(t, err)
	assert.True(t, res.Deleted)

	_, err = client.NewGetClient(clients, appointments).Execute(ctx, anna.ID)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeClientNotFound))
}
