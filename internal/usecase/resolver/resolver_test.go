package resolver_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/laserowo/studio-manager/internal/db/dbtest"
	"github.com/laserowo/studio-manager/internal/domain/reconcile"
	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/infra/repository"
	"github.com/laserowo/studio-manager/internal/models"
	"github.com/laserowo/studio-manager/internal/usecase/resolver"
)

func newResolver(t *testing.T) (*resolver.Resolver, *gorm.DB) {
	t.Helper()
	gdb := dbtest.Open(t)
	r := resolver.New(
		repository.NewClientGormRepository(gdb),
		repository.NewReferenceGormRepository(gdb),
		zerolog.Nop(),
	)
	return r, gdb
}

func countRows(t *testing.T, gdb *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(model).Count(&n).Error)
	return n
}

func TestResolveReferenceIsIdempotent(t *testing.T) {
	r, gdb := newResolver(t)
	ctx := context.Background()

	first, err := r.ResolveReferenceName(ctx, reconcile.KindService, "Laser – Legs")
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := r.ResolveReferenceName(ctx, reconcile.KindService, "laser –  LEGS ")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Laser – Legs", second.Name)

	assert.EqualValues(t, 1, countRows(t, gdb, &models.Service{}))
}

func TestResolveReferenceWithoutNameFails(t *testing.T) {
	r, gdb := newResolver(t)

	_, err := r.ResolveOrCreate(context.Background(), reconcile.KindTreatmentArea, nil, resolver.Fields{})
	require.Error(t, err)
	assert.True(t, httperr.IsValidation(err))
	assert.EqualValues(t, 0, countRows(t, gdb, &models.TreatmentArea{}))
}

func TestResolveClientWithoutNameFailsWithoutWrite(t *testing.T) {
	r, gdb := newResolver(t)

	keys := resolver.ClientKeys("", "600 100 200", "", "")
	_, err := r.ResolveOrCreate(context.Background(), reconcile.KindClient, keys, resolver.Fields{})

	var verr httperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "full_name", verr.Field)
	assert.EqualValues(t, 0, countRows(t, gdb, &models.Client{}))
}

func TestResolveClientCreatesOnce(t *testing.T) {
	r, gdb := newResolver(t)
	ctx := context.Background()

	keys := resolver.ClientKeys("", "+48 600-100-200", "Anna@Example.com", "Anna Nowak")
	fields := resolver.Fields{
		Name: "Anna Nowak",
		Client: resolver.ClientAttributes{
			PhoneNumber: "+48 600-100-200",
			Email:       "Anna@Example.com",
		},
	}

	first, err := r.ResolveOrCreate(ctx, reconcile.KindClient, keys, fields)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := r.ResolveOrCreate(ctx, reconcile.KindClient, keys, fields)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ID, second.ID)

	var stored models.Client
	require.NoError(t, gdb.First(&stored, first.ID).Error)
	require.NotNil(t, stored.PhoneNumber)
	assert.Equal(t, "+48600100200", *stored.PhoneNumber)
	require.NotNil(t, stored.Email)
	assert.Equal(t, "anna@example.com", *stored.Email)
	assert.True(t, stored.IsActive)

	assert.EqualValues(t, 1, countRows(t, gdb, &models.Client{}))
}

func TestResolveClientBackfillsEarlierKeys(t *testing.T) {
	r, gdb := newResolver(t)
	ctx := context.Background()

	phone := "+48600100200"
	existing := models.Client{FullName: "Ewa Kowalska", PhoneNumber: &phone, IsActive: true}
	require.NoError(t, gdb.Create(&existing).Error)

	keys := resolver.ClientKeys("EXT-7", phone, "", "Ewa Kowalska")
	ref, err := r.ResolveOrCreate(ctx, reconcile.KindClient, keys, resolver.Fields{Name: "Ewa Kowalska"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, ref.ID)
	assert.False(t, ref.Created)

	var stored models.Client
	require.NoError(t, gdb.First(&stored, existing.ID).Error)
	require.NotNil(t, stored.ExternalID)
	assert.Equal(t, "EXT-7", *stored.ExternalID)

	again, err := r.ResolveOrCreate(ctx, reconcile.KindClient,
		resolver.ClientKeys("EXT-7", "", "", ""), resolver.Fields{})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, again.ID)
}

func TestResolveClientSkipsAmbiguousName(t *testing.T) {
	r, gdb := newResolver(t)
	ctx := context.Background()

	require.NoError(t, gdb.Create(&models.Client{FullName: "Jan Nowak", IsActive: true}).Error)
	require.NoError(t, gdb.Create(&models.Client{FullName: "jan nowak", IsActive: true}).Error)

	ref, err := r.ResolveOrCreate(ctx, reconcile.KindClient,
		resolver.ClientKeys("", "", "", "Jan Nowak"), resolver.Fields{Name: "Jan Nowak"})
	require.NoError(t, err)
	assert.True(t, ref.Created)
	assert.EqualValues(t, 3, countRows(t, gdb, &models.Client{}))
}

func TestResolveClientMatchesNameCaseInsensitively(t *testing.T) {
	r, gdb := newResolver(t)

	existing := models.Client{FullName: "Łucja Żak", IsActive: true}
	require.NoError(t, gdb.Create(&existing).Error)

	ref, err := r.ResolveOrCreate(context.Background(), reconcile.KindClient,
		resolver.ClientKeys("", "", "", "ŁUCJA  ŻAK"), resolver.Fields{Name: "ŁUCJA ŻAK"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, ref.ID)
}

func TestCacheAvoidsStoreAfterFirstResolution(t *testing.T) {
	r, gdb := newResolver(t)
	ctx := context.Background()

	cache := resolver.NewCache()
	cached := r.WithCache(cache)

	ref, err := cached.ResolveReferenceName(ctx, reconcile.KindPaymentMethod, "Karta")
	require.NoError(t, err)

	got, ok := cache.Lookup(reconcile.KindPaymentMethod, reconcile.FieldName, "KARTA")
	require.True(t, ok)
	assert.Equal(t, ref.ID, got.ID)

	// the row is gone from the store but the run still sees it
	require.NoError(t, gdb.Exec("DELETE FROM payment_methods").Error)

	again, err := cached.ResolveReferenceName(ctx, reconcile.KindPaymentMethod, "karta")
	require.NoError(t, err)
	assert.Equal(t, ref.ID, again.ID)
	assert.False(t, again.Created)
}

func TestResolveClientPrefersPhoneOverCachedName(t *testing.T) {
	r, gdb := newResolver(t)
	ctx := context.Background()

	phone := "+48600100200"
	owner := models.Client{FullName: "Anna Kowalska", PhoneNumber: &phone, IsActive: true}
	require.NoError(t, gdb.Create(&owner).Error)

	cached := r.WithCache(resolver.NewCache())
	namesake, err := cached.ResolveOrCreate(ctx, reconcile.KindClient,
		resolver.ClientKeys("", "", "a@x.pl", "Anna Nowak"),
		resolver.Fields{Name: "Anna Nowak", Client: resolver.ClientAttributes{Email: "a@x.pl"}})
	require.NoError(t, err)
	require.True(t, namesake.Created)

	keys := resolver.ClientKeys("", phone, "", "Anna Nowak")
	fields := resolver.Fields{Name: "Anna Nowak"}

	viaCache, err := cached.ResolveOrCreate(ctx, reconcile.KindClient, keys, fields)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, viaCache.ID)

	viaStore, err := r.ResolveOrCreate(ctx, reconcile.KindClient, keys, fields)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, viaStore.ID)

	assert.EqualValues(t, 2, countRows(t, gdb, &models.Client{}))
}

func TestResolveUnknownKind(t *testing.T) {
	r, _ := newResolver(t)

	_, err := r.ResolveOrCreate(context.Background(), reconcile.Kind("barber"), nil, resolver.Fields{Name: "x"})
	assert.True(t, httperr.IsValidation(err))
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *resolver.Cache
	_, ok := c.Lookup(reconcile.KindClient, reconcile.FieldEmail, "a@b.c")
	assert.False(t, ok)
	c.RegisterClient(&models.Client{FullName: "x"})
	assert.Equal(t, 0, c.Len())
}
