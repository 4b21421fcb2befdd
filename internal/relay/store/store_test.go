package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fleetrelay.io/fleetrelay/internal/relay/cache"
	"fleetrelay.io/fleetrelay/internal/relay/core/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Vehicle{}, &model.Maintenance{}))
	return db
}

func newVehicle(reg string) *model.Vehicle {
	return &model.Vehicle{
		RegistrationNumber: reg,
		VIN:                "VIN-" + reg,
		Make:               "Toyota",
		VehicleModel:       "Corolla",
		Year:               2020,
		Type:               "sedan",
		FuelType:           "petrol",
		Status:             model.VehicleStatusActive,
	}
}

func TestCreateAndGetByID(t *testing.T) {
	ctx := context.Background()
	s := NewVehicleStore(newTestDB(t), cache.NewMemory(time.Minute))

	created, err := s.Create(ctx, newVehicle("KA-01-1234"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "KA-01-1234", created.RegistrationNumber)
	assert.False(t, created.IsIgnitionOn)

	got, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestGetByIDNotFound(t *testing.T) {
	s := NewVehicleStore(newTestDB(t), cache.NewMemory(time.Minute))

	_, err := s.GetByID(context.Background(), "0b06cab6-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateNotFound(t *testing.T) {
	s := NewVehicleStore(newTestDB(t), cache.NewMemory(time.Minute))

	_, err := s.Update(context.Background(), "missing", map[string]any{"speed_km": 10.0})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteReturnsViewAndRemoves(t *testing.T) {
	ctx := context.Background()
	s := NewVehicleStore(newTestDB(t), cache.NewMemory(time.Minute))

	created, err := s.Create(ctx, newVehicle("KA-02-0001"))
	require.NoError(t, err)

	deleted, err := s.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = s.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCachesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory(time.Minute)
	s := NewVehicleStore(newTestDB(t), mem)

	created, err := s.Create(ctx, newVehicle("KA-03-0001"))
	require.NoError(t, err)

	first, err := s.List(ctx, 1, 10, nil)
	require.NoError(t, err)
	require.Len(t, first.Docs, 1)
	assert.Equal(t, int64(1), first.TotalDocs)
	assert.False(t, first.Docs[0].IsIgnitionOn)

	// Second identical call is served from the cache and serializes to
	// the same bytes.
	second, err := s.List(ctx, 1, 10, nil)
	require.NoError(t, err)
	firstRaw, err := json.Marshal(first)
	require.NoError(t, err)
	secondRaw, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstRaw, secondRaw)

	// Any mutation sweeps the module cache; the next list reflects it.
	_, err = s.SetIgnition(ctx, created.ID, true)
	require.NoError(t, err)

	third, err := s.List(ctx, 1, 10, nil)
	require.NoError(t, err)
	require.Len(t, third.Docs, 1)
	assert.True(t, third.Docs[0].IsIgnitionOn)
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	s := NewVehicleStore(newTestDB(t), cache.NewMemory(time.Minute))

	for _, reg := range []string{"P-1", "P-2", "P-3", "P-4", "P-5"} {
		_, err := s.Create(ctx, newVehicle(reg))
		require.NoError(t, err)
	}

	page1, err := s.List(ctx, 1, 2, nil)
	require.NoError(t, err)
	assert.Len(t, page1.Docs, 2)
	assert.Equal(t, int64(5), page1.TotalDocs)
	assert.Equal(t, int64(3), page1.TotalPages)
	assert.True(t, page1.HasNextPage)
	assert.False(t, page1.HasPrevPage)

	page3, err := s.List(ctx, 3, 2, nil)
	require.NoError(t, err)
	assert.Len(t, page3.Docs, 1)
	assert.False(t, page3.HasNextPage)
	assert.True(t, page3.HasPrevPage)
}

func TestListQueryFilter(t *testing.T) {
	ctx := context.Background()
	s := NewVehicleStore(newTestDB(t), cache.NewMemory(time.Minute))

	active := newVehicle("Q-1")
	retired := newVehicle("Q-2")
	retired.Status = model.VehicleStatusRetired

	_, err := s.Create(ctx, active)
	require.NoError(t, err)
	_, err = s.Create(ctx, retired)
	require.NoError(t, err)

	result, err := s.List(ctx, 1, 10, map[string]any{"status": model.VehicleStatusRetired})
	require.NoError(t, err)
	require.Len(t, result.Docs, 1)
	assert.Equal(t, "Q-2", result.Docs[0].RegistrationNumber)
}

func TestSetSpeedPersists(t *testing.T) {
	ctx := context.Background()
	s := NewVehicleStore(newTestDB(t), cache.NewMemory(time.Minute))

	created, err := s.Create(ctx, newVehicle("S-1"))
	require.NoError(t, err)

	updated, err := s.SetSpeed(ctx, created.ID, 42.5)
	require.NoError(t, err)
	assert.Equal(t, 42.5, updated.SpeedKm)

	got, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 42.5, got.SpeedKm)
}

func TestMaintenanceAppendAttachment(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := NewMaintenanceStore(db, cache.NewMemory(time.Minute))

	created, err := s.Create(ctx, &model.Maintenance{
		VehicleID:     "7c7e2b2a-0000-0000-0000-000000000001",
		Type:          "routine",
		Title:         "Oil change",
		PerformedDate: time.Now(),
		Status:        "completed",
	})
	require.NoError(t, err)
	assert.Empty(t, created.Attachments)

	updated, err := s.AppendAttachment(ctx, created.ID, model.Attachment{
		Name:    "invoice.pdf",
		FileURL: "https://storage.example/invoice.pdf",
	})
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 1)
	assert.Equal(t, "invoice.pdf", updated.Attachments[0].Name)

	_, err = s.AppendAttachment(ctx, "missing", model.Attachment{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListKeyFormat(t *testing.T) {
	assert.Equal(t, "vehicle-1-10-{}", listKey("vehicle", 1, 10, nil))
	assert.Equal(t,
		`vehicle-2-25-{"status":"active"}`,
		listKey("vehicle", 2, 25, map[string]any{"status": "active"}),
	)
}
