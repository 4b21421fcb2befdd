package store

import (
	"context"

	"gorm.io/gorm"

	"fleetrelay.io/fleetrelay/internal/relay/cache"
	"fleetrelay.io/fleetrelay/internal/relay/core/model"
)

// ModuleVehicle is the vehicle store's cache namespace.
const ModuleVehicle = "vehicle"

// VehicleStore is the cached data access layer for vehicles.
type VehicleStore struct {
	*Store[model.Vehicle, model.VehicleResponse]
}

// NewVehicleStore creates the vehicle store.
func NewVehicleStore(db *gorm.DB, c cache.Cache) *VehicleStore {
	return &VehicleStore{
		Store: New(db, c, ModuleVehicle, func(v *model.Vehicle) model.VehicleResponse {
			return v.ToResponse()
		}),
	}
}

// SetSpeed persists the latest reported speed for a vehicle.
func (s *VehicleStore) SetSpeed(ctx context.Context, id string, speedKm float64) (model.VehicleResponse, error) {
	return s.Update(ctx, id, map[string]any{"speed_km": speedKm})
}

// SetIgnition persists the derived ignition state for a vehicle.
func (s *VehicleStore) SetIgnition(ctx context.Context, id string, on bool) (model.VehicleResponse, error) {
	return s.Update(ctx, id, map[string]any{"is_ignition_on": on})
}
