package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"fleetrelay.io/fleetrelay/internal/relay/cache"
	"fleetrelay.io/fleetrelay/internal/relay/core/model"
)

// ModuleMaintenance is the maintenance store's cache namespace.
const ModuleMaintenance = "maintenance"

// MaintenanceStore is the cached data access layer for maintenance
// records.
type MaintenanceStore struct {
	*Store[model.Maintenance, model.MaintenanceResponse]

	db *gorm.DB
}

// NewMaintenanceStore creates the maintenance store.
func NewMaintenanceStore(db *gorm.DB, c cache.Cache) *MaintenanceStore {
	return &MaintenanceStore{
		Store: New(db, c, ModuleMaintenance, func(m *model.Maintenance) model.MaintenanceResponse {
			return m.ToResponse()
		}),
		db: db,
	}
}

// AppendAttachment adds an attachment to a maintenance record. The
// attachment column is a JSON document, so the merge happens here rather
// than through the partial column update path.
func (s *MaintenanceStore) AppendAttachment(ctx context.Context, id string, attachment model.Attachment) (model.MaintenanceResponse, error) {
	var record model.Maintenance
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.MaintenanceResponse{}, ErrNotFound
		}
		return model.MaintenanceResponse{}, fmt.Errorf("failed to read maintenance: %w", err)
	}

	attachments := append(record.Attachments, attachment)
	return s.Update(ctx, id, map[string]any{"attachments": attachments})
}
