// Package store implements the cached data access layer. Every entity
// module shares the same generic CRUD surface: list reads go through the
// cache, single-entity reads are always fresh, and every successful
// mutation sweeps the module's whole cache namespace.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"fleetrelay.io/fleetrelay/internal/relay/cache"
	"fleetrelay.io/fleetrelay/pkg/log"
)

// ErrNotFound reports that the requested entity does not exist.
var ErrNotFound = errors.New("record not found")

// PaginatedResult is the cached, response-view form of a list query.
type PaginatedResult[R any] struct {
	Docs        []R   `json:"docs"`
	TotalDocs   int64 `json:"totalDocs"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int64 `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// Store is a generic cached CRUD layer over one entity table. T is the
// persisted model, R its projected response view.
type Store[T any, R any] struct {
	db      *gorm.DB
	cache   cache.Cache
	module  string
	project func(*T) R
	logger  log.Logger
}

// New creates a store for the given module name. The project function
// maps a persisted record to its response view.
func New[T any, R any](db *gorm.DB, c cache.Cache, module string, project func(*T) R) *Store[T, R] {
	return &Store[T, R]{
		db:      db,
		cache:   c,
		module:  module,
		project: project,
		logger:  log.WithName("store").WithValues("module", module),
	}
}

// Module returns the store's cache namespace name.
func (s *Store[T, R]) Module() string {
	return s.module
}

// Create persists a new entity and invalidates the module cache.
func (s *Store[T, R]) Create(ctx context.Context, entity *T) (R, error) {
	var zero R

	if err := s.db.WithContext(ctx).Create(entity).Error; err != nil {
		return zero, fmt.Errorf("failed to create %s: %w", s.module, err)
	}

	s.cache.RemoveModule(ctx, s.module)
	return s.project(entity), nil
}

// GetByID reads a single entity. The cache is not consulted; single
// entity reads must reflect the latest persisted state.
func (s *Store[T, R]) GetByID(ctx context.Context, id string) (R, error) {
	var zero R

	var entity T
	if err := s.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("failed to read %s: %w", s.module, err)
	}

	return s.project(&entity), nil
}

// List returns one page of entities matching the query. Results are
// served from the cache when a prior identical call populated it.
func (s *Store[T, R]) List(ctx context.Context, page, limit int, query map[string]any) (PaginatedResult[R], error) {
	key := listKey(s.module, page, limit, query)

	if raw, ok := s.cache.Get(ctx, s.module, key); ok {
		var cached PaginatedResult[R]
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		s.logger.Warn("Discarding undecodable cache entry", "key", key)
	}

	base := s.db.WithContext(ctx).Model(new(T))
	if len(query) > 0 {
		base = base.Where(query)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return PaginatedResult[R]{}, fmt.Errorf("failed to count %s: %w", s.module, err)
	}

	var entities []T
	err := base.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return PaginatedResult[R]{}, fmt.Errorf("failed to list %s: %w", s.module, err)
	}

	docs := make([]R, 0, len(entities))
	for i := range entities {
		docs = append(docs, s.project(&entities[i]))
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)
	result := PaginatedResult[R]{
		Docs:        docs,
		TotalDocs:   total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		HasNextPage: int64(page) < totalPages,
		HasPrevPage: page > 1,
	}

	if raw, err := json.Marshal(result); err == nil {
		s.cache.Set(ctx, s.module, key, raw, 0)
	}

	return result, nil
}

// Update applies a partial column map to the entity and invalidates the
// module cache. Column names follow the table schema, not Go fields.
func (s *Store[T, R]) Update(ctx context.Context, id string, updates map[string]any) (R, error) {
	var zero R

	var entity T
	if err := s.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("failed to read %s: %w", s.module, err)
	}

	if len(updates) > 0 {
		err := s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(updates).Error
		if err != nil {
			return zero, fmt.Errorf("failed to update %s: %w", s.module, err)
		}

		if err := s.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
			return zero, fmt.Errorf("failed to re-read %s: %w", s.module, err)
		}
	}

	s.cache.RemoveModule(ctx, s.module)
	return s.project(&entity), nil
}

// Delete permanently removes the entity, invalidates the module cache
// and returns the deleted entity's view.
func (s *Store[T, R]) Delete(ctx context.Context, id string) (R, error) {
	var zero R

	var entity T
	if err := s.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("failed to read %s: %w", s.module, err)
	}

	if err := s.db.WithContext(ctx).Delete(&entity).Error; err != nil {
		return zero, fmt.Errorf("failed to delete %s: %w", s.module, err)
	}

	s.cache.RemoveModule(ctx, s.module)
	return s.project(&entity), nil
}

// listKey builds the logical cache key "{module}-{page}-{limit}-{query}".
func listKey(module string, page, limit int, query map[string]any) string {
	if query == nil {
		query = map[string]any{}
	}
	// Marshalling a map sorts its keys, so equal queries share a key.
	rawQuery, _ := json.Marshal(query)
	return fmt.Sprintf("%s-%d-%d-%s", module, page, limit, rawQuery)
}
