// Package api exposes the REST CRUD surface over the cached data access
// layer: vehicles, maintenance records and maintenance attachments.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"fleetrelay.io/fleetrelay/internal/relay/store"
	"fleetrelay.io/fleetrelay/internal/relay/storage"
	"fleetrelay.io/fleetrelay/pkg/log"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// API serves the REST endpoints.
type API struct {
	vehicles    *store.VehicleStore
	maintenance *store.MaintenanceStore
	attachments storage.Provider
	logger      log.Logger
}

// New creates the REST API. attachments may be nil; the attachment
// endpoint then answers 503.
func New(vehicles *store.VehicleStore, maintenance *store.MaintenanceStore, attachments storage.Provider) *API {
	return &API{
		vehicles:    vehicles,
		maintenance: maintenance,
		attachments: attachments,
		logger:      log.WithName("api"),
	}
}

// Register mounts the routes. Updates use POST on the entity path.
func (a *API) Register(r *mux.Router) {
	r.HandleFunc("/api/vehicles", a.createVehicle).Methods(http.MethodPost)
	r.HandleFunc("/api/vehicles", a.listVehicles).Methods(http.MethodGet)
	r.HandleFunc("/api/vehicles/{id}", a.getVehicle).Methods(http.MethodGet)
	r.HandleFunc("/api/vehicles/{id}", a.updateVehicle).Methods(http.MethodPost)
	r.HandleFunc("/api/vehicles/{id}", a.deleteVehicle).Methods(http.MethodDelete)

	r.HandleFunc("/api/maintenance", a.createMaintenance).Methods(http.MethodPost)
	r.HandleFunc("/api/maintenance", a.listMaintenance).Methods(http.MethodGet)
	r.HandleFunc("/api/maintenance/{id}", a.getMaintenance).Methods(http.MethodGet)
	r.HandleFunc("/api/maintenance/{id}", a.updateMaintenance).Methods(http.MethodPost)
	r.HandleFunc("/api/maintenance/{id}", a.deleteMaintenance).Methods(http.MethodDelete)
	r.HandleFunc("/api/maintenance/{id}/attachments", a.uploadAttachment).Methods(http.MethodPost)
}

// pathID extracts and validates the {id} route variable.
func pathID(r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// pagination parses page/limit query parameters with the documented
// defaults and bounds.
func pagination(r *http.Request) (page, limit int, err error) {
	page, limit = defaultPage, defaultLimit

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, errors.New("page must be a positive integer")
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			return 0, 0, errors.New("limit must be between 1 and 100")
		}
	}
	return page, limit, nil
}

// listQuery builds the filter map from a whitelist of query parameters.
func listQuery(r *http.Request, allowed ...string) map[string]any {
	query := map[string]any{}
	for _, name := range allowed {
		if v := r.URL.Query().Get(name); v != "" {
			query[name] = v
		}
	}
	return query
}

// storeError maps data layer failures onto HTTP responses.
func (a *API) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "record not found")
		return
	}
	a.logger.Error(err, "Request failed", "method", r.Method, "path", r.URL.Path)
	respondError(w, http.StatusInternalServerError, "internal error")
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// setColumn records a partial update for fields present in the request.
func setColumn[T any](updates map[string]any, column string, v *T) {
	if v != nil {
		updates[column] = *v
	}
}
