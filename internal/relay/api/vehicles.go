package api

import (
	"encoding/json"
	"net/http"
	"time"

	"fleetrelay.io/fleetrelay/internal/relay/core/model"
)

type vehicleCreateRequest struct {
	RegistrationNumber string  `json:"registrationNumber"`
	VIN                string  `json:"vin"`
	Make               string  `json:"make"`
	VehicleModel       string  `json:"vehicleModel"`
	Year               int     `json:"year"`
	Type               string  `json:"type"`
	Color              string  `json:"color"`
	FuelType           string  `json:"fuelType"`
	EngineCapacityCC   int     `json:"engineCapacityCC"`
	Transmission       string  `json:"transmission"`
	Status             string  `json:"status"`
	CurrentOdometerKm  float64 `json:"currentOdometerKm"`
	FuelEfficiencyKm   float64 `json:"fuelEfficiencyKm"`

	PurchaseDate        *time.Time `json:"purchaseDate"`
	PurchasePrice       float64    `json:"purchasePrice"`
	LastMaintenanceDate *time.Time `json:"lastMaintenanceDate"`
	NextMaintenanceDate *time.Time `json:"nextMaintenanceDate"`

	Insurance *model.Insurance `json:"insurance"`

	GPSDeviceID string  `json:"gpsDeviceId"`
	Longitude   float64 `json:"longitude"`
	Latitude    float64 `json:"latitude"`
	Notes       string  `json:"notes"`
}

func (req *vehicleCreateRequest) validate() string {
	switch {
	case req.RegistrationNumber == "":
		return "registrationNumber is required"
	case req.VIN == "":
		return "vin is required"
	case req.Make == "":
		return "make is required"
	case req.VehicleModel == "":
		return "vehicleModel is required"
	case req.Year < 1900 || req.Year > time.Now().Year()+1:
		return "year is out of range"
	case !contains(model.VehicleTypes, req.Type):
		return "type is not a valid vehicle type"
	case !contains(model.FuelTypes, req.FuelType):
		return "fuelType is not a valid fuel type"
	case req.Transmission != "" && !contains(model.Transmissions, req.Transmission):
		return "transmission is not a valid transmission type"
	case req.Status != "" && !contains(model.VehicleStatuses, req.Status):
		return "status is not a valid vehicle status"
	case req.CurrentOdometerKm < 0:
		return "currentOdometerKm must not be negative"
	}
	return ""
}

func (req *vehicleCreateRequest) toModel() *model.Vehicle {
	status := req.Status
	if status == "" {
		status = model.VehicleStatusActive
	}

	v := &model.Vehicle{
		RegistrationNumber:  req.RegistrationNumber,
		VIN:                 req.VIN,
		Make:                req.Make,
		VehicleModel:        req.VehicleModel,
		Year:                req.Year,
		Type:                req.Type,
		Color:               req.Color,
		FuelType:            req.FuelType,
		EngineCapacityCC:    req.EngineCapacityCC,
		Transmission:        req.Transmission,
		Status:              status,
		CurrentOdometerKm:   req.CurrentOdometerKm,
		FuelEfficiencyKm:    req.FuelEfficiencyKm,
		PurchaseDate:        req.PurchaseDate,
		PurchasePrice:       req.PurchasePrice,
		LastMaintenanceDate: req.LastMaintenanceDate,
		NextMaintenanceDate: req.NextMaintenanceDate,
		GPSDeviceID:         req.GPSDeviceID,
		Longitude:           req.Longitude,
		Latitude:            req.Latitude,
		Notes:               req.Notes,
	}
	if req.Insurance != nil {
		v.Insurance = *req.Insurance
	}
	return v
}

// vehicleUpdateRequest carries the updatable subset of the vehicle
// record. SpeedKm and isIgnitionOn are owned by the relay core and are
// deliberately absent.
type vehicleUpdateRequest struct {
	RegistrationNumber *string  `json:"registrationNumber"`
	Make               *string  `json:"make"`
	VehicleModel       *string  `json:"vehicleModel"`
	Year               *int     `json:"year"`
	Type               *string  `json:"type"`
	Color              *string  `json:"color"`
	FuelType           *string  `json:"fuelType"`
	EngineCapacityCC   *int     `json:"engineCapacityCC"`
	Transmission       *string  `json:"transmission"`
	Status             *string  `json:"status"`
	CurrentOdometerKm  *float64 `json:"currentOdometerKm"`
	FuelEfficiencyKm   *float64 `json:"fuelEfficiencyKm"`

	LastMaintenanceDate *time.Time `json:"lastMaintenanceDate"`
	NextMaintenanceDate *time.Time `json:"nextMaintenanceDate"`

	GPSDeviceID *string  `json:"gpsDeviceId"`
	Longitude   *float64 `json:"longitude"`
	Latitude    *float64 `json:"latitude"`
	Notes       *string  `json:"notes"`
}

func (req *vehicleUpdateRequest) validate() string {
	switch {
	case req.Type != nil && !contains(model.VehicleTypes, *req.Type):
		return "type is not a valid vehicle type"
	case req.FuelType != nil && !contains(model.FuelTypes, *req.FuelType):
		return "fuelType is not a valid fuel type"
	case req.Transmission != nil && !contains(model.Transmissions, *req.Transmission):
		return "transmission is not a valid transmission type"
	case req.Status != nil && !contains(model.VehicleStatuses, *req.Status):
		return "status is not a valid vehicle status"
	case req.CurrentOdometerKm != nil && *req.CurrentOdometerKm < 0:
		return "currentOdometerKm must not be negative"
	}
	return ""
}

func (req *vehicleUpdateRequest) toUpdates() map[string]any {
	updates := map[string]any{}
	setColumn(updates, "registration_number", req.RegistrationNumber)
	setColumn(updates, "make", req.Make)
	setColumn(updates, "vehicle_model", req.VehicleModel)
	setColumn(updates, "year", req.Year)
	setColumn(updates, "type", req.Type)
	setColumn(updates, "color", req.Color)
	setColumn(updates, "fuel_type", req.FuelType)
	setColumn(updates, "engine_capacity_cc", req.EngineCapacityCC)
	setColumn(updates, "transmission", req.Transmission)
	setColumn(updates, "status", req.Status)
	setColumn(updates, "current_odometer_km", req.CurrentOdometerKm)
	setColumn(updates, "fuel_efficiency_km", req.FuelEfficiencyKm)
	setColumn(updates, "last_maintenance_date", req.LastMaintenanceDate)
	setColumn(updates, "next_maintenance_date", req.NextMaintenanceDate)
	setColumn(updates, "gps_device_id", req.GPSDeviceID)
	setColumn(updates, "longitude", req.Longitude)
	setColumn(updates, "latitude", req.Latitude)
	setColumn(updates, "notes", req.Notes)
	return updates
}

func (a *API) createVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	created, err := a.vehicles.Create(r.Context(), req.toModel())
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, created)
}

func (a *API) listVehicles(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.vehicles.List(r.Context(), page, limit, listQuery(r, "status", "type"))
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, result)
}

func (a *API) getVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	vehicle, err := a.vehicles.GetByID(r.Context(), id)
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, vehicle)
}

func (a *API) updateVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	var req vehicleUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	updated, err := a.vehicles.Update(r.Context(), id, req.toUpdates())
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, updated)
}

func (a *API) deleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	deleted, err := a.vehicles.Delete(r.Context(), id)
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, deleted)
}
