package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vehicle type enumerations. Stored as strings so the REST layer can
// validate against them without a schema migration.
const (
	VehicleStatusActive       = "active"
	VehicleStatusMaintenance  = "maintenance"
	VehicleStatusRetired      = "retired"
	VehicleStatusOutOfService = "out_of_service"
)

// VehicleTypes lists the accepted vehicle categories.
var VehicleTypes = []string{"sedan", "suv", "truck", "van", "bus", "motorcycle", "other"}

// FuelTypes lists the accepted fuel types.
var FuelTypes = []string{"petrol", "diesel", "electric", "hybrid", "cng", "lpg"}

// Transmissions lists the accepted transmission types.
var Transmissions = []string{"manual", "automatic", "cvt", "amt"}

// VehicleStatuses lists the accepted lifecycle statuses.
var VehicleStatuses = []string{
	VehicleStatusActive, VehicleStatusMaintenance, VehicleStatusRetired, VehicleStatusOutOfService,
}

// Insurance is the embedded insurance policy of a vehicle.
type Insurance struct {
	Provider     string     `gorm:"size:128" json:"provider,omitempty"`
	PolicyNumber string     `gorm:"size:64" json:"policyNumber,omitempty"`
	CoverageType string     `gorm:"size:64" json:"coverageType,omitempty"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	Premium      float64    `json:"premium,omitempty"`
}

// Vehicle is the vehicles table model. SpeedKm and IsIgnitionOn are owned
// by the relay (telemetry ingestion and the ignition state machine); every
// other field belongs to the REST CRUD surface.
type Vehicle struct {
	ID                 string `gorm:"primaryKey;size:36"`
	RegistrationNumber string `gorm:"uniqueIndex;size:32;not null"`
	VIN                string `gorm:"uniqueIndex;size:64;not null"`
	Make               string `gorm:"size:64;not null"`
	VehicleModel       string `gorm:"size:64;not null"`
	Year               int    `gorm:"not null"`
	Type               string `gorm:"size:16;not null"`
	Color              string `gorm:"size:32"`
	FuelType           string `gorm:"size:16;not null"`
	EngineCapacityCC   int
	Transmission       string `gorm:"size:16"`
	Status             string `gorm:"size:16;not null;default:active;index"`

	CurrentOdometerKm float64 `gorm:"not null;default:0"`
	FuelEfficiencyKm  float64

	PurchaseDate        *time.Time
	PurchasePrice       float64
	LastMaintenanceDate *time.Time
	NextMaintenanceDate *time.Time

	Insurance Insurance `gorm:"embedded;embeddedPrefix:insurance_"`

	GPSDeviceID string  `gorm:"size:64"`
	Longitude   float64 `gorm:"default:0"`
	Latitude    float64 `gorm:"default:0"`
	Notes       string  `gorm:"type:text"`

	// Latest telemetry state. Mutated only by the relay core.
	SpeedKm      float64 `gorm:"not null;default:0"`
	IsIgnitionOn bool    `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// BeforeCreate assigns a UUID primary key when none was provided.
func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// GeoPoint is the GeoJSON-style location in response views.
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // [longitude, latitude]
}

// VehicleResponse is the projected view returned by every read and
// mutation path, REST and relay alike.
type VehicleResponse struct {
	ID                  string     `json:"id"`
	RegistrationNumber  string     `json:"registrationNumber"`
	VIN                 string     `json:"vin"`
	Make                string     `json:"make"`
	VehicleModel        string     `json:"vehicleModel"`
	Year                int        `json:"year"`
	Type                string     `json:"type"`
	Color               string     `json:"color,omitempty"`
	FuelType            string     `json:"fuelType"`
	EngineCapacityCC    int        `json:"engineCapacityCC,omitempty"`
	Transmission        string     `json:"transmission,omitempty"`
	Status              string     `json:"status"`
	CurrentOdometerKm   float64    `json:"currentOdometerKm"`
	FuelEfficiencyKm    float64    `json:"fuelEfficiencyKm,omitempty"`
	PurchaseDate        *time.Time `json:"purchaseDate,omitempty"`
	PurchasePrice       float64    `json:"purchasePrice,omitempty"`
	LastMaintenanceDate *time.Time `json:"lastMaintenanceDate,omitempty"`
	NextMaintenanceDate *time.Time `json:"nextMaintenanceDate,omitempty"`
	Insurance           *Insurance `json:"insurance,omitempty"`
	GPSDeviceID         string     `json:"gpsDeviceId,omitempty"`
	CurrentLocation     GeoPoint   `json:"currentLocation"`
	Notes               string     `json:"notes,omitempty"`
	SpeedKm             float64    `json:"speedKm"`
	IsIgnitionOn        bool       `json:"isIgnitionOn"`
	Age                 int        `json:"age"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// ToResponse projects the stored vehicle into its response view.
func (v *Vehicle) ToResponse() VehicleResponse {
	resp := VehicleResponse{
		ID:                  v.ID,
		RegistrationNumber:  v.RegistrationNumber,
		VIN:                 v.VIN,
		Make:                v.Make,
		VehicleModel:        v.VehicleModel,
		Year:                v.Year,
		Type:                v.Type,
		Color:               v.Color,
		FuelType:            v.FuelType,
		EngineCapacityCC:    v.EngineCapacityCC,
		Transmission:        v.Transmission,
		Status:              v.Status,
		CurrentOdometerKm:   v.CurrentOdometerKm,
		FuelEfficiencyKm:    v.FuelEfficiencyKm,
		PurchaseDate:        v.PurchaseDate,
		PurchasePrice:       v.PurchasePrice,
		LastMaintenanceDate: v.LastMaintenanceDate,
		NextMaintenanceDate: v.NextMaintenanceDate,
		GPSDeviceID:         v.GPSDeviceID,
		CurrentLocation: GeoPoint{
			Type:        "Point",
			Coordinates: [2]float64{v.Longitude, v.Latitude},
		},
		Notes:        v.Notes,
		SpeedKm:      v.SpeedKm,
		IsIgnitionOn: v.IsIgnitionOn,
		Age:          time.Now().Year() - v.Year,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}

	if v.Insurance != (Insurance{}) {
		ins := v.Insurance
		resp.Insurance = &ins
	}

	return resp
}
