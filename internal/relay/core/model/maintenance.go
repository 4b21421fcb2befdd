package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaintenanceTypes lists the accepted maintenance categories.
var MaintenanceTypes = []string{"routine", "repair", "inspection", "emergency", "recall", "other"}

// MaintenanceStatuses lists the accepted maintenance record statuses.
var MaintenanceStatuses = []string{"pending", "in_progress", "completed", "cancelled"}

// Attachment is a document linked to a maintenance record. FileURL points
// into the object store (see internal/relay/storage).
type Attachment struct {
	Name     string `json:"name"`
	FileURL  string `json:"fileUrl"`
	FileType string `json:"fileType,omitempty"`
}

// AttachmentList stores attachments as a JSON column.
type AttachmentList []Attachment

// Value implements driver.Valuer.
func (a AttachmentList) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (a *AttachmentList) Scan(value any) error {
	if value == nil {
		*a = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported attachment column type %T", value)
	}
}

// MaintenanceCost is the embedded cost breakdown of a maintenance record.
type MaintenanceCost struct {
	Parts float64 `json:"parts"`
	Labor float64 `json:"labor"`
	Tax   float64 `json:"tax"`
	Total float64 `json:"total"`
}

// Maintenance is the maintenance records table model.
type Maintenance struct {
	ID          string `gorm:"primaryKey;size:36"`
	VehicleID   string `gorm:"index;size:36;not null"`
	Type        string `gorm:"size:16;not null"`
	Title       string `gorm:"size:128;not null"`
	Description string `gorm:"type:text"`

	PerformedDate     time.Time `gorm:"index;not null"`
	OdometerReadingKm float64   `gorm:"not null;default:0"`

	Cost MaintenanceCost `gorm:"embedded;embeddedPrefix:cost_"`

	ProviderName     string `gorm:"size:128"`
	ProviderContact  string `gorm:"size:128"`
	ProviderLocation string `gorm:"size:128"`
	PerformedBy      string `gorm:"size:128"`

	Status string `gorm:"size:16;not null;default:pending;index"`

	Attachments AttachmentList `gorm:"type:json"`

	FollowUpNeeded bool `gorm:"not null;default:false"`
	FollowUpDate   *time.Time
	Notes          string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// BeforeCreate assigns a UUID primary key when none was provided.
func (m *Maintenance) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// MaintenanceResponse is the projected view of a maintenance record.
type MaintenanceResponse struct {
	ID                string          `json:"id"`
	VehicleID         string          `json:"vehicleId"`
	Type              string          `json:"type"`
	Title             string          `json:"title"`
	Description       string          `json:"description,omitempty"`
	PerformedDate     time.Time       `json:"performedDate"`
	OdometerReadingKm float64         `json:"odometerReadingKm"`
	Cost              MaintenanceCost `json:"cost"`
	ProviderName      string          `json:"providerName,omitempty"`
	ProviderContact   string          `json:"providerContact,omitempty"`
	ProviderLocation  string          `json:"providerLocation,omitempty"`
	PerformedBy       string          `json:"performedBy,omitempty"`
	Status            string          `json:"status"`
	Attachments       []Attachment    `json:"attachments"`
	FollowUpNeeded    bool            `json:"followUpNeeded"`
	FollowUpDate      *time.Time      `json:"followUpDate,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// ToResponse projects the stored record into its response view.
func (m *Maintenance) ToResponse() MaintenanceResponse {
	attachments := []Attachment(m.Attachments)
	if attachments == nil {
		attachments = []Attachment{}
	}

	return MaintenanceResponse{
		ID:                m.ID,
		VehicleID:         m.VehicleID,
		Type:              m.Type,
		Title:             m.Title,
		Description:       m.Description,
		PerformedDate:     m.PerformedDate,
		OdometerReadingKm: m.OdometerReadingKm,
		Cost:              m.Cost,
		ProviderName:      m.ProviderName,
		ProviderContact:   m.ProviderContact,
		ProviderLocation:  m.ProviderLocation,
		PerformedBy:       m.PerformedBy,
		Status:            m.Status,
		Attachments:       attachments,
		FollowUpNeeded:    m.FollowUpNeeded,
		FollowUpDate:      m.FollowUpDate,
		Notes:             m.Notes,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
