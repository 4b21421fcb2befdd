package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fleetrelay.io/fleetrelay/internal/relay/core/model"
	"fleetrelay.io/fleetrelay/internal/relay/storage"
)

// attachmentURLExpiry bounds presigned download links. Seven days is
// the S3 presigning maximum.
const attachmentURLExpiry = 7 * 24 * time.Hour

type maintenanceCreateRequest struct {
	VehicleID         string                `json:"vehicleId"`
	Type              string                `json:"type"`
	Title             string                `json:"title"`
	Description       string                `json:"description"`
	PerformedDate     *time.Time            `json:"performedDate"`
	OdometerReadingKm float64               `json:"odometerReadingKm"`
	Cost              model.MaintenanceCost `json:"cost"`
	ProviderName      string                `json:"providerName"`
	ProviderContact   string                `json:"providerContact"`
	ProviderLocation  string                `json:"providerLocation"`
	PerformedBy       string                `json:"performedBy"`
	Status            string                `json:"status"`
	FollowUpNeeded    bool                  `json:"followUpNeeded"`
	FollowUpDate      *time.Time            `json:"followUpDate"`
	Notes             string                `json:"notes"`
}

func (req *maintenanceCreateRequest) validate() string {
	switch {
	case req.VehicleID == "":
		return "vehicleId is required"
	case uuid.Validate(req.VehicleID) != nil:
		return "vehicleId must be a valid UUID"
	case !contains(model.MaintenanceTypes, req.Type):
		return "type is not a valid maintenance type"
	case req.Title == "":
		return "title is required"
	case req.PerformedDate == nil:
		return "performedDate is required"
	case req.Status != "" && !contains(model.MaintenanceStatuses, req.Status):
		return "status is not a valid maintenance status"
	case req.OdometerReadingKm < 0:
		return "odometerReadingKm must not be negative"
	}
	return ""
}

func (req *maintenanceCreateRequest) toModel() *model.Maintenance {
	status := req.Status
	if status == "" {
		status = "pending"
	}

	return &model.Maintenance{
		VehicleID:         req.VehicleID,
		Type:              req.Type,
		Title:             req.Title,
		Description:       req.Description,
		PerformedDate:     *req.PerformedDate,
		OdometerReadingKm: req.OdometerReadingKm,
		Cost:              req.Cost,
		ProviderName:      req.ProviderName,
		ProviderContact:   req.ProviderContact,
		ProviderLocation:  req.ProviderLocation,
		PerformedBy:       req.PerformedBy,
		Status:            status,
		FollowUpNeeded:    req.FollowUpNeeded,
		FollowUpDate:      req.FollowUpDate,
		Notes:             req.Notes,
	}
}

type maintenanceUpdateRequest struct {
	Type              *string                `json:"type"`
	Title             *string                `json:"title"`
	Description       *string                `json:"description"`
	PerformedDate     *time.Time             `json:"performedDate"`
	OdometerReadingKm *float64               `json:"odometerReadingKm"`
	Cost              *model.MaintenanceCost `json:"cost"`
	ProviderName      *string                `json:"providerName"`
	ProviderContact   *string                `json:"providerContact"`
	ProviderLocation  *string                `json:"providerLocation"`
	PerformedBy       *string                `json:"performedBy"`
	Status            *string                `json:"status"`
	FollowUpNeeded    *bool                  `json:"followUpNeeded"`
	FollowUpDate      *time.Time             `json:"followUpDate"`
	Notes             *string                `json:"notes"`
}

func (req *maintenanceUpdateRequest) validate() string {
	switch {
	case req.Type != nil && !contains(model.MaintenanceTypes, *req.Type):
		return "type is not a valid maintenance type"
	case req.Title != nil && *req.Title == "":
		return "title must not be empty"
	case req.Status != nil && !contains(model.MaintenanceStatuses, *req.Status):
		return "status is not a valid maintenance status"
	case req.OdometerReadingKm != nil && *req.OdometerReadingKm < 0:
		return "odometerReadingKm must not be negative"
	}
	return ""
}

func (req *maintenanceUpdateRequest) toUpdates() map[string]any {
	updates := map[string]any{}
	setColumn(updates, "type", req.Type)
	setColumn(updates, "title", req.Title)
	setColumn(updates, "description", req.Description)
	setColumn(updates, "performed_date", req.PerformedDate)
	setColumn(updates, "odometer_reading_km", req.OdometerReadingKm)
	setColumn(updates, "provider_name", req.ProviderName)
	setColumn(updates, "provider_contact", req.ProviderContact)
	setColumn(updates, "provider_location", req.ProviderLocation)
	setColumn(updates, "performed_by", req.PerformedBy)
	setColumn(updates, "status", req.Status)
	setColumn(updates, "follow_up_needed", req.FollowUpNeeded)
	setColumn(updates, "follow_up_date", req.FollowUpDate)
	setColumn(updates, "notes", req.Notes)

	if req.Cost != nil {
		updates["cost_parts"] = req.Cost.Parts
		updates["cost_labor"] = req.Cost.Labor
		updates["cost_tax"] = req.Cost.Tax
		updates["cost_total"] = req.Cost.Total
	}
	return updates
}

func (a *API) createMaintenance(w http.ResponseWriter, r *http.Request) {
	var req maintenanceCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	created, err := a.maintenance.Create(r.Context(), req.toModel())
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, created)
}

func (a *API) listMaintenance(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := listQuery(r, "status", "type")
	if vehicleID := r.URL.Query().Get("vehicleId"); vehicleID != "" {
		query["vehicle_id"] = vehicleID
	}

	result, err := a.maintenance.List(r.Context(), page, limit, query)
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, result)
}

func (a *API) getMaintenance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	record, err := a.maintenance.GetByID(r.Context(), id)
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, record)
}

func (a *API) updateMaintenance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	var req maintenanceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	updated, err := a.maintenance.Update(r.Context(), id, req.toUpdates())
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, updated)
}

func (a *API) deleteMaintenance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	deleted, err := a.maintenance.Delete(r.Context(), id)
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, deleted)
}

func (a *API) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	if a.attachments == nil {
		respondError(w, http.StatusServiceUnavailable, "attachment storage is not configured")
		return
	}

	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	ctx := r.Context()
	objectKey := storage.ObjectKey(id, header.Filename)
	contentType := header.Header.Get("Content-Type")

	if err := a.attachments.Upload(ctx, objectKey, file, header.Size, contentType); err != nil {
		a.logger.Error(err, "Attachment upload failed", "maintenance", id)
		respondError(w, http.StatusInternalServerError, "failed to store attachment")
		return
	}

	fileURL, err := a.attachments.PresignedURL(ctx, objectKey, attachmentURLExpiry)
	if err != nil {
		a.logger.Error(err, "Presigning attachment failed", "maintenance", id)
		respondError(w, http.StatusInternalServerError, "failed to store attachment")
		return
	}

	updated, err := a.maintenance.AppendAttachment(ctx, id, model.Attachment{
		Name:     header.Filename,
		FileURL:  fileURL,
		FileType: contentType,
	})
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, updated)
}
