package devices

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/gymgrid/backend/internal/auth"
	"github.com/gymgrid/backend/internal/models"
	"github.com/gymgrid/backend/pkg/jsonx"
	"github.com/gymgrid/backend/pkg/response"
)

// Store is the persistence surface the handler needs.
type Store interface {
	List(ctx context.Context, f ListFilter) ([]models.Device, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Device, error)
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	Create(ctx context.Context, d *models.Device) error
	Update(ctx context.Context, id primitive.ObjectID, p Patch) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	SerialExists(ctx context.Context, serial string) (bool, error)
	SerialExistsForOther(ctx context.Context, serial string, exclude primitive.ObjectID) (bool, error)
	BulkAssign(ctx context.Context, ids []primitive.ObjectID, orgID *primitive.ObjectID, orgName, modifiedBy string) error
}

// OrgGetter resolves organization references so the device can denormalize
// the organization name.
type OrgGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Organization, error)
}

// AuditRecorder appends delete audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, action, entityID, performedBy string, snapshot interface{})
}

// Handler handles device HTTP endpoints.
type Handler struct {
	store  Store
	orgs   OrgGetter
	audit  AuditRecorder
	logger *zap.Logger
}

// NewHandler creates a devices handler.
func NewHandler(store Store, orgs OrgGetter, audit AuditRecorder, logger *zap.Logger) *Handler {
	return &Handler{store: store, orgs: orgs, audit: audit, logger: logger}
}

// CreateDeviceRequest is the body for POST /devices.
type CreateDeviceRequest struct {
	DeviceName     string `json:"deviceName"`
	Type           string `json:"type"`
	SerialNumber   string `json:"serialNumber"`
	Model          string `json:"model"`
	Manufacturer   string `json:"manufacturer"`
	Status         string `json:"status"`
	Location       string `json:"location"`
	IPAddress      string `json:"ipAddress"`
	MACAddress     string `json:"macAddress"`
	OrganizationID string `json:"organizationId"`
}

// UpdateDeviceRequest is the body for PUT /devices/:id. DeviceName, Type, and
// SerialNumber apply only when non-empty; the pointer fields apply whenever
// present. OrganizationID is tri-state: absent leaves the assignment alone,
// null or empty clears it, a value reassigns.
type UpdateDeviceRequest struct {
	DeviceName     string               `json:"deviceName"`
	Type           string               `json:"type"`
	SerialNumber   string               `json:"serialNumber"`
	Model          *string              `json:"model"`
	Manufacturer   *string              `json:"manufacturer"`
	Status         *string              `json:"status"`
	Location       *string              `json:"location"`
	IPAddress      *string              `json:"ipAddress"`
	MACAddress     *string              `json:"macAddress"`
	OrganizationID jsonx.NullableString `json:"organizationId"`
}

// BulkAssignRequest is the body for POST /devices/bulk-assign. An empty
// OrganizationID unassigns the whole batch.
type BulkAssignRequest struct {
	DeviceIDs      []string `json:"deviceIds"`
	OrganizationID string   `json:"organizationId"`
}

// List handles GET /devices.
func (h *Handler) List(c *gin.Context) {
	filter := ListFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Limit:  parseLimit(c.Query("limit")),
	}
	if raw := c.Query("organizationId"); raw != "" {
		orgID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			response.BadRequest(c, "invalid organization id")
			return
		}
		filter.OrganizationID = &orgID
	}
	devices, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		response.Internal(c, "failed to list devices")
		return
	}
	if devices == nil {
		devices = []models.Device{}
	}
	response.OKList(c, devices, len(devices), "")
}

// GetByID handles GET /devices/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.NotFound(c, "device not found")
		return
	}
	d, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "device not found")
			return
		}
		response.Internal(c, "failed to load device")
		return
	}
	response.OK(c, d)
}

// Create handles POST /devices.
func (h *Handler) Create(c *gin.Context) {
	var req CreateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	var missing []string
	if req.DeviceName == "" {
		missing = append(missing, "deviceName")
	}
	if req.Type == "" {
		missing = append(missing, "type")
	}
	if req.SerialNumber == "" {
		missing = append(missing, "serialNumber")
	}
	if len(missing) > 0 {
		response.BadRequest(c, "missing required fields: "+strings.Join(missing, ", "))
		return
	}

	// Best-effort uniqueness check; the unique index catches the race.
	exists, err := h.store.SerialExists(c.Request.Context(), req.SerialNumber)
	if err != nil {
		response.Internal(c, "failed to create device")
		return
	}
	if exists {
		response.Conflict(c, "a device with this serial number already exists")
		return
	}

	d := &models.Device{
		DeviceName:       req.DeviceName,
		Type:             req.Type,
		SerialNumber:     req.SerialNumber,
		Model:            req.Model,
		Manufacturer:     req.Manufacturer,
		Status:           req.Status,
		Location:         req.Location,
		IPAddress:        req.IPAddress,
		MACAddress:       req.MACAddress,
		OrganizationName: models.UnassignedOrganization,
		CreatedBy:        currentUID(c),
	}
	if req.OrganizationID != "" {
		orgID, err := primitive.ObjectIDFromHex(req.OrganizationID)
		if err != nil {
			response.BadRequest(c, "invalid organization id")
			return
		}
		org, err := h.orgs.GetByID(c.Request.Context(), orgID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				response.NotFound(c, "organization not found")
				return
			}
			response.Internal(c, "failed to create device")
			return
		}
		d.OrganizationID = &orgID
		d.OrganizationName = org.Name
	}

	if err := h.store.Create(c.Request.Context(), d); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			response.Conflict(c, "a device with this serial number already exists")
			return
		}
		response.Internal(c, "failed to create device")
		return
	}
	response.Created(c, d)
}

// Update handles PUT /devices/:id with merge-patch semantics.
func (h *Handler) Update(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.NotFound(c, "device not found")
		return
	}
	var req UpdateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	existing, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "device not found")
			return
		}
		response.Internal(c, "failed to load device")
		return
	}

	if req.SerialNumber != "" && req.SerialNumber != existing.SerialNumber {
		taken, err := h.store.SerialExistsForOther(c.Request.Context(), req.SerialNumber, id)
		if err != nil {
			response.Internal(c, "failed to update device")
			return
		}
		if taken {
			response.Conflict(c, "a device with this serial number already exists")
			return
		}
	}

	patch := Patch{
		DeviceName:   req.DeviceName,
		Type:         req.Type,
		SerialNumber: req.SerialNumber,
		Model:        req.Model,
		Manufacturer: req.Manufacturer,
		Status:       req.Status,
		Location:     req.Location,
		IPAddress:    req.IPAddress,
		MACAddress:   req.MACAddress,
		ModifiedBy:   currentUID(c),
	}
	if req.OrganizationID.Set {
		if !req.OrganizationID.Valid || req.OrganizationID.Value == "" {
			patch.ClearOrganization = true
		} else {
			orgID, err := primitive.ObjectIDFromHex(req.OrganizationID.Value)
			if err != nil {
				response.BadRequest(c, "invalid organization id")
				return
			}
			org, err := h.orgs.GetByID(c.Request.Context(), orgID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					response.NotFound(c, "organization not found")
					return
				}
				response.Internal(c, "failed to update device")
				return
			}
			patch.OrganizationID = &orgID
			name := org.Name
			patch.OrganizationName = &name
		}
	}

	if err := h.store.Update(c.Request.Context(), id, patch); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			response.Conflict(c, "a device with this serial number already exists")
			return
		}
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "device not found")
			return
		}
		response.Internal(c, "failed to update device")
		return
	}

	updated, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load device")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /devices/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.NotFound(c, "device not found")
		return
	}
	existing, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "device not found")
			return
		}
		response.Internal(c, "failed to load device")
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "device not found")
			return
		}
		response.Internal(c, "failed to delete device")
		return
	}
	h.audit.Record(c.Request.Context(), models.ActionDeviceDeleted, id.Hex(), currentUID(c), existing)
	response.OKMessage(c, "device deleted")
}

// BulkAssign handles POST /devices/bulk-assign. Ids that do not resolve to an
// existing device are skipped; the rest are reassigned atomically.
func (h *Handler) BulkAssign(c *gin.Context) {
	var req BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if len(req.DeviceIDs) == 0 {
		response.BadRequest(c, "deviceIds must not be empty")
		return
	}

	var orgID *primitive.ObjectID
	orgName := models.UnassignedOrganization
	if req.OrganizationID != "" {
		id, err := primitive.ObjectIDFromHex(req.OrganizationID)
		if err != nil {
			response.BadRequest(c, "invalid organization id")
			return
		}
		org, err := h.orgs.GetByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				response.NotFound(c, "organization not found")
				return
			}
			response.Internal(c, "failed to assign devices")
			return
		}
		orgID = &id
		orgName = org.Name
	}

	var (
		valid   []primitive.ObjectID
		skipped []string
	)
	for _, raw := range req.DeviceIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			skipped = append(skipped, raw)
			continue
		}
		exists, err := h.store.Exists(c.Request.Context(), id)
		if err != nil {
			response.Internal(c, "failed to assign devices")
			return
		}
		if !exists {
			skipped = append(skipped, raw)
			continue
		}
		valid = append(valid, id)
	}

	if err := h.store.BulkAssign(c.Request.Context(), valid, orgID, orgName, currentUID(c)); err != nil {
		response.Internal(c, "failed to assign devices")
		return
	}
	if skipped == nil {
		skipped = []string{}
	}
	response.OK(c, gin.H{
		"updatedCount": len(valid),
		"skipped":      skipped,
	})
}

func currentUID(c *gin.Context) string {
	if ident, ok := auth.CurrentIdentity(c); ok {
		return ident.UID
	}
	return ""
}

func parseLimit(raw string) int64 {
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
