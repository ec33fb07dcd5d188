package organizations

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
	"github.com/gymgrid/backend/pkg/response"
)

// Store is the persistence surface the handler needs.
type Store interface {
	List(ctx context.Context, f ListFilter) ([]models.Organization, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Organization, error)
	Create(ctx context.Context, org *models.Organization) error
	Update(ctx context.Context, id primitive.ObjectID, p Patch) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	EmailExists(ctx context.Context, email string) (bool, error)
	EmailExistsForOther(ctx context.Context, email string, exclude primitive.ObjectID) (bool, error)
}

// DeviceCounter reports how many devices reference an organization; a
// non-zero count blocks deletion.
type DeviceCounter interface {
	CountByOrganization(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// AuditRecorder appends delete audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, action, entityID, performedBy string, snapshot interface{})
}

// Handler handles organization HTTP endpoints.
type Handler struct {
	store   Store
	devices DeviceCounter
	audit   AuditRecorder
	logger  *zap.Logger
}

// NewHandler creates an organizations handler.
func NewHandler(store Store, devices DeviceCounter, audit AuditRecorder, logger *zap.Logger) *Handler {
	return &Handler{store: store, devices: devices, audit: audit, logger: logger}
}

// CreateOrganizationRequest is the body for POST /organizations.
type CreateOrganizationRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Status  string `json:"status"`
}

// UpdateOrganizationRequest is the body for PUT /organizations/:id.
// Name/Email apply only when non-empty; the pointer fields apply whenever
// present, so an explicit empty string clears them.
type UpdateOrganizationRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Status  *string `json:"status"`
}

// List handles GET /organizations.
func (h *Handler) List(c *gin.Context) {
	filter := ListFilter{
		Status: c.Query("status"),
		Limit:  parseLimit(c.Query("limit")),
	}
	orgs, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		response.Internal(c, "failed to list organizations")
		return
	}
	if orgs == nil {
		orgs = []models.Organization{}
	}
	response.OKList(c, orgs, len(orgs), "")
}

// GetByID handles GET /organizations/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.NotFound(c, "organization not found")
		return
	}
	org, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "organization not found")
			return
		}
		response.Internal(c, "failed to load organization")
		return
	}
	response.OK(c, org)
}

// Create handles POST /organizations.
func (h *Handler) Create(c *gin.Context) {
	var req CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	var missing []string
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		response.BadRequest(c, "missing required fields: "+strings.Join(missing, ", "))
		return
	}

	// Best-effort uniqueness check; the unique index catches the race.
	exists, err := h.store.EmailExists(c.Request.Context(), req.Email)
	if err != nil {
		response.Internal(c, "failed to create organization")
		return
	}
	if exists {
		response.Conflict(c, "an organization with this email already exists")
		return
	}

	org := &models.Organization{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Status:    req.Status,
		CreatedBy: currentUID(c),
	}
	if err := h.store.Create(c.Request.Context(), org); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			response.Conflict(c, "an organization with this email already exists")
			return
		}
		response.Internal(c, "failed to create organization")
		return
	}
	response.Created(c, org)
}

// Update handles PUT /organizations/:id with merge-patch semantics.
func (h *Handler) Update(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.NotFound(c, "organization not found")
		return
	}
	var req UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	existing, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "organization not found")
			return
		}
		response.Internal(c, "failed to load organization")
		return
	}

	if req.Email != "" && req.Email != existing.Email {
		taken, err := h.store.EmailExistsForOther(c.Request.Context(), req.Email, id)
		if err != nil {
			response.Internal(c, "failed to update organization")
			return
		}
		if taken {
			response.Conflict(c, "an organization with this email already exists")
			return
		}
	}

	patch := Patch{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Status:  req.Status,
	}
	if err := h.store.Update(c.Request.Context(), id, patch); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			response.Conflict(c, "an organization with this email already exists")
			return
		}
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "organization not found")
			return
		}
		response.Internal(c, "failed to update organization")
		return
	}

	updated, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load organization")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /organizations/:id. Deletion is blocked, not
// cascaded, while devices still reference the organization.
func (h *Handler) Delete(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.NotFound(c, "organization not found")
		return
	}
	existing, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "organization not found")
			return
		}
		response.Internal(c, "failed to load organization")
		return
	}

	n, err := h.devices.CountByOrganization(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to delete organization")
		return
	}
	if n > 0 {
		response.Conflict(c, "organization has assigned devices; unassign them first")
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "organization not found")
			return
		}
		response.Internal(c, "failed to delete organization")
		return
	}
	h.audit.Record(c.Request.Context(), models.ActionOrganizationDeleted, id.Hex(), currentUID(c), existing)
	response.OKMessage(c, "organization deleted")
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
