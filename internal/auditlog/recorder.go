package auditlog

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/gymgrid/backend/internal/models"
)

// Recorder appends audit entries for destructive actions. Entries are
// write-only from this service's point of view; failures are logged rather
// than surfaced because the delete they describe has already happened.
type Recorder struct {
	c      *mongo.Collection
	logger *zap.Logger
}

// New creates a Recorder over the audit_logs collection.
func New(db *mongo.Database, logger *zap.Logger) *Recorder {
	return &Recorder{c: db.Collection("audit_logs"), logger: logger}
}

// Record appends one entry with a snapshot of the entity's prior state.
func (r *Recorder) Record(ctx context.Context, action, entityID, performedBy string, snapshot interface{}) {
	entry := models.AuditLogEntry{
		ID:          primitive.NewObjectID(),
		Action:      action,
		EntityID:    entityID,
		PerformedBy: performedBy,
		Timestamp:   time.Now().UTC(),
		Snapshot:    snapshot,
	}
	if _, err := r.c.InsertOne(ctx, entry); err != nil {
		r.logger.Warn("audit log write failed",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}
