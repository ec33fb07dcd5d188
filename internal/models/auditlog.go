package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audit actions.
const (
	ActionOrganizationDeleted = "organization_deleted"
	ActionDeviceDeleted       = "device_deleted"
	ActionGymDeleted          = "gym_deleted"
)

// AuditLogEntry is an append-only record of a destructive action. Snapshot
// holds the entity's full prior state; the service writes these entries but
// never reads them back.
type AuditLogEntry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action      string             `bson:"action" json:"action"`
	EntityID    string             `bson:"entity_id" json:"entityId"`
	PerformedBy string             `bson:"performed_by" json:"performedBy"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
	Snapshot    interface{}        `bson:"snapshot,omitempty" json:"snapshot,omitempty"`
}
