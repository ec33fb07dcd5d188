package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Entity statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Organization is a tenant owning gyms and (optionally) devices.
// Email is unique across organizations, enforced by a pre-insert existence
// query with a unique index as backstop.
type Organization struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address   string             `bson:"address,omitempty" json:"address,omitempty"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
	CreatedBy string             `bson:"created_by" json:"createdBy"`
}
