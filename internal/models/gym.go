package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OperatingHours is a gym's daily open/close window.
type OperatingHours struct {
	Open  string `bson:"open" json:"open"`
	Close string `bson:"close" json:"close"`
}

// GeoPoint is an optional gym location.
type GeoPoint struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Gym always belongs to exactly one organization; it is created and addressed
// only through its parent's routes. Members and MonthlyRevenue are denormalized
// counters maintained elsewhere, initialized to zero at creation.
type Gym struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organizationId"`
	Name           string             `bson:"name" json:"name"`
	Address        string             `bson:"address" json:"address"`
	Phone          string             `bson:"phone" json:"phone"`
	Email          string             `bson:"email" json:"email"`
	Capacity       int                `bson:"capacity" json:"capacity"`
	Manager        string             `bson:"manager" json:"manager"`
	Status         string             `bson:"status" json:"status"`
	OperatingHours *OperatingHours    `bson:"operating_hours,omitempty" json:"operatingHours,omitempty"`
	Amenities      []string           `bson:"amenities,omitempty" json:"amenities,omitempty"`
	Coordinates    *GeoPoint          `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	Members        int                `bson:"members" json:"members"`
	MonthlyRevenue float64            `bson:"monthly_revenue" json:"monthlyRevenue"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
	CreatedBy      string             `bson:"created_by" json:"createdBy"`
	LastModifiedBy string             `bson:"last_modified_by" json:"lastModifiedBy"`
}
