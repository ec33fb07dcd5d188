package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnassignedOrganization is the denormalized organization name carried by
// devices that belong to no organization.
const UnassignedOrganization = "Unassigned"

// Device is a piece of gym equipment or infrastructure hardware.
// SerialNumber is unique across devices. OrganizationID is optional; the
// parent's display name is cached in OrganizationName so listings never join.
type Device struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	DeviceName       string              `bson:"device_name" json:"deviceName"`
	Type             string              `bson:"type" json:"type"`
	SerialNumber     string              `bson:"serial_number" json:"serialNumber"`
	Model            string              `bson:"model,omitempty" json:"model,omitempty"`
	Manufacturer     string              `bson:"manufacturer,omitempty" json:"manufacturer,omitempty"`
	Status           string              `bson:"status" json:"status"`
	Location         string              `bson:"location,omitempty" json:"location,omitempty"`
	IPAddress        string              `bson:"ip_address,omitempty" json:"ipAddress,omitempty"`
	MACAddress       string              `bson:"mac_address,omitempty" json:"macAddress,omitempty"`
	OrganizationID   *primitive.ObjectID `bson:"organization_id,omitempty" json:"organizationId,omitempty"`
	OrganizationName string              `bson:"organization_name" json:"organizationName"`
	CreatedAt        time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updated_at" json:"updatedAt"`
	CreatedBy        string              `bson:"created_by" json:"createdBy"`
	LastModifiedBy   string              `bson:"last_modified_by" json:"lastModifiedBy"`
}
