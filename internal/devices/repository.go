package devices

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gymgrid/backend/internal/models"
)

// ListFilter narrows List results; filters combine as a conjunction.
type ListFilter struct {
	OrganizationID *primitive.ObjectID
	Type           string
	Status         string
	Limit          int64
}

// Patch is a merge-patch for Update. The required-type fields (DeviceName,
// Type, SerialNumber) apply only when non-empty; pointer fields apply
// whenever present. ClearOrganization unsets the parent reference and resets
// the denormalized name.
type Patch struct {
	DeviceName   string
	Type         string
	SerialNumber string

	Model        *string
	Manufacturer *string
	Status       *string
	Location     *string
	IPAddress    *string
	MACAddress   *string

	OrganizationID    *primitive.ObjectID
	OrganizationName  *string
	ClearOrganization bool

	ModifiedBy string
}

// Repository handles device persistence.
type Repository struct {
	c *mongo.Collection
}

// NewRepository creates a device repository.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{c: db.Collection("devices")}
}

// List returns devices matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.Device, error) {
	query := bson.M{}
	if f.OrganizationID != nil {
		query["organization_id"] = *f.OrganizationID
	}
	if f.Type != "" {
		query["type"] = f.Type
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cur, err := r.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var devices []models.Device
	if err := cur.All(ctx, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// GetByID returns a device by id.
func (r *Repository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Device, error) {
	var d models.Device
	err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Exists reports whether a device with the id exists.
func (r *Repository) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := r.c.FindOne(ctx, bson.M{"_id": id}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts a new device, stamping id, timestamps, and a default status.
func (r *Repository) Create(ctx context.Context, d *models.Device) error {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	if d.Status == "" {
		d.Status = models.StatusActive
	}
	if d.OrganizationName == "" {
		d.OrganizationName = models.UnassignedOrganization
	}
	d.CreatedAt = now
	d.UpdatedAt = now
	_, err := r.c.InsertOne(ctx, d)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrDuplicate
	}
	return err
}

// Update applies a merge-patch and refreshes the update metadata.
func (r *Repository) Update(ctx context.Context, id primitive.ObjectID, p Patch) error {
	res, err := r.c.UpdateByID(ctx, id, buildUpdate(p))
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrDuplicate
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// buildUpdate maps a Patch onto a mongo update document, preserving the
// per-field truthy-vs-presence distinction.
func buildUpdate(p Patch) bson.M {
	set := bson.M{
		"updated_at":       time.Now().UTC(),
		"last_modified_by": p.ModifiedBy,
	}
	if p.DeviceName != "" {
		set["device_name"] = p.DeviceName
	}
	if p.Type != "" {
		set["type"] = p.Type
	}
	if p.SerialNumber != "" {
		set["serial_number"] = p.SerialNumber
	}
	if p.Model != nil {
		set["model"] = *p.Model
	}
	if p.Manufacturer != nil {
		set["manufacturer"] = *p.Manufacturer
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Location != nil {
		set["location"] = *p.Location
	}
	if p.IPAddress != nil {
		set["ip_address"] = *p.IPAddress
	}
	if p.MACAddress != nil {
		set["mac_address"] = *p.MACAddress
	}
	if p.OrganizationID != nil {
		set["organization_id"] = *p.OrganizationID
	}
	if p.OrganizationName != nil {
		set["organization_name"] = *p.OrganizationName
	}

	update := bson.M{"$set": set}
	if p.ClearOrganization {
		set["organization_name"] = models.UnassignedOrganization
		update["$unset"] = bson.M{"organization_id": ""}
	}
	return update
}

// Delete removes a device by id.
func (r *Repository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SerialExists reports whether any device uses the serial number.
func (r *Repository) SerialExists(ctx context.Context, serial string) (bool, error) {
	err := r.c.FindOne(ctx, bson.M{"serial_number": serial}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SerialExistsForOther reports whether another device uses the serial number,
// excluding the given id.
func (r *Repository) SerialExistsForOther(ctx context.Context, serial string, exclude primitive.ObjectID) (bool, error) {
	err := r.c.FindOne(ctx, bson.M{
		"serial_number": serial,
		"_id":           bson.M{"$ne": exclude},
	}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountByOrganization counts devices referencing an organization.
func (r *Repository) CountByOrganization(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return r.c.CountDocuments(ctx, bson.M{"organization_id": id})
}

// BulkAssign stages one update per device and commits the whole batch as a
// single multi-document transaction; other readers never observe a partially
// applied batch. Requires a replica set, as mongo transactions always do.
func (r *Repository) BulkAssign(ctx context.Context, ids []primitive.ObjectID, orgID *primitive.ObjectID, orgName, modifiedBy string) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(ids))
	for _, id := range ids {
		set := bson.M{
			"organization_name": orgName,
			"updated_at":        now,
			"last_modified_by":  modifiedBy,
		}
		update := bson.M{"$set": set}
		if orgID != nil {
			set["organization_id"] = *orgID
		} else {
			update["$unset"] = bson.M{"organization_id": ""}
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(update))
	}

	session, err := r.c.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return r.c.BulkWrite(sc, writes)
	})
	return err
}
