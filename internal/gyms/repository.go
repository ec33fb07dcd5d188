package gyms

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

// Patch is a merge-patch for Update. Name, Phone, Email, Manager, and
// Capacity apply only when non-zero; the pointer fields apply whenever
// present.
type Patch struct {
	Name     string
	Phone    string
	Email    string
	Manager  string
	Capacity int

	Address        *string
	Status         *string
	OperatingHours *models.OperatingHours
	Amenities      *[]string
	Coordinates    *models.GeoPoint

	ModifiedBy string
}

// Repository handles gym persistence. Every lookup is scoped to the parent
// organization, so a gym id under the wrong organization reads as not found.
type Repository struct {
	c *mongo.Collection
}

// NewRepository creates a gym repository.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{c: db.Collection("gyms")}
}

// ListByOrganization returns gyms of an organization, newest first, capped at
// limit (default 100).
func (r *Repository) ListByOrganization(ctx context.Context, orgID primitive.ObjectID, limit int64) ([]models.Gym, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cur, err := r.c.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var gyms []models.Gym
	if err := cur.All(ctx, &gyms); err != nil {
		return nil, err
	}
	return gyms, nil
}

// GetByID returns a gym by id within an organization.
func (r *Repository) GetByID(ctx context.Context, orgID, id primitive.ObjectID) (*models.Gym, error) {
	var g models.Gym
	err := r.c.FindOne(ctx, bson.M{"_id": id, "organization_id": orgID}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Create inserts a new gym, stamping id, timestamps, and a default status.
// Membership and revenue counters start at zero.
func (r *Repository) Create(ctx context.Context, g *models.Gym) error {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	if g.Status == "" {
		g.Status = models.StatusActive
	}
	g.Members = 0
	g.MonthlyRevenue = 0
	g.CreatedAt = now
	g.UpdatedAt = now
	_, err := r.c.InsertOne(ctx, g)
	return err
}

// Update applies a merge-patch and refreshes the update metadata.
func (r *Repository) Update(ctx context.Context, orgID, id primitive.ObjectID, p Patch) error {
	filter := bson.M{"_id": id, "organization_id": orgID}
	res, err := r.c.UpdateOne(ctx, filter, bson.M{"$set": buildUpdate(p)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// buildUpdate maps a Patch onto the fields to set, preserving the per-field
// truthy-vs-presence distinction.
func buildUpdate(p Patch) bson.M {
	set := bson.M{
		"updated_at":       time.Now().UTC(),
		"last_modified_by": p.ModifiedBy,
	}
	if p.Name != "" {
		set["name"] = p.Name
	}
	if p.Phone != "" {
		set["phone"] = p.Phone
	}
	if p.Email != "" {
		set["email"] = p.Email
	}
	if p.Manager != "" {
		set["manager"] = p.Manager
	}
	if p.Capacity != 0 {
		set["capacity"] = p.Capacity
	}
	if p.Address != nil {
		set["address"] = *p.Address
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.OperatingHours != nil {
		set["operating_hours"] = *p.OperatingHours
	}
	if p.Amenities != nil {
		set["amenities"] = *p.Amenities
	}
	if p.Coordinates != nil {
		set["coordinates"] = *p.Coordinates
	}
	return set
}

// Delete removes a gym by id within an organization.
func (r *Repository) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id, "organization_id": orgID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
