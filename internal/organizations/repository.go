package organizations

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

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Status string
	Limit  int64
}

// Patch is a merge-patch for Update. Name and Email are required-type fields
// applied only when non-empty; the pointer fields are optional and applied
// whenever present, including explicit empty strings.
type Patch struct {
	Name    string
	Email   string
	Phone   *string
	Address *string
	Status  *string
}

// Repository handles organization persistence.
type Repository struct {
	c *mongo.Collection
}

// NewRepository creates an organization repository.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{c: db.Collection("organizations")}
}

// List returns organizations matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.Organization, error) {
	query := bson.M{}
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

	var orgs []models.Organization
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// GetByID returns an organization by id.
func (r *Repository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Organization, error) {
	var org models.Organization
	err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// Create inserts a new organization, stamping id, timestamps, and a default
// status.
func (r *Repository) Create(ctx context.Context, org *models.Organization) error {
	now := time.Now().UTC()
	org.ID = primitive.NewObjectID()
	if org.Status == "" {
		org.Status = models.StatusActive
	}
	org.CreatedAt = now
	org.UpdatedAt = now
	_, err := r.c.InsertOne(ctx, org)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrDuplicate
	}
	return err
}

// Update applies a merge-patch and refreshes the update timestamp.
func (r *Repository) Update(ctx context.Context, id primitive.ObjectID, p Patch) error {
	res, err := r.c.UpdateByID(ctx, id, bson.M{"$set": buildUpdate(p)})
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

// buildUpdate maps a Patch onto the fields to set, preserving the per-field
// truthy-vs-presence distinction.
func buildUpdate(p Patch) bson.M {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Name != "" {
		set["name"] = p.Name
	}
	if p.Email != "" {
		set["email"] = p.Email
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Address != nil {
		set["address"] = *p.Address
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	return set
}

// Delete removes an organization by id.
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

// EmailExists reports whether any organization uses the email.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	err := r.c.FindOne(ctx, bson.M{"email": email}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// EmailExistsForOther reports whether another organization uses the email,
// excluding the given id so a record can keep its own email on update.
func (r *Repository) EmailExistsForOther(ctx context.Context, email string, exclude primitive.ObjectID) (bool, error) {
	err := r.c.FindOne(ctx, bson.M{
		"email": email,
		"_id":   bson.M{"$ne": exclude},
	}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
