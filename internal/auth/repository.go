package auth

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gymgrid/backend/internal/models"
)

// Repository handles user identity/profile persistence.
type Repository struct {
	c *mongo.Collection
}

// NewRepository creates an auth repository over the users collection.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{c: db.Collection("users")}
}

// GetByID returns a user by id.
func (r *Repository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.c.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user, stamping id and timestamps.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.CreatedAt = now
	u.UpdatedAt = now
	_, err := r.c.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrDuplicate
	}
	return err
}

// RecordLogin updates the profile's login history.
func (r *Repository) RecordLogin(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := r.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"last_login_at": now, "updated_at": now},
		"$inc": bson.M{"login_count": 1},
	})
	return err
}

// UpsertGoogle returns the user for a federated Google login, creating the
// profile on first login and refreshing the display name on later ones.
func (r *Repository) UpsertGoogle(ctx context.Context, email, name string) (*models.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		u = &models.User{
			Name:     name,
			Email:    email,
			Provider: models.ProviderGoogle,
		}
		if err := r.Create(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	}
	if err != nil {
		return nil, err
	}
	if name != "" && name != u.Name {
		now := time.Now().UTC()
		_, err = r.c.UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"name": name, "updated_at": now}})
		if err != nil {
			return nil, err
		}
		u.Name = name
	}
	return u, nil
}
