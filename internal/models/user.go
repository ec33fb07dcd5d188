package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Auth providers.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// User is an identity record plus its profile fields. The document id doubles
// as the stable uid attached to authenticated requests.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Provider     string             `bson:"provider" json:"provider"`
	LastLoginAt  *time.Time         `bson:"last_login_at,omitempty" json:"lastLoginAt,omitempty"`
	LoginCount   int                `bson:"login_count" json:"loginCount"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// UserPublic is User without credential material for API responses.
type UserPublic struct {
	ID    string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
	}
}
