package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User holds the structure for the users collection in mongo. UserID is the
// externally visible identifier, the mongo _id never leaves the API.
type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID          string             `bson:"userId" json:"id"`
	FirstName       string             `bson:"firstName" json:"firstName"`
	LastName        string             `bson:"lastName" json:"lastName"`
	Email           string             `bson:"email" json:"email"`
	Password        string             `bson:"password" json:"-"`
	Phone           string             `bson:"phone" json:"phone,omitempty"`
	Bio             string             `bson:"bio" json:"bio,omitempty"`
	Avatar          string             `bson:"avatar" json:"avatar,omitempty"`
	Role            string             `bson:"role" json:"role"`
	FirstLoginShown bool               `bson:"firstLoginShown" json:"firstLoginShown"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// PublicUser is the response projection of a user, it never carries the
// password hash or the mongo _id
type PublicUser struct {
	ID              string    `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Bio             string    `json:"bio,omitempty"`
	Avatar          string    `json:"avatar,omitempty"`
	Role            string    `json:"role"`
	FirstLoginShown bool      `json:"firstLoginShown"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Public returns the response projection of the user
func (u User) Public() PublicUser {
	return PublicUser{
		ID:              u.UserID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Email:           u.Email,
		Phone:           u.Phone,
		Bio:             u.Bio,
		Avatar:          u.Avatar,
		Role:            u.Role,
		FirstLoginShown: u.FirstLoginShown,
		CreatedAt:       u.CreatedAt,
	}
}

// DisplayName returns the user's full name, falling back to the email
// when no name is on file
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
