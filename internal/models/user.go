package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents the application user account.
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Email          string               `bson:"email" json:"email"`
	PasswordHash   string               `bson:"passwordHash" json:"-"`
	FullName       string               `bson:"fullName" json:"fullName"`
	UserName       string               `bson:"userName,omitempty" json:"userName,omitempty"`
	Phone          string               `bson:"phone,omitempty" json:"phone,omitempty"`
	Gender         string               `bson:"gender,omitempty" json:"gender,omitempty"`
	ProfileImage   string               `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	Location       string               `bson:"location,omitempty" json:"location,omitempty"`
	Role           string               `bson:"role" json:"role"`
	Wishlist       []primitive.ObjectID `bson:"wishlist" json:"wishlist"`
	Orders         []primitive.ObjectID `bson:"orders" json:"orders"`
	ResetOTPHash   string               `bson:"resetOtpHash,omitempty" json:"-"`
	ResetOTPExpiry *time.Time           `bson:"resetOtpExpiry,omitempty" json:"-"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
