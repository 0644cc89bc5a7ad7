package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleStudent     = "student"
	RoleTeacher     = "teacher"
	RoleCoordinator = "coordinator"
	RoleAdmin       = "admin"
)

var roles = []string{RoleStudent, RoleTeacher, RoleCoordinator, RoleAdmin}

func Roles() []string {
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}

func IsValidRole(role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Email          string              `bson:"email" json:"email"`
	PasswordHash   string              `bson:"password" json:"-"`
	Role           string              `bson:"role" json:"role"`
	FirstName      string              `bson:"firstName" json:"firstName"`
	LastName       string              `bson:"lastName" json:"lastName"`
	Phone          string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Department     *primitive.ObjectID `bson:"department,omitempty" json:"department,omitempty"`
	IsActive       bool                `bson:"isActive" json:"isActive"`
	LastLogin      *time.Time          `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	ProfilePicture string              `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// UserInput is the registration payload.
type UserInput struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	Role           string `json:"role" validate:"required,role"`
	FirstName      string `json:"firstName" validate:"required"`
	LastName       string `json:"lastName" validate:"required"`
	Phone          string `json:"phone"`
	Department     string `json:"department" validate:"omitempty,objectid"`
	ProfilePicture string `json:"profilePicture"`
}

// Normalize trims fields and lower-cases the e-mail address.
func (in *UserInput) Normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)
}

// DepartmentID returns the parsed department reference, or nil when unset.
func (in UserInput) DepartmentID() *primitive.ObjectID {
	if in.Department == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(in.Department)
	if err != nil {
		return nil
	}
	return &id
}

// ProfileInput is the self-service profile update. Absent fields are kept.
type ProfileInput struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=2,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,min=2,max=50"`
	Phone     *string `json:"phone" validate:"omitempty,phone"`
}

// Normalize trims the text fields.
func (in *ProfileInput) Normalize() {
	in.FirstName = trimmed(in.FirstName)
	in.LastName = trimmed(in.LastName)
	in.Phone = trimmed(in.Phone)
}

// Apply copies the fields present in the input onto u.
func (in ProfileInput) Apply(u *User) {
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
}

type PictureInput struct {
	ImageURL string `json:"imageUrl" validate:"required,url"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,nefield=CurrentPassword"`
}
