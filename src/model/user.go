package model

import (
	"strings"
	"time"
)

// User is the owning account for every entity in the system. All lookups are
// scoped by user id; a cross-user lookup is a not-found, never a permission
// error.
type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Email     string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string `gorm:"size:255" json:"-"`
	FirstName string `gorm:"size:100" json:"first_name,omitempty"`
	LastName  string `gorm:"size:100" json:"last_name,omitempty"`

	// WebhookToken authenticates the token-based signal webhook. Rotated via
	// the webhook-token endpoint / CLI command.
	WebhookToken        string `gorm:"size:64;index" json:"-"`
	WebhookTokenEnabled bool   `gorm:"default:true" json:"webhook_token_enabled"`

	// SessionToken is the opaque bearer token issued on login.
	SessionToken string `gorm:"size:64;index" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type UserResponse struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     strings.ToLower(u.Email),
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
