package models

import (
	"time"

	"github.com/google/uuid"
)

// Platform-level user roles (distinct from organization roles).
const (
	UserRoleAdmin = "admin"
	UserRoleUser  = "user"
)

// User is a registered account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
