package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCitizen Role = "citizen"
	RoleUnit    Role = "unit"
	RoleAdmin   Role = "admin"
)

type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	Role         Role       `json:"role"`
	UnitID       *uuid.UUID `json:"unit_id,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Identity is the authenticated actor as resolved by the auth middleware.
// Services trust it; suspension is rejected before any service is reached.
type Identity struct {
	UserID uuid.UUID
	Role   Role
	UnitID *uuid.UUID
}

// Request/Response
type RegisterRequest struct {
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required,min=6"`
	Name     string     `json:"name" binding:"required"`
	Role     Role       `json:"role" binding:"required"`
	UnitID   *uuid.UUID `json:"unit_id"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
