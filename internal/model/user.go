package model

import (
	"time"

	"github.com/google/uuid"
)

// Role names carried in the JWT "role" claim.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User is the ticket holder referenced by reservations.  Account
// management lives in another service; this one only needs the row to
// exist for the foreign key.
type User struct {
	ID        uuid.UUID // users.id
	Email     string    // users.email
	RoleID    uint8     // users.role_id (references roles.id)
	CreatedAt time.Time // users.created_at
}

// Role maps a small integer id to a role name.
type Role struct {
	ID   uint8  // roles.id
	Name string // roles.name
}
