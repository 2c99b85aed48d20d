package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Roles carried in the auth token. The engine trusts the pair
// (user id, role); it never verifies credentials itself.
const (
	RoleParticipant = "participant"
	RoleOrganizer   = "organizer"
	RoleAdmin       = "admin"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID            string    `bun:"id,pk" json:"id"`
	FirstName     string    `bun:"first_name" json:"firstName"`
	LastName      string    `bun:"last_name" json:"lastName"`
	Email         string    `bun:"email,unique,notnull" json:"email"`
	Role          string    `bun:"role,notnull" json:"role"`
	ContactNumber string    `bun:"contact_number" json:"contactNumber,omitempty"`
	CollegeName   string    `bun:"college_name" json:"collegeName,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"createdAt"`
}

type Organizer struct {
	bun.BaseModel `bun:"table:organizers"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,unique,notnull" json:"email"`
	Category  string    `bun:"category" json:"category"`
	Archived  bool      `bun:"archived" json:"archived"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}
