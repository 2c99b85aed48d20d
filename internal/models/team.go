package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Team statuses. "complete" is a transient step inside the join
// operation; a team observable at rest is either forming or registered.
const (
	TeamForming    = "forming"
	TeamComplete   = "complete"
	TeamRegistered = "registered"
)

type Team struct {
	bun.BaseModel `bun:"table:teams"`

	ID       string   `bun:"id,pk" json:"id"`
	Name     string   `bun:"name,notnull" json:"name"`
	EventID  string   `bun:"event_id,notnull" json:"eventId"`
	LeaderID string   `bun:"leader_id,notnull" json:"leaderId"`
	Members  []string `bun:"members,array" json:"members"`
	TeamCode string   `bun:"team_code,notnull,unique" json:"teamCode"`
	MaxSize  int      `bun:"max_size,notnull" json:"maxSize"`
	Status   string   `bun:"status,notnull" json:"status"`

	// Version guards membership updates: writers bump it and condition
	// on the value they read, so racing joins/leaves never lose an
	// append.
	Version int64 `bun:"version" json:"-"`

	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// HasMember reports whether userID is on the team (leader included).
func (t *Team) HasMember(userID string) bool {
	for _, m := range t.Members {
		if m == userID {
			return true
		}
	}
	return false
}
