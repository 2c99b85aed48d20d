package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event kinds.
const (
	EventNormal      = "Normal"
	EventMerchandise = "Merchandise"
	EventHackathon   = "Hackathon"
)

// Event statuses. Draft and Cancelled are never auto-advanced by the
// time-driven transition; Closed is reached by organizer action only.
const (
	StatusDraft     = "Draft"
	StatusPublished = "Published"
	StatusOngoing   = "Ongoing"
	StatusCompleted = "Completed"
	StatusClosed    = "Closed"
	StatusCancelled = "Cancelled"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string `bun:"id,pk" json:"id"`
	Name        string `bun:"name,notnull" json:"name"`
	Description string `bun:"description" json:"description"`
	Type        string `bun:"type,notnull" json:"type"`
	Eligibility string `bun:"eligibility" json:"eligibility"`

	StartDate            time.Time `bun:"start_date,notnull" json:"startDate"`
	EndDate              time.Time `bun:"end_date,notnull" json:"endDate"`
	RegistrationDeadline time.Time `bun:"registration_deadline,notnull" json:"registrationDeadline"`

	// RegistrationLimit 0 means unlimited.
	RegistrationLimit int     `bun:"registration_limit" json:"registrationLimit"`
	RegisteredCount   int     `bun:"registered_count" json:"registeredCount"`
	Fee               float64 `bun:"fee" json:"fee"`

	OrganizerID string   `bun:"organizer_id,notnull" json:"organizerId"`
	Tags        []string `bun:"tags,array" json:"tags"`
	Status      string   `bun:"status,notnull" json:"status"`

	// Hackathon team size bounds.
	MinTeamSize int `bun:"min_team_size" json:"minTeamSize"`
	MaxTeamSize int `bun:"max_team_size" json:"maxTeamSize"`

	MerchandiseItems []*MerchandiseItem `bun:"rel:has-many,join:id=event_id" json:"merchandiseItems,omitempty"`
	CustomForm       []*FormField       `bun:"rel:has-many,join:id=event_id" json:"customForm,omitempty"`

	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// MerchandiseItem carries its own stock counter; stock must never go
// negative, enforced by a conditional decrement at the storage layer.
type MerchandiseItem struct {
	bun.BaseModel `bun:"table:merchandise_items"`

	ID          string  `bun:"id,pk" json:"id"`
	EventID     string  `bun:"event_id,notnull" json:"eventId"`
	Name        string  `bun:"name,notnull" json:"name"`
	Description string  `bun:"description" json:"description"`
	Price       float64 `bun:"price" json:"price"`
	Stock       int     `bun:"stock" json:"stock"`
	Image       string  `bun:"image" json:"image"`
}

// Form field types accepted by the custom registration form.
const (
	FieldText     = "text"
	FieldNumber   = "number"
	FieldDropdown = "dropdown"
	FieldCheckbox = "checkbox"
	FieldRadio    = "radio"
	FieldFile     = "file"
)

type FormField struct {
	bun.BaseModel `bun:"table:form_fields"`

	ID       string   `bun:"id,pk" json:"id"`
	EventID  string   `bun:"event_id,notnull" json:"eventId"`
	Label    string   `bun:"label,notnull" json:"label"`
	Type     string   `bun:"type,notnull" json:"type"`
	Options  []string `bun:"options,array" json:"options,omitempty"`
	Required bool     `bun:"required" json:"required"`
}
