package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Registration statuses.
const (
	RegConfirmed = "Confirmed"
	RegPending   = "Pending"
	RegCancelled = "Cancelled"
)

type Registration struct {
	bun.BaseModel `bun:"table:registrations"`

	ID       string `bun:"id,pk" json:"id"`
	UserID   string `bun:"user_id,notnull" json:"userId"`
	EventID  string `bun:"event_id,notnull" json:"eventId"`
	Status   string `bun:"status,notnull" json:"status"`
	TicketID string `bun:"ticket_id,notnull,unique" json:"ticketId"`

	RegistrationDate time.Time `bun:"registration_date,notnull" json:"registrationDate"`

	// Opaque answers to the event's custom form, keyed by field label.
	// File answers hold the upload store reference, not file contents.
	FormData map[string]string `bun:"form_data" json:"formData,omitempty"`

	// Merchandise selection, set only for Merchandise events.
	MerchItemID   string `bun:"merch_item_id" json:"merchItemId,omitempty"`
	MerchVariant  string `bun:"merch_variant" json:"merchVariant,omitempty"`
	MerchSize     string `bun:"merch_size" json:"merchSize,omitempty"`
	MerchQuantity int    `bun:"merch_quantity" json:"merchQuantity,omitempty"`

	// Set when the registration was issued through a hackathon team.
	TeamID string `bun:"team_id" json:"teamId,omitempty"`

	Attended       bool      `bun:"attended" json:"attended"`
	AttendedAt     time.Time `bun:"attended_at,nullzero" json:"attendedAt,omitempty"`
	AttendanceNote string    `bun:"attendance_note" json:"attendanceNote,omitempty"`

	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// MerchandiseSelection is the admission request's merchandise payload.
type MerchandiseSelection struct {
	ItemID   string `json:"itemId"`
	Variant  string `json:"variant,omitempty"`
	Size     string `json:"size,omitempty"`
	Quantity int    `json:"quantity"`
}

// RegistrationRequest is the admission request body.
type RegistrationRequest struct {
	EventID     string                `json:"eventId"`
	FormData    map[string]string     `json:"formData,omitempty"`
	Merchandise *MerchandiseSelection `json:"merchandise,omitempty"`
}
