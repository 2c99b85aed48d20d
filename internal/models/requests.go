package models

import "time"

// EventCreateRequest is the organizer's create-event payload.
type EventCreateRequest struct {
	Name                 string             `json:"name"`
	Description          string             `json:"description"`
	Type                 string             `json:"type"`
	Eligibility          string             `json:"eligibility"`
	StartDate            time.Time          `json:"startDate"`
	EndDate              time.Time          `json:"endDate"`
	RegistrationDeadline time.Time          `json:"registrationDeadline"`
	RegistrationLimit    int                `json:"registrationLimit"`
	Fee                  float64            `json:"fee"`
	Tags                 []string           `json:"tags"`
	Status               string             `json:"status"`
	MinTeamSize          int                `json:"minTeamSize"`
	MaxTeamSize          int                `json:"maxTeamSize"`
	MerchandiseItems     []*MerchandiseItem `json:"merchandiseItems"`
	CustomForm           []*FormField       `json:"customForm"`
}

// EventUpdateRequest uses pointers so absent fields can be told apart
// from zero values. Fields disallowed by the event's current status are
// dropped, not rejected; a disallowed status transition is an error.
type EventUpdateRequest struct {
	Name                 *string    `json:"name,omitempty"`
	Description          *string    `json:"description,omitempty"`
	Eligibility          *string    `json:"eligibility,omitempty"`
	StartDate            *time.Time `json:"startDate,omitempty"`
	EndDate              *time.Time `json:"endDate,omitempty"`
	RegistrationDeadline *time.Time `json:"registrationDeadline,omitempty"`
	RegistrationLimit    *int       `json:"registrationLimit,omitempty"`
	Fee                  *float64   `json:"fee,omitempty"`
	Tags                 *[]string  `json:"tags,omitempty"`
	Status               *string    `json:"status,omitempty"`
	MinTeamSize          *int       `json:"minTeamSize,omitempty"`
	MaxTeamSize          *int       `json:"maxTeamSize,omitempty"`
}

type TeamCreateRequest struct {
	EventID  string `json:"eventId"`
	TeamName string `json:"teamName"`
	MaxSize  int    `json:"maxSize"`
}

type TeamJoinRequest struct {
	TeamCode string `json:"teamCode"`
}

type ScanRequest struct {
	TicketID string `json:"ticketId"`
	EventID  string `json:"eventId"`
}

type ManualAttendanceRequest struct {
	RegistrationID string `json:"registrationId"`
	Note           string `json:"note"`
}
