package models

// RegistrationNotification is the payload handed to the notification
// dispatcher after an admission commits. Display names are resolved by
// the producer side so downstream consumers don't need DB access.
type RegistrationNotification struct {
	RegistrationID string `json:"registrationId"`
	TicketID       string `json:"ticketId"`
	EventID        string `json:"eventId"`
	EventName      string `json:"eventName"`
	OrganizerName  string `json:"organizerName"`
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
	UserEmail      string `json:"userEmail"`
}
