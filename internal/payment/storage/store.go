package storage

import "time"

// Fee payment statuses mirror the Stripe intent lifecycle.
const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// FeePayment is one fee charge for one registration.
type FeePayment struct {
	PaymentID      string    `json:"paymentId"`
	RegistrationID string    `json:"registrationId"`
	EventID        string    `json:"eventId"`
	UserID         string    `json:"userId"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	IntentID       string    `json:"intentId"`
	ClientSecret   string    `json:"-"`
	CreatedDate    time.Time `json:"createdDate"`
}

type Store interface {
	SaveFeePayment(payment *FeePayment) error
	GetFeePayment(id string) (*FeePayment, error)
	GetByRegistrationID(registrationID string) (*FeePayment, error)
	GetByIntentID(intentID string) (*FeePayment, error)
	UpdateStatus(paymentID, status string) error

	Close() error
	HealthCheck() error
}
