package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"fest-engine/internal/logger"
	"fest-engine/internal/models"
	"fest-engine/internal/payment/storage"
	"fest-engine/internal/utils"
)

var (
	ErrStripeAPIError         = errors.New("stripe API error")
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")
)

const defaultCurrency = "inr"

// StripeService collects event fees through Stripe PaymentIntents. One
// intent per registration; the fee amount always comes from the event
// record, never the client.
type StripeService struct {
	client *client.API
	store  storage.Store
	log    *logger.Logger
}

func NewStripeService(secretKey string, store storage.Store, log *logger.Logger) (*StripeService, error) {
	if secretKey == "" {
		log.Error("STRIPE", "Stripe secret key not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(secretKey, nil)
	log.Info("STRIPE", "Stripe client initialized")
	return &StripeService{client: sc, store: store, log: log}, nil
}

// CollectFee creates the fee intent after an admission commits. The
// registration is already authoritative, so failures here only log and
// leave the payment to be retried through the fee-intent endpoint.
func (s *StripeService) CollectFee(ctx context.Context, reg *models.Registration, event *models.Event) error {
	payment := &storage.FeePayment{
		PaymentID:      utils.NewID(),
		RegistrationID: reg.ID,
		EventID:        event.ID,
		UserID:         reg.UserID,
		Amount:         event.Fee,
		Currency:       defaultCurrency,
		Status:         storage.StatusPending,
		CreatedDate:    time.Now(),
	}

	intent, err := s.createIntent(payment, event.Name)
	if err != nil {
		return err
	}
	payment.IntentID = intent.ID
	payment.ClientSecret = intent.ClientSecret

	if err := s.store.SaveFeePayment(payment); err != nil {
		return err
	}

	s.log.Info("STRIPE", fmt.Sprintf("Fee intent %s created for registration %s (%.2f %s)",
		intent.ID, reg.ID, payment.Amount, payment.Currency))
	return nil
}

// FeeIntent returns the pending intent for a registration so the client
// can confirm it, creating one if admission-time collection failed.
func (s *StripeService) FeeIntent(registrationID string) (*storage.FeePayment, error) {
	payment, err := s.store.GetByRegistrationID(registrationID)
	if err != nil {
		return nil, err
	}
	if payment.IntentID != "" {
		return payment, nil
	}

	intent, err := s.createIntent(payment, "")
	if err != nil {
		return nil, err
	}
	payment.IntentID = intent.ID
	payment.ClientSecret = intent.ClientSecret
	if err := s.store.SaveFeePayment(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *StripeService) createIntent(payment *storage.FeePayment, eventName string) (*stripe.PaymentIntent, error) {
	if payment.Amount <= 0 {
		return nil, fmt.Errorf("%w: invalid fee amount %.2f", ErrStripeAPIError, payment.Amount)
	}

	// Stripe amounts are in the smallest currency unit.
	amountInCents := int64(payment.Amount * 100)

	description := "Event registration fee"
	if eventName != "" {
		description = fmt.Sprintf("Registration fee for %s", eventName)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(payment.Currency),
		Metadata: map[string]string{
			"payment_id":      payment.PaymentID,
			"registration_id": payment.RegistrationID,
			"event_id":        payment.EventID,
		},
		Description:        stripe.String(description),
		PaymentMethodTypes: []*string{stripe.String("card")},
	}

	intent, err := s.client.PaymentIntents.New(params)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("Failed to create payment intent: %v", err))
		return nil, fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}
	return intent, nil
}

// ApplyIntentOutcome records a webhook-reported intent result.
func (s *StripeService) ApplyIntentOutcome(intentID string, succeeded bool) error {
	payment, err := s.store.GetByIntentID(intentID)
	if err != nil {
		return err
	}

	status := storage.StatusFailed
	if succeeded {
		status = storage.StatusSucceeded
	}
	if err := s.store.UpdateStatus(payment.PaymentID, status); err != nil {
		return err
	}

	s.log.Info("STRIPE", fmt.Sprintf("Fee payment %s marked %s (intent %s)", payment.PaymentID, status, intentID))
	return nil
}
