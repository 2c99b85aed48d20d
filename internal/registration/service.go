package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fest-engine/internal/errs"
	"fest-engine/internal/events"
	"fest-engine/internal/logger"
	"fest-engine/internal/models"
	"fest-engine/internal/utils"
)

// ticketMintAttempts bounds the collision retry loop for ticket
// identifiers.
const ticketMintAttempts = 5

type DBLayer interface {
	GetEventForAdmission(ctx context.Context, id string) (*models.Event, error)
	HasRegistration(ctx context.Context, userID, eventID string) (bool, error)
	// AdmitAtomic applies the admission side effects as one unit:
	// conditional capacity increment, conditional stock decrement and
	// the registration insert all commit or all roll back.
	AdmitAtomic(ctx context.Context, reg *models.Registration, limited bool) error
	GetRegistrationByID(ctx context.Context, id string) (*models.Registration, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Registration, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetOrganizerName(ctx context.Context, organizerID string) (string, error)
}

// Notifier is the outward-facing notification collaborator. Failures
// are logged and never roll back a committed admission.
type Notifier interface {
	PublishRegistrationConfirmed(n models.RegistrationNotification) error
}

// FeeCollector creates a payment for fee-bearing events after
// admission commits. Best-effort, like the notifier.
type FeeCollector interface {
	CollectFee(ctx context.Context, reg *models.Registration, event *models.Event) error
}

// Service is the admission controller: it turns a registration request
// into a confirmed registration with a fresh ticket, or fails without
// side effects.
type Service struct {
	DB       DBLayer
	Notifier Notifier
	Fees     FeeCollector
	Log      *logger.Logger

	now func() time.Time
}

func NewService(db DBLayer, notifier Notifier, fees FeeCollector, log *logger.Logger) *Service {
	return &Service{DB: db, Notifier: notifier, Fees: fees, Log: log, now: time.Now}
}

// Register admits a participant. Preconditions run in a fixed order
// and each failure aborts with no partial state; the capacity and
// stock counters are re-checked at commit time by conditional updates,
// so concurrent admissions cannot oversell.
func (s *Service) Register(ctx context.Context, userID string, req models.RegistrationRequest) (*models.Registration, error) {
	event, err := s.DB.GetEventForAdmission(ctx, req.EventID)
	if err != nil {
		return nil, errs.ErrEventNotFound
	}

	now := s.now()
	status := events.DeriveStatus(event, now)
	if status != models.StatusPublished && status != models.StatusOngoing {
		return nil, errs.ErrEventNotOpen
	}
	if now.After(event.RegistrationDeadline) {
		return nil, errs.ErrDeadlinePassed
	}

	exists, err := s.DB.HasRegistration(ctx, userID, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing registration: %w", err)
	}
	if exists {
		return nil, errs.ErrAlreadyRegistered
	}

	if event.RegistrationLimit > 0 && event.RegisteredCount >= event.RegistrationLimit {
		return nil, errs.ErrEventFull
	}

	if err := validateFormData(event, req.FormData); err != nil {
		return nil, err
	}

	reg := &models.Registration{
		ID:               utils.NewID(),
		UserID:           userID,
		EventID:          event.ID,
		Status:           models.RegConfirmed,
		RegistrationDate: now,
		FormData:         req.FormData,
		CreatedAt:        now,
	}

	if event.Type == models.EventMerchandise && req.Merchandise != nil {
		item := findItem(event, req.Merchandise.ItemID)
		if item == nil {
			return nil, errs.ErrInvalidItem
		}
		qty := req.Merchandise.Quantity
		if qty <= 0 {
			qty = 1
		}
		if item.Stock < qty {
			return nil, errs.ErrOutOfStock
		}
		reg.MerchItemID = item.ID
		reg.MerchVariant = req.Merchandise.Variant
		reg.MerchSize = req.Merchandise.Size
		reg.MerchQuantity = qty
	}

	limited := event.RegistrationLimit > 0
	for attempt := 0; ; attempt++ {
		reg.TicketID = utils.NewTicketID()
		err = s.DB.AdmitAtomic(ctx, reg, limited)
		if err == nil {
			break
		}
		if errors.Is(err, errs.ErrDuplicateTicket) && attempt < ticketMintAttempts-1 {
			continue
		}
		if errors.Is(err, errs.ErrDuplicateTicket) {
			return nil, errs.ErrIDAllocationFailed
		}
		return nil, err
	}

	s.Log.LogRegistration("ADMIT", reg.TicketID, fmt.Sprintf("user %s confirmed for event %s", userID, event.ID))
	s.afterAdmission(ctx, reg, event)

	return reg, nil
}

// afterAdmission fires the downstream collaborators. The registration
// is authoritative at this point; nothing here rolls it back.
func (s *Service) afterAdmission(ctx context.Context, reg *models.Registration, event *models.Event) {
	if s.Notifier != nil {
		n := models.RegistrationNotification{
			RegistrationID: reg.ID,
			TicketID:       reg.TicketID,
			EventID:        event.ID,
			EventName:      event.Name,
			UserID:         reg.UserID,
		}
		if user, err := s.DB.GetUserByID(ctx, reg.UserID); err == nil {
			n.UserName = user.FirstName + " " + user.LastName
			n.UserEmail = user.Email
		}
		orgName, err := s.DB.GetOrganizerName(ctx, event.OrganizerID)
		if err != nil || orgName == "" {
			orgName = "Fest Team"
		}
		n.OrganizerName = orgName

		go func() {
			if err := s.Notifier.PublishRegistrationConfirmed(n); err != nil {
				s.Log.Error("REGISTRATION", fmt.Sprintf("Notification failed for %s: %v", reg.TicketID, err))
			}
		}()
	}

	if s.Fees != nil && event.Fee > 0 {
		bg := context.WithoutCancel(ctx)
		go func() {
			if err := s.Fees.CollectFee(bg, reg, event); err != nil {
				s.Log.Error("REGISTRATION", fmt.Sprintf("Fee collection failed for %s: %v", reg.TicketID, err))
			}
		}()
	}
}

// GetMyRegistrations lists the caller's registrations, newest first.
func (s *Service) GetMyRegistrations(ctx context.Context, userID string) ([]*models.Registration, error) {
	regs, err := s.DB.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return regs, nil
}

// GetTicket returns a registration for its owner (or an admin).
func (s *Service) GetTicket(ctx context.Context, regID, actorID, role string) (*models.Registration, error) {
	reg, err := s.DB.GetRegistrationByID(ctx, regID)
	if err != nil {
		return nil, errs.ErrRegistrationNotFound
	}
	if reg.UserID != actorID && role != models.RoleAdmin {
		return nil, errs.ErrUnauthorized
	}
	return reg, nil
}

func findItem(event *models.Event, itemID string) *models.MerchandiseItem {
	for _, item := range event.MerchandiseItems {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}

// validateFormData rejects registrations missing an answer for a
// required custom field. The answers themselves stay opaque.
func validateFormData(event *models.Event, formData map[string]string) error {
	for _, field := range event.CustomForm {
		if !field.Required {
			continue
		}
		if formData[field.Label] == "" {
			return fmt.Errorf("%w: %s", errs.ErrMissingFormField, field.Label)
		}
	}
	return nil
}
