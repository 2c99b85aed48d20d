package events

import (
	"context"
	"fmt"
	"time"

	"fest-engine/internal/errs"
	"fest-engine/internal/logger"
	"fest-engine/internal/models"
	"fest-engine/internal/utils"
)

type DBLayer interface {
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	InsertEvent(ctx context.Context, event *models.Event) error
	UpdateEventColumns(ctx context.Context, event *models.Event, columns []string) error
	DeleteEvent(ctx context.Context, id string) error
	ListOpenEvents(ctx context.Context, search, eventType string) ([]*models.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]*models.Event, error)
	PersistStatus(ctx context.Context, id, status string) error
	ListRegistrationsByEvent(ctx context.Context, eventID string) ([]*models.Registration, error)
	OrganizerAnalytics(ctx context.Context, organizerID string) (*models.OrganizerAnalytics, error)
}

// Service owns the event status state machine and the status-dependent
// field-update contract.
type Service struct {
	DB  DBLayer
	Log *logger.Logger

	// now is swapped in tests.
	now func() time.Time
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, Log: log, now: time.Now}
}

func (s *Service) CreateEvent(ctx context.Context, organizerID, role string, req models.EventCreateRequest) (*models.Event, error) {
	if role != models.RoleOrganizer {
		return nil, errs.ErrUnauthorized
	}

	eventType := req.Type
	if eventType == "" {
		eventType = models.EventNormal
	}
	status := req.Status
	if status == "" {
		status = models.StatusDraft
	}

	event := &models.Event{
		ID:                   utils.NewID(),
		Name:                 req.Name,
		Description:          req.Description,
		Type:                 eventType,
		Eligibility:          req.Eligibility,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RegistrationDeadline: req.RegistrationDeadline,
		RegistrationLimit:    req.RegistrationLimit,
		Fee:                  req.Fee,
		OrganizerID:          organizerID,
		Tags:                 req.Tags,
		Status:               status,
		MinTeamSize:          req.MinTeamSize,
		MaxTeamSize:          req.MaxTeamSize,
		CreatedAt:            s.now(),
		UpdatedAt:            s.now(),
	}

	if eventType == models.EventHackathon {
		if event.MinTeamSize <= 0 {
			event.MinTeamSize = 2
		}
		if event.MaxTeamSize <= 0 {
			event.MaxTeamSize = 4
		}
	}

	if eventType == models.EventMerchandise {
		for _, item := range req.MerchandiseItems {
			item.ID = utils.NewID()
			item.EventID = event.ID
			event.MerchandiseItems = append(event.MerchandiseItems, item)
		}
	}
	for _, field := range req.CustomForm {
		field.ID = utils.NewID()
		field.EventID = event.ID
		if field.Type == "" {
			field.Type = models.FieldText
		}
		event.CustomForm = append(event.CustomForm, field)
	}

	if err := s.DB.InsertEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.Log.LogEvent("CREATE", event.ID, fmt.Sprintf("%q created by organizer %s", event.Name, organizerID))
	return event, nil
}

// GetEvent returns the event with its time-corrected status. The
// corrected status is persisted best-effort; a write failure never
// fails the read.
func (s *Service) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, errs.ErrEventNotFound
	}
	s.refreshStatus(ctx, event)
	return event, nil
}

// ListEvents returns open events (Published/Ongoing at last write),
// filtered by search/type, each with its time-corrected status.
func (s *Service) ListEvents(ctx context.Context, search, eventType string) ([]*models.Event, error) {
	list, err := s.DB.ListOpenEvents(ctx, search, eventType)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	for _, event := range list {
		s.refreshStatus(ctx, event)
	}
	return list, nil
}

func (s *Service) ListMyEvents(ctx context.Context, organizerID, role string) ([]*models.Event, error) {
	if role != models.RoleOrganizer {
		return nil, errs.ErrUnauthorized
	}
	list, err := s.DB.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizer events: %w", err)
	}
	for _, event := range list {
		s.refreshStatus(ctx, event)
	}
	return list, nil
}

func (s *Service) refreshStatus(ctx context.Context, event *models.Event) {
	derived := DeriveStatus(event, s.now())
	if derived == event.Status {
		return
	}
	if err := s.DB.PersistStatus(ctx, event.ID, derived); err != nil {
		s.Log.Warn("EVENT", fmt.Sprintf("Failed to persist derived status for %s: %v", event.ID, err))
	}
	event.Status = derived
}

// UpdateEvent applies the status-keyed field contract. Disallowed
// fields are dropped silently; a disallowed status transition fails
// with ErrInvalidTransition.
func (s *Service) UpdateEvent(ctx context.Context, id, actorID, role string, req models.EventUpdateRequest) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, errs.ErrEventNotFound
	}
	if role != models.RoleAdmin && event.OrganizerID != actorID {
		return nil, errs.ErrUnauthorized
	}

	var columns []string
	set := func(column string, apply func()) {
		apply()
		columns = append(columns, column)
	}

	switch event.Status {
	case models.StatusDraft:
		if req.Name != nil {
			set("name", func() { event.Name = *req.Name })
		}
		if req.Description != nil {
			set("description", func() { event.Description = *req.Description })
		}
		if req.Eligibility != nil {
			set("eligibility", func() { event.Eligibility = *req.Eligibility })
		}
		if req.StartDate != nil {
			set("start_date", func() { event.StartDate = *req.StartDate })
		}
		if req.EndDate != nil {
			set("end_date", func() { event.EndDate = *req.EndDate })
		}
		if req.RegistrationDeadline != nil {
			set("registration_deadline", func() { event.RegistrationDeadline = *req.RegistrationDeadline })
		}
		if req.RegistrationLimit != nil {
			set("registration_limit", func() { event.RegistrationLimit = *req.RegistrationLimit })
		}
		if req.Fee != nil {
			set("fee", func() { event.Fee = *req.Fee })
		}
		if req.Tags != nil {
			set("tags", func() { event.Tags = *req.Tags })
		}
		if req.MinTeamSize != nil {
			set("min_team_size", func() { event.MinTeamSize = *req.MinTeamSize })
		}
		if req.MaxTeamSize != nil {
			set("max_team_size", func() { event.MaxTeamSize = *req.MaxTeamSize })
		}
	case models.StatusPublished:
		if req.Description != nil {
			set("description", func() { event.Description = *req.Description })
		}
		if req.RegistrationDeadline != nil {
			set("registration_deadline", func() { event.RegistrationDeadline = *req.RegistrationDeadline })
		}
		if req.RegistrationLimit != nil {
			set("registration_limit", func() { event.RegistrationLimit = *req.RegistrationLimit })
		}
		if req.Tags != nil {
			set("tags", func() { event.Tags = *req.Tags })
		}
	default:
		// Ongoing and terminal states: status only.
	}

	if req.Status != nil {
		if !transitionAllowed(event.Status, *req.Status) {
			return nil, errs.ErrInvalidTransition
		}
		set("status", func() { event.Status = *req.Status })
	}

	if len(columns) == 0 {
		return event, nil
	}

	event.UpdatedAt = s.now()
	columns = append(columns, "updated_at")
	if err := s.DB.UpdateEventColumns(ctx, event, columns); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.Log.LogEvent("UPDATE", event.ID, fmt.Sprintf("updated columns %v", columns))
	return event, nil
}

// DeleteEvent removes a draft event. Anything past Draft is
// NotDeletable.
func (s *Service) DeleteEvent(ctx context.Context, id, actorID, role string) error {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return errs.ErrEventNotFound
	}
	if role != models.RoleAdmin && event.OrganizerID != actorID {
		return errs.ErrUnauthorized
	}
	if event.Status != models.StatusDraft {
		return errs.ErrNotDeletable
	}
	if err := s.DB.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	s.Log.LogEvent("DELETE", id, "draft event deleted")
	return nil
}

// EventRegistrations lists an event's registrations for its owning
// organizer.
func (s *Service) EventRegistrations(ctx context.Context, eventID, actorID, role string) ([]*models.Registration, error) {
	event, err := s.DB.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, errs.ErrEventNotFound
	}
	if role != models.RoleAdmin && event.OrganizerID != actorID {
		return nil, errs.ErrUnauthorized
	}
	regs, err := s.DB.ListRegistrationsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return regs, nil
}

// Analytics aggregates the organizer's completed events.
func (s *Service) Analytics(ctx context.Context, organizerID, role string) (*models.OrganizerAnalytics, error) {
	if role != models.RoleOrganizer {
		return nil, errs.ErrUnauthorized
	}
	stats, err := s.DB.OrganizerAnalytics(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute analytics: %w", err)
	}
	return stats, nil
}
