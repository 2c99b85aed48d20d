package attendance

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"fest-engine/internal/errs"
	"fest-engine/internal/logger"
	"fest-engine/internal/models"
)

// defaultManualNote is recorded when the organizer gives no note on the
// manual-override path.
const defaultManualNote = "Manual override by organizer"

type DBLayer interface {
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	GetByTicketAndEvent(ctx context.Context, ticketID, eventID string) (*models.Registration, error)
	GetRegistrationByID(ctx context.Context, id string) (*models.Registration, error)
	// MarkAttended flips attended on an unattended registration and
	// reports false when the row was already attended.
	MarkAttended(ctx context.Context, registrationID string, at time.Time, note string) (bool, error)
	ListConfirmedByEvent(ctx context.Context, eventID string) ([]*models.Registration, error)
}

// Result is the check-in outcome. A duplicate scan is not an error:
// the caller needs the original timestamp and attendee to show "already
// scanned at T by whom".
type Result struct {
	Duplicate    bool                 `json:"duplicate"`
	Registration *models.Registration `json:"registration"`
}

// Service marks attendance idempotently. Both paths are restricted to
// the event's owning organizer.
type Service struct {
	DB  DBLayer
	Log *logger.Logger

	now func() time.Time
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, Log: log, now: time.Now}
}

// Scan resolves a ticket against its event and marks attendance. The
// first scan wins; any later scan of the same ticket reports the state
// the first one left behind.
func (s *Service) Scan(ctx context.Context, actorID, role string, req models.ScanRequest) (*Result, error) {
	if err := s.authorize(ctx, req.EventID, actorID, role); err != nil {
		return nil, err
	}

	reg, err := s.DB.GetByTicketAndEvent(ctx, req.TicketID, req.EventID)
	if err != nil {
		return nil, errs.ErrInvalidTicket
	}
	if reg.Status != models.RegConfirmed {
		return nil, errs.ErrNotConfirmed
	}

	return s.mark(ctx, reg, "")
}

// Manual marks attendance by registration id. It is the escape hatch
// for tickets that fail to scan, so it skips the confirmed-status check
// and always records a note.
func (s *Service) Manual(ctx context.Context, actorID, role string, req models.ManualAttendanceRequest) (*Result, error) {
	reg, err := s.DB.GetRegistrationByID(ctx, req.RegistrationID)
	if err != nil {
		return nil, errs.ErrRegistrationNotFound
	}
	if err := s.authorize(ctx, reg.EventID, actorID, role); err != nil {
		return nil, err
	}

	note := req.Note
	if note == "" {
		note = defaultManualNote
	}
	return s.mark(ctx, reg, note)
}

// mark is the shared idempotent transition. The conditional update is
// the only writer of attended, so two racing check-ins of one ticket
// produce exactly one state change; the loser re-reads to report the
// winner's timestamp.
func (s *Service) mark(ctx context.Context, reg *models.Registration, note string) (*Result, error) {
	if reg.Attended {
		return &Result{Duplicate: true, Registration: reg}, nil
	}

	at := s.now()
	ok, err := s.DB.MarkAttended(ctx, reg.ID, at, note)
	if err != nil {
		return nil, fmt.Errorf("failed to mark attendance: %w", err)
	}
	if !ok {
		current, err := s.DB.GetRegistrationByID(ctx, reg.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload registration: %w", err)
		}
		return &Result{Duplicate: true, Registration: current}, nil
	}

	reg.Attended = true
	reg.AttendedAt = at
	reg.AttendanceNote = note
	s.Log.LogAttendance("CHECKIN", reg.TicketID, fmt.Sprintf("user %s checked in for event %s", reg.UserID, reg.EventID))
	return &Result{Registration: reg}, nil
}

// Stats splits the event's confirmed registrations by attendance.
func (s *Service) Stats(ctx context.Context, eventID, actorID, role string) (*models.AttendanceStats, error) {
	if err := s.authorize(ctx, eventID, actorID, role); err != nil {
		return nil, err
	}

	regs, err := s.DB.ListConfirmedByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	stats := &models.AttendanceStats{
		Total:       len(regs),
		Attended:    []*models.Registration{},
		NotAttended: []*models.Registration{},
	}
	for _, reg := range regs {
		if reg.Attended {
			stats.Attended = append(stats.Attended, reg)
		} else {
			stats.NotAttended = append(stats.NotAttended, reg)
		}
	}
	stats.AttendedCount = len(stats.Attended)
	stats.NotAttendedCount = len(stats.NotAttended)
	return stats, nil
}

// ExportCSV streams the event's confirmed registrations as CSV rows.
func (s *Service) ExportCSV(ctx context.Context, eventID, actorID, role string, w io.Writer) error {
	if err := s.authorize(ctx, eventID, actorID, role); err != nil {
		return err
	}

	regs, err := s.DB.ListConfirmedByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to list registrations: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ticket_id", "user_id", "registered_at", "attended", "attended_at", "note"}); err != nil {
		return err
	}
	for _, reg := range regs {
		attendedAt := ""
		if reg.Attended {
			attendedAt = reg.AttendedAt.Format(time.RFC3339)
		}
		row := []string{
			reg.TicketID,
			reg.UserID,
			reg.RegistrationDate.Format(time.RFC3339),
			strconv.FormatBool(reg.Attended),
			attendedAt,
			reg.AttendanceNote,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *Service) authorize(ctx context.Context, eventID, actorID, role string) error {
	event, err := s.DB.GetEventByID(ctx, eventID)
	if err != nil {
		return errs.ErrEventNotFound
	}
	if role != models.RoleAdmin && event.OrganizerID != actorID {
		return errs.ErrUnauthorized
	}
	return nil
}
