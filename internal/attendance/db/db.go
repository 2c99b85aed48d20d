package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"fest-engine/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) GetByTicketAndEvent(ctx context.Context, ticketID, eventID string) (*models.Registration, error) {
	var reg models.Registration
	err := d.Bun.NewSelect().
		Model(&reg).
		Where("ticket_id = ?", ticketID).
		Where("event_id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (d *DB) GetRegistrationByID(ctx context.Context, id string) (*models.Registration, error) {
	var reg models.Registration
	err := d.Bun.NewSelect().
		Model(&reg).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// MarkAttended conditions on attended = false so concurrent check-ins
// of one ticket commit exactly one state change. Zero rows affected
// means another check-in already won.
func (d *DB) MarkAttended(ctx context.Context, registrationID string, at time.Time, note string) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Registration)(nil)).
		Set("attended = ?", true).
		Set("attended_at = ?", at).
		Set("attendance_note = ?", note).
		Where("id = ?", registrationID).
		Where("attended = ?", false).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

func (d *DB) ListConfirmedByEvent(ctx context.Context, eventID string) ([]*models.Registration, error) {
	var regs []*models.Registration
	err := d.Bun.NewSelect().
		Model(&regs).
		Where("event_id = ?", eventID).
		Where("status = ?", models.RegConfirmed).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return regs, nil
}
