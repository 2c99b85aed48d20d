package db

import (
	"context"
	"database/sql"

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
		Relation("MerchandiseItems").
		Relation("CustomForm").
		Where("event.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) InsertEvent(ctx context.Context, event *models.Event) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(event).Exec(ctx); err != nil {
			return err
		}
		if len(event.MerchandiseItems) > 0 {
			if _, err := tx.NewInsert().Model(&event.MerchandiseItems).Exec(ctx); err != nil {
				return err
			}
		}
		if len(event.CustomForm) > 0 {
			if _, err := tx.NewInsert().Model(&event.CustomForm).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *DB) UpdateEventColumns(ctx context.Context, event *models.Event, columns []string) error {
	_, err := d.Bun.NewUpdate().
		Model(event).
		Column(columns...).
		Where("id = ?", event.ID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.FormField)(nil)).Where("event_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*models.MerchandiseItem)(nil)).Where("event_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().Model((*models.Event)(nil)).Where("id = ?", id).Exec(ctx)
		return err
	})
}

// ListOpenEvents returns Published/Ongoing events from active
// organizers, optionally filtered by a name/description search and an
// event type.
func (d *DB) ListOpenEvents(ctx context.Context, search, eventType string) ([]*models.Event, error) {
	var list []*models.Event
	q := d.Bun.NewSelect().
		Model(&list).
		Relation("MerchandiseItems").
		Relation("CustomForm").
		Where("event.status IN (?)", bun.In([]string{models.StatusPublished, models.StatusOngoing})).
		Where("event.organizer_id NOT IN (SELECT id FROM organizers WHERE archived = ?)", true)

	if search != "" {
		pattern := "%" + search + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(event.name) LIKE LOWER(?)", pattern).
				WhereOr("LOWER(event.description) LIKE LOWER(?)", pattern)
		})
	}
	if eventType != "" {
		q = q.Where("event.type = ?", eventType)
	}

	if err := q.Order("event.start_date ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) ListByOrganizer(ctx context.Context, organizerID string) ([]*models.Event, error) {
	var list []*models.Event
	err := d.Bun.NewSelect().
		Model(&list).
		Relation("MerchandiseItems").
		Relation("CustomForm").
		Where("event.organizer_id = ?", organizerID).
		Order("event.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// PersistStatus writes a derived status back. Callers treat failures
// as a cache-refresh miss, not an error.
func (d *DB) PersistStatus(ctx context.Context, id, status string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("status = ?", status).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) ListRegistrationsByEvent(ctx context.Context, eventID string) ([]*models.Registration, error) {
	var regs []*models.Registration
	err := d.Bun.NewSelect().
		Model(&regs).
		Where("event_id = ?", eventID).
		Order("registration_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return regs, nil
}

func (d *DB) OrganizerAnalytics(ctx context.Context, organizerID string) (*models.OrganizerAnalytics, error) {
	var completed []*models.Event
	err := d.Bun.NewSelect().
		Model(&completed).
		Where("organizer_id = ?", organizerID).
		Where("status = ?", models.StatusCompleted).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.OrganizerAnalytics{CompletedEventCount: len(completed)}
	if len(completed) == 0 {
		return stats, nil
	}

	ids := make([]string, 0, len(completed))
	for _, e := range completed {
		ids = append(ids, e.ID)
		stats.TotalRevenue += float64(e.RegisteredCount) * e.Fee
	}

	total, err := d.Bun.NewSelect().
		Model((*models.Registration)(nil)).
		Where("event_id IN (?)", bun.In(ids)).
		Where("status = ?", models.RegConfirmed).
		Count(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalRegistrations = total

	attended, err := d.Bun.NewSelect().
		Model((*models.Registration)(nil)).
		Where("event_id IN (?)", bun.In(ids)).
		Where("status = ?", models.RegConfirmed).
		Where("attended = ?", true).
		Count(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalAttended = attended

	return stats, nil
}
