package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/uptrace/bun"

	"fest-engine/internal/errs"
	"fest-engine/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetEventForAdmission(ctx context.Context, id string) (*models.Event, error) {
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

func (d *DB) HasRegistration(ctx context.Context, userID, eventID string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Registration)(nil)).
		Where("user_id = ?", userID).
		Where("event_id = ?", eventID).
		Exists(ctx)
}

// AdmitAtomic reserves capacity and stock with conditional updates and
// inserts the registration, all in one transaction. The conditions are
// evaluated at commit time, so a concurrent admission that would
// oversell sees zero rows affected and the whole unit rolls back.
func (d *DB) AdmitAtomic(ctx context.Context, reg *models.Registration, limited bool) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		capQ := tx.NewUpdate().
			Model((*models.Event)(nil)).
			Set("registered_count = registered_count + 1").
			Where("id = ?", reg.EventID)
		if limited {
			capQ = capQ.Where("registered_count < registration_limit")
		}
		res, err := capQ.Exec(ctx)
		if err != nil {
			return err
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return errs.ErrEventFull
		}

		if reg.MerchItemID != "" {
			res, err := tx.NewUpdate().
				Model((*models.MerchandiseItem)(nil)).
				Set("stock = stock - ?", reg.MerchQuantity).
				Where("id = ?", reg.MerchItemID).
				Where("event_id = ?", reg.EventID).
				Where("stock >= ?", reg.MerchQuantity).
				Exec(ctx)
			if err != nil {
				return err
			}
			if rows, _ := res.RowsAffected(); rows == 0 {
				return errs.ErrOutOfStock
			}
		}

		if _, err := tx.NewInsert().Model(reg).Exec(ctx); err != nil {
			return classifyInsertError(err)
		}
		return nil
	})
}

// classifyInsertError distinguishes the two unique constraints on
// registrations: the ticket identifier (retried by the caller) and the
// (user, event) pair (surfaced as AlreadyRegistered).
func classifyInsertError(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique") && !strings.Contains(msg, "duplicate") {
		return err
	}
	if strings.Contains(msg, "ticket_id") {
		return errs.ErrDuplicateTicket
	}
	if strings.Contains(msg, "user_event") || strings.Contains(msg, "user_id") {
		return errs.ErrAlreadyRegistered
	}
	return err
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

func (d *DB) ListByUser(ctx context.Context, userID string) ([]*models.Registration, error) {
	var regs []*models.Registration
	err := d.Bun.NewSelect().
		Model(&regs).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return regs, nil
}

func (d *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DB) GetOrganizerName(ctx context.Context, organizerID string) (string, error) {
	var org models.Organizer
	err := d.Bun.NewSelect().
		Model(&org).
		Column("name").
		Where("id = ?", organizerID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return "", err
	}
	return org.Name, nil
}
