package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"fest-engine/internal/errs"
	"fest-engine/internal/models"
	"fest-engine/internal/utils"
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

func (d *DB) GetTeamByID(ctx context.Context, id string) (*models.Team, error) {
	var team models.Team
	err := d.Bun.NewSelect().
		Model(&team).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (d *DB) GetTeamByCode(ctx context.Context, code string) (*models.Team, error) {
	var team models.Team
	err := d.Bun.NewSelect().
		Model(&team).
		Where("team_code = ?", code).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// FindTeamForMember scans the event's teams for one listing userID as
// a member. Teams per event are few, so membership is checked in Go
// rather than with a dialect-specific array operator.
func (d *DB) FindTeamForMember(ctx context.Context, eventID, userID string) (*models.Team, error) {
	var teams []*models.Team
	err := d.Bun.NewSelect().
		Model(&teams).
		Where("event_id = ?", eventID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, team := range teams {
		if team.HasMember(userID) {
			return team, nil
		}
	}
	return nil, nil
}

func (d *DB) InsertTeam(ctx context.Context, team *models.Team) error {
	if _, err := d.Bun.NewInsert().Model(team).Exec(ctx); err != nil {
		msg := strings.ToLower(err.Error())
		if (strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")) && strings.Contains(msg, "team_code") {
			return errs.ErrDuplicateTeamCode
		}
		return err
	}
	return nil
}

// UpdateTeamGuarded writes members/status behind the version guard and
// reports whether the guard held.
func (d *DB) UpdateTeamGuarded(ctx context.Context, team *models.Team) (bool, error) {
	readVersion := team.Version
	team.Version++
	res, err := d.Bun.NewUpdate().
		Model(team).
		Column("members", "status", "updated_at", "version").
		Where("id = ?", team.ID).
		Where("version = ?", readVersion).
		Exec(ctx)
	if err != nil {
		team.Version = readVersion
		return false, err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		team.Version = readVersion
		return false, nil
	}
	return true, nil
}

// RegisterTeamAtomic is the fan-out: within one transaction the team
// flips to registered (guarded), every member lacking a registration
// for the event gets a confirmed one with a fresh ticket, and the
// event's registered_count grows by the member count. Any failure
// rolls the whole unit back.
func (d *DB) RegisterTeamAtomic(ctx context.Context, team *models.Team, mintTicket func() string, now time.Time) (bool, error) {
	readVersion := team.Version
	team.Version++
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(team).
			Column("members", "status", "updated_at", "version").
			Where("id = ?", team.ID).
			Where("version = ?", readVersion).
			Exec(ctx)
		if err != nil {
			return err
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return errGuardFailed
		}

		// Recomputed inside the transaction so a restarted fan-out
		// converges: members already holding a registration are
		// skipped, never double-issued.
		var existing []string
		err = tx.NewSelect().
			Model((*models.Registration)(nil)).
			Column("user_id").
			Where("event_id = ?", team.EventID).
			Where("user_id IN (?)", bun.In(team.Members)).
			Scan(ctx, &existing)
		if err != nil {
			return err
		}
		has := make(map[string]bool, len(existing))
		for _, id := range existing {
			has[id] = true
		}

		for _, memberID := range team.Members {
			if has[memberID] {
				continue
			}
			reg := &models.Registration{
				ID:               utils.NewID(),
				UserID:           memberID,
				EventID:          team.EventID,
				Status:           models.RegConfirmed,
				TicketID:         mintTicket(),
				TeamID:           team.ID,
				RegistrationDate: now,
				CreatedAt:        now,
			}
			if _, err := tx.NewInsert().Model(reg).Exec(ctx); err != nil {
				msg := strings.ToLower(err.Error())
				if (strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")) && strings.Contains(msg, "ticket_id") {
					return errs.ErrDuplicateTicket
				}
				return err
			}
		}

		_, err = tx.NewUpdate().
			Model((*models.Event)(nil)).
			Set("registered_count = registered_count + ?", len(team.Members)).
			Where("id = ?", team.EventID).
			Exec(ctx)
		return err
	})
	if err != nil {
		team.Version = readVersion
		if err == errGuardFailed {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var errGuardFailed = errors.New("team version guard failed")

func (d *DB) DeleteTeam(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Team)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) ListTeamsByMember(ctx context.Context, userID string) ([]*models.Team, error) {
	var teams []*models.Team
	err := d.Bun.NewSelect().
		Model(&teams).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	var mine []*models.Team
	for _, team := range teams {
		if team.HasMember(userID) {
			mine = append(mine, team)
		}
	}
	return mine, nil
}

func (d *DB) ListTeamsByEvent(ctx context.Context, eventID string) ([]*models.Team, error) {
	var teams []*models.Team
	err := d.Bun.NewSelect().
		Model(&teams).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return teams, nil
}
