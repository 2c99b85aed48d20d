package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"fest-engine/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	require.NoError(t, bunDB.ResetModel(ctx,
		(*models.Event)(nil),
		(*models.Registration)(nil),
	))

	t.Cleanup(func() { bunDB.Close() })
	return &DB{Bun: bunDB}
}

func seedRegistration(t *testing.T, d *DB, reg *models.Registration) {
	t.Helper()
	_, err := d.Bun.NewInsert().Model(reg).Exec(context.Background())
	require.NoError(t, err)
}

func TestMarkAttendedFirstWriteWins(t *testing.T) {
	d := setupTestDB(t)
	seedRegistration(t, d, &models.Registration{
		ID: "reg-1", UserID: "user-1", EventID: "evt-1",
		Status: models.RegConfirmed, TicketID: "TKT-AAAA1111",
		RegistrationDate: time.Now(), CreatedAt: time.Now(),
	})

	first := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	ok, err := d.MarkAttended(context.Background(), "reg-1", first, "")
	require.NoError(t, err)
	assert.True(t, ok)

	// The second write must not touch the row.
	ok, err = d.MarkAttended(context.Background(), "reg-1", first.Add(time.Hour), "late rescan")
	require.NoError(t, err)
	assert.False(t, ok)

	reg, err := d.GetRegistrationByID(context.Background(), "reg-1")
	require.NoError(t, err)
	assert.True(t, reg.Attended)
	assert.Equal(t, first, reg.AttendedAt.UTC())
	assert.Empty(t, reg.AttendanceNote)
}

func TestMarkAttendedUnknownRow(t *testing.T) {
	d := setupTestDB(t)

	ok, err := d.MarkAttended(context.Background(), "reg-missing", time.Now(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetByTicketAndEvent(t *testing.T) {
	d := setupTestDB(t)
	seedRegistration(t, d, &models.Registration{
		ID: "reg-1", UserID: "user-1", EventID: "evt-1",
		Status: models.RegConfirmed, TicketID: "TKT-AAAA1111",
		RegistrationDate: time.Now(), CreatedAt: time.Now(),
	})

	reg, err := d.GetByTicketAndEvent(context.Background(), "TKT-AAAA1111", "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "reg-1", reg.ID)

	// The same ticket against another event must not resolve.
	_, err = d.GetByTicketAndEvent(context.Background(), "TKT-AAAA1111", "evt-2")
	assert.Error(t, err)
}

func TestListConfirmedByEvent(t *testing.T) {
	d := setupTestDB(t)
	base := time.Now()
	seedRegistration(t, d, &models.Registration{
		ID: "reg-1", UserID: "user-1", EventID: "evt-1",
		Status: models.RegConfirmed, TicketID: "TKT-AAAA1111",
		RegistrationDate: base, CreatedAt: base,
	})
	seedRegistration(t, d, &models.Registration{
		ID: "reg-2", UserID: "user-2", EventID: "evt-1",
		Status: models.RegCancelled, TicketID: "TKT-BBBB2222",
		RegistrationDate: base, CreatedAt: base.Add(time.Second),
	})
	seedRegistration(t, d, &models.Registration{
		ID: "reg-3", UserID: "user-3", EventID: "evt-2",
		Status: models.RegConfirmed, TicketID: "TKT-CCCC3333",
		RegistrationDate: base, CreatedAt: base,
	})

	regs, err := d.ListConfirmedByEvent(context.Background(), "evt-1")
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "reg-1", regs[0].ID)
}
