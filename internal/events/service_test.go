package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fest-engine/internal/errs"
	"fest-engine/internal/logger"
	"fest-engine/internal/models"
)

// MockEventDB is a map-backed implementation of the DBLayer interface.
type MockEventDB struct {
	events        map[string]*models.Event
	persistCalls  []string
	updatedCols   []string
	shouldFailOn  string
	errorToReturn error
}

func NewMockEventDB() *MockEventDB {
	return &MockEventDB{events: make(map[string]*models.Event)}
}

func (m *MockEventDB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	if m.shouldFailOn == "GetEventByID" {
		return nil, m.errorToReturn
	}
	event, ok := m.events[id]
	if !ok {
		return nil, errors.New("event not found")
	}
	copied := *event
	return &copied, nil
}

func (m *MockEventDB) InsertEvent(ctx context.Context, event *models.Event) error {
	if m.shouldFailOn == "InsertEvent" {
		return m.errorToReturn
	}
	m.events[event.ID] = event
	return nil
}

func (m *MockEventDB) UpdateEventColumns(ctx context.Context, event *models.Event, columns []string) error {
	if m.shouldFailOn == "UpdateEventColumns" {
		return m.errorToReturn
	}
	m.events[event.ID] = event
	m.updatedCols = columns
	return nil
}

func (m *MockEventDB) DeleteEvent(ctx context.Context, id string) error {
	if m.shouldFailOn == "DeleteEvent" {
		return m.errorToReturn
	}
	delete(m.events, id)
	return nil
}

func (m *MockEventDB) ListOpenEvents(ctx context.Context, search, eventType string) ([]*models.Event, error) {
	var list []*models.Event
	for _, e := range m.events {
		if e.Status == models.StatusPublished || e.Status == models.StatusOngoing {
			copied := *e
			list = append(list, &copied)
		}
	}
	return list, nil
}

func (m *MockEventDB) ListByOrganizer(ctx context.Context, organizerID string) ([]*models.Event, error) {
	var list []*models.Event
	for _, e := range m.events {
		if e.OrganizerID == organizerID {
			copied := *e
			list = append(list, &copied)
		}
	}
	return list, nil
}

func (m *MockEventDB) PersistStatus(ctx context.Context, id, status string) error {
	if m.shouldFailOn == "PersistStatus" {
		return m.errorToReturn
	}
	m.persistCalls = append(m.persistCalls, id+":"+status)
	if e, ok := m.events[id]; ok {
		e.Status = status
	}
	return nil
}

func (m *MockEventDB) ListRegistrationsByEvent(ctx context.Context, eventID string) ([]*models.Registration, error) {
	return []*models.Registration{}, nil
}

func (m *MockEventDB) OrganizerAnalytics(ctx context.Context, organizerID string) (*models.OrganizerAnalytics, error) {
	return &models.OrganizerAnalytics{}, nil
}

func newTestService(db *MockEventDB, now time.Time) *Service {
	svc := NewService(db, &logger.Logger{})
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreateEventRequiresOrganizer(t *testing.T) {
	svc := newTestService(NewMockEventDB(), time.Now())

	_, err := svc.CreateEvent(context.Background(), "user-1", models.RoleParticipant, models.EventCreateRequest{Name: "Tech Talk"})
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestCreateEventDefaults(t *testing.T) {
	db := NewMockEventDB()
	svc := newTestService(db, time.Now())

	event, err := svc.CreateEvent(context.Background(), "org-1", models.RoleOrganizer, models.EventCreateRequest{Name: "Tech Talk"})
	require.NoError(t, err)
	assert.Equal(t, models.EventNormal, event.Type)
	assert.Equal(t, models.StatusDraft, event.Status)
	assert.Equal(t, "org-1", event.OrganizerID)
}

func TestCreateHackathonDefaultsTeamSizes(t *testing.T) {
	db := NewMockEventDB()
	svc := newTestService(db, time.Now())

	event, err := svc.CreateEvent(context.Background(), "org-1", models.RoleOrganizer, models.EventCreateRequest{
		Name: "Hack Night",
		Type: models.EventHackathon,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, event.MinTeamSize)
	assert.Equal(t, 4, event.MaxTeamSize)
}

func TestGetEventPersistsDerivedStatus(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	db := NewMockEventDB()
	db.events["evt-1"] = &models.Event{
		ID:        "evt-1",
		Status:    models.StatusPublished,
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
	}
	svc := newTestService(db, now)

	event, err := svc.GetEvent(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusOngoing, event.Status)
	assert.Equal(t, []string{"evt-1:" + models.StatusOngoing}, db.persistCalls)
}

func TestGetEventStatusPersistFailureStillReturns(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	db := NewMockEventDB()
	db.events["evt-1"] = &models.Event{
		ID:        "evt-1",
		Status:    models.StatusPublished,
		StartDate: now.Add(-2 * time.Hour),
		EndDate:   now.Add(-time.Hour),
	}
	db.shouldFailOn = "PersistStatus"
	db.errorToReturn = errors.New("write refused")
	svc := newTestService(db, now)

	event, err := svc.GetEvent(context.Background(), "evt-1")
	require.NoError(t, err)
	// The read still reports the corrected status.
	assert.Equal(t, models.StatusCompleted, event.Status)
}

func TestUpdateEventDraftAllowsAllFields(t *testing.T) {
	db := NewMockEventDB()
	db.events["evt-1"] = &models.Event{ID: "evt-1", Name: "Old", OrganizerID: "org-1", Status: models.StatusDraft}
	svc := newTestService(db, time.Now())

	name := "New"
	fee := 50.0
	updated, err := svc.UpdateEvent(context.Background(), "evt-1", "org-1", models.RoleOrganizer, models.EventUpdateRequest{
		Name: &name,
		Fee:  &fee,
	})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, 50.0, updated.Fee)
	assert.Contains(t, db.updatedCols, "name")
	assert.Contains(t, db.updatedCols, "fee")
}

func TestUpdateEventPublishedDropsLockedFields(t *testing.T) {
	db := NewMockEventDB()
	db.events["evt-1"] = &models.Event{ID: "evt-1", Name: "Original", OrganizerID: "org-1", Status: models.StatusPublished}
	svc := newTestService(db, time.Now())

	name := "Renamed"
	desc := "Updated description"
	updated, err := svc.UpdateEvent(context.Background(), "evt-1", "org-1", models.RoleOrganizer, models.EventUpdateRequest{
		Name:        &name,
		Description: &desc,
	})
	require.NoError(t, err)
	// Name is locked once published: dropped, not an error.
	assert.Equal(t, "Original", updated.Name)
	assert.Equal(t, "Updated description", updated.Description)
	assert.NotContains(t, db.updatedCols, "name")
	assert.Contains(t, db.updatedCols, "description")
}

func TestUpdateEventInvalidTransition(t *testing.T) {
	db := NewMockEventDB()
	db.events["evt-1"] = &models.Event{ID: "evt-1", OrganizerID: "org-1", Status: models.StatusPublished}
	svc := newTestService(db, time.Now())

	target := models.StatusCompleted
	_, err := svc.UpdateEvent(context.Background(), "evt-1", "org-1", models.RoleOrganizer, models.EventUpdateRequest{
		Status: &target,
	})
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
}

func TestUpdateEventOngoingStatusOnly(t *testing.T) {
	db := NewMockEventDB()
	db.events["evt-1"] = &models.Event{ID: "evt-1", Description: "keep", OrganizerID: "org-1", Status: models.StatusOngoing}
	svc := newTestService(db, time.Now())

	desc := "changed"
	target := models.StatusCompleted
	updated, err := svc.UpdateEvent(context.Background(), "evt-1", "org-1", models.RoleOrganizer, models.EventUpdateRequest{
		Description: &desc,
		Status:      &target,
	})
	require.NoError(t, err)
	assert.Equal(t, "keep", updated.Description)
	assert.Equal(t, models.StatusCompleted, updated.Status)
}

func TestUpdateEventWrongOrganizer(t *testing.T) {
	db := NewMockEventDB()
	db.events["evt-1"] = &models.Event{ID: "evt-1", OrganizerID: "org-1", Status: models.StatusDraft}
	svc := newTestService(db, time.Now())

	name := "Hijacked"
	_, err := svc.UpdateEvent(context.Background(), "evt-1", "org-2", models.RoleOrganizer, models.EventUpdateRequest{Name: &name})
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestDeleteEventDraftOnly(t *testing.T) {
	db := NewMockEventDB()
	db.events["draft"] = &models.Event{ID: "draft", OrganizerID: "org-1", Status: models.StatusDraft}
	db.events["live"] = &models.Event{ID: "live", OrganizerID: "org-1", Status: models.StatusPublished}
	svc := newTestService(db, time.Now())

	require.NoError(t, svc.DeleteEvent(context.Background(), "draft", "org-1", models.RoleOrganizer))
	assert.NotContains(t, db.events, "draft")

	err := svc.DeleteEvent(context.Background(), "live", "org-1", models.RoleOrganizer)
	assert.ErrorIs(t, err, errs.ErrNotDeletable)
}
