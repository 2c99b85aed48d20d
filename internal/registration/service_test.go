package registration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fest-engine/internal/errs"
	"fest-engine/internal/logger"
	"fest-engine/internal/models"
)

// MockRegistrationDB emulates the storage layer's commit-time
// guarantees: AdmitAtomic holds a mutex for its whole unit, so the
// capacity, stock and uniqueness checks are serialized exactly like the
// real conditional updates.
type MockRegistrationDB struct {
	mu sync.Mutex

	events        map[string]*models.Event
	registrations map[string]*models.Registration
	tickets       map[string]bool
	userEvent     map[string]bool
	users         map[string]*models.User

	forcedTicketErrors int
}

func NewMockRegistrationDB() *MockRegistrationDB {
	return &MockRegistrationDB{
		events:        make(map[string]*models.Event),
		registrations: make(map[string]*models.Registration),
		tickets:       make(map[string]bool),
		userEvent:     make(map[string]bool),
		users:         make(map[string]*models.User),
	}
}

func (m *MockRegistrationDB) GetEventForAdmission(ctx context.Context, id string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return nil, errors.New("event not found")
	}
	copied := *event
	return &copied, nil
}

func (m *MockRegistrationDB) HasRegistration(ctx context.Context, userID, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userEvent[userID+"|"+eventID], nil
}

func (m *MockRegistrationDB) AdmitAtomic(ctx context.Context, reg *models.Registration, limited bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.forcedTicketErrors > 0 {
		m.forcedTicketErrors--
		return errs.ErrDuplicateTicket
	}

	event := m.events[reg.EventID]
	if limited && event.RegisteredCount >= event.RegistrationLimit {
		return errs.ErrEventFull
	}

	var item *models.MerchandiseItem
	if reg.MerchItemID != "" {
		for _, it := range event.MerchandiseItems {
			if it.ID == reg.MerchItemID {
				item = it
			}
		}
		if item == nil || item.Stock < reg.MerchQuantity {
			return errs.ErrOutOfStock
		}
	}

	if m.tickets[reg.TicketID] {
		return errs.ErrDuplicateTicket
	}
	if m.userEvent[reg.UserID+"|"+reg.EventID] {
		return errs.ErrAlreadyRegistered
	}

	event.RegisteredCount++
	if item != nil {
		item.Stock -= reg.MerchQuantity
	}
	m.tickets[reg.TicketID] = true
	m.userEvent[reg.UserID+"|"+reg.EventID] = true
	copied := *reg
	m.registrations[reg.ID] = &copied
	return nil
}

func (m *MockRegistrationDB) GetRegistrationByID(ctx context.Context, id string) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.registrations[id]
	if !ok {
		return nil, errors.New("registration not found")
	}
	return reg, nil
}

func (m *MockRegistrationDB) ListByUser(ctx context.Context, userID string) ([]*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Registration
	for _, reg := range m.registrations {
		if reg.UserID == userID {
			list = append(list, reg)
		}
	}
	return list, nil
}

func (m *MockRegistrationDB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return user, nil
}

func (m *MockRegistrationDB) GetOrganizerName(ctx context.Context, organizerID string) (string, error) {
	return "Robotics Club", nil
}

func openEvent(now time.Time) *models.Event {
	return &models.Event{
		ID:                   "evt-1",
		Name:                 "Tech Symposium",
		Type:                 models.EventNormal,
		Status:               models.StatusPublished,
		StartDate:            now.Add(time.Hour),
		EndDate:              now.Add(48 * time.Hour),
		RegistrationDeadline: now.Add(24 * time.Hour),
		OrganizerID:          "org-1",
	}
}

func newTestService(db *MockRegistrationDB, now time.Time) *Service {
	svc := NewService(db, nil, nil, &logger.Logger{})
	svc.now = func() time.Time { return now }
	return svc
}

func TestRegisterSuccess(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	db := NewMockRegistrationDB()
	db.events["evt-1"] = openEvent(now)
	svc := newTestService(db, now)

	reg, err := svc.Register(context.Background(), "user-1", models.RegistrationRequest{EventID: "evt-1"})
	require.NoError(t, err)
	assert.Equal(t, models.RegConfirmed, reg.Status)
	assert.Regexp(t, `^TKT-[0-9A-F]{8}$`, reg.TicketID)
	assert.Equal(t, 1, db.events["evt-1"].RegisteredCount)
}

func TestRegisterEventNotOpen(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	db := NewMockRegistrationDB()
	event := openEvent(now)
	event.Status = models.StatusDraft
	db.events["evt-1"] = event
	svc := newTestService(db, now)

	_, err := svc.Register(context.Background(), "user-1", models.RegistrationRequest{EventID: "evt-1"})
	assert.ErrorIs(t, err, errs.ErrEventNotOpen)
}

func TestRegisterCompletedByClock(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	db := NewMockRegistrationDB()
	event := openEvent(now)
	event.StartDate = now.Add(-48 * time.Hour)
	event.EndDate = now.Add(-24 * time.Hour)
	db.events["evt-1"] = event
	svc := newTestService(db, now)

	// Stored status still says Published; the derived status closes it.
	_, err := svc.Register(context.Background(), "user-1", models.RegistrationRequest{EventID: "evt-1"})
	assert.ErrorIs(t, err, errs.ErrEventNotOpen)
}

func TestRegisterDeadlinePassed(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	db := NewMockRegistrationDB()
	event := openEvent(now)
	event.RegistrationDeadline = now.Add(-time.Minute)
	db.events["evt-1"] = event
	svc := newTestService(db, now)

	_, err := svc.Register(context.Background(), "user-1", models.RegistrationRequest{EventID: "evt-1"})
	assert.ErrorIs(t, err, errs.ErrDeadlinePassed)
}

func TestRegisterAlreadyRegistered(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	db := NewMockRegistrationDB()
	db.events["evt-1"] = openEvent(now)
	svc := newTestService(db, now)

	_, err := svc.Register(context.Background(), "user-1", models.RegistrationRequest{EventID: "evt-1"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "user-1", models.RegistrationRequest{EventID: "evt-1"})
	assert.ErrorIs(t, err, errs.ErrAlreadyRegistered)
}

func TestRegisterMissingRequiredField(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	db := NewMockRegistrationDB()
	event := openEvent(now)
	event.CustomForm = []*models.FormField{
		{ID: "f1", Label: "College", Type: models.FieldText, Required: true},
		{ID: "f2", Label: "Dietary", Type: models.FieldText, Required: false},
	}
	db.events["evt-1"] = event
	svc := newTestService(db, now)

	_, err := svc.Register(context.Background(), "user-1", models.RegistrationRequest{EventID: "evt-1"})
	assert.ErrorIs(t, err, errs.ErrMissingFormField)

	_, err = svc.Register(context.Background(), "user-1", models.RegistrationRequest{
		EventID:  "evt-1",
		FormData: map[string]string{"College": "NIT"},
	})
	assert.NoError(t, err)
}

func TestRegisterInvalidMerchandiseItem(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	db := NewMockRegistrationDB()
	event := openEvent(now)
	event.Type = models.EventMerchandise
	event.MerchandiseItems = []*models.MerchandiseItem{
		{ID: "item-1", EventID: "evt-1", Name: "Fest Tee", Stock: 10},
	}
	db.events["evt-1"] = event
	svc := newTestService(db, now)

	_, err := svc.Register(context.Background(), "user-1", models.RegistrationRequest{
		EventID:     "evt-1",
		Merchandise: &models.MerchandiseSelection{ItemID: "no-such-item", Quantity: 1},
	})
	assert.ErrorIs(t, err, errs.ErrInvalidItem)
}

func TestRegisterTicketCollisionRetries(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	db := NewMockRegistrationDB()
	db.events["evt-1"] = openEvent(now)
	db.forcedTicketErrors = 2
	svc := newTestService(db, now)

	reg, err := svc.Register(context.Background(), "user-1", models.RegistrationRequest{EventID: "evt-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.TicketID)
}

func TestRegisterTicketCollisionExhausted(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	db := NewMockRegistrationDB()
	db.events["evt-1"] = openEvent(now)
	db.forcedTicketErrors = ticketMintAttempts
	svc := newTestService(db, now)

	_, err := svc.Register(context.Background(), "user-1", models.RegistrationRequest{EventID: "evt-1"})
	assert.ErrorIs(t, err, errs.ErrIDAllocationFailed)
}

// Capacity invariant: C+k concurrent admissions yield exactly C
// confirmations and k EventFull failures.
func TestRegisterCapacityUnderConcurrency(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	const capacity = 10
	const contenders = 25

	db := NewMockRegistrationDB()
	event := openEvent(now)
	event.RegistrationLimit = capacity
	db.events["evt-1"] = event
	svc := newTestService(db, now)

	var wg sync.WaitGroup
	results := make(chan error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Register(context.Background(), "user-"+string(rune('A'+n)), models.RegistrationRequest{EventID: "evt-1"})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var confirmed, full int
	for err := range results {
		switch {
		case err == nil:
			confirmed++
		case errors.Is(err, errs.ErrEventFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, capacity, confirmed)
	assert.Equal(t, contenders-capacity, full)
	assert.Equal(t, capacity, db.events["evt-1"].RegisteredCount)
}

// Stock invariant: concurrent merch purchases never drive stock below
// zero.
func TestRegisterStockUnderConcurrency(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	const stock = 5
	const contenders = 12

	db := NewMockRegistrationDB()
	event := openEvent(now)
	event.Type = models.EventMerchandise
	event.MerchandiseItems = []*models.MerchandiseItem{
		{ID: "item-1", EventID: "evt-1", Name: "Fest Hoodie", Stock: stock},
	}
	db.events["evt-1"] = event
	svc := newTestService(db, now)

	var wg sync.WaitGroup
	results := make(chan error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Register(context.Background(), "user-"+string(rune('A'+n)), models.RegistrationRequest{
				EventID:     "evt-1",
				Merchandise: &models.MerchandiseSelection{ItemID: "item-1", Quantity: 1},
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var confirmed, outOfStock int
	for err := range results {
		switch {
		case err == nil:
			confirmed++
		case errors.Is(err, errs.ErrOutOfStock):
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, stock, confirmed)
	assert.Equal(t, contenders-stock, outOfStock)
	assert.Equal(t, 0, db.events["evt-1"].MerchandiseItems[0].Stock)
}

func TestGetTicketOwnerOnly(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	db := NewMockRegistrationDB()
	db.registrations["reg-1"] = &models.Registration{ID: "reg-1", UserID: "user-1", TicketID: "TKT-AB12CD34"}
	svc := newTestService(db, now)

	reg, err := svc.GetTicket(context.Background(), "reg-1", "user-1", models.RoleParticipant)
	require.NoError(t, err)
	assert.Equal(t, "TKT-AB12CD34", reg.TicketID)

	_, err = svc.GetTicket(context.Background(), "reg-1", "user-2", models.RoleParticipant)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = svc.GetTicket(context.Background(), "reg-1", "user-2", models.RoleAdmin)
	assert.NoError(t, err)
}
