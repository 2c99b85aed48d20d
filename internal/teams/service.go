package teams

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fest-engine/internal/errs"
	"fest-engine/internal/logger"
	"fest-engine/internal/models"
	"fest-engine/internal/utils"
)

const (
	// codeMintAttempts bounds the join-code collision retry loop.
	codeMintAttempts = 5
	// joinRetryAttempts bounds re-reads when a membership write loses
	// its optimistic-concurrency race.
	joinRetryAttempts = 3
)

type DBLayer interface {
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	GetTeamByID(ctx context.Context, id string) (*models.Team, error)
	GetTeamByCode(ctx context.Context, code string) (*models.Team, error)
	// FindTeamForMember returns the team userID belongs to for the
	// event, or nil when there is none.
	FindTeamForMember(ctx context.Context, eventID, userID string) (*models.Team, error)
	InsertTeam(ctx context.Context, team *models.Team) error
	// UpdateTeamGuarded persists members/status iff the stored version
	// still matches; reports false when a concurrent writer won.
	UpdateTeamGuarded(ctx context.Context, team *models.Team) (bool, error)
	// RegisterTeamAtomic performs the fan-out in one transaction:
	// guarded team update to registered, one registration per member
	// lacking one, and the event counter increment. Returns false when
	// the version guard fails.
	RegisterTeamAtomic(ctx context.Context, team *models.Team, mintTicket func() string, now time.Time) (bool, error)
	DeleteTeam(ctx context.Context, id string) error
	ListTeamsByMember(ctx context.Context, userID string) ([]*models.Team, error)
	ListTeamsByEvent(ctx context.Context, eventID string) ([]*models.Team, error)
}

// Service coordinates hackathon team formation: create/join/leave/
// delete, and the all-or-nothing registration fan-out when a team
// fills up.
type Service struct {
	DB  DBLayer
	Log *logger.Logger

	now func() time.Time
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, Log: log, now: time.Now}
}

func (s *Service) CreateTeam(ctx context.Context, userID string, req models.TeamCreateRequest) (*models.Team, error) {
	event, err := s.DB.GetEventByID(ctx, req.EventID)
	if err != nil {
		return nil, errs.ErrEventNotFound
	}
	if event.Type != models.EventHackathon {
		return nil, errs.ErrNotHackathon
	}
	if req.MaxSize < event.MinTeamSize || req.MaxSize > event.MaxTeamSize {
		return nil, fmt.Errorf("%w: must be between %d and %d", errs.ErrInvalidTeamSize, event.MinTeamSize, event.MaxTeamSize)
	}

	existing, err := s.DB.FindTeamForMember(ctx, event.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing team: %w", err)
	}
	if existing != nil {
		return nil, errs.ErrAlreadyHasTeam
	}

	team := &models.Team{
		ID:        utils.NewID(),
		Name:      req.TeamName,
		EventID:   event.ID,
		LeaderID:  userID,
		Members:   []string{userID},
		MaxSize:   req.MaxSize,
		Status:    models.TeamForming,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}

	for attempt := 0; ; attempt++ {
		team.TeamCode = utils.NewTeamCode()
		err = s.DB.InsertTeam(ctx, team)
		if err == nil {
			break
		}
		if errors.Is(err, errs.ErrDuplicateTeamCode) && attempt < codeMintAttempts-1 {
			continue
		}
		if errors.Is(err, errs.ErrDuplicateTeamCode) {
			return nil, errs.ErrIDAllocationFailed
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	s.Log.LogTeam("CREATE", team.ID, fmt.Sprintf("%q (%s) for event %s", team.Name, team.TeamCode, event.ID))
	return team, nil
}

// JoinTeam adds the caller to the team behind a join code. The join
// that fills the team triggers the registration fan-out: every member
// without a registration gets one, the event counter grows by the
// member count, and the team flips to registered, all in one atomic
// unit. Losing an optimistic-concurrency race re-reads and re-checks.
func (s *Service) JoinTeam(ctx context.Context, userID, teamCode string) (*models.Team, error) {
	for attempt := 0; attempt < joinRetryAttempts; attempt++ {
		team, err := s.DB.GetTeamByCode(ctx, teamCode)
		if err != nil {
			return nil, errs.ErrInvalidCode
		}
		if team.Status != models.TeamForming {
			return nil, errs.ErrTeamNotForming
		}

		existing, err := s.DB.FindTeamForMember(ctx, team.EventID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing team: %w", err)
		}
		if existing != nil {
			return nil, errs.ErrAlreadyHasTeam
		}
		if len(team.Members) >= team.MaxSize {
			return nil, errs.ErrTeamFull
		}

		team.Members = append(team.Members, userID)
		team.UpdatedAt = s.now()

		if len(team.Members) < team.MaxSize {
			ok, err := s.DB.UpdateTeamGuarded(ctx, team)
			if err != nil {
				return nil, fmt.Errorf("failed to join team: %w", err)
			}
			if !ok {
				continue // lost the race, re-read
			}
			// The membership check above ran against a snapshot; a
			// concurrent join to a sibling team of the same event can land
			// between it and this write. Back this membership out rather
			// than leave the user in two teams.
			if other, serr := s.siblingTeam(ctx, team, userID); serr == nil && other != nil {
				s.removeMember(ctx, team.ID, userID)
				return nil, errs.ErrAlreadyHasTeam
			}
			s.Log.LogTeam("JOIN", team.ID, fmt.Sprintf("user %s joined (%d/%d)", userID, len(team.Members), team.MaxSize))
			return team, nil
		}

		// Full: complete is a transient step inside this operation.
		team.Status = models.TeamComplete
		registered, err := s.registerTeam(ctx, team)
		if err != nil {
			return nil, err
		}
		if !registered {
			continue
		}
		s.Log.LogTeam("REGISTER", team.ID, fmt.Sprintf("team full, fan-out issued tickets for %d members", len(team.Members)))
		return team, nil
	}
	return nil, errs.ErrConcurrentUpdate
}

// siblingTeam returns another team of the same event that also lists
// userID as a member, or nil when there is none.
func (s *Service) siblingTeam(ctx context.Context, team *models.Team, userID string) (*models.Team, error) {
	teams, err := s.DB.ListTeamsByEvent(ctx, team.EventID)
	if err != nil {
		return nil, err
	}
	for _, other := range teams {
		if other.ID != team.ID && other.HasMember(userID) {
			return other, nil
		}
	}
	return nil, nil
}

// removeMember backs a user out of a team, retrying guard losses.
// Best-effort: a failure here leaves the duplicate membership for the
// next read to surface, never a lost one.
func (s *Service) removeMember(ctx context.Context, teamID, userID string) {
	for attempt := 0; attempt < joinRetryAttempts; attempt++ {
		team, err := s.DB.GetTeamByID(ctx, teamID)
		if err != nil {
			return
		}
		remaining := make([]string, 0, len(team.Members))
		for _, m := range team.Members {
			if m != userID {
				remaining = append(remaining, m)
			}
		}
		team.Members = remaining
		team.UpdatedAt = s.now()
		if ok, err := s.DB.UpdateTeamGuarded(ctx, team); err != nil || ok {
			return
		}
	}
}

// registerTeam runs the fan-out, retrying ticket collisions by
// restarting the transaction. The missing-registration set is computed
// inside the transaction each attempt, so a restart converges instead
// of double-issuing.
func (s *Service) registerTeam(ctx context.Context, team *models.Team) (bool, error) {
	team.Status = models.TeamRegistered
	for attempt := 0; ; attempt++ {
		ok, err := s.DB.RegisterTeamAtomic(ctx, team, utils.NewTicketID, s.now())
		if err == nil {
			return ok, nil
		}
		if errors.Is(err, errs.ErrDuplicateTicket) && attempt < codeMintAttempts-1 {
			continue
		}
		if errors.Is(err, errs.ErrDuplicateTicket) {
			return false, errs.ErrIDAllocationFailed
		}
		return false, fmt.Errorf("failed to register team: %w", err)
	}
}

// LeaveTeam removes the caller from a forming team. Registered teams
// are locked and the leader must delete instead of leaving.
func (s *Service) LeaveTeam(ctx context.Context, teamID, userID string) error {
	for attempt := 0; attempt < joinRetryAttempts; attempt++ {
		team, err := s.DB.GetTeamByID(ctx, teamID)
		if err != nil {
			return errs.ErrTeamNotFound
		}
		if team.Status == models.TeamRegistered {
			return errs.ErrTeamLocked
		}
		if team.LeaderID == userID {
			return errs.ErrLeaderCannotLeave
		}
		if !team.HasMember(userID) {
			return errs.ErrUnauthorized
		}

		remaining := make([]string, 0, len(team.Members))
		for _, m := range team.Members {
			if m != userID {
				remaining = append(remaining, m)
			}
		}
		team.Members = remaining
		// A team that was momentarily complete without registering
		// drops back to forming.
		if team.Status == models.TeamComplete {
			team.Status = models.TeamForming
		}
		team.UpdatedAt = s.now()

		ok, err := s.DB.UpdateTeamGuarded(ctx, team)
		if err != nil {
			return fmt.Errorf("failed to leave team: %w", err)
		}
		if ok {
			s.Log.LogTeam("LEAVE", team.ID, fmt.Sprintf("user %s left", userID))
			return nil
		}
	}
	return errs.ErrConcurrentUpdate
}

// DeleteTeam is leader-only and disallowed once registered.
func (s *Service) DeleteTeam(ctx context.Context, teamID, userID string) error {
	team, err := s.DB.GetTeamByID(ctx, teamID)
	if err != nil {
		return errs.ErrTeamNotFound
	}
	if team.LeaderID != userID {
		return errs.ErrUnauthorized
	}
	if team.Status == models.TeamRegistered {
		return errs.ErrTeamLocked
	}
	if err := s.DB.DeleteTeam(ctx, teamID); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	s.Log.LogTeam("DELETE", teamID, "deleted by leader")
	return nil
}

func (s *Service) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	team, err := s.DB.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, errs.ErrTeamNotFound
	}
	return team, nil
}

func (s *Service) GetMyTeams(ctx context.Context, userID string) ([]*models.Team, error) {
	list, err := s.DB.ListTeamsByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return list, nil
}

func (s *Service) GetEventTeams(ctx context.Context, eventID string) ([]*models.Team, error) {
	list, err := s.DB.ListTeamsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return list, nil
}
