package errs

import (
	"errors"
	"net/http"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrUnauthorized         = errors.New("not authorized")
)

var (
	ErrEventNotOpen      = errors.New("event is not open for registration")
	ErrDeadlinePassed    = errors.New("registration deadline passed")
	ErrAlreadyRegistered = errors.New("already registered")
	ErrEventFull         = errors.New("event is full")
	ErrInvalidItem       = errors.New("invalid merchandise item")
	ErrOutOfStock        = errors.New("item out of stock")
	ErrMissingFormField  = errors.New("required form field missing")
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotDeletable      = errors.New("only draft events can be deleted")
)

var (
	ErrNotHackathon      = errors.New("not a hackathon event")
	ErrInvalidTeamSize   = errors.New("team size outside event limits")
	ErrAlreadyHasTeam    = errors.New("already in a team for this event")
	ErrInvalidCode       = errors.New("invalid team code")
	ErrTeamNotForming    = errors.New("team is no longer forming")
	ErrTeamFull          = errors.New("team is full")
	ErrTeamLocked        = errors.New("team is already registered")
	ErrLeaderCannotLeave = errors.New("team leader cannot leave, delete the team instead")
)

var (
	ErrInvalidTicket = errors.New("invalid ticket, no registration found")
	ErrNotConfirmed  = errors.New("registration is not confirmed")
)

var ErrIDAllocationFailed = errors.New("could not allocate a unique identifier")

// ErrConcurrentUpdate reports a write that kept losing its version
// guard to other writers; the request can be retried as-is.
var ErrConcurrentUpdate = errors.New("concurrent update, please retry")

// HTTPStatus maps a domain error to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrEventNotFound),
		errors.Is(err, ErrRegistrationNotFound),
		errors.Is(err, ErrTeamNotFound),
		errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrInvalidTicket):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, ErrEventNotOpen),
		errors.Is(err, ErrDeadlinePassed),
		errors.Is(err, ErrAlreadyRegistered),
		errors.Is(err, ErrEventFull),
		errors.Is(err, ErrInvalidItem),
		errors.Is(err, ErrOutOfStock),
		errors.Is(err, ErrMissingFormField),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrNotDeletable),
		errors.Is(err, ErrNotHackathon),
		errors.Is(err, ErrInvalidTeamSize),
		errors.Is(err, ErrAlreadyHasTeam),
		errors.Is(err, ErrTeamNotForming),
		errors.Is(err, ErrTeamFull),
		errors.Is(err, ErrTeamLocked),
		errors.Is(err, ErrLeaderCannotLeave),
		errors.Is(err, ErrNotConfirmed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrDuplicateTicket signals a ticket-identifier collision during
// insert. It never escapes the admission retry loop.
var ErrDuplicateTicket = errors.New("ticket identifier already exists")

// ErrDuplicateTeamCode signals a join-code collision during insert;
// like ErrDuplicateTicket it is consumed by a retry loop.
var ErrDuplicateTeamCode = errors.New("team code already exists")
