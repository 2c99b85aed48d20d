package events

import (
	"time"

	"fest-engine/internal/models"
)

// DeriveStatus computes the time-corrected status for an event. It is a
// pure function: persistence of the derived value is a best-effort
// cache refresh done by the caller, never required for correctness.
//
// Draft and Cancelled never auto-advance. Closed is terminal and only
// reachable by organizer action.
func DeriveStatus(e *models.Event, now time.Time) string {
	switch e.Status {
	case models.StatusPublished, models.StatusOngoing:
	default:
		return e.Status
	}

	if now.After(e.EndDate) {
		return models.StatusCompleted
	}
	if !now.Before(e.StartDate) {
		return models.StatusOngoing
	}
	// Clock correction: an Ongoing event whose start moved into the
	// future drops back to Published.
	if e.Status == models.StatusOngoing {
		return models.StatusPublished
	}
	return e.Status
}

// allowedTransitions keys the organizer-driven status contract by the
// event's current status. A missing entry means any target is accepted
// (terminal states keep status mutable without further constraint).
var allowedTransitions = map[string][]string{
	models.StatusPublished: {models.StatusPublished, models.StatusOngoing, models.StatusCancelled},
	models.StatusOngoing:   {models.StatusCompleted, models.StatusCancelled, models.StatusOngoing},
}

func transitionAllowed(from, to string) bool {
	if from == models.StatusDraft {
		return true
	}
	allowed, ok := allowedTransitions[from]
	if !ok {
		return true
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}
