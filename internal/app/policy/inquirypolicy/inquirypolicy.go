// internal/app/policy/inquirypolicy/inquirypolicy.go
package inquirypolicy

// The functions in this package are pure: they look at an inquiry as read
// from the store and decide whether a mutation may proceed. Persisting the
// outcome (and re-deciding when a concurrent writer got there first) is the
// caller's job.

import (
	"errors"

	"github.com/dalemusser/swarmhub/internal/domain/models"
)

var (
	ErrUnknownStatus        = errors.New("unknown status")
	ErrUnknownClosureReason = errors.New("unknown closure reason")
	ErrVolunteerRequired    = errors.New("a volunteer must be assigned before this status")
	ErrClosed               = errors.New("inquiry is closed")
	ErrOwnedByOther         = errors.New("inquiry is owned by another coordinator")
	ErrUnowned              = errors.New("inquiry has no owner")
	ErrNotOwner             = errors.New("caller is not the owner of this inquiry")
	ErrNotParticipant       = errors.New("caller is neither the owner nor the assigned volunteer")
)

// Decision is the outcome of a permitted status transition.
type Decision struct {
	Allow bool
	// ClearAssignment is set when the transition moves back past the
	// assignment point. Applying it detaches the current volunteer, so
	// callers confirm with the user first when one is attached.
	ClearAssignment bool
}

// ValidateTransition decides whether an inquiry in current may move to
// requested given whether a volunteer is attached.
func ValidateTransition(current, requested models.InquiryStatus, hasVolunteer bool) (Decision, error) {
	if !requested.Valid() {
		return Decision{}, ErrUnknownStatus
	}
	if current == models.StatusClosed && requested != models.StatusClosed {
		return Decision{}, ErrClosed
	}

	switch requested {
	case models.StatusVolunteerAssigned, models.StatusVolunteerEnRoute, models.StatusTreatmentDone:
		if !hasVolunteer {
			return Decision{}, ErrVolunteerRequired
		}
		return Decision{Allow: true}, nil
	case models.StatusLinkSent, models.StatusFormFilled:
		return Decision{Allow: true, ClearAssignment: true}, nil
	case models.StatusClosed:
		return Decision{Allow: true}, nil
	}
	return Decision{}, ErrUnknownStatus
}

// NeedsConfirmation reports whether applying d to q would detach a volunteer.
func NeedsConfirmation(q models.Inquiry, d Decision) bool {
	return d.ClearAssignment && q.AssignedVolunteers.Has()
}

// Claim decides a claim by coordinatorID. changed is false when the caller
// already owns q.
func Claim(q models.Inquiry, coordinatorID string) (changed bool, err error) {
	owner, owned := q.Owner()
	switch {
	case !owned:
		return true, nil
	case owner == coordinatorID:
		return false, nil
	default:
		return false, ErrOwnedByOther
	}
}

// Release decides a release by coordinatorID.
func Release(q models.Inquiry, coordinatorID string) error {
	owner, owned := q.Owner()
	if !owned {
		return ErrUnowned
	}
	if owner != coordinatorID {
		return ErrNotOwner
	}
	return nil
}

// Reassign decides a volunteer reassignment by coordinatorID. autoClaim is
// set when q is unowned and the caller takes ownership with the write.
func Reassign(q models.Inquiry, coordinatorID string) (autoClaim bool, err error) {
	if q.Status == models.StatusClosed {
		return false, ErrClosed
	}
	owner, owned := q.Owner()
	if !owned {
		return true, nil
	}
	if owner != coordinatorID {
		return false, ErrOwnedByOther
	}
	return false, nil
}

// CanChangeStatus reports whether actorID may move q between statuses.
// Unowned inquiries are open to any coordinator; once claimed only the
// owner and the assigned volunteer may act.
func CanChangeStatus(q models.Inquiry, actorID string, actorIsCoordinator bool) error {
	if q.AssignedVolunteers.Is(actorID) {
		return nil
	}
	owner, owned := q.Owner()
	if !owned {
		if actorIsCoordinator {
			return nil
		}
		return ErrNotParticipant
	}
	if owner == actorID {
		return nil
	}
	return ErrNotParticipant
}

// ClosureReasonChange decides whether callerID may set reason on q. apply is
// false when q is not closed: the reason is only meaningful for closed
// inquiries and is ignored otherwise.
func ClosureReasonChange(q models.Inquiry, callerID string, reason models.ClosureReason) (apply bool, err error) {
	if reason != models.ClosureNone && !reason.Valid() {
		return false, ErrUnknownClosureReason
	}
	if !q.OwnedBy(callerID) {
		return false, ErrNotOwner
	}
	if q.Status != models.StatusClosed {
		return false, nil
	}
	return true, nil
}
