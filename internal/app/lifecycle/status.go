// internal/app/lifecycle/status.go
package lifecycle

import (
	"context"
	"errors"
	"strconv"

	"github.com/dalemusser/swarmhub/internal/app/policy/inquirypolicy"
	"github.com/dalemusser/swarmhub/internal/domain/models"
)

// StatusChange is a requested status transition.
type StatusChange struct {
	Status models.InquiryStatus
	// ConfirmUnassign acknowledges that moving back before the assignment
	// point detaches the current volunteer.
	ConfirmUnassign bool
}

// Preview describes what a transition would do without applying it.
type Preview struct {
	From                 models.InquiryStatus `json:"from"`
	To                   models.InquiryStatus `json:"to"`
	Allowed              bool                 `json:"allowed"`
	ClearsAssignment     bool                 `json:"clears_assignment"`
	ConfirmationRequired bool                 `json:"confirmation_required"`
	Reason               string               `json:"reason,omitempty"`
	ReasonKind           Kind                 `json:"reason_kind,omitempty"`
}

// transitionErr maps a validator refusal onto a lifecycle kind.
func transitionErr(op string, err error) error {
	switch {
	case errors.Is(err, inquirypolicy.ErrUnknownStatus):
		return newErr(KindValidation, op, "unknown status", err)
	case errors.Is(err, inquirypolicy.ErrClosed):
		return newErr(KindInvalidState, op, "closed inquiries cannot change status", err)
	case errors.Is(err, inquirypolicy.ErrVolunteerRequired):
		return newErr(KindPreconditionFailed, op, "assign a volunteer first", err)
	}
	return newErr(KindValidation, op, err.Error(), err)
}

// ChangeStatus moves an inquiry to a new status. Moving back to link_sent or
// form_filled detaches the volunteer and needs ConfirmUnassign when one is
// attached.
func (s *Service) ChangeStatus(ctx context.Context, id string, change StatusChange, actor Actor) (out models.Inquiry, err error) {
	defer func() {
		s.record(ctx, OpChangeStatus, id, actor, &err, map[string]string{"status": string(change.Status)})
	}()

	if actor.ID == "" {
		return models.Inquiry{}, newErr(KindForbidden, OpChangeStatus, "sign in required", nil)
	}
	if !change.Status.Valid() {
		return models.Inquiry{}, newErr(KindValidation, OpChangeStatus, "unknown status", nil)
	}

	var detached bool
	out, err = s.mutate(ctx, OpChangeStatus, id, func(q *models.Inquiry) (bool, error) {
		detached = false
		if err := inquirypolicy.CanChangeStatus(*q, actor.ID, actor.IsCoordinator()); err != nil {
			return false, newErr(KindForbidden, OpChangeStatus, "only the owner or the assigned volunteer can change status", err)
		}
		d, err := inquirypolicy.ValidateTransition(q.Status, change.Status, q.AssignedVolunteers.Has())
		if err != nil {
			return false, transitionErr(OpChangeStatus, err)
		}
		if inquirypolicy.NeedsConfirmation(*q, d) && !change.ConfirmUnassign {
			return false, newErr(KindPreconditionFailed, OpChangeStatus, "confirmation required: this unassigns the volunteer", nil)
		}

		write := q.Status != change.Status
		if d.ClearAssignment && q.AssignedVolunteers.Has() {
			q.AssignedVolunteers = models.NoVolunteer()
			detached = true
			write = true
		}
		q.Status = change.Status
		return write, nil
	})
	if err != nil {
		return models.Inquiry{}, err
	}
	if detached {
		s.syncLinks(ctx, out)
	}
	return out, nil
}

// ChangeClosureReason sets the closure reason of a closed inquiry. The owner
// is the only caller allowed. On an inquiry that is not closed the request
// is ignored and applied is false.
func (s *Service) ChangeClosureReason(ctx context.Context, id string, reason models.ClosureReason, actor Actor) (out models.Inquiry, applied bool, err error) {
	defer func() {
		s.record(ctx, OpChangeClosureReason, id, actor, &err, map[string]string{
			"closure_reason": string(reason),
			"applied":        strconv.FormatBool(applied),
		})
	}()

	if !actor.IsCoordinator() {
		return models.Inquiry{}, false, newErr(KindForbidden, OpChangeClosureReason, "only the owner can set a closure reason", nil)
	}
	if reason != models.ClosureNone && !reason.Valid() {
		return models.Inquiry{}, false, newErr(KindValidation, OpChangeClosureReason, "unknown closure reason", nil)
	}

	out, err = s.mutate(ctx, OpChangeClosureReason, id, func(q *models.Inquiry) (bool, error) {
		apply, err := inquirypolicy.ClosureReasonChange(*q, actor.ID, reason)
		switch {
		case errors.Is(err, inquirypolicy.ErrUnknownClosureReason):
			return false, newErr(KindValidation, OpChangeClosureReason, "unknown closure reason", err)
		case err != nil:
			return false, newErr(KindForbidden, OpChangeClosureReason, "only the owner can set a closure reason", err)
		}
		applied = apply
		if !apply || q.ClosureReason == reason {
			return false, nil
		}
		q.ClosureReason = reason
		return true, nil
	})
	if err != nil {
		return models.Inquiry{}, false, err
	}
	return out, applied, nil
}

// PreviewTransition reports what ChangeStatus would do for the given target
// status. It does not check who is asking.
func (s *Service) PreviewTransition(ctx context.Context, id string, to models.InquiryStatus) (Preview, error) {
	q, err := s.inquiries.Get(ctx, id)
	if err != nil {
		return Preview{}, storeErr("preview_transition", err)
	}
	p := Preview{From: q.Status, To: to}
	d, err := inquirypolicy.ValidateTransition(q.Status, to, q.AssignedVolunteers.Has())
	if err != nil {
		p.Reason = err.Error()
		p.ReasonKind = KindOf(transitionErr("preview_transition", err))
		return p, nil
	}
	p.Allowed = d.Allow
	p.ClearsAssignment = d.ClearAssignment
	p.ConfirmationRequired = inquirypolicy.NeedsConfirmation(q, d)
	return p, nil
}
