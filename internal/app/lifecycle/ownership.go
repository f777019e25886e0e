// internal/app/lifecycle/ownership.go
package lifecycle

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/swarmhub/internal/app/policy/inquirypolicy"
	userstore "github.com/dalemusser/swarmhub/internal/app/store/users"
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"go.uber.org/zap"
)

// ClaimOwnership makes actor the owner of an unowned inquiry. Claiming an
// inquiry the actor already owns succeeds without a write.
func (s *Service) ClaimOwnership(ctx context.Context, id string, actor Actor) (out models.Inquiry, err error) {
	defer func() { s.record(ctx, OpClaim, id, actor, &err, nil) }()

	if !actor.IsCoordinator() {
		return models.Inquiry{}, newErr(KindForbidden, OpClaim, "only coordinators can claim inquiries", nil)
	}
	return s.mutate(ctx, OpClaim, id, func(q *models.Inquiry) (bool, error) {
		changed, err := inquirypolicy.Claim(*q, actor.ID)
		if err != nil {
			return false, newErr(KindConflict, OpClaim, "inquiry is already claimed by another coordinator", err)
		}
		if !changed {
			return false, nil
		}
		owner := actor.ID
		q.CoordinatorID = &owner
		return true, nil
	})
}

// ReleaseOwnership clears the owner. Only the current owner may release.
func (s *Service) ReleaseOwnership(ctx context.Context, id string, actor Actor) (out models.Inquiry, err error) {
	defer func() { s.record(ctx, OpRelease, id, actor, &err, nil) }()

	if !actor.IsCoordinator() {
		return models.Inquiry{}, newErr(KindForbidden, OpRelease, "only coordinators can release inquiries", nil)
	}
	return s.mutate(ctx, OpRelease, id, func(q *models.Inquiry) (bool, error) {
		switch err := inquirypolicy.Release(*q, actor.ID); {
		case errors.Is(err, inquirypolicy.ErrUnowned):
			return false, newErr(KindInvalidState, OpRelease, "inquiry is not claimed", err)
		case err != nil:
			return false, newErr(KindForbidden, OpRelease, "only the owner can release this inquiry", err)
		}
		q.CoordinatorID = nil
		return true, nil
	})
}

// ReassignVolunteer attaches volunteerID and moves the inquiry to
// volunteer_assigned. An unowned inquiry is claimed by actor in the same
// write.
func (s *Service) ReassignVolunteer(ctx context.Context, id, volunteerID string, actor Actor) (out models.Inquiry, err error) {
	volunteerID = strings.TrimSpace(volunteerID)
	defer func() {
		s.record(ctx, OpReassignVolunteer, id, actor, &err, map[string]string{"volunteer_id": volunteerID})
	}()

	if !actor.IsCoordinator() {
		return models.Inquiry{}, newErr(KindForbidden, OpReassignVolunteer, "only coordinators can assign volunteers", nil)
	}
	if volunteerID == "" {
		return models.Inquiry{}, newErr(KindValidation, OpReassignVolunteer, "volunteer_id is required", nil)
	}

	vol, err := s.users.GetByID(ctx, volunteerID)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		return models.Inquiry{}, newErr(KindNotFound, OpReassignVolunteer, "volunteer not found", nil)
	case err != nil:
		return models.Inquiry{}, newErr(KindUpstreamUnavailable, OpReassignVolunteer, "user directory unavailable", err)
	case !vol.IsVolunteer():
		return models.Inquiry{}, newErr(KindValidation, OpReassignVolunteer, "target user is not a volunteer", nil)
	case vol.Status != "" && vol.Status != "active":
		return models.Inquiry{}, newErr(KindValidation, OpReassignVolunteer, "target volunteer is disabled", nil)
	}

	out, err = s.mutate(ctx, OpReassignVolunteer, id, func(q *models.Inquiry) (bool, error) {
		autoClaim, err := inquirypolicy.Reassign(*q, actor.ID)
		switch {
		case errors.Is(err, inquirypolicy.ErrClosed):
			return false, newErr(KindInvalidState, OpReassignVolunteer, "inquiry is closed", err)
		case err != nil:
			return false, newErr(KindForbidden, OpReassignVolunteer, "inquiry is owned by another coordinator", err)
		}
		if autoClaim {
			owner := actor.ID
			q.CoordinatorID = &owner
		}
		q.AssignedVolunteers = models.AssignVolunteer(volunteerID)
		q.Status = models.StatusVolunteerAssigned
		return true, nil
	})
	if err != nil {
		return models.Inquiry{}, err
	}

	s.syncLinks(ctx, out)
	s.log.Info("volunteer assigned",
		zap.String("inquiry_id", out.ID),
		zap.String("volunteer_id", volunteerID),
		zap.String("actor_id", actor.ID))
	return out, nil
}
