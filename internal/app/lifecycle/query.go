// internal/app/lifecycle/query.go
package lifecycle

import (
	"context"

	inquirystore "github.com/dalemusser/swarmhub/internal/app/store/inquiries"
	"github.com/dalemusser/swarmhub/internal/domain/models"
)

// GetInquiry loads one inquiry.
func (s *Service) GetInquiry(ctx context.Context, id string) (models.Inquiry, error) {
	q, err := s.inquiries.Get(ctx, id)
	if err != nil {
		return models.Inquiry{}, storeErr("get", err)
	}
	return q, nil
}

// ListInquiries returns inquiries matching f, newest first.
func (s *Service) ListInquiries(ctx context.Context, f inquirystore.Filter) ([]models.Inquiry, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, newErr(KindValidation, "list", "unknown status", nil)
	}
	out, err := s.inquiries.Find(ctx, f)
	if err != nil {
		return nil, storeErr("list", err)
	}
	return out, nil
}

// ListForActor narrows f to what actor may see: coordinators see what they
// own plus everything unowned, volunteers see what they are assigned to.
func (s *Service) ListForActor(ctx context.Context, actor Actor, f inquirystore.Filter) ([]models.Inquiry, error) {
	switch {
	case actor.IsCoordinator():
		f.OwnedOrUnownedBy = actor.ID
	case actor.IsVolunteer():
		f.VolunteerID = actor.ID
	default:
		return nil, newErr(KindForbidden, "list", "sign in required", nil)
	}
	return s.ListInquiries(ctx, f)
}

// CanView reports whether actor may read q through ListForActor's rules.
func CanView(q models.Inquiry, actor Actor) bool {
	switch {
	case actor.IsCoordinator():
		owner, owned := q.Owner()
		return !owned || owner == actor.ID
	case actor.IsVolunteer():
		return q.AssignedVolunteers.Is(actor.ID)
	}
	return false
}
