// internal/app/features/inquiries/views.go
package inquiries

import (
	"context"

	"github.com/dalemusser/swarmhub/internal/domain/models"
)

// inquiryView is an inquiry plus the display names dashboards show.
type inquiryView struct {
	models.Inquiry
	CoordinatorName string `json:"coordinator_name,omitempty"`
	VolunteerName   string `json:"volunteer_name,omitempty"`
}

// views resolves every owner and volunteer name in one pass.
func (h *Handler) views(ctx context.Context, qs ...models.Inquiry) []inquiryView {
	out := make([]inquiryView, len(qs))
	if h.Names == nil {
		for i, q := range qs {
			out[i] = inquiryView{Inquiry: q}
		}
		return out
	}

	ids := make([]string, 0, 2*len(qs))
	for _, q := range qs {
		if owner, ok := q.Owner(); ok {
			ids = append(ids, owner)
		}
		if vol, ok := q.AssignedVolunteers.VolunteerID(); ok {
			ids = append(ids, vol)
		}
	}
	names := h.Names.Names(ctx, ids...)

	for i, q := range qs {
		v := inquiryView{Inquiry: q}
		if owner, ok := q.Owner(); ok {
			v.CoordinatorName = names[owner]
		}
		if vol, ok := q.AssignedVolunteers.VolunteerID(); ok {
			v.VolunteerName = names[vol]
		}
		out[i] = v
	}
	return out
}

func (h *Handler) view(ctx context.Context, q models.Inquiry) inquiryView {
	return h.views(ctx, q)[0]
}
