// internal/app/features/inquiries/list.go
package inquiries

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	uierrors "github.com/dalemusser/swarmhub/internal/app/features/errors"
	"github.com/dalemusser/swarmhub/internal/app/lifecycle"
	inquirystore "github.com/dalemusser/swarmhub/internal/app/store/inquiries"
	"github.com/dalemusser/swarmhub/internal/app/system/timeouts"
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

const (
	defaultListLimit = 200
	maxListLimit     = 1000
)

// ServeList handles GET /inquiries?status=&coordinator_id=&unowned=&city=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	qv := r.URL.Query()
	f := inquirystore.Filter{
		Status:        models.InquiryStatus(strings.TrimSpace(qv.Get("status"))),
		CoordinatorID: strings.TrimSpace(qv.Get("coordinator_id")),
		City:          strings.TrimSpace(qv.Get("city")),
		Limit:         defaultListLimit,
	}
	if s := qv.Get("unowned"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			badRequest(w, "unowned must be true or false")
			return
		}
		f.UnownedOnly = b
	}
	if s := qv.Get("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 1 {
			badRequest(w, "limit must be a positive integer")
			return
		}
		f.Limit = min(n, maxListLimit)
	}

	qs, err := h.Svc.ListForActor(ctx, actorFrom(r), f)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"inquiries": h.views(ctx, qs...),
		"count":     len(qs),
	})
}

// loadVisible fetches the {id} inquiry and checks the caller may see it.
func (h *Handler) loadVisible(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Inquiry, bool) {
	q, err := h.Svc.GetInquiry(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, r, err)
		return models.Inquiry{}, false
	}
	if !lifecycle.CanView(q, actorFrom(r)) {
		uierrors.Write(w, http.StatusForbidden, string(lifecycle.KindForbidden), "you cannot view this inquiry")
		return models.Inquiry{}, false
	}
	return q, true
}

// ServeInquiry handles GET /inquiries/{id}.
func (h *Handler) ServeInquiry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	q, ok := h.loadVisible(ctx, w, r)
	if !ok {
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, h.view(ctx, q))
}

// ServeTransition handles GET /inquiries/{id}/transition?to=.
func (h *Handler) ServeTransition(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	to := models.InquiryStatus(strings.TrimSpace(r.URL.Query().Get("to")))
	if to == "" {
		badRequest(w, "to is required")
		return
	}
	q, ok := h.loadVisible(ctx, w, r)
	if !ok {
		return
	}
	p, err := h.Svc.PreviewTransition(ctx, q.ID, to)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, p)
}
