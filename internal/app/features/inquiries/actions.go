// internal/app/features/inquiries/actions.go
package inquiries

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	uierrors "github.com/dalemusser/swarmhub/internal/app/features/errors"
	"github.com/dalemusser/swarmhub/internal/app/lifecycle"
	"github.com/dalemusser/swarmhub/internal/app/system/timeouts"
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

const maxActionBody = 4 << 10

// decodeBody reads a small JSON object into v. An empty body leaves v zero.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid request body")
		return false
	}
	return true
}

// respond writes the post-state inquiry or the mapped error.
func (h *Handler) respond(ctx context.Context, w http.ResponseWriter, r *http.Request, q models.Inquiry, err error) {
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, h.view(ctx, q))
}

// HandleClaim handles POST /inquiries/{id}/claim.
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	q, err := h.Svc.ClaimOwnership(ctx, chi.URLParam(r, "id"), actorFrom(r))
	h.respond(ctx, w, r, q, err)
}

// HandleRelease handles POST /inquiries/{id}/release.
func (h *Handler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	q, err := h.Svc.ReleaseOwnership(ctx, chi.URLParam(r, "id"), actorFrom(r))
	h.respond(ctx, w, r, q, err)
}

type volunteerRequest struct {
	VolunteerID string `json:"volunteer_id"`
}

// HandleVolunteer handles POST /inquiries/{id}/volunteer.
func (h *Handler) HandleVolunteer(w http.ResponseWriter, r *http.Request) {
	var req volunteerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	q, err := h.Svc.ReassignVolunteer(ctx, chi.URLParam(r, "id"), req.VolunteerID, actorFrom(r))
	h.respond(ctx, w, r, q, err)
}

type statusRequest struct {
	Status          models.InquiryStatus `json:"status"`
	ConfirmUnassign bool                 `json:"confirm_unassign"`
}

// HandleStatus handles POST /inquiries/{id}/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	q, err := h.Svc.ChangeStatus(ctx, chi.URLParam(r, "id"), lifecycle.StatusChange{
		Status:          req.Status,
		ConfirmUnassign: req.ConfirmUnassign,
	}, actorFrom(r))
	h.respond(ctx, w, r, q, err)
}

type closureRequest struct {
	ClosureReason models.ClosureReason `json:"closure_reason"`
}

type closureResponse struct {
	Inquiry inquiryView `json:"inquiry"`
	Applied bool        `json:"applied"`
}

// HandleClosureReason handles POST /inquiries/{id}/closure-reason. A reason
// sent for an inquiry that is not closed is ignored and reported with
// applied=false.
func (h *Handler) HandleClosureReason(w http.ResponseWriter, r *http.Request) {
	var req closureRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	q, applied, err := h.Svc.ChangeClosureReason(ctx, chi.URLParam(r, "id"), req.ClosureReason, actorFrom(r))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, closureResponse{Inquiry: h.view(ctx, q), Applied: applied})
}
