// internal/app/features/inquiries/create.go
package inquiries

import (
	"context"
	"io"
	"net/http"

	uierrors "github.com/dalemusser/swarmhub/internal/app/features/errors"
	"github.com/dalemusser/swarmhub/internal/app/lifecycle"
	"github.com/dalemusser/swarmhub/internal/app/system/timeouts"
	"github.com/dalemusser/swarmhub/internal/domain/models"
)

// maxIntakeBody caps the intake request body.
const maxIntakeBody = 64 << 10

// HandleCreate handles POST /inquiries.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	// geocoding runs inline, so allow more than the usual short timeout
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIntakeBody))
	if err != nil {
		badRequest(w, "request body too large or unreadable")
		return
	}

	p, fieldErrs, err := h.Intake.Decode(ctx, body)
	if err != nil {
		badRequest(w, "request body must be a JSON object")
		return
	}
	if len(fieldErrs) > 0 {
		uierrors.WriteJSON(w, http.StatusBadRequest, uierrors.Body{
			Error:   string(lifecycle.KindValidation),
			Message: "inquiry rejected",
			Fields:  fieldErrs,
		})
		return
	}
	appeared, _ := p.Appearance() // checked by Decode

	q, err := h.Svc.CreateInquiry(ctx, actorFrom(r), lifecycle.NewInquiry{
		Address:             p.Address,
		City:                p.City,
		LocationDescription: p.LocationDescription,
		FullName:            p.FullName,
		PhoneNumber:         p.PhoneNumber,
		AppearanceDate:      appeared,
		Coordinates:         p.Coordinates,
		Status:              models.InquiryStatus(p.Status),
		OnBehalf:            p.OnBehalf,
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, h.view(ctx, q))
}
