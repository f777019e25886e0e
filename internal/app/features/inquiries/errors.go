// internal/app/features/inquiries/errors.go
package inquiries

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/swarmhub/internal/app/features/errors"
	"github.com/dalemusser/swarmhub/internal/app/lifecycle"
	"go.uber.org/zap"
)

// statusFor maps a lifecycle kind to its HTTP status.
func statusFor(k lifecycle.Kind) int {
	switch k {
	case lifecycle.KindValidation:
		return http.StatusBadRequest
	case lifecycle.KindPreconditionFailed:
		return http.StatusPreconditionFailed
	case lifecycle.KindConflict:
		return http.StatusConflict
	case lifecycle.KindForbidden:
		return http.StatusForbidden
	case lifecycle.KindInvalidState:
		return http.StatusUnprocessableEntity
	case lifecycle.KindNotFound:
		return http.StatusNotFound
	case lifecycle.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeErr answers with the envelope for err. Upstream failures and
// anything untyped are logged; the rest are the caller's problem.
func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var le *lifecycle.Error
	if !errors.As(err, &le) {
		h.ErrLog.HandleServerError(w, r, err, "unexpected error")
		return
	}
	msg := le.Msg
	if msg == "" {
		msg = string(le.Kind)
	}
	if le.Kind == lifecycle.KindUpstreamUnavailable {
		h.Log.Warn("inquiry operation unavailable",
			zap.String("op", le.Op),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		msg = "storage temporarily unavailable"
	}
	uierrors.Write(w, statusFor(le.Kind), string(le.Kind), msg)
}

func badRequest(w http.ResponseWriter, msg string) {
	uierrors.Write(w, http.StatusBadRequest, string(lifecycle.KindValidation), msg)
}
