// internal/app/features/profile/activity.go
package profile

import (
	"context"
	"net/http"
	"strconv"
	"time"

	uierrors "github.com/dalemusser/swarmhub/internal/app/features/errors"
	"github.com/dalemusser/swarmhub/internal/app/system/auth"
	"github.com/dalemusser/swarmhub/internal/app/system/timeouts"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

type activityEntry struct {
	At            time.Time `json:"at"`
	Category      string    `json:"category"`
	EventType     string    `json:"event_type"`
	InquiryID     string    `json:"inquiry_id,omitempty"`
	Success       bool      `json:"success"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

// ServeActivity handles GET /profile/activity: the signed-in user's own
// audit trail, newest first.
func (h *Handler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	if h.Activity == nil {
		uierrors.Write(w, http.StatusNotFound, "not_found", "activity is not recorded on this server")
		return
	}
	u, _ := auth.CurrentUser(r)

	limit := int64(defaultActivityLimit)
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 1 {
			uierrors.Write(w, http.StatusBadRequest, "validation", "limit must be a positive integer")
			return
		}
		limit = min(n, maxActivityLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Activity.Activity(ctx, u.ID, limit)
	if err != nil {
		h.ErrLog.HandleServerError(w, r, err, "could not load activity")
		return
	}
	out := make([]activityEntry, 0, len(events))
	for _, e := range events {
		out = append(out, activityEntry{
			At:            e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			InquiryID:     e.InquiryID,
			Success:       e.Success,
			FailureReason: e.FailureReason,
		})
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"events": out})
}
