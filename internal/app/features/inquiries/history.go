// internal/app/features/inquiries/history.go
package inquiries

import (
	"context"
	"net/http"
	"strconv"
	"time"

	uierrors "github.com/dalemusser/swarmhub/internal/app/features/errors"
	"github.com/dalemusser/swarmhub/internal/app/lifecycle"
	"github.com/dalemusser/swarmhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const defaultHistoryLimit = 100

type historyEntry struct {
	At            time.Time         `json:"at"`
	Op            string            `json:"op"`
	ActorID       string            `json:"actor_id,omitempty"`
	ActorName     string            `json:"actor_name,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// ServeHistory handles GET /inquiries/{id}/history, newest first. total
// counts every recorded event, not only the returned page.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		uierrors.Write(w, http.StatusNotFound, string(lifecycle.KindNotFound), "inquiry history is not recorded on this server")
		return
	}

	limit := int64(defaultHistoryLimit)
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 1 {
			badRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")
	if _, err := h.Svc.GetInquiry(ctx, id); err != nil {
		h.writeErr(w, r, err)
		return
	}

	events, err := h.History.GetByInquiry(ctx, id, limit)
	if err != nil {
		h.ErrLog.HandleServerError(w, r, err, "could not load inquiry history", zap.String("inquiry_id", id))
		return
	}
	total, err := h.History.CountByInquiry(ctx, id)
	if err != nil {
		h.ErrLog.HandleServerError(w, r, err, "could not count inquiry history", zap.String("inquiry_id", id))
		return
	}

	actorIDs := make([]string, 0, len(events))
	for _, e := range events {
		if e.ActorID != "" {
			actorIDs = append(actorIDs, e.ActorID)
		}
	}
	var names map[string]string
	if h.Names != nil {
		names = h.Names.Names(ctx, actorIDs...)
	}

	out := make([]historyEntry, 0, len(events))
	for _, e := range events {
		out = append(out, historyEntry{
			At:            e.Timestamp,
			Op:            e.EventType,
			ActorID:       e.ActorID,
			ActorName:     names[e.ActorID],
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		})
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"inquiry_id": id, "total": total, "events": out})
}
