// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	uierrors "github.com/dalemusser/swarmhub/internal/app/features/errors"
	"github.com/dalemusser/swarmhub/internal/app/system/auth"
	"github.com/dalemusser/swarmhub/internal/app/system/authutil"
	"github.com/dalemusser/swarmhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/swarmhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const maxNameLength = 200

type profileResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	LoginID  string `json:"login_id"`
	UserType string `json:"user_type"`
}

// ServeProfile handles GET /profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	uierrors.WriteJSON(w, http.StatusOK, profileResponse{
		ID:       u.ID,
		FullName: u.Name,
		LoginID:  u.LoginID,
		UserType: u.UserType.String(),
	})
}

// HandleRename handles POST /profile/name. The cached display name of the
// user is dropped so dashboards pick up the change on their next read.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req struct {
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		uierrors.Write(w, http.StatusBadRequest, "validation", "request body must be a JSON object")
		return
	}
	name := htmlsanitize.PlainText(req.FullName)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		uierrors.Write(w, http.StatusBadRequest, "validation", "full_name must be 1 to 200 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.UpdateName(ctx, u.ID, name); err != nil {
		h.ErrLog.HandleServerError(w, r, err, "could not update name", zap.String("user_id", u.ID))
		return
	}
	if h.Names != nil {
		if err := h.Names.Invalidate(ctx, u.ID); err != nil {
			h.Log.Warn("name cache invalidate failed", zap.String("user_id", u.ID), zap.Error(err))
		}
	}
	if err := h.SessionMgr.UpdateName(w, r, name); err != nil {
		h.Log.Warn("session name refresh failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	h.AuditLog.NameChanged(r.Context(), r, u.ID, u.Name, name)

	uierrors.WriteJSON(w, http.StatusOK, profileResponse{
		ID:       u.ID,
		FullName: name,
		LoginID:  u.LoginID,
		UserType: u.UserType.String(),
	})
}

// HandleChangePassword handles POST /profile/password.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		uierrors.Write(w, http.StatusBadRequest, "validation", "request body must be a JSON object")
		return
	}
	if err := authutil.ValidatePassword(req.NewPassword); err != nil {
		uierrors.Write(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	stored, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		h.ErrLog.HandleServerError(w, r, err, "could not load account", zap.String("user_id", u.ID))
		return
	}
	if !authutil.CheckPassword(stored.PasswordHash, req.CurrentPassword) {
		uierrors.Write(w, http.StatusForbidden, "forbidden", "current password is incorrect")
		return
	}
	if strings.EqualFold(req.CurrentPassword, req.NewPassword) {
		uierrors.Write(w, http.StatusBadRequest, "validation", "new password must differ from the current one")
		return
	}

	hash, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		h.ErrLog.HandleServerError(w, r, err, "could not update password", zap.String("user_id", u.ID))
		return
	}
	if err := h.Users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		h.ErrLog.HandleServerError(w, r, err, "could not update password", zap.String("user_id", u.ID))
		return
	}
	h.AuditLog.PasswordChanged(r.Context(), r, u.ID)
	w.WriteHeader(http.StatusNoContent)
}
