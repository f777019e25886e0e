// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/swarmhub/internal/app/features/errors"
	userstore "github.com/dalemusser/swarmhub/internal/app/store/users"
	"github.com/dalemusser/swarmhub/internal/app/system/auditlog"
	"github.com/dalemusser/swarmhub/internal/app/system/auth"
	"github.com/dalemusser/swarmhub/internal/app/system/authutil"
	"github.com/dalemusser/swarmhub/internal/app/system/ratelimit"
	"github.com/dalemusser/swarmhub/internal/app/system/timeouts"
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"go.uber.org/zap"
)

// Users finds accounts by login id.
type Users interface {
	GetByLoginID(ctx context.Context, loginID string) (models.User, error)
}

type Handler struct {
	Users      Users
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	AuditLog   *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(users Users, sm *auth.SessionManager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		SessionMgr: sm,
		Limiter:    limiter,
		AuditLog:   audit,
		ErrLog:     uierrors.NewErrorLogger(logger),
		Log:        logger,
	}
}

type loginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	UserType string `json:"user_type"`
}

const badCredentials = "invalid login id or password"

// HandleLogin handles POST /login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		uierrors.Write(w, http.StatusBadRequest, "validation", "request body must be a JSON object")
		return
	}
	loginID := strings.TrimSpace(req.LoginID)
	if loginID == "" || req.Password == "" {
		uierrors.Write(w, http.StatusBadRequest, "validation", "login_id and password are required")
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, loginID); !ok {
			h.AuditLog.LoginFailedRateLimit(r.Context(), r, loginID)
			uierrors.Write(w, http.StatusTooManyRequests, "rate_limited", reason)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByLoginID(ctx, loginID)
	if errors.Is(err, userstore.ErrNotFound) {
		authutil.EqualizeTiming(req.Password)
		h.AuditLog.LoginFailedUserNotFound(r.Context(), r, loginID)
		uierrors.Write(w, http.StatusUnauthorized, "unauthorized", badCredentials)
		return
	}
	if err != nil {
		h.ErrLog.HandleServerError(w, r, err, "login is temporarily unavailable", zap.String("login_id", loginID))
		return
	}

	if !authutil.CheckPassword(u.PasswordHash, req.Password) {
		h.AuditLog.LoginFailedWrongPassword(r.Context(), r, u.ID, loginID)
		uierrors.Write(w, http.StatusUnauthorized, "unauthorized", badCredentials)
		return
	}
	// only reveal the disabled state to someone who knows the password
	if u.Status == "disabled" {
		h.AuditLog.LoginFailedUserDisabled(r.Context(), r, u.ID, loginID)
		uierrors.Write(w, http.StatusForbidden, "forbidden", "this account is disabled")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:       u.ID,
		Name:     u.FullName,
		LoginID:  u.LoginID,
		UserType: u.UserType,
	}); err != nil {
		h.ErrLog.HandleServerError(w, r, err, "unable to create session", zap.String("user_id", u.ID))
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetLogin(loginID)
	}
	h.AuditLog.LoginSuccess(r.Context(), r, u.ID, loginID)

	uierrors.WriteJSON(w, http.StatusOK, loginResponse{ID: u.ID, FullName: u.FullName, UserType: u.UserType.String()})
}
