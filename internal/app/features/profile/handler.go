// internal/app/features/profile/handler.go
package profile

import (
	"context"

	uierrors "github.com/dalemusser/swarmhub/internal/app/features/errors"
	"github.com/dalemusser/swarmhub/internal/app/store/audit"
	"github.com/dalemusser/swarmhub/internal/app/system/auditlog"
	"github.com/dalemusser/swarmhub/internal/app/system/auth"
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"go.uber.org/zap"
)

// Users is the slice of the user store profile edits need.
type Users interface {
	GetByID(ctx context.Context, id string) (models.User, error)
	UpdateName(ctx context.Context, id, fullName string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// NameCache is invalidated when a user renames themselves.
type NameCache interface {
	Invalidate(ctx context.Context, id string) error
}

// Activity reads the audit events a user took part in. Nil when events are
// not persisted.
type Activity interface {
	Activity(ctx context.Context, userID string, limit int64) ([]audit.Event, error)
}

// Handler owns all user profile handlers.
type Handler struct {
	Users      Users
	Names      NameCache
	Activity   Activity
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(users Users, names NameCache, activity Activity, sm *auth.SessionManager, al *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		Names:      names,
		Activity:   activity,
		SessionMgr: sm,
		AuditLog:   al,
		ErrLog:     uierrors.NewErrorLogger(logger),
		Log:        logger,
	}
}
