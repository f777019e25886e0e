// internal/app/features/inquiries/handler.go
package inquiries

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/swarmhub/internal/app/features/errors"
	"github.com/dalemusser/swarmhub/internal/app/lifecycle"
	"github.com/dalemusser/swarmhub/internal/app/store/audit"
	"github.com/dalemusser/swarmhub/internal/app/system/auth"
	"github.com/dalemusser/swarmhub/internal/app/system/intake"
	"go.uber.org/zap"
)

// Names resolves user ids to display names.
type Names interface {
	Names(ctx context.Context, ids ...string) map[string]string
}

// History reads the audit trail of one inquiry.
type History interface {
	GetByInquiry(ctx context.Context, inquiryID string, limit int64) ([]audit.Event, error)
	CountByInquiry(ctx context.Context, inquiryID string) (int64, error)
}

// Handler is the dependency container for the inquiries feature.
type Handler struct {
	Svc    *lifecycle.Service
	Intake *intake.Validator
	Names  Names
	// History is nil when audit events are not persisted.
	History History
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

// NewHandler constructs an inquiries Handler. history may be nil.
func NewHandler(svc *lifecycle.Service, iv *intake.Validator, names Names, history History, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Svc:     svc,
		Intake:  iv,
		Names:   names,
		History: history,
		ErrLog:  uierrors.NewErrorLogger(logger),
		Log:     logger,
	}
}

// actorFrom maps the session user onto a lifecycle actor. Anonymous
// requests yield the zero Actor.
func actorFrom(r *http.Request) lifecycle.Actor {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return lifecycle.Actor{}
	}
	return lifecycle.Actor{ID: u.ID, Type: u.UserType}
}
