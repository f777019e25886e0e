// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/swarmhub/internal/app/lifecycle"
	"github.com/dalemusser/swarmhub/internal/app/store/audit"
	"github.com/dalemusser/swarmhub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Destinations accepted by each Config field.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// ValidSetting reports whether s is one of the destination values.
func ValidSetting(s string) bool {
	switch s {
	case All, DB, Log, Off:
		return true
	}
	return false
}

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for login, logout and profile events.
	Auth string
	// Inquiry controls logging for inquiry lifecycle operations.
	Inquiry string
}

// EventStore persists audit events. *audit.Store satisfies it.
type EventStore interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger records audit events to MongoDB and to zap according to Config.
// It is also a lifecycle.EventSink.
type Logger struct {
	store  EventStore
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil, in which case "db"
// destinations are dropped.
func New(store EventStore, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.InquiryID != "" {
		fields = append(fields, zap.String("inquiry_id", event.InquiryID))
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryInquiry:
		setting = l.config.Inquiry
	}
	if setting == "" {
		setting = All
	}
	if setting == Off {
		return
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// Record implements lifecycle.EventSink.
func (l *Logger) Record(ctx context.Context, ev lifecycle.Event) {
	if l == nil {
		return
	}
	event := audit.Event{
		Timestamp: ev.At,
		Category:  audit.CategoryInquiry,
		EventType: ev.Op,
		InquiryID: ev.InquiryID,
		ActorID:   ev.ActorID,
		Success:   ev.Succeeded(),
		Details:   ev.Details,
	}
	if !event.Success {
		event.FailureReason = ev.Outcome
		if ev.Message != "" {
			event.FailureReason = ev.Outcome + ": " + ev.Message
		}
	}
	// Audit writes must outlive a request that is being cancelled.
	l.Log(context.WithoutCancel(ctx), event)
}

// --- Authentication Events ---

func authEvent(r *http.Request, eventType string, success bool) audit.Event {
	return audit.Event{
		Category:  audit.CategoryAuth,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID, loginID string) {
	ev := authEvent(r, audit.EventLoginSuccess, true)
	ev.UserID = userID
	ev.Details = map[string]string{"login_id": loginID}
	l.Log(ctx, ev)
}

// LoginFailedUserNotFound logs a failed login due to user not found.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedLoginID string) {
	ev := authEvent(r, audit.EventLoginFailedUserNotFound, false)
	ev.FailureReason = "user not found"
	ev.Details = map[string]string{"attempted_login_id": attemptedLoginID}
	l.Log(ctx, ev)
}

// LoginFailedWrongPassword logs a failed login due to wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID, loginID string) {
	ev := authEvent(r, audit.EventLoginFailedWrongPassword, false)
	ev.UserID = userID
	ev.FailureReason = "wrong password"
	ev.Details = map[string]string{"login_id": loginID}
	l.Log(ctx, ev)
}

// LoginFailedUserDisabled logs a failed login due to disabled account.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID, loginID string) {
	ev := authEvent(r, audit.EventLoginFailedUserDisabled, false)
	ev.UserID = userID
	ev.FailureReason = "user disabled"
	ev.Details = map[string]string{"login_id": loginID}
	l.Log(ctx, ev)
}

// LoginFailedRateLimit logs a login refused by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, loginID string) {
	ev := authEvent(r, audit.EventLoginFailedRateLimit, false)
	ev.FailureReason = "rate limit exceeded"
	ev.Details = map[string]string{"login_id": loginID}
	l.Log(ctx, ev)
}

// Logout logs a user logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID string) {
	ev := authEvent(r, audit.EventLogout, true)
	ev.UserID = userID
	l.Log(ctx, ev)
}

// NameChanged logs a user renaming themselves.
func (l *Logger) NameChanged(ctx context.Context, r *http.Request, userID, oldName, newName string) {
	ev := authEvent(r, audit.EventNameChanged, true)
	ev.UserID = userID
	ev.ActorID = userID
	ev.Details = map[string]string{"old_name": oldName, "new_name": newName}
	l.Log(ctx, ev)
}

// PasswordChanged logs a user changing their own password.
func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID string) {
	ev := authEvent(r, audit.EventPasswordChanged, true)
	ev.UserID = userID
	ev.ActorID = userID
	l.Log(ctx, ev)
}
