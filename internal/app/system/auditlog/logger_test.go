package auditlog_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/swarmhub/internal/app/lifecycle"
	"github.com/dalemusser/swarmhub/internal/app/store/audit"
	"github.com/dalemusser/swarmhub/internal/app/system/auditlog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memStore struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (m *memStore) Log(_ context.Context, ev audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx := context.Background()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, "u1", "ana")
	logger.Logout(ctx, req, "u1")
	logger.Record(ctx, lifecycle.Event{Op: lifecycle.OpClaim})
}

func TestLogger_Destinations(t *testing.T) {
	tests := []struct {
		setting  string
		wantDB   int
		wantLogs int
	}{
		{auditlog.All, 1, 1},
		{auditlog.DB, 1, 0},
		{auditlog.Log, 0, 1},
		{auditlog.Off, 0, 0},
		{"", 1, 1},
	}
	for _, tt := range tests {
		t.Run("setting="+tt.setting, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			store := &memStore{}
			logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: tt.setting, Inquiry: tt.setting})

			logger.Log(context.Background(), audit.Event{
				Category:  audit.CategoryAuth,
				EventType: audit.EventLoginSuccess,
				UserID:    "u1",
				Success:   true,
			})

			if len(store.events) != tt.wantDB {
				t.Errorf("db events = %d, want %d", len(store.events), tt.wantDB)
			}
			if logs.Len() != tt.wantLogs {
				t.Errorf("zap entries = %d, want %d", logs.Len(), tt.wantLogs)
			}
		})
	}
}

func TestLogger_PerCategoryConfig(t *testing.T) {
	store := &memStore{}
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.Off, Inquiry: auditlog.DB})
	ctx := context.Background()

	logger.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLogout, Success: true})
	logger.Log(ctx, audit.Event{Category: audit.CategoryInquiry, EventType: "claim", Success: true})

	if len(store.events) != 1 || store.events[0].Category != audit.CategoryInquiry {
		t.Errorf("events = %+v", store.events)
	}
}

func TestLogger_StoreFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	logger := auditlog.New(&memStore{err: errors.New("down")}, zap.New(core), auditlog.Config{Auth: auditlog.DB})

	logger.Log(context.Background(), audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLogout, Success: true})

	if logs.FilterMessage("failed to store audit event").Len() != 1 {
		t.Errorf("expected store failure to be logged, got %v", logs.All())
	}
}

func TestLogger_NilStoreSkipsDB(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: auditlog.All})

	logger.Logout(context.Background(), httptest.NewRequest("POST", "/logout", nil), "u1")

	if logs.Len() != 1 {
		t.Errorf("zap entries = %d, want 1", logs.Len())
	}
}

func TestLogger_RecordLifecycleEvent(t *testing.T) {
	store := &memStore{}
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Inquiry: auditlog.DB})
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	logger.Record(context.Background(), lifecycle.Event{
		Op:        lifecycle.OpClaim,
		InquiryID: "inq-1",
		ActorID:   "B",
		Outcome:   string(lifecycle.KindConflict),
		Message:   "claim: conflict",
		At:        at,
	})
	logger.Record(context.Background(), lifecycle.Event{
		Op:        lifecycle.OpReassignVolunteer,
		InquiryID: "inq-1",
		ActorID:   "A",
		Outcome:   lifecycle.OutcomeSuccess,
		Details:   map[string]string{"volunteer_id": "vol-1"},
		At:        at,
	})

	if len(store.events) != 2 {
		t.Fatalf("events = %d, want 2", len(store.events))
	}
	failed, ok := store.events[0], store.events[1]
	if failed.Success || failed.Category != audit.CategoryInquiry || failed.EventType != "claim" ||
		failed.FailureReason != "conflict: claim: conflict" || !failed.Timestamp.Equal(at) {
		t.Errorf("failed event = %+v", failed)
	}
	if !ok.Success || ok.Details["volunteer_id"] != "vol-1" || ok.ActorID != "A" {
		t.Errorf("success event = %+v", ok)
	}
}

func TestLogger_AuthEventsCarryRequestContext(t *testing.T) {
	store := &memStore{}
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DB})
	req := httptest.NewRequest("POST", "/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	req.Header.Set("User-Agent", "hive/1.0")

	logger.LoginFailedWrongPassword(context.Background(), req, "u1", "ana")

	ev := store.events[0]
	if ev.IP != "203.0.113.9" || ev.UserAgent != "hive/1.0" || ev.Success || ev.FailureReason != "wrong password" {
		t.Errorf("event = %+v", ev)
	}
}
