package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/swarmhub/internal/app/store/audit"
	"github.com/dalemusser/swarmhub/internal/testutil"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	before := time.Now().Add(-time.Second)
	err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    "user-1",
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
		Details:   map[string]string{"login_id": "ana"},
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Activity(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("Activity failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
	if ev.Timestamp.Before(before) {
		t.Errorf("expected timestamp to be set, got %v", ev.Timestamp)
	}
	if ev.Details["login_id"] != "ana" {
		t.Errorf("details = %v", ev.Details)
	}
}

func TestStore_GetByInquiry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().Add(-time.Hour).UTC()
	for i, op := range []string{"create", "claim", "reassign_volunteer"} {
		if err := store.Log(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Category:  audit.CategoryInquiry,
			EventType: op,
			InquiryID: "inq-1",
			ActorID:   "A",
			Success:   true,
		}); err != nil {
			t.Fatalf("Log %s: %v", op, err)
		}
	}
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryInquiry, EventType: "claim", InquiryID: "inq-2", Success: true})

	events, err := store.GetByInquiry(ctx, "inq-1", 10)
	if err != nil {
		t.Fatalf("GetByInquiry failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].EventType != "reassign_volunteer" || events[2].EventType != "create" {
		t.Errorf("expected newest first, got %s..%s", events[0].EventType, events[2].EventType)
	}
}

func TestStore_Query(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	old := now.Add(-48 * time.Hour)
	seed := []audit.Event{
		{Timestamp: old, Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: "u1", Success: true},
		{Timestamp: now, Category: audit.CategoryAuth, EventType: audit.EventLogout, UserID: "u1", Success: true},
		{Timestamp: now, Category: audit.CategoryInquiry, EventType: "claim", InquiryID: "inq-1", ActorID: "u2", Success: false, FailureReason: "conflict"},
	}
	for _, ev := range seed {
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	since := now.Add(-time.Hour)
	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int
	}{
		{"all", audit.QueryFilter{}, 3},
		{"by category", audit.QueryFilter{Category: audit.CategoryAuth}, 2},
		{"by event type", audit.QueryFilter{EventType: audit.EventLogout}, 1},
		{"by actor", audit.QueryFilter{ActorID: "u2"}, 1},
		{"by participant", audit.QueryFilter{Participant: "u1"}, 2},
		{"by time", audit.QueryFilter{StartTime: &since}, 2},
		{"with limit", audit.QueryFilter{Limit: 1}, 1},
		{"with offset", audit.QueryFilter{Offset: 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("got %d events, want %d", len(events), tt.want)
			}
		})
	}

}

func TestStore_CountByInquiry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 5; i++ {
		_ = store.Log(ctx, audit.Event{Category: audit.CategoryInquiry, EventType: "claim", InquiryID: "inq-1"})
	}
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryInquiry, EventType: "claim", InquiryID: "inq-2"})

	page, err := store.GetByInquiry(ctx, "inq-1", 2)
	if err != nil {
		t.Fatalf("GetByInquiry failed: %v", err)
	}
	n, err := store.CountByInquiry(ctx, "inq-1")
	if err != nil {
		t.Fatalf("CountByInquiry failed: %v", err)
	}
	if len(page) != 2 || n != 5 {
		t.Errorf("page = %d, total = %d; want 2 and 5", len(page), n)
	}
}

// A user's activity covers auth events about them and inquiry operations
// they performed.
func TestStore_Activity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().Add(-time.Hour).UTC()
	seed := []audit.Event{
		{Timestamp: base, Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: "vol-1", Success: true},
		{Timestamp: base.Add(time.Minute), Category: audit.CategoryInquiry, EventType: "change_status", InquiryID: "inq-1", ActorID: "vol-1", Success: true},
		{Timestamp: base.Add(2 * time.Minute), Category: audit.CategoryInquiry, EventType: "claim", InquiryID: "inq-1", ActorID: "coord-1", Success: true},
		{Timestamp: base.Add(3 * time.Minute), Category: audit.CategoryAuth, EventType: audit.EventLogout, UserID: "coord-1", Success: true},
	}
	for _, ev := range seed {
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	events, err := store.Activity(ctx, "vol-1", 10)
	if err != nil {
		t.Fatalf("Activity failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType != "change_status" || events[1].EventType != audit.EventLoginSuccess {
		t.Errorf("got %s, %s; want newest first", events[0].EventType, events[1].EventType)
	}
}
