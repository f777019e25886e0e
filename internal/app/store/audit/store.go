// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth    = "auth"
	CategoryInquiry = "inquiry"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedUserDisabled  = "login_failed_user_disabled"
	EventLoginFailedRateLimit     = "login_failed_rate_limit"
	EventLogout                   = "logout"
	EventNameChanged              = "name_changed"
	EventPasswordChanged          = "password_changed"
)

// Inquiry events use the lifecycle operation name as EventType
// (create, claim, release, reassign_volunteer, change_status,
// change_closure_reason, geocode_repair).

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	// Event classification
	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// What and who
	InquiryID string `bson:"inquiry_id,omitempty"`
	UserID    string `bson:"user_id,omitempty"`  // affected user
	ActorID   string `bson:"actor_id,omitempty"` // who performed the action

	// Context
	IP        string `bson:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty"`

	// Outcome
	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	InquiryID string
	UserID    string
	ActorID   string
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64

	// Participant matches events where the user is either subject or actor.
	Participant string
}

func (f QueryFilter) query() bson.M {
	q := bson.M{}
	if f.InquiryID != "" {
		q["inquiry_id"] = f.InquiryID
	}
	if f.UserID != "" {
		q["user_id"] = f.UserID
	}
	if f.ActorID != "" {
		q["actor_id"] = f.ActorID
	}
	if f.Participant != "" {
		q["$or"] = bson.A{
			bson.M{"user_id": f.Participant},
			bson.M{"actor_id": f.Participant},
		}
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		tq := bson.M{}
		if f.StartTime != nil {
			tq["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			tq["$lte"] = *f.EndTime
		}
		q["timestamp"] = tq
	}
	return q
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// IndexModels returns the indexes of the audit_events collection.
func IndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_ts"),
		},
		{
			Keys: bson.D{
				{Key: "inquiry_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_inquiry_ts"),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_user_ts"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_cat_type_ts"),
		},
	}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filter.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := make([]Event, 0)
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetByInquiry retrieves the history of one inquiry.
func (s *Store) GetByInquiry(ctx context.Context, inquiryID string, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{
		Category:  CategoryInquiry,
		InquiryID: inquiryID,
		Limit:     limit,
	})
}

// CountByInquiry returns the size of an inquiry's full history, which may
// exceed what one GetByInquiry page returns.
func (s *Store) CountByInquiry(ctx context.Context, inquiryID string) (int64, error) {
	return s.c.CountDocuments(ctx, QueryFilter{Category: CategoryInquiry, InquiryID: inquiryID}.query())
}

// Activity lists what a user did or had done to them: sign-ins, profile
// edits and every inquiry operation they attempted.
func (s *Store) Activity(ctx context.Context, userID string, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{Participant: userID, Limit: limit})
}
