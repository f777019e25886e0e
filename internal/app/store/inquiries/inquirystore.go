// internal/app/store/inquiries/inquirystore.go
package inquirystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/swarmhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no inquiry has the requested id.
	ErrNotFound = errors.New("inquiry not found")
	// ErrVersionConflict is returned by Replace when the stored version no
	// longer matches the one the caller read.
	ErrVersionConflict = errors.New("inquiry was modified concurrently")
	// ErrDuplicateID is returned by Insert when the id is already taken.
	ErrDuplicateID = errors.New("inquiry id already exists")
)

const defaultListLimit = 500

// Store persists inquiries in MongoDB.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("inquiries")}
}

// Insert stores a new inquiry at version 1.
func (s *Store) Insert(ctx context.Context, q models.Inquiry) (models.Inquiry, error) {
	prepare(&q)
	q.Version = 1
	if _, err := s.c.InsertOne(ctx, q); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Inquiry{}, ErrDuplicateID
		}
		return models.Inquiry{}, err
	}
	return q, nil
}

// Get loads one inquiry.
func (s *Store) Get(ctx context.Context, id string) (models.Inquiry, error) {
	var q models.Inquiry
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&q); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Inquiry{}, ErrNotFound
		}
		return models.Inquiry{}, err
	}
	return q, nil
}

// Replace writes q over the stored document if and only if the stored
// version still equals q.Version. The returned inquiry carries the new
// version.
func (s *Store) Replace(ctx context.Context, q models.Inquiry) (models.Inquiry, error) {
	read := q.Version
	prepare(&q)
	q.Version = read + 1

	filter := bson.M{"_id": q.ID, "version": read}
	if read == 0 {
		// Documents written before versioning have no field at all.
		filter["version"] = bson.M{"$in": bson.A{0, nil}}
	}

	res, err := s.c.ReplaceOne(ctx, filter, q)
	if err != nil {
		return models.Inquiry{}, err
	}
	if res.MatchedCount == 0 {
		return models.Inquiry{}, ErrVersionConflict
	}
	return q, nil
}

// Find lists inquiries matching f, newest first.
func (s *Store) Find(ctx context.Context, f Filter) ([]models.Inquiry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, fmt.Errorf("find inquiries: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.Inquiry, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode inquiries: %w", err)
	}
	return out, nil
}

// EnsureIndexes creates the indexes listing paths rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, IndexModels())
	return err
}

// IndexModels returns the desired indexes for the inquiries collection.
func IndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coordinator_id", Value: 1}, {Key: "status", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_inquiry_owner_status_ts"),
		},
		{
			Keys:    bson.D{{Key: "assigned_volunteers", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_inquiry_volunteer_ts"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_inquiry_status_ts"),
		},
		{
			Keys:    bson.D{{Key: "city_ci", Value: 1}},
			Options: options.Index().SetName("idx_inquiry_city_ci"),
		},
		{
			Keys: bson.D{{Key: "needs_geocode", Value: 1}},
			Options: options.Index().
				SetName("idx_inquiry_needs_geocode").
				SetPartialFilterExpression(bson.M{"needs_geocode": true}),
		},
	}
}

// prepare fills derived fields before a write.
func prepare(q *models.Inquiry) {
	q.CityCI = text.Fold(q.City)
	q.UpdatedAt = time.Now().UTC()
	if q.CoordinatorID != nil && *q.CoordinatorID == "" {
		q.CoordinatorID = nil
	}
	if q.Status != models.StatusClosed {
		q.ClosureReason = models.ClosureNone
	}
}
