// Package linkstore maintains the legacy user-to-inquiry join records.
//
// Links are derived from Inquiry.AssignedVolunteers. They are rewritten after
// the inquiry itself has been persisted and are never read when deciding an
// operation.
package linkstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/swarmhub/internal/app/system/txn"
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type Store struct {
	client *mongo.Client
	c      *mongo.Collection
	log    *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{client: db.Client(), c: db.Collection("links"), log: logger}
}

// Sync makes the links for inquiryID match volunteerID: every other link of
// the inquiry is removed, and a link for volunteerID is written unless it is
// empty.
func (s *Store) Sync(ctx context.Context, inquiryID, volunteerID string) error {
	return txn.Run(ctx, s.client, s.log, func(ctx context.Context) error {
		del := bson.M{"inquiry_id": inquiryID}
		if volunteerID != "" {
			del["user_id"] = bson.M{"$ne": volunteerID}
		}
		if _, err := s.c.DeleteMany(ctx, del); err != nil {
			return fmt.Errorf("delete stale links: %w", err)
		}
		if volunteerID == "" {
			return nil
		}
		_, err := s.c.UpdateOne(ctx,
			bson.M{"_id": models.LinkID(volunteerID, inquiryID)},
			bson.M{"$setOnInsert": bson.M{
				"user_id":    volunteerID,
				"inquiry_id": inquiryID,
				"created_at": time.Now().UTC(),
			}},
			options.Update().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("upsert link: %w", err)
		}
		return nil
	})
}

// ListByUser returns the links of userID.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.Link, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := make([]models.Link, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByInquiry returns the links of inquiryID.
func (s *Store) ListByInquiry(ctx context.Context, inquiryID string) ([]models.Link, error) {
	cur, err := s.c.Find(ctx, bson.M{"inquiry_id": inquiryID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := make([]models.Link, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IndexModels returns the desired indexes for the links collection.
func IndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_link_user")},
		{Keys: bson.D{{Key: "inquiry_id", Value: 1}}, Options: options.Index().SetName("idx_link_inquiry")},
	}
}

// MemStore keeps links in process memory.
type MemStore struct {
	mu    sync.Mutex
	links map[string]models.Link
}

func NewMemStore() *MemStore {
	return &MemStore{links: make(map[string]models.Link)}
}

func (m *MemStore) Sync(_ context.Context, inquiryID, volunteerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.links {
		if l.InquiryID == inquiryID && l.UserID != volunteerID {
			delete(m.links, id)
		}
	}
	if volunteerID == "" {
		return nil
	}
	id := models.LinkID(volunteerID, inquiryID)
	if _, ok := m.links[id]; !ok {
		m.links[id] = models.Link{ID: id, UserID: volunteerID, InquiryID: inquiryID, CreatedAt: time.Now().UTC()}
	}
	return nil
}

func (m *MemStore) ListByUser(_ context.Context, userID string) ([]models.Link, error) {
	return m.list(func(l models.Link) bool { return l.UserID == userID }), nil
}

func (m *MemStore) ListByInquiry(_ context.Context, inquiryID string) ([]models.Link, error) {
	return m.list(func(l models.Link) bool { return l.InquiryID == inquiryID }), nil
}

func (m *MemStore) list(keep func(models.Link) bool) []models.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Link, 0)
	for _, l := range m.links {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
