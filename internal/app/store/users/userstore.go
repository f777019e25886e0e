package userstore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/swarmhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateLoginID is returned when the login id is already taken.
	ErrDuplicateLoginID = errors.New("a user with this login id already exists")

	errBadType   = errors.New("user_type must be 1 (coordinator) or 2 (volunteer)")
	errBadStatus = errors.New(`status must be "active"|"disabled"`)
	errNoName    = errors.New("full_name is required")
	errNoLogin   = errors.New("login_id is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by id.
func (s *Store) GetByID(ctx context.Context, id string) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByLoginID looks up a user by case- and diacritic-insensitive login id.
func (s *Store) GetByLoginID(ctx context.Context, loginID string) (models.User, error) {
	return s.findOne(ctx, bson.M{"login_id_ci": text.Fold(strings.TrimSpace(loginID))})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// Create inserts a new user after normalizing and validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u, err := normalize(u)
	if err != nil {
		return models.User{}, err
	}
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateLoginID
		}
		return models.User{}, err
	}
	return u, nil
}

// UpdateName changes a user's display name.
func (s *Store) UpdateName(ctx context.Context, id, fullName string) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return errNoName
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"full_name":    fullName,
		"full_name_ci": text.Fold(fullName),
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePasswordHash stores a new bcrypt hash for id.
func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureIndexes creates the unique login index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, IndexModels())
	return err
}

// IndexModels returns the desired indexes for the users collection.
func IndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "login_id_ci", Value: 1}},
			Options: options.Index().SetName("uniq_user_login_id_ci").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_type", Value: 1}, {Key: "full_name_ci", Value: 1}},
			Options: options.Index().SetName("idx_user_type_name"),
		},
	}
}

func normalize(u models.User) (models.User, error) {
	u.FullName = strings.TrimSpace(u.FullName)
	u.LoginID = strings.TrimSpace(u.LoginID)
	if u.FullName == "" {
		return u, errNoName
	}
	if u.LoginID == "" {
		return u, errNoLogin
	}
	if !u.UserType.Valid() {
		return u, errBadType
	}
	if u.Status == "" {
		u.Status = "active"
	}
	if u.Status != "active" && u.Status != "disabled" {
		return u, errBadStatus
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.FullNameCI = text.Fold(u.FullName)
	u.LoginIDCI = text.Fold(u.LoginID)
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return u, nil
}

// MemStore keeps users in process memory.
type MemStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemStore() *MemStore {
	return &MemStore{users: make(map[string]models.User)}
}

func (m *MemStore) GetByID(_ context.Context, id string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemStore) GetByLoginID(_ context.Context, loginID string) (models.User, error) {
	key := text.Fold(strings.TrimSpace(loginID))
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.LoginIDCI == key {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (m *MemStore) Create(_ context.Context, u models.User) (models.User, error) {
	u, err := normalize(u)
	if err != nil {
		return models.User{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.LoginIDCI == u.LoginIDCI || existing.ID == u.ID {
			return models.User{}, ErrDuplicateLoginID
		}
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *MemStore) UpdateName(_ context.Context, id, fullName string) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return errNoName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.FullName = fullName
	u.FullNameCI = text.Fold(fullName)
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return nil
}

func (m *MemStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return nil
}
