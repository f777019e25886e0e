// Package namecache resolves user ids to display names through an explicit
// cache. Entries expire after a TTL and are dropped immediately when a user
// renames themselves.
package namecache

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/swarmhub/internal/domain/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// Backend stores id -> name pairs.
type Backend interface {
	Get(ctx context.Context, id string) (string, bool, error)
	Set(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

// Users loads users on a cache miss.
type Users interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

// Resolver looks names up through a Backend.
type Resolver struct {
	backend Backend
	users   Users
	log     *zap.Logger
}

func New(backend Backend, users Users, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{backend: backend, users: users, log: logger}
}

// Name returns the display name of id, or "" when the user is unknown.
// Backend failures fall through to the user directory.
func (r *Resolver) Name(ctx context.Context, id string) string {
	if r == nil || id == "" {
		return ""
	}
	name, ok, err := r.backend.Get(ctx, id)
	if err != nil {
		r.log.Debug("name cache read failed", zap.String("user_id", id), zap.Error(err))
	}
	if ok {
		return name
	}

	u, err := r.users.GetByID(ctx, id)
	if err != nil {
		return ""
	}
	if err := r.backend.Set(ctx, id, u.FullName); err != nil {
		r.log.Debug("name cache write failed", zap.String("user_id", id), zap.Error(err))
	}
	return u.FullName
}

// Names resolves several ids at once. Empty ids are skipped.
func (r *Resolver) Names(ctx context.Context, ids ...string) map[string]string {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, seen := out[id]; seen {
			continue
		}
		out[id] = r.Name(ctx, id)
	}
	return out
}

// Invalidate drops the cached name of id.
func (r *Resolver) Invalidate(ctx context.Context, id string) error {
	if r == nil {
		return nil
	}
	return r.backend.Delete(ctx, id)
}

// Memory is an in-process Backend with LRU eviction and a TTL.
type Memory struct {
	lru *expirable.LRU[string, string]
}

// NewMemory returns a Memory backend holding at most size entries for ttl.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = 1024
	}
	return &Memory{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (m *Memory) Get(_ context.Context, id string) (string, bool, error) {
	name, ok := m.lru.Get(id)
	return name, ok, nil
}

func (m *Memory) Set(_ context.Context, id, name string) error {
	m.lru.Add(id, name)
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.lru.Remove(id)
	return nil
}

// Len reports the number of cached entries.
func (m *Memory) Len() int { return m.lru.Len() }

var errNoBackend = errors.New("namecache: no backend")
