// internal/app/store/inquiries/memstore.go
package inquirystore

import (
	"context"
	"sort"
	"sync"

	"github.com/dalemusser/swarmhub/internal/domain/models"
)

// MemStore is an in-process implementation of the inquiry store with the
// same conditional-write contract as Store. It backs the "memory" record
// store mode and the service tests.
type MemStore struct {
	mu   sync.RWMutex
	docs map[string]models.Inquiry
}

func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string]models.Inquiry)}
}

func (m *MemStore) Insert(_ context.Context, q models.Inquiry) (models.Inquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[q.ID]; ok {
		return models.Inquiry{}, ErrDuplicateID
	}
	prepare(&q)
	q.Version = 1
	m.docs[q.ID] = q.Clone()
	return q, nil
}

func (m *MemStore) Get(_ context.Context, id string) (models.Inquiry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.docs[id]
	if !ok {
		return models.Inquiry{}, ErrNotFound
	}
	return q.Clone(), nil
}

func (m *MemStore) Replace(_ context.Context, q models.Inquiry) (models.Inquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.docs[q.ID]
	if !ok || cur.Version != q.Version {
		return models.Inquiry{}, ErrVersionConflict
	}
	prepare(&q)
	q.Version = cur.Version + 1
	m.docs[q.ID] = q.Clone()
	return q, nil
}

func (m *MemStore) Find(_ context.Context, f Filter) ([]models.Inquiry, error) {
	m.mu.RLock()
	out := make([]models.Inquiry, 0)
	for _, q := range m.docs {
		if f.Matches(q) {
			out = append(out, q.Clone())
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Put stores q verbatim, bypassing versioning. Tests use it to seed legacy
// documents.
func (m *MemStore) Put(q models.Inquiry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[q.ID] = q.Clone()
}
