package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/collabwrite/collabwrite/internal/document"
)

// MemoryRepo is an in-memory repository used for unit tests and for running
// the service without a MongoDB instance.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document)}
}

func clone(d *document.Document) *document.Document {
	cp := *d
	cp.Content = append(json.RawMessage(nil), d.Content...)
	cp.SharedWith = append([]document.ShareGrant(nil), d.SharedWith...)
	return &cp
}

func (m *MemoryRepo) Create(ctx context.Context, doc *document.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	m.store[doc.ID] = clone(doc)
	return doc.ID, nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		return clone(d), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) GetByShareToken(ctx context.Context, token string) (*document.Document, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.store {
		if d.ShareToken == token {
			return clone(d), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) ListForUser(ctx context.Context, userID string) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*document.Document{}
	for _, d := range m.store {
		if document.CanView(d, userID) {
			out = append(out, clone(d))
		}
	}
	return out, nil
}

func (m *MemoryRepo) SetContent(ctx context.Context, id string, content json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	d.Content = append(json.RawMessage(nil), content...)
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepo) SetTitle(ctx context.Context, id string, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	d.Title = title
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepo) Share(ctx context.Context, id string, userID string, role document.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	for i, g := range d.SharedWith {
		if g.UserID == userID {
			d.SharedWith[i].Role = role
			d.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	d.SharedWith = append(d.SharedWith, document.ShareGrant{UserID: userID, Role: role})
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepo) SetShareToken(ctx context.Context, id string, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	d.ShareToken = token
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}
