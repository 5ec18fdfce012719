package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"afilia/pkg/platform/sentinel"

	"afilia/internal/registration/models"
)

type memoryEntry struct {
	session   models.Session
	expiresAt time.Time
}

// Memory is an in-process SessionStore with lazy expiry.
type Memory struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	items map[uuid.UUID]memoryEntry
	byDoc map[string]uuid.UUID
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[uuid.UUID]memoryEntry),
		byDoc: make(map[string]uuid.UUID),
	}
}

func (m *Memory) Save(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.ID] = memoryEntry{session: *s, expiresAt: m.now().Add(m.ttl)}
	if s.DocumentID != "" {
		m.byDoc[s.DocumentID] = s.ID
	}
	return nil
}

func (m *Memory) Get(_ context.Context, id uuid.UUID) (*models.Session, error) {
	m.mu.RLock()
	entry, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if m.now().After(entry.expiresAt) {
		return nil, sentinel.ErrExpired
	}
	s := entry.session
	return &s, nil
}

func (m *Memory) GetByDocument(ctx context.Context, documentID string) (*models.Session, error) {
	m.mu.RLock()
	id, ok := m.byDoc[documentID]
	m.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *Memory) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.items[id]; ok && entry.session.DocumentID != "" {
		delete(m.byDoc, entry.session.DocumentID)
	}
	delete(m.items, id)
	return nil
}
