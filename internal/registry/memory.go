package registry

import (
	"context"
	"sync"

	"afilia/pkg/platform/sentinel"
)

// Memory is the in-process fallback used when no Postgres URL is configured.
// Records are lost on restart; development only.
type Memory struct {
	mu    sync.RWMutex
	byDoc map[string]Registration
}

func NewMemory() *Memory {
	return &Memory{byDoc: map[string]Registration{}}
}

// Save is idempotent per document: the first write wins, matching the
// ON CONFLICT DO NOTHING semantics of the Postgres store.
func (m *Memory) Save(_ context.Context, r Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byDoc[r.DocumentID]; !ok {
		m.byDoc[r.DocumentID] = r
	}
	return nil
}

func (m *Memory) GetByDocument(_ context.Context, documentID string) (Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.byDoc[documentID]
	if !ok {
		return Registration{}, sentinel.ErrNotFound
	}
	return r, nil
}
