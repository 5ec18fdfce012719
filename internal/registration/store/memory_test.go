package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"afilia/pkg/platform/sentinel"

	"afilia/internal/registration/models"
)

func TestMemorySaveAndGet(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()
	s := models.NewSession(time.Now())
	s.Form.Tarjeta = "6270000000001"

	require.NoError(t, m.Save(ctx, s))

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "6270000000001", got.Form.Tarjeta)

	// The store hands out copies; mutating one must not leak into the other.
	got.Form.Tarjeta = "mutated"
	again, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "6270000000001", again.Form.Tarjeta)
}

func TestMemoryGetUnknown(t *testing.T) {
	m := NewMemory(time.Minute)
	_, err := m.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()
	s := models.NewSession(time.Now())
	require.NoError(t, m.Save(ctx, s))

	now := time.Now()
	m.now = func() time.Time { return now.Add(2 * time.Minute) }

	_, err := m.Get(ctx, s.ID)
	assert.ErrorIs(t, err, sentinel.ErrExpired)
}

func TestMemoryDocumentIndex(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()
	s := models.NewSession(time.Now())
	s.DocumentID = "doc-42"
	require.NoError(t, m.Save(ctx, s))

	got, err := m.GetByDocument(ctx, "doc-42")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	_, err = m.GetByDocument(ctx, "doc-unknown")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()
	s := models.NewSession(time.Now())
	s.DocumentID = "doc-9"
	require.NoError(t, m.Save(ctx, s))
	require.NoError(t, m.Delete(ctx, s.ID))

	_, err := m.Get(ctx, s.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	_, err = m.GetByDocument(ctx, "doc-9")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	assert.NoError(t, m.Delete(ctx, s.ID), "deleting twice is fine")
}
