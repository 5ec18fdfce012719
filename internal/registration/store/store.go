// Package store persists wizard sessions. Two implementations: an in-memory
// store for tests and single-node development, and a Redis store for real
// deployments where kiosks may reconnect through any instance.
package store

import (
	"context"

	"github.com/google/uuid"

	"afilia/internal/registration/models"
)

// SessionStore is the persistence contract the registration service depends
// on. Save is last-write-wins; sessions expire server-side after the
// configured TTL.
type SessionStore interface {
	Save(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id uuid.UUID) (*models.Session, error)
	// GetByDocument resolves a session from a signing document id. The
	// e-signature provider only knows the document, not the session.
	GetByDocument(ctx context.Context, documentID string) (*models.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
