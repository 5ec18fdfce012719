// Package registry keeps the durable record of completed registrations. A row
// is written once the signature callback succeeds; everything before that
// lives only in the wizard session.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"afilia/pkg/platform/sentinel"
)

// Registration is one completed enrollment.
type Registration struct {
	ID         uuid.UUID `json:"id"`
	DocumentID string    `json:"document_id"`
	IDCX       string    `json:"idCX,omitempty"`
	Email      string    `json:"email"`
	Card       string    `json:"card"`
	ProductID  string    `json:"product_id"`
	PlanID     string    `json:"plan_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Schema is applied at startup and by integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS registrations (
	id          UUID PRIMARY KEY,
	document_id TEXT        NOT NULL UNIQUE,
	id_cx       TEXT        NOT NULL DEFAULT '',
	email       TEXT        NOT NULL,
	card        TEXT        NOT NULL,
	product_id  TEXT        NOT NULL,
	plan_id     TEXT        NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
`

// Store persists registrations in postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure registrations schema: %w", err)
	}
	return nil
}

// Save is idempotent on document id: the signature provider may retry its
// callback and the record must not duplicate.
func (s *Store) Save(ctx context.Context, r Registration) error {
	query := `
		INSERT INTO registrations (id, document_id, id_cx, email, card, product_id, plan_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (document_id) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, query,
		r.ID, r.DocumentID, r.IDCX, r.Email, r.Card, r.ProductID, r.PlanID, r.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// GetByDocument looks a registration up by its contract document id.
func (s *Store) GetByDocument(ctx context.Context, documentID string) (Registration, error) {
	query := `
		SELECT id, document_id, id_cx, email, card, product_id, plan_id, created_at
		FROM registrations
		WHERE document_id = $1
	`
	var r Registration
	err := s.pool.QueryRow(ctx, query, documentID).Scan(
		&r.ID, &r.DocumentID, &r.IDCX, &r.Email, &r.Card, &r.ProductID, &r.PlanID, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Registration{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Registration{}, fmt.Errorf("query registration: %w", err)
	}
	return r, nil
}
