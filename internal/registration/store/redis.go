package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"afilia/pkg/platform/sentinel"

	"afilia/internal/platform/redis"
	"afilia/internal/registration/models"
)

const (
	sessionKeyPrefix  = "wizard:sess:"
	documentKeyPrefix = "wizard:doc:"
)

// Redis is the shared SessionStore. Sessions are stored as JSON under
// wizard:sess:{id}; wizard:doc:{document_id} holds the session id so the
// signature callback can find its session. Both keys carry the session TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func sessionKey(id uuid.UUID) string  { return sessionKeyPrefix + id.String() }
func documentKey(docID string) string { return documentKeyPrefix + docID }

func (r *Redis) Save(ctx context.Context, s *models.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if s.DocumentID != "" {
		if err := r.client.Set(ctx, documentKey(s.DocumentID), s.ID.String(), r.ttl).Err(); err != nil {
			return fmt.Errorf("index session document: %w", err)
		}
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var s models.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	// A record that decodes but carries an out-of-range step was written by
	// something else or truncated. Refuse to hand it to the wizard.
	if !s.Step.Valid() {
		return nil, fmt.Errorf("session %s step %d: %w", id, s.Step, sentinel.ErrInvalidState)
	}
	return &s, nil
}

func (r *Redis) GetByDocument(ctx context.Context, documentID string) (*models.Session, error) {
	raw, err := r.client.Get(ctx, documentKey(documentID)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve document index: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("corrupt document index %q: %w", documentID, err)
	}
	return r.Get(ctx, id)
}

func (r *Redis) Delete(ctx context.Context, id uuid.UUID) error {
	s, err := r.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	keys := []string{sessionKey(id)}
	if s.DocumentID != "" {
		keys = append(keys, documentKey(s.DocumentID))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
