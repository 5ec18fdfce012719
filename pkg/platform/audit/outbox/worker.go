// Package outbox moves audit events from the postgres outbox to Kafka.
// Delivery is at-least-once: entries are marked published only after the
// broker acknowledges the whole batch, so consumers must tolerate replays.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"afilia/pkg/platform/audit/store/postgres"
)

const (
	defaultBatchSize    = 100
	defaultPollInterval = 2 * time.Second
)

// Worker polls the outbox and publishes pending entries. Records are keyed by
// aggregate id so one session's events stay ordered within a partition.
type Worker struct {
	store        *postgres.Store
	client       *kgo.Client
	topic        string
	logger       *slog.Logger
	batchSize    int
	pollInterval time.Duration
}

func NewWorker(store *postgres.Store, client *kgo.Client, topic string, logger *slog.Logger) *Worker {
	return &Worker{
		store:        store,
		client:       client,
		topic:        topic,
		logger:       logger,
		batchSize:    defaultBatchSize,
		pollInterval: defaultPollInterval,
	}
}

// EnsureTopic creates the audit topic when it does not exist.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, 3, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, result := range resp {
		if result.Err != nil && !errors.Is(result.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", topic, result.Err)
		}
	}
	return nil
}

// Run polls until the context ends.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Flush(ctx); err != nil {
				w.logger.WarnContext(ctx, "outbox flush failed", "error", err.Error())
			}
		}
	}
}

// Flush publishes one batch of pending entries.
func (w *Worker) Flush(ctx context.Context) error {
	entries, err := w.store.Unpublished(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	records := make([]*kgo.Record, len(entries))
	for i, e := range entries {
		records[i] = &kgo.Record{
			Topic: w.topic,
			Key:   []byte(e.Key),
			Value: e.Payload,
		}
	}

	if err := w.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce audit batch: %w", err)
	}

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := w.store.MarkPublished(ctx, ids); err != nil {
		return err
	}

	w.logger.DebugContext(ctx, "outbox batch published", "count", len(entries))
	return nil
}
