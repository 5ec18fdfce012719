package signing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"afilia/pkg/platform/circuit"
	"afilia/pkg/platform/sentinel"

	"afilia/internal/platform/metrics"
)

// Pipeline stage names, used as metric labels and in error messages.
const (
	StageContract = "contract"
	StageSign     = "sign"
	StageComplete = "complete"
	StageLog      = "log"
	StageEmail    = "email"
)

// StageError reports which pipeline stage failed. Later stages never run
// after a failed one.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("signing stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Pipeline drives the submission and completion sequences against the
// provider. A circuit breaker guards the provider: while open, submissions
// fail fast instead of queueing behind a dead upstream. After the cooldown
// the breaker lets a trial submission through, so the pipeline recovers on
// its own once the provider is healthy again.
type Pipeline struct {
	provider Provider
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

func NewPipeline(provider Provider, logger *slog.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		provider: provider,
		breaker:  circuit.New("signing"),
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("afilia/signing"),
	}
}

// Submit creates the contract document and opens the signer session.
func (p *Pipeline) Submit(ctx context.Context, contract Contract) (documentID, signerID string, err error) {
	ctx, span := p.tracer.Start(ctx, "signing.submit")
	defer span.End()

	if !p.breaker.Allow() {
		p.countFailure(StageContract)
		return "", "", fmt.Errorf("signing provider circuit open: %w", sentinel.ErrUnavailable)
	}

	documentID, err = p.provider.CreateDocument(ctx, contract)
	if err != nil {
		p.recordFailure(ctx)
		p.countFailure(StageContract)
		return "", "", &StageError{Stage: StageContract, Err: err}
	}

	signerID, err = p.provider.CreateSignerSession(ctx, documentID)
	if err != nil {
		p.recordFailure(ctx)
		p.countFailure(StageSign)
		return "", "", &StageError{Stage: StageSign, Err: err}
	}

	p.recordSuccess(ctx)
	return documentID, signerID, nil
}

// Finish runs the post-signature sequence: completion, log, email, strictly
// in that order. The first failure aborts the rest.
func (p *Pipeline) Finish(ctx context.Context, documentID string, contract Contract, sdkData json.RawMessage) error {
	ctx, span := p.tracer.Start(ctx, "signing.finish")
	defer span.End()

	if err := p.provider.Complete(ctx, documentID, contract); err != nil {
		p.recordFailure(ctx)
		p.countFailure(StageComplete)
		return &StageError{Stage: StageComplete, Err: err}
	}
	if err := p.provider.Log(ctx, documentID, sdkData); err != nil {
		p.recordFailure(ctx)
		p.countFailure(StageLog)
		return &StageError{Stage: StageLog, Err: err}
	}
	if err := p.provider.Email(ctx, documentID); err != nil {
		p.recordFailure(ctx)
		p.countFailure(StageEmail)
		return &StageError{Stage: StageEmail, Err: err}
	}

	p.recordSuccess(ctx)
	return nil
}

func (p *Pipeline) recordFailure(ctx context.Context) {
	if _, change := p.breaker.RecordFailure(); change.Opened {
		p.logger.WarnContext(ctx, "signing provider circuit opened")
	}
}

func (p *Pipeline) recordSuccess(ctx context.Context) {
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.InfoContext(ctx, "signing provider circuit closed")
	}
}

func (p *Pipeline) countFailure(stage string) {
	if p.metrics != nil {
		p.metrics.PipelineStageFailures.WithLabelValues(stage).Inc()
	}
}
