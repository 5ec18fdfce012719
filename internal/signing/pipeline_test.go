package signing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"afilia/pkg/platform/circuit"
	"afilia/pkg/platform/sentinel"

	"afilia/internal/registration/models"
)

// fakeProvider records the call order and fails on demand.
type fakeProvider struct {
	calls    []string
	failOn   string
	document string
	signer   string
}

func (f *fakeProvider) CreateDocument(_ context.Context, _ Contract) (string, error) {
	f.calls = append(f.calls, StageContract)
	if f.failOn == StageContract {
		return "", errors.New("contract boom")
	}
	return f.document, nil
}

func (f *fakeProvider) CreateSignerSession(_ context.Context, _ string) (string, error) {
	f.calls = append(f.calls, StageSign)
	if f.failOn == StageSign {
		return "", errors.New("sign boom")
	}
	return f.signer, nil
}

func (f *fakeProvider) Complete(_ context.Context, _ string, _ Contract) error {
	f.calls = append(f.calls, StageComplete)
	if f.failOn == StageComplete {
		return errors.New("complete boom")
	}
	return nil
}

func (f *fakeProvider) Log(_ context.Context, _ string, _ json.RawMessage) error {
	f.calls = append(f.calls, StageLog)
	if f.failOn == StageLog {
		return errors.New("log boom")
	}
	return nil
}

func (f *fakeProvider) Email(_ context.Context, _ string) error {
	f.calls = append(f.calls, StageEmail)
	if f.failOn == StageEmail {
		return errors.New("email boom")
	}
	return nil
}

func newTestPipeline(provider Provider) *Pipeline {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPipeline(provider, logger, nil)
}

func testContract() Contract {
	var form models.FormState
	form.FirstName = "MARIA"
	form.ProductDuration = "6"
	return Contract{FormState: form}
}

func TestSubmitSequence(t *testing.T) {
	provider := &fakeProvider{document: "doc-1", signer: "signer-1"}
	p := newTestPipeline(provider)

	docID, signerID, err := p.Submit(context.Background(), testContract())

	require.NoError(t, err)
	assert.Equal(t, "doc-1", docID)
	assert.Equal(t, "signer-1", signerID)
	assert.Equal(t, []string{StageContract, StageSign}, provider.calls)
}

func TestSubmitContractFailureSkipsSign(t *testing.T) {
	provider := &fakeProvider{failOn: StageContract}
	p := newTestPipeline(provider)

	_, _, err := p.Submit(context.Background(), testContract())

	require.Error(t, err)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageContract, stageErr.Stage)
	assert.Equal(t, []string{StageContract}, provider.calls)
}

func TestSubmitSignFailure(t *testing.T) {
	provider := &fakeProvider{document: "doc-1", failOn: StageSign}
	p := newTestPipeline(provider)

	_, _, err := p.Submit(context.Background(), testContract())

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageSign, stageErr.Stage)
}

func TestFinishRunsStagesInOrder(t *testing.T) {
	provider := &fakeProvider{}
	p := newTestPipeline(provider)

	err := p.Finish(context.Background(), "doc-1", testContract(), json.RawMessage(`{"status":"signed"}`))

	require.NoError(t, err)
	assert.Equal(t, []string{StageComplete, StageLog, StageEmail}, provider.calls)
}

func TestFinishAbortsAfterFailedStage(t *testing.T) {
	tests := []struct {
		failOn string
		want   []string
	}{
		{StageComplete, []string{StageComplete}},
		{StageLog, []string{StageComplete, StageLog}},
		{StageEmail, []string{StageComplete, StageLog, StageEmail}},
	}
	for _, tc := range tests {
		t.Run(tc.failOn, func(t *testing.T) {
			provider := &fakeProvider{failOn: tc.failOn}
			p := newTestPipeline(provider)

			err := p.Finish(context.Background(), "doc-1", testContract(), nil)

			var stageErr *StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, tc.failOn, stageErr.Stage)
			assert.Equal(t, tc.want, provider.calls)
		})
	}
}

func TestCircuitOpensAndFailsFast(t *testing.T) {
	provider := &fakeProvider{failOn: StageContract}
	p := newTestPipeline(provider)

	for range 5 {
		_, _, err := p.Submit(context.Background(), testContract())
		require.Error(t, err)
	}
	require.True(t, p.breaker.IsOpen())

	before := len(provider.calls)
	_, _, err := p.Submit(context.Background(), testContract())

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Equal(t, before, len(provider.calls), "open circuit does not reach the provider")
}

func TestCircuitRecoversAfterCooldown(t *testing.T) {
	provider := &fakeProvider{failOn: StageContract, document: "doc-1", signer: "signer-1"}
	p := newTestPipeline(provider)

	now := time.Now()
	p.breaker = circuit.New("signing",
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }))

	for range 5 {
		_, _, _ = p.Submit(context.Background(), testContract())
	}
	require.True(t, p.breaker.IsOpen())

	// Still within the cooldown: submissions fail fast without touching
	// the provider.
	before := len(provider.calls)
	_, _, err := p.Submit(context.Background(), testContract())
	require.ErrorIs(t, err, sentinel.ErrUnavailable)
	require.Equal(t, before, len(provider.calls))

	now = now.Add(2 * time.Minute)
	provider.failOn = ""

	docID, signerID, err := p.Submit(context.Background(), testContract())
	require.NoError(t, err)
	assert.Equal(t, "doc-1", docID)
	assert.Equal(t, "signer-1", signerID)
	assert.False(t, p.breaker.IsOpen())
}

func TestCircuitReopensWhenTrialFails(t *testing.T) {
	provider := &fakeProvider{failOn: StageContract}
	p := newTestPipeline(provider)

	now := time.Now()
	p.breaker = circuit.New("signing",
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }))

	for range 5 {
		_, _, _ = p.Submit(context.Background(), testContract())
	}
	require.True(t, p.breaker.IsOpen())

	now = now.Add(2 * time.Minute)

	// The trial submission reaches the provider, fails, and reopens the
	// circuit for another cooldown.
	before := len(provider.calls)
	_, _, err := p.Submit(context.Background(), testContract())
	require.Error(t, err)
	require.Greater(t, len(provider.calls), before)
	assert.True(t, p.breaker.IsOpen())

	before = len(provider.calls)
	_, _, err = p.Submit(context.Background(), testContract())
	require.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Equal(t, before, len(provider.calls))
}
