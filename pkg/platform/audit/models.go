// Package audit captures the key actions of a registration run: searches,
// conflict resolutions, resets, submissions, signature results. Events are
// transport-agnostic; stores and sinks fan out from here.
package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic. SessionID correlates the events of one
// wizard run; DocumentID appears once a contract exists.
type Event struct {
	Action     string    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`
	SessionID  string    `json:"session_id,omitempty"`
	DocumentID string    `json:"document_id,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Step       string    `json:"step,omitempty"`
	Outcome    string    `json:"outcome,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	// Device context from the kiosk user agent.
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
}

const (
	EventTokenIssued        = "token_issued"
	EventSearchPerformed    = "search_performed"
	EventConflictResolved   = "conflict_resolved"
	EventWizardReset        = "wizard_reset"
	EventContractSubmitted  = "contract_submitted"
	EventSignatureCompleted = "signature_completed"
	EventSignatureFailed    = "signature_failed"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
