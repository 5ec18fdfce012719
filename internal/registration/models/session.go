package models

import (
	"time"

	"github.com/google/uuid"

	"afilia/internal/profile"
)

// ConflictKind distinguishes the two reconciliation conflicts.
type ConflictKind string

const (
	ConflictEmail ConflictKind = "email"
	ConflictCard  ConflictKind = "card"
)

// Conflict is a pending discrepancy between what the user typed and what the
// registry holds. The wizard does not advance until the user resolves it.
type Conflict struct {
	Kind       ConflictKind `json:"kind"`
	Registered string       `json:"registered"`
}

// SignatureState tracks the e-signature handoff.
type SignatureState string

const (
	SignatureNone      SignatureState = ""
	SignaturePending   SignatureState = "pending"
	SignatureCompleted SignatureState = "completed"
	SignatureFailed    SignatureState = "failed"
)

// Session is one visitor's wizard run. It is the single owner of the form
// state; steps never hold their own copies. Mutation goes through the wizard
// controller.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Step      Step      `json:"step"`
	Form      FormState `json:"form"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// SearchEmail and SearchCard are the inputs the visitor typed on the
	// search step. A rejected conflict clears the prefilled form and restores
	// exactly these.
	SearchEmail string `json:"search_email,omitempty"`
	SearchCard  string `json:"search_card,omitempty"`

	// Conflicts is the pending conflict queue; index 0 is active. Email
	// conflicts queue ahead of card conflicts.
	Conflicts []Conflict `json:"conflicts,omitempty"`

	// Addresses are the registry's address records, kept so the user can pick
	// among registered addresses on the address step.
	Addresses []profile.Direccion `json:"addresses,omitempty"`

	// FieldErrors holds asynchronous field-level errors (postal validation).
	FieldErrors map[string]string `json:"field_errors,omitempty"`

	DocumentID string         `json:"document_id,omitempty"`
	SignerID   string         `json:"signer_id,omitempty"`
	Signature  SignatureState `json:"signature,omitempty"`
}

// NewSession creates an empty session at the search step.
func NewSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		Step:      StepSearch,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ActiveConflict returns the conflict awaiting resolution, or nil.
func (s *Session) ActiveConflict() *Conflict {
	if len(s.Conflicts) == 0 {
		return nil
	}
	return &s.Conflicts[0]
}

// PopConflict removes the active conflict.
func (s *Session) PopConflict() {
	if len(s.Conflicts) > 0 {
		s.Conflicts = s.Conflicts[1:]
	}
}

// SetFieldError records or clears an async field-level error.
func (s *Session) SetFieldError(field, msg string) {
	if msg == "" {
		delete(s.FieldErrors, field)
		return
	}
	if s.FieldErrors == nil {
		s.FieldErrors = map[string]string{}
	}
	s.FieldErrors[field] = msg
}
