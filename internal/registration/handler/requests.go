package handler

import (
	"encoding/json"
	"strings"
)

// SearchRequest carries the card number and email typed at the search step.
type SearchRequest struct {
	Tarjeta string `json:"tarjeta"`
	Email   string `json:"email"`
}

// Trimmed returns the inputs with surrounding whitespace removed.
func (r SearchRequest) Trimmed() (string, string) {
	return strings.TrimSpace(r.Tarjeta), strings.TrimSpace(r.Email)
}

// ResolveRequest answers a pending reconciliation conflict.
type ResolveRequest struct {
	UseRegistered bool `json:"use_registered"`
}

// FieldsRequest carries a partial form update. Values are strings except for
// the delivery toggle, which is a boolean.
type FieldsRequest struct {
	Fields map[string]any `json:"fields"`
}

// ResetRequest guards the destructive wizard reset.
type ResetRequest struct {
	Confirm bool `json:"confirm"`
}

// CallbackRequest is the payload posted by the signature widget when the
// signer finishes or abandons the session.
type CallbackRequest struct {
	DocumentID string          `json:"document_id"`
	Success    bool            `json:"success"`
	SDKData    json.RawMessage `json:"sdk_data,omitempty"`
}
