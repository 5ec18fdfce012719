package profile

import (
	"context"
	"time"
)

// MockLookupClient serves deterministic profiles keyed by card folio and
// email, with a configurable latency to mimic real-world calls. Intended for
// local development and handler tests.
type MockLookupClient struct {
	Latency  time.Duration
	ByCard   map[string]Contact
	ByEmail  map[string]Contact
	FailWith error
}

func (m *MockLookupClient) Lookup(ctx context.Context, req LookupRequest) (LookupResponse, error) {
	if m.Latency > 0 {
		select {
		case <-ctx.Done():
			return LookupResponse{}, ctx.Err()
		case <-time.After(m.Latency):
		}
	}
	if m.FailWith != nil {
		return LookupResponse{}, m.FailWith
	}
	if req.Tarjeta != "" {
		if c, ok := m.ByCard[req.Tarjeta]; ok {
			return found(c), nil
		}
	}
	if req.Email != "" {
		if c, ok := m.ByEmail[req.Email]; ok {
			return found(c), nil
		}
	}
	return LookupResponse{Data: LookupData{Results: false}}, nil
}

func found(c Contact) LookupResponse {
	return LookupResponse{Data: LookupData{Results: true, Contacts: []Contact{c}}}
}
