// Package signing talks to the e-signature provider. A submission creates a
// contract document, opens a signer session for the kiosk SDK, and after the
// SDK reports back, runs the completion sequence.
package signing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"afilia/pkg/platform/sentinel"

	"afilia/internal/platform/config"
	"afilia/internal/registration/models"
)

// Contract is the document payload. The form goes out flat, with the resolved
// plan duration added; the provider template references the field names
// directly.
type Contract struct {
	models.FormState
}

// Provider is the e-signature provider surface the pipeline depends on.
//
//go:generate mockgen -source=provider.go -destination=mocks/mock_provider.go -package=mocks
type Provider interface {
	// CreateDocument renders the contract and returns the document id.
	CreateDocument(ctx context.Context, contract Contract) (string, error)
	// CreateSignerSession opens a signing session and returns the signer id
	// the kiosk SDK needs.
	CreateSignerSession(ctx context.Context, documentID string) (string, error)
	// Complete marks the document signed, with the final contract attached.
	Complete(ctx context.Context, documentID string, contract Contract) error
	// Log records the raw SDK result against the document.
	Log(ctx context.Context, documentID string, data json.RawMessage) error
	// Email sends the signed contract to the patient.
	Email(ctx context.Context, documentID string) error
}

// HTTPProvider is the production Provider. Every request carries the
// configured environment so the provider routes it to the SANDBOX or LIVE
// template set.
type HTTPProvider struct {
	baseURL     string
	apiKey      string
	environment string
	client      *http.Client
}

func NewHTTPProvider(cfg config.SigningConfig) *HTTPProvider {
	return &HTTPProvider{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		environment: cfg.Environment,
		client:      &http.Client{Timeout: cfg.Timeout},
	}
}

type documentResponse struct {
	ID string `json:"id"`
}

// signResponse mirrors the provider's nested envelope.
type signResponse struct {
	Body struct {
		Data struct {
			Signers []struct {
				ID string `json:"id"`
			} `json:"signers"`
		} `json:"data"`
	} `json:"body"`
}

func (p *HTTPProvider) CreateDocument(ctx context.Context, contract Contract) (string, error) {
	var out documentResponse
	if err := p.post(ctx, "/documents", contract, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("signing provider returned no document id")
	}
	return out.ID, nil
}

func (p *HTTPProvider) CreateSignerSession(ctx context.Context, documentID string) (string, error) {
	var out signResponse
	if err := p.post(ctx, "/documents/"+documentID+"/sign", nil, &out); err != nil {
		return "", err
	}
	if len(out.Body.Data.Signers) == 0 || out.Body.Data.Signers[0].ID == "" {
		return "", fmt.Errorf("signing provider returned no signer")
	}
	return out.Body.Data.Signers[0].ID, nil
}

func (p *HTTPProvider) Complete(ctx context.Context, documentID string, contract Contract) error {
	return p.post(ctx, "/documents/"+documentID+"/complete", contract, nil)
}

func (p *HTTPProvider) Log(ctx context.Context, documentID string, data json.RawMessage) error {
	return p.post(ctx, "/documents/"+documentID+"/log", data, nil)
}

func (p *HTTPProvider) Email(ctx context.Context, documentID string) error {
	return p.post(ctx, "/documents/"+documentID+"/email", nil, nil)
}

func (p *HTTPProvider) post(ctx context.Context, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", path, err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	if p.environment != "" {
		req.Header.Set("X-Environment", p.environment)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("signing %s: %w", path, sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("signing %s status %d: %w", path, resp.StatusCode, sentinel.ErrUnavailable)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("signing %s unexpected status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
