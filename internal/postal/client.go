// Package postal validates Mexican postal codes against the SEPOMEX-backed
// lookup service. Validation is advisory: it runs beside the form, flags the
// single field, and never blocks the rest of the step.
package postal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"afilia/pkg/platform/sentinel"
)

// MsgInvalid is the field error for a postal code the registry rejects.
const MsgInvalid = "Código postal inválido"

// Validator answers whether a five-digit postal code exists.
type Validator interface {
	Check(ctx context.Context, cp string) (bool, error)
}

// HTTPValidator is the production Validator. A 200 means the code exists, a
// 404 means it does not; anything else is a transport error and the caller
// treats the code as unverified rather than invalid.
type HTTPValidator struct {
	baseURL string
	client  *http.Client
}

func NewHTTPValidator(baseURL string, timeout time.Duration) *HTTPValidator {
	return &HTTPValidator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (v *HTTPValidator) Check(ctx context.Context, cp string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/postal-codes/"+cp, nil)
	if err != nil {
		return false, fmt.Errorf("build postal request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("postal lookup: %w", sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("postal lookup status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
}

// Static is a fixture Validator for tests and offline development.
type Static struct {
	Known map[string]bool
	Err   error
}

func (s *Static) Check(_ context.Context, cp string) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	return s.Known[cp], nil
}
