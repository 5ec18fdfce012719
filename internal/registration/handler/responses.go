package handler

import (
	"afilia/internal/postal"
	"afilia/internal/profile"
	"afilia/internal/registration/models"
	"afilia/internal/registration/service"
	"afilia/internal/registration/wizard"
)

// SessionView is the wire shape of a wizard session. The search stash and
// other internals stay server-side.
type SessionView struct {
	ID          string              `json:"id"`
	Step        int                 `json:"step"`
	StepName    string              `json:"step_name"`
	StepTitle   string              `json:"step_title"`
	TotalSteps  int                 `json:"total_steps"`
	Form        models.FormState    `json:"form"`
	Conflict    *models.Conflict    `json:"conflict,omitempty"`
	Addresses   []profile.Direccion `json:"addresses,omitempty"`
	FieldErrors map[string]string   `json:"field_errors,omitempty"`
	DocumentID  string              `json:"document_id,omitempty"`
	Signature   string              `json:"signature,omitempty"`
}

func newSessionView(s *models.Session) SessionView {
	return SessionView{
		ID:          s.ID.String(),
		Step:        int(s.Step),
		StepName:    s.Step.String(),
		StepTitle:   s.Step.Title(),
		TotalSteps:  models.TotalSteps,
		Form:        s.Form,
		Conflict:    s.ActiveConflict(),
		Addresses:   s.Addresses,
		FieldErrors: s.FieldErrors,
		DocumentID:  s.DocumentID,
		Signature:   string(s.Signature),
	}
}

// SearchResponse is returned by the search and conflict-resolution endpoints.
type SearchResponse struct {
	Session SessionView       `json:"session"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func searchResponse(r service.SearchResult) SearchResponse {
	return SearchResponse{
		Session: newSessionView(r.Session),
		Message: r.Message,
		Errors:  r.Errors,
	}
}

// FieldsResponse is returned by the field-update endpoint.
type FieldsResponse struct {
	Session SessionView       `json:"session"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func fieldsResponse(r service.FieldResult) FieldsResponse {
	return FieldsResponse{
		Session: newSessionView(r.Session),
		Errors:  r.Errors,
	}
}

// NextResponse is returned by the step-advance endpoint.
type NextResponse struct {
	Session SessionView       `json:"session"`
	Blocked bool              `json:"blocked,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Submit  bool              `json:"submit,omitempty"`
}

func nextResponse(r wizard.NextResult, s *models.Session) NextResponse {
	return NextResponse{
		Session: newSessionView(s),
		Blocked: r.Blocked,
		Message: r.Message,
		Errors:  r.Errors,
		Submit:  r.Submit,
	}
}

// PrevResponse is returned by the step-back endpoint. ConfirmationRequired
// tells the kiosk the only page further back is the search step, reachable
// through a confirmed reset.
type PrevResponse struct {
	Session              SessionView `json:"session"`
	ConfirmationRequired bool        `json:"confirmation_required,omitempty"`
}

func prevResponse(r wizard.PrevResult, s *models.Session) PrevResponse {
	return PrevResponse{
		Session:              newSessionView(s),
		ConfirmationRequired: r.ConfirmationRequired,
	}
}

// PostalResponse is returned by the postal-code endpoint. Message carries the
// literal shown next to the field when the code is unknown.
type PostalResponse struct {
	CP      string `json:"cp"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func postalResponse(cp string, valid bool) PostalResponse {
	resp := PostalResponse{CP: cp, Valid: valid}
	if !valid {
		resp.Message = postal.MsgInvalid
	}
	return resp
}

func sessionResponse(s *models.Session) SessionView {
	return newSessionView(s)
}
