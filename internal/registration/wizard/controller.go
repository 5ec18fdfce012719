// Package wizard is the step state machine. It owns navigation rules only:
// which step follows which, what blocks an advance, and what a reset means.
// Lookups, persistence, and the submission pipeline live in the service layer.
package wizard

import (
	"time"

	dErrors "afilia/pkg/domain-errors"

	"afilia/internal/registration/models"
	"afilia/internal/registration/validate"
)

// MsgFixErrors is the banner shown when an advance is blocked by validation.
const MsgFixErrors = "Por favor, corrige los errores antes de continuar"

// NextResult reports what an advance attempt did.
type NextResult struct {
	// Blocked is true when validation stopped the advance. Errors carries the
	// per-field messages and Message the banner text.
	Blocked bool                 `json:"blocked,omitempty"`
	Message string               `json:"message,omitempty"`
	Errors  validate.FieldErrors `json:"errors,omitempty"`

	// Submit is true when the advance came from the confirmation step: there
	// is no next page, the caller must run the submission pipeline.
	Submit bool `json:"submit,omitempty"`

	Step models.Step `json:"step"`
}

// PrevResult reports what a back attempt did.
type PrevResult struct {
	// ConfirmationRequired is set when the session already sits at the
	// user-data step: the only page further back is the search step, and
	// returning there discards everything, so the kiosk must ask for a
	// confirmed Reset instead of silently going back.
	ConfirmationRequired bool `json:"confirmation_required,omitempty"`

	Step models.Step `json:"step"`
}

// Controller applies navigation rules to a session.
type Controller struct {
	now func() time.Time
}

func NewController() *Controller {
	return &Controller{now: time.Now}
}

// Next validates the current step and advances one. skipValidation is for the
// reconciliation path, where the search step is left by a profile match rather
// than by user input. Async field errors (postal validation) block the same
// way schema errors do.
func (c *Controller) Next(s *models.Session, skipValidation bool) (NextResult, error) {
	if s.ActiveConflict() != nil {
		return NextResult{}, dErrors.New(dErrors.CodeInvariantViolation, "resolve the pending conflict before continuing")
	}

	if !skipValidation {
		errs := validate.For(s.Step).Validate(&s.Form)
		for field, msg := range s.FieldErrors {
			errs[field] = msg
		}
		if len(errs) > 0 {
			return NextResult{Blocked: true, Message: MsgFixErrors, Errors: errs, Step: s.Step}, nil
		}
	}

	if s.Step == models.StepConfirmation {
		return NextResult{Submit: true, Step: s.Step}, nil
	}

	// Leaving the search step by hand means no profile matched: the form
	// starts clean except for the values the visitor already typed.
	if s.Step == models.StepSearch && !skipValidation {
		card, email := s.Form.Tarjeta, s.Form.Email
		s.Form.Reset()
		s.Form.Tarjeta = card
		s.Form.Email = email
	}

	s.Step++
	s.UpdatedAt = c.now()
	return NextResult{Step: s.Step}, nil
}

// Prev moves one step back. The floor is the user-data step: instead of
// failing, hitting the floor reports that a confirmed Reset is the way back
// to the search step.
func (c *Controller) Prev(s *models.Session) PrevResult {
	if s.Step <= models.StepUserData {
		return PrevResult{ConfirmationRequired: true, Step: s.Step}
	}
	s.Step--
	s.UpdatedAt = c.now()
	return PrevResult{Step: s.Step}
}

// Reset wipes the session back to an empty search step. confirm guards
// against accidental data loss; without it the call is rejected.
func (c *Controller) Reset(s *models.Session, confirm bool) error {
	if !confirm {
		return dErrors.New(dErrors.CodeInvariantViolation, "reset discards all entered data and must be confirmed")
	}
	s.Form.Reset()
	s.Step = models.StepSearch
	s.Conflicts = nil
	s.Addresses = nil
	s.FieldErrors = nil
	s.SearchEmail = ""
	s.SearchCard = ""
	s.DocumentID = ""
	s.SignerID = ""
	s.Signature = models.SignatureNone
	s.UpdatedAt = c.now()
	return nil
}
