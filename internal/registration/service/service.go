// Package service orchestrates the registration wizard: searches, conflict
// resolution, field writes with immediate validation, navigation, and the
// contract submission handoff. It owns no rules itself; those live in
// reconcile, validate, wizard, and signing.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	dErrors "afilia/pkg/domain-errors"
	audit "afilia/pkg/platform/audit"
	"afilia/pkg/platform/audit/publisher"
	"afilia/pkg/platform/sentinel"

	"afilia/internal/catalog"
	"afilia/internal/platform/metrics"
	"afilia/internal/platform/middleware"
	"afilia/internal/postal"
	"afilia/internal/profile"
	"afilia/internal/registration/models"
	"afilia/internal/registration/reconcile"
	"afilia/internal/registration/store"
	"afilia/internal/registration/validate"
	"afilia/internal/registration/wizard"
	"afilia/internal/registry"
	"afilia/internal/signing"
)

// User-facing search messages. The wording is load-bearing: kiosk UI tests
// match on these strings.
const (
	MsgProceedManual = "Prosiga a ingresar sus datos."
	MsgPatientFound  = "Paciente encontrado!"
	MsgEmailConflict = "Ya tiene un correo asociado a esta tarjeta. ¿Desea continuar con el correo registrado?"
	MsgCardConflict  = "Ya tiene una tarjeta registrada. ¿Desea continuar con la tarjeta registrada?"
)

// RegistrationSink records completed registrations. Nil-able: deployments
// without postgres simply skip the durable record.
type RegistrationSink interface {
	Save(ctx context.Context, r registry.Registration) error
}

// Service wires the wizard together.
type Service struct {
	sessions store.SessionStore
	engine   *reconcile.Engine
	ctrl     *wizard.Controller
	pipeline *signing.Pipeline
	catalog  catalog.Client
	postal   postal.Validator
	registry RegistrationSink
	audit    *publisher.Publisher

	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	supportContact string
	now            func() time.Time
}

type Config struct {
	Sessions       store.SessionStore
	Engine         *reconcile.Engine
	Pipeline       *signing.Pipeline
	Catalog        catalog.Client
	Postal         postal.Validator
	Registry       RegistrationSink
	Audit          *publisher.Publisher
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	SupportContact string
}

func New(cfg Config) *Service {
	return &Service{
		sessions:       cfg.Sessions,
		engine:         cfg.Engine,
		ctrl:           wizard.NewController(),
		pipeline:       cfg.Pipeline,
		catalog:        cfg.Catalog,
		postal:         cfg.Postal,
		registry:       cfg.Registry,
		audit:          cfg.Audit,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		tracer:         otel.Tracer("afilia/registration"),
		supportContact: cfg.SupportContact,
		now:            time.Now,
	}
}

// Create starts a new wizard session at the search step.
func (s *Service) Create(ctx context.Context) (*models.Session, error) {
	sess := models.NewSession(s.now())
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create session", err)
	}
	s.logger.InfoContext(ctx, "wizard session created", "session_id", sess.ID.String())
	return sess, nil
}

// Get loads a session.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
		return nil, dErrors.New(dErrors.CodeNotFound, "session not found or expired")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load session", err)
	}
	return sess, nil
}

// SearchResult is the outcome of a search as the kiosk sees it.
type SearchResult struct {
	Session *models.Session      `json:"session"`
	Message string               `json:"message,omitempty"`
	Errors  validate.FieldErrors `json:"errors,omitempty"`
}

// Search runs reconciliation for the typed card and email. Only valid at the
// search step.
func (s *Service) Search(ctx context.Context, id uuid.UUID, tarjeta, email string) (SearchResult, error) {
	ctx, span := s.tracer.Start(ctx, "wizard.search")
	defer span.End()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return SearchResult{}, err
	}
	if sess.Step != models.StepSearch {
		return SearchResult{}, dErrors.New(dErrors.CodeInvariantViolation, "search is only available on the first step")
	}

	sess.Form.Tarjeta = tarjeta
	sess.Form.Email = email
	if errs := validate.For(models.StepSearch).Validate(&sess.Form); len(errs) > 0 {
		return SearchResult{Session: sess, Errors: errs}, nil
	}

	// A repeated search supersedes the previous one entirely, including any
	// unresolved conflict left by an earlier match.
	sess.Conflicts = nil
	sess.Addresses = nil
	sess.SearchEmail = ""
	sess.SearchCard = ""

	res := s.engine.Reconcile(ctx, email, tarjeta)
	s.emit(ctx, sess, audit.Event{
		Action:  audit.EventSearchPerformed,
		Outcome: string(res.Kind),
	})

	switch res.Kind {
	case reconcile.OutcomeNotFound, reconcile.OutcomeLookupFailed:
		// Manual entry: clean form, keep what was typed.
		sess.Form.Reset()
		sess.Form.Tarjeta = tarjeta
		sess.Form.Email = email
		if _, err := s.ctrl.Next(sess, true); err != nil {
			return SearchResult{}, err
		}
		s.countStep(models.StepUserData)
		if err := s.save(ctx, sess); err != nil {
			return SearchResult{}, err
		}
		return SearchResult{Session: sess, Message: MsgProceedManual}, nil

	case reconcile.OutcomeFound:
		sess.SearchEmail = email
		sess.SearchCard = tarjeta
		sess.Addresses = registeredAddresses(res)
		sess.Form.Reset()
		reconcile.ApplyPrefill(&sess.Form, res.Contact, tarjeta)

		if res.EmailConflict != "" {
			sess.Conflicts = append(sess.Conflicts, models.Conflict{Kind: models.ConflictEmail, Registered: res.EmailConflict})
		}
		if res.CardConflict != "" {
			sess.Conflicts = append(sess.Conflicts, models.Conflict{Kind: models.ConflictCard, Registered: res.CardConflict})
		}

		if res.SkipStep {
			if _, err := s.ctrl.Next(sess, true); err != nil {
				return SearchResult{}, err
			}
			s.countStep(models.StepUserData)
		}
		if err := s.save(ctx, sess); err != nil {
			return SearchResult{}, err
		}
		return SearchResult{Session: sess, Message: MsgPatientFound}, nil
	}

	return SearchResult{}, dErrors.New(dErrors.CodeInternal, "unknown reconciliation outcome")
}

func registeredAddresses(res reconcile.Result) []profile.Direccion {
	out := make([]profile.Direccion, 0, len(res.Contact.Addresses))
	for _, a := range res.Contact.Addresses {
		out = append(out, a.Direccion)
	}
	return out
}

// ResolveConflict applies the user's choice on the active conflict. Accepting
// copies the registered value into the form and advances once no conflicts
// remain; rejecting clears the prefill and returns to the search inputs with
// the contact-support message.
func (s *Service) ResolveConflict(ctx context.Context, id uuid.UUID, useRegistered bool) (SearchResult, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return SearchResult{}, err
	}
	conflict := sess.ActiveConflict()
	if conflict == nil {
		return SearchResult{}, dErrors.New(dErrors.CodeInvariantViolation, "no conflict to resolve")
	}

	if !useRegistered {
		sess.Conflicts = nil
		sess.Addresses = nil
		sess.Form.Reset()
		sess.Form.Tarjeta = sess.SearchCard
		sess.Form.Email = sess.SearchEmail
		s.countResolution("rejected")
		s.emit(ctx, sess, audit.Event{
			Action:  audit.EventConflictResolved,
			Outcome: "rejected",
			Reason:  string(conflict.Kind),
		})
		if err := s.save(ctx, sess); err != nil {
			return SearchResult{}, err
		}
		return SearchResult{
			Session: sess,
			Message: "Para modificar su información, favor de ponerse en contacto con " + s.supportContact,
		}, nil
	}

	switch conflict.Kind {
	case models.ConflictEmail:
		_ = sess.Form.ForceString(models.FieldEmail, conflict.Registered)
	case models.ConflictCard:
		_ = sess.Form.ForceString(models.FieldCardNew, conflict.Registered)
	}
	sess.PopConflict()
	s.countResolution("accepted")
	s.emit(ctx, sess, audit.Event{
		Action:  audit.EventConflictResolved,
		Outcome: "accepted",
		Reason:  string(conflict.Kind),
	})

	msg := ""
	if next := sess.ActiveConflict(); next != nil {
		// Card conflicts queue behind email conflicts; surface the next one
		// instead of advancing.
		msg = MsgCardConflict
	} else {
		if _, err := s.ctrl.Next(sess, true); err != nil {
			return SearchResult{}, err
		}
		s.countStep(sess.Step)
		msg = MsgPatientFound
	}
	if err := s.save(ctx, sess); err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Session: sess, Message: msg}, nil
}

// FieldResult reports per-field validation after a write. An empty message
// means the field became valid and any prior error is cleared.
type FieldResult struct {
	Session *models.Session   `json:"session"`
	Errors  map[string]string `json:"errors"`
}

// SetFields writes form values with immediate validation. Writes to locked
// identity fields are rejected; postal codes trigger the side lookup when
// they reach five digits.
func (s *Service) SetFields(ctx context.Context, id uuid.UUID, fields map[string]any) (FieldResult, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return FieldResult{}, err
	}

	result := FieldResult{Errors: map[string]string{}}
	schema := validate.For(sess.Step)

	for name, raw := range fields {
		if name == models.FieldDelivery {
			flag, ok := raw.(bool)
			if !ok {
				return FieldResult{}, dErrors.New(dErrors.CodeValidation, "delivery must be a boolean")
			}
			_ = sess.Form.SetBool(models.FieldDelivery, flag)
			continue
		}

		value, ok := raw.(string)
		if !ok {
			return FieldResult{}, dErrors.New(dErrors.CodeValidation, "field "+name+" must be a string")
		}

		err := sess.Form.SetString(name, validate.Normalize(name, value))
		switch {
		case errors.Is(err, models.ErrFieldLocked):
			return FieldResult{}, dErrors.New(dErrors.CodeInvariantViolation, "field "+name+" is locked to the registered profile")
		case errors.Is(err, models.ErrUnknownField):
			return FieldResult{}, dErrors.New(dErrors.CodeBadRequest, "unknown field "+name)
		case err != nil:
			return FieldResult{}, dErrors.Wrap(dErrors.CodeInternal, "write field", err)
		}

		if schema.Has(name) {
			result.Errors[name] = schema.ValidateField(&sess.Form, name)
		}

		if name == models.FieldCP || name == models.FieldCPDelivery {
			s.checkPostal(ctx, sess, name)
			if msg, ok := sess.FieldErrors[name]; ok {
				result.Errors[name] = msg
			}
		}
	}

	sess.UpdatedAt = s.now()
	if err := s.save(ctx, sess); err != nil {
		return FieldResult{}, err
	}
	result.Session = sess
	return result, nil
}

// checkPostal runs the advisory postal lookup once the value has five digits.
// Transport failures leave the field unflagged; only a definitive "unknown
// code" answer sets the error.
func (s *Service) checkPostal(ctx context.Context, sess *models.Session, field string) {
	cp := sess.Form.StringValue(field)
	if len(cp) != 5 {
		sess.SetFieldError(field, "")
		return
	}
	ok, err := s.postal.Check(ctx, cp)
	if err != nil {
		s.logger.WarnContext(ctx, "postal lookup failed", "cp", cp, "error", err.Error())
		sess.SetFieldError(field, "")
		return
	}
	if ok {
		sess.SetFieldError(field, "")
	} else {
		sess.SetFieldError(field, postal.MsgInvalid)
	}
}

// Next advances the wizard one step, running the current step's schema.
func (s *Service) Next(ctx context.Context, id uuid.UUID) (wizard.NextResult, *models.Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return wizard.NextResult{}, nil, err
	}
	res, err := s.ctrl.Next(sess, false)
	if err != nil {
		return wizard.NextResult{}, nil, err
	}
	if !res.Blocked && !res.Submit {
		s.countStep(sess.Step)
	}
	if err := s.save(ctx, sess); err != nil {
		return wizard.NextResult{}, nil, err
	}
	return res, sess, nil
}

// Prev moves one step back. At the user-data floor the result asks for a
// confirmed reset instead of moving.
func (s *Service) Prev(ctx context.Context, id uuid.UUID) (wizard.PrevResult, *models.Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return wizard.PrevResult{}, nil, err
	}
	res := s.ctrl.Prev(sess)
	if !res.ConfirmationRequired {
		s.countStep(sess.Step)
		if err := s.save(ctx, sess); err != nil {
			return wizard.PrevResult{}, nil, err
		}
	}
	return res, sess, nil
}

// Reset wipes the session back to the search step.
func (s *Service) Reset(ctx context.Context, id uuid.UUID, confirm bool) (*models.Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ctrl.Reset(sess, confirm); err != nil {
		return nil, err
	}
	s.emit(ctx, sess, audit.Event{Action: audit.EventWizardReset})
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SubmitResult carries what the kiosk SDK needs to run the signature.
type SubmitResult struct {
	DocumentID string `json:"document_id"`
	SignerID   string `json:"signer_id"`
}

// Submit assembles the contract and runs the submission pipeline. The form is
// left untouched on failure so the user can retry.
func (s *Service) Submit(ctx context.Context, id uuid.UUID) (SubmitResult, error) {
	ctx, span := s.tracer.Start(ctx, "wizard.submit")
	defer span.End()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return SubmitResult{}, err
	}
	if sess.Step != models.StepConfirmation {
		return SubmitResult{}, dErrors.New(dErrors.CodeInvariantViolation, "submission requires the confirmation step")
	}

	contract, err := s.buildContract(ctx, sess)
	if err != nil {
		return SubmitResult{}, err
	}

	docID, signerID, err := s.pipeline.Submit(ctx, contract)
	if err != nil {
		s.countSubmission("failed")
		s.logger.WarnContext(ctx, "contract submission failed",
			"session_id", sess.ID.String(),
			"error", err.Error(),
		)
		return SubmitResult{}, dErrors.Wrap(dErrors.CodeUnavailable, "no se pudo procesar el registro", err)
	}

	sess.DocumentID = docID
	sess.SignerID = signerID
	sess.Signature = models.SignaturePending
	s.countSubmission("submitted")
	s.emit(ctx, sess, audit.Event{
		Action:     audit.EventContractSubmitted,
		DocumentID: docID,
	})
	if err := s.save(ctx, sess); err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{DocumentID: docID, SignerID: signerID}, nil
}

// buildContract produces the outgoing contract: the delivery remap applied to
// a copy of the form, plus the resolved plan duration. The session form
// itself stays as entered.
func (s *Service) buildContract(ctx context.Context, sess *models.Session) (signing.Contract, error) {
	form := sess.Form
	form.RemapDelivery()

	products, err := s.catalog.Products(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "catalog unavailable at submit, omitting plan duration", "error", err.Error())
	} else {
		form.ProductDuration = catalog.PlanDuration(products, form.ProductID, form.PlanID)
	}
	return signing.Contract{FormState: form}, nil
}

// HandleSignatureCallback processes the SDK result for a document. On success
// the completion sequence runs and the durable registration is recorded; on
// any failure the session form is preserved for retry.
func (s *Service) HandleSignatureCallback(ctx context.Context, documentID string, success bool, sdkData json.RawMessage) error {
	ctx, span := s.tracer.Start(ctx, "wizard.signature_callback")
	defer span.End()

	sess, err := s.sessions.GetByDocument(ctx, documentID)
	if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
		return dErrors.New(dErrors.CodeNotFound, "no session for document")
	}
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "load session by document", err)
	}

	if !success {
		sess.Signature = models.SignatureFailed
		s.emit(ctx, sess, audit.Event{
			Action:     audit.EventSignatureFailed,
			DocumentID: documentID,
			Reason:     "sdk_reported_failure",
		})
		return s.save(ctx, sess)
	}

	contract, err := s.buildContract(ctx, sess)
	if err != nil {
		return err
	}

	if err := s.pipeline.Finish(ctx, documentID, contract, sdkData); err != nil {
		sess.Signature = models.SignatureFailed
		s.emit(ctx, sess, audit.Event{
			Action:     audit.EventSignatureFailed,
			DocumentID: documentID,
			Reason:     err.Error(),
		})
		if saveErr := s.save(ctx, sess); saveErr != nil {
			s.logger.WarnContext(ctx, "session save after failed completion", "error", saveErr.Error())
		}
		return dErrors.Wrap(dErrors.CodeUnavailable, "completion sequence failed", err)
	}

	sess.Signature = models.SignatureCompleted
	s.emit(ctx, sess, audit.Event{
		Action:     audit.EventSignatureCompleted,
		DocumentID: documentID,
	})

	if s.registry != nil {
		record := registry.Registration{
			ID:         uuid.New(),
			DocumentID: documentID,
			IDCX:       contract.IDCX,
			Email:      contract.Email,
			Card:       contract.CardNew,
			ProductID:  contract.ProductID,
			PlanID:     contract.PlanID,
			CreatedAt:  s.now().UTC(),
		}
		if err := s.registry.Save(ctx, record); err != nil {
			// The contract is signed; a registry hiccup must not fail the
			// callback.
			s.logger.WarnContext(ctx, "registration record write failed",
				"document_id", documentID,
				"error", err.Error(),
			)
		}
	}

	return s.save(ctx, sess)
}

// Products exposes the cached catalog.
func (s *Service) Products(ctx context.Context) ([]catalog.Product, error) {
	products, err := s.catalog.Products(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "catalog unavailable", err)
	}
	return products, nil
}

// CheckPostal answers the standalone postal endpoint.
func (s *Service) CheckPostal(ctx context.Context, cp string) (bool, error) {
	ok, err := s.postal.Check(ctx, cp)
	if err != nil {
		return false, dErrors.Wrap(dErrors.CodeUnavailable, "postal service unavailable", err)
	}
	return ok, nil
}

func (s *Service) save(ctx context.Context, sess *models.Session) error {
	if err := s.sessions.Save(ctx, sess); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "save session", err)
	}
	return nil
}

func (s *Service) emit(ctx context.Context, sess *models.Session, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.SessionID = sess.ID.String()
	event.Step = sess.Step.String()
	event.RequestID = middleware.GetRequestID(ctx)
	device := middleware.GetDevice(ctx)
	event.Browser = device.Browser
	event.OS = device.OS
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err.Error())
	}
}

func (s *Service) countStep(step models.Step) {
	if s.metrics != nil {
		s.metrics.StepTransitions.WithLabelValues(step.String()).Inc()
	}
}

func (s *Service) countResolution(outcome string) {
	if s.metrics != nil {
		s.metrics.ConflictResolutions.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countSubmission(outcome string) {
	if s.metrics != nil {
		s.metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
	}
}
