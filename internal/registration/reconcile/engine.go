// Package reconcile decides whether a visitor is a new or existing patient.
// It queries the CX registry by card and by email, merges the results into a
// canonical contact, and surfaces email/card discrepancies as explicit
// conflicts instead of silently overriding what the user typed.
package reconcile

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"afilia/internal/platform/metrics"
	"afilia/internal/profile"
	"afilia/internal/registration/models"
	"afilia/internal/registration/validate"
)

// OutcomeKind tags a reconciliation result.
type OutcomeKind string

const (
	// OutcomeFound: a profile matched by card or email.
	OutcomeFound OutcomeKind = "found"
	// OutcomeNotFound: the registry answered and nothing matched.
	OutcomeNotFound OutcomeKind = "not_found"
	// OutcomeLookupFailed: the registry could not answer. Routed the same as
	// not-found for the user, kept distinct for telemetry.
	OutcomeLookupFailed OutcomeKind = "lookup_failed"
)

// Result is the reconciliation verdict. With OutcomeFound, at most one of the
// conflict fields is meant to be surfaced at a time: email first, card only
// once the email conflict is resolved.
type Result struct {
	Kind          OutcomeKind
	Contact       *profile.Contact
	EmailConflict string // first registered email, when the typed one is unknown
	CardConflict  string // registered accepted-program folio, when the typed card is unknown
	SkipStep      bool   // advance past the search step without user action
}

// Engine runs reconciliation against a LookupClient.
type Engine struct {
	lookup   profile.LookupClient
	programs []string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

func New(lookup profile.LookupClient, programs []string, logger *slog.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		lookup:   lookup,
		programs: programs,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("afilia/reconcile"),
	}
}

// Reconcile issues the by-card and by-email lookups concurrently and joins
// both results. The card match wins; the email match is the fallback. Any
// lookup failure fails the join and degrades to OutcomeLookupFailed so the
// wizard can continue with manual entry.
func (e *Engine) Reconcile(ctx context.Context, email, card string) Result {
	ctx, span := e.tracer.Start(ctx, "reconcile")
	defer span.End()

	var byCard, byEmail profile.LookupResponse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byCard, err = e.lookup.Lookup(gctx, profile.LookupRequest{Tarjeta: card})
		return err
	})
	g.Go(func() error {
		var err error
		byEmail, err = e.lookup.Lookup(gctx, profile.LookupRequest{Email: email})
		return err
	})

	if err := g.Wait(); err != nil {
		e.logger.WarnContext(ctx, "profile lookup failed, continuing with manual entry",
			"error", err.Error(),
		)
		e.count(OutcomeLookupFailed)
		return Result{Kind: OutcomeLookupFailed}
	}

	pick := byCard
	if !pick.Data.Results {
		pick = byEmail
	}
	if !pick.Data.Results || len(pick.Data.Contacts) == 0 {
		e.count(OutcomeNotFound)
		return Result{Kind: OutcomeNotFound}
	}

	contact := pick.Data.Contacts[0]
	res := Result{Kind: OutcomeFound, Contact: &contact}

	registered := contact.RegisteredEmails()
	if len(registered) > 0 && !containsString(registered, email) {
		res.EmailConflict = registered[0]
	}

	// Card conflict is only meaningful against cards in accepted loyalty
	// programs. No registered card at all means no conflict.
	accepted := contact.CardsInPrograms(e.programs)
	if len(accepted) > 0 && !containsCard(accepted, card) {
		res.CardConflict = accepted[0].Folio
	}

	res.SkipStep = res.EmailConflict == "" && res.CardConflict == ""
	if res.SkipStep {
		e.count(OutcomeFound)
	} else {
		e.count("conflict")
		if e.metrics != nil {
			if res.EmailConflict != "" {
				e.metrics.ConflictsTotal.WithLabelValues(string(models.ConflictEmail)).Inc()
			} else {
				e.metrics.ConflictsTotal.WithLabelValues(string(models.ConflictCard)).Inc()
			}
		}
	}
	return res
}

func (e *Engine) count(outcome OutcomeKind) {
	if e.metrics != nil {
		e.metrics.SearchesTotal.WithLabelValues(string(outcome)).Inc()
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsCard(cards []profile.CardRec, folio string) bool {
	for _, c := range cards {
		if c.Folio == folio {
			return true
		}
	}
	return false
}

// ApplyPrefill copies the canonical contact into the form: first contact,
// first email, first phone, first address. typedCard becomes the new-card
// field so the user keeps the card they searched with. Values go through the
// schema's case attribute like any other write.
func ApplyPrefill(form *models.FormState, c *profile.Contact, typedCard string) {
	g := c.DatosGenerales

	set := func(field, value string) {
		_ = form.ForceString(field, validate.Normalize(field, value))
	}

	set(models.FieldFirstName, g.Nombre)
	set(models.FieldLastName1, g.ApellidoPaterno)
	set(models.FieldLastName2, g.ApellidoMaterno)
	set(models.FieldType, g.Tipo)
	if g.Sexo == "Masculino" {
		set(models.FieldGender, "M")
	} else {
		set(models.FieldGender, "F")
	}
	set(models.FieldEmail, c.FirstEmail())
	set(models.FieldCardNew, typedCard)

	phone := c.FirstPhone()
	set(models.FieldPhone, phone.NumeroTelefonico)
	set(models.FieldPhoneID, phone.IDExterno)
	set(models.FieldIDCX, g.IDExterno)

	dir := c.FirstAddress()
	set(models.FieldState, NormalizeState(dir.Estado))
	set(models.FieldStreet, dir.Calle)
	set(models.FieldExtNum, dir.NumeroExterior)
	set(models.FieldIntNum, dir.NumeroInterior)
	set(models.FieldColony, dir.Colonia)
	set(models.FieldCP, dir.CodigoPostal)
	set(models.FieldMunicipe, dir.DelegacionMunicipio)
	set(models.FieldCity, dir.Ciudad)
	set(models.FieldStreetDistance, dir.Referencias)
	set(models.FieldAddressOption, dir.IDExterno)
	set(models.FieldLat, dir.Latitud)
	set(models.FieldLng, dir.Longitud)
}

// NormalizeState maps the source system's "ESTADO DE MEXICO" to "MEXICO".
// This exact literal quirk must be preserved; no other state is touched.
func NormalizeState(estado string) string {
	if estado == "ESTADO DE MEXICO" {
		return "MEXICO"
	}
	return estado
}
