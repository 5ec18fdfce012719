package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "afilia/pkg/domain-errors"

	"afilia/internal/registration/models"
)

func newTestController() *Controller {
	c := NewController()
	c.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return c
}

func searchReady(t *testing.T) *models.Session {
	t.Helper()
	s := models.NewSession(time.Now())
	s.Form.Tarjeta = "6270000000001"
	s.Form.Email = "maria@example.com"
	return s
}

func TestNextBlockedByValidation(t *testing.T) {
	c := newTestController()
	s := models.NewSession(time.Now())

	res, err := c.Next(s, false)

	require.NoError(t, err)
	assert.True(t, res.Blocked)
	assert.Equal(t, MsgFixErrors, res.Message)
	assert.Equal(t, "Número de tarjeta requerido", res.Errors[models.FieldTarjeta])
	assert.Equal(t, "Correo electrónico requerido", res.Errors[models.FieldEmail])
	assert.Equal(t, models.StepSearch, s.Step, "a blocked advance does not move")
}

func TestNextAdvancesAndClearsStalePrefill(t *testing.T) {
	c := newTestController()
	s := searchReady(t)
	s.Form.FirstName = "STALE"

	res, err := c.Next(s, false)

	require.NoError(t, err)
	assert.False(t, res.Blocked)
	assert.Equal(t, models.StepUserData, s.Step)
	assert.Empty(t, s.Form.FirstName, "manual continue starts from a clean form")
	assert.Equal(t, "6270000000001", s.Form.Tarjeta)
	assert.Equal(t, "maria@example.com", s.Form.Email)
}

func TestNextSkipValidationKeepsPrefill(t *testing.T) {
	c := newTestController()
	s := models.NewSession(time.Now())
	s.Form.FirstName = "MARIA"
	s.Form.IDCX = "CX-881"

	res, err := c.Next(s, true)

	require.NoError(t, err)
	assert.Equal(t, models.StepUserData, res.Step)
	assert.Equal(t, "MARIA", s.Form.FirstName, "a profile match keeps its prefill")
}

func TestNextRejectedWhileConflictPending(t *testing.T) {
	c := newTestController()
	s := searchReady(t)
	s.Conflicts = []models.Conflict{{Kind: models.ConflictEmail, Registered: "otra@example.com"}}

	_, err := c.Next(s, false)

	require.Error(t, err)
	assert.Equal(t, dErrors.CodeInvariantViolation, dErrors.CodeOf(err))
	assert.Equal(t, models.StepSearch, s.Step)
}

func TestNextBlockedByAsyncFieldError(t *testing.T) {
	c := newTestController()
	s := searchReady(t)
	s.Step = models.StepAddress
	s.Form.Street = "REFORMA"
	s.Form.ExtNum = "100"
	s.Form.Colony = "CENTRO"
	s.Form.CP = "06000"
	s.Form.Municipe = "CUAUHTEMOC"
	s.Form.State = "MEXICO"
	s.Form.City = "TOLUCA"
	s.Form.Lat = "19.43"
	s.Form.Lng = "-99.13"
	s.SetFieldError(models.FieldCP, "Código postal inválido")

	res, err := c.Next(s, false)

	require.NoError(t, err)
	assert.True(t, res.Blocked)
	assert.Equal(t, "Código postal inválido", res.Errors[models.FieldCP])
	assert.Equal(t, models.StepAddress, s.Step)
}

func TestNextFromConfirmationSignalsSubmit(t *testing.T) {
	c := newTestController()
	s := searchReady(t)
	s.Step = models.StepConfirmation

	res, err := c.Next(s, false)

	require.NoError(t, err)
	assert.True(t, res.Submit)
	assert.Equal(t, models.StepConfirmation, s.Step, "submission does not leave the wizard page")
}

func TestPrev(t *testing.T) {
	c := newTestController()
	s := searchReady(t)
	s.Step = models.StepAddress

	res := c.Prev(s)
	assert.False(t, res.ConfirmationRequired)
	assert.Equal(t, models.StepUserData, res.Step)
	assert.Equal(t, models.StepUserData, s.Step)

	// At the floor, the controller stays put and asks for a confirmed reset
	// instead of backing into the search step.
	res = c.Prev(s)
	assert.True(t, res.ConfirmationRequired)
	assert.Equal(t, models.StepUserData, res.Step)
	assert.Equal(t, models.StepUserData, s.Step)
}

func TestResetRequiresConfirmation(t *testing.T) {
	c := newTestController()
	s := searchReady(t)
	s.Step = models.StepBanking

	err := c.Reset(s, false)

	require.Error(t, err)
	assert.Equal(t, models.StepBanking, s.Step)
}

func TestResetClearsEverything(t *testing.T) {
	c := newTestController()
	s := searchReady(t)
	s.Step = models.StepBanking
	s.Form.FirstName = "MARIA"
	s.SearchCard = "6270000000001"
	s.Conflicts = []models.Conflict{{Kind: models.ConflictCard, Registered: "folio"}}
	s.SetFieldError(models.FieldCP, "Código postal inválido")
	s.DocumentID = "doc-1"
	s.Signature = models.SignaturePending

	require.NoError(t, c.Reset(s, true))

	assert.Equal(t, models.StepSearch, s.Step)
	assert.Equal(t, models.FormState{}, s.Form)
	assert.Empty(t, s.Conflicts)
	assert.Empty(t, s.FieldErrors)
	assert.Empty(t, s.SearchCard)
	assert.Empty(t, s.DocumentID)
	assert.Equal(t, models.SignatureNone, s.Signature)
}
