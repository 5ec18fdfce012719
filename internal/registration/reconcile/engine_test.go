package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"afilia/internal/profile"
	"afilia/internal/profile/mocks"
	"afilia/internal/registration/models"
)

var acceptedPrograms = []string{"627", "42"}

func newEngine(t *testing.T) (*Engine, *mocks.MockLookupClient) {
	t.Helper()
	ctrl := gomock.NewController(t)
	lookup := mocks.NewMockLookupClient(ctrl)
	eng := New(lookup, acceptedPrograms, slog.Default(), nil)
	return eng, lookup
}

func knownContact() profile.Contact {
	return profile.Contact{
		DatosGenerales: profile.Generales{
			Nombre:          "Maria",
			ApellidoPaterno: "Lopez",
			ApellidoMaterno: "Santos",
			IDExterno:       "CX-881",
			Sexo:            "Femenino",
			Tipo:            "Paciente",
		},
		Emails: []profile.EmailRec{{Correo: "maria@example.com"}},
		Phones: []profile.PhoneRec{{Telefono: profile.Phone{NumeroTelefonico: "5512345678", IDExterno: "PH-1"}}},
		Addresses: []profile.Address{{Direccion: profile.Direccion{
			Calle:               "Reforma",
			NumeroExterior:      "100",
			Colonia:             "Centro",
			CodigoPostal:        "06000",
			DelegacionMunicipio: "Cuauhtemoc",
			Estado:              "ESTADO DE MEXICO",
			Ciudad:              "Toluca",
			IDExterno:           "DIR-7",
			Latitud:             "19.43",
			Longitud:            "-99.13",
		}}},
		Cards: []profile.CardRec{{Folio: "6270000000001", IDPrograma: "627"}},
	}
}

func foundResp(c profile.Contact) profile.LookupResponse {
	return profile.LookupResponse{Data: profile.LookupData{Results: true, Contacts: []profile.Contact{c}}}
}

func emptyResp() profile.LookupResponse {
	return profile.LookupResponse{Data: profile.LookupData{Results: false}}
}

func TestReconcileNotFound(t *testing.T) {
	eng, lookup := newEngine(t)
	lookup.EXPECT().Lookup(gomock.Any(), profile.LookupRequest{Tarjeta: "6270000000009"}).Return(emptyResp(), nil)
	lookup.EXPECT().Lookup(gomock.Any(), profile.LookupRequest{Email: "nuevo@example.com"}).Return(emptyResp(), nil)

	res := eng.Reconcile(context.Background(), "nuevo@example.com", "6270000000009")

	assert.Equal(t, OutcomeNotFound, res.Kind)
	assert.Nil(t, res.Contact)
	assert.False(t, res.SkipStep)
}

func TestReconcileLookupFailureIsNotNotFound(t *testing.T) {
	eng, lookup := newEngine(t)
	lookup.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(profile.LookupResponse{}, errors.New("cx: 503")).Times(2)

	res := eng.Reconcile(context.Background(), "nuevo@example.com", "6270000000009")

	assert.Equal(t, OutcomeLookupFailed, res.Kind)
	assert.NotEqual(t, OutcomeNotFound, res.Kind)
}

func TestReconcileCardMatchWinsOverEmailMatch(t *testing.T) {
	eng, lookup := newEngine(t)
	byCard := knownContact()
	other := knownContact()
	other.DatosGenerales.IDExterno = "CX-999"
	lookup.EXPECT().Lookup(gomock.Any(), profile.LookupRequest{Tarjeta: "6270000000001"}).Return(foundResp(byCard), nil)
	lookup.EXPECT().Lookup(gomock.Any(), profile.LookupRequest{Email: "maria@example.com"}).Return(foundResp(other), nil)

	res := eng.Reconcile(context.Background(), "maria@example.com", "6270000000001")

	require.Equal(t, OutcomeFound, res.Kind)
	require.NotNil(t, res.Contact)
	assert.Equal(t, "CX-881", res.Contact.DatosGenerales.IDExterno)
}

func TestReconcileEmailFallbackWhenCardUnknown(t *testing.T) {
	eng, lookup := newEngine(t)
	lookup.EXPECT().Lookup(gomock.Any(), profile.LookupRequest{Tarjeta: "6270000000009"}).Return(emptyResp(), nil)
	lookup.EXPECT().Lookup(gomock.Any(), profile.LookupRequest{Email: "maria@example.com"}).Return(foundResp(knownContact()), nil)

	res := eng.Reconcile(context.Background(), "maria@example.com", "6270000000009")

	require.Equal(t, OutcomeFound, res.Kind)
	assert.Equal(t, "CX-881", res.Contact.DatosGenerales.IDExterno)
}

func TestReconcileCleanMatchSkipsStep(t *testing.T) {
	eng, lookup := newEngine(t)
	lookup.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(foundResp(knownContact()), nil).Times(2)

	res := eng.Reconcile(context.Background(), "maria@example.com", "6270000000001")

	require.Equal(t, OutcomeFound, res.Kind)
	assert.Empty(t, res.EmailConflict)
	assert.Empty(t, res.CardConflict)
	assert.True(t, res.SkipStep)
}

func TestReconcileEmailConflict(t *testing.T) {
	eng, lookup := newEngine(t)
	lookup.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(foundResp(knownContact()), nil).Times(2)

	res := eng.Reconcile(context.Background(), "otra@example.com", "6270000000001")

	require.Equal(t, OutcomeFound, res.Kind)
	assert.Equal(t, "maria@example.com", res.EmailConflict)
	assert.False(t, res.SkipStep)
}

func TestReconcileCardConflict(t *testing.T) {
	eng, lookup := newEngine(t)
	lookup.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(foundResp(knownContact()), nil).Times(2)

	res := eng.Reconcile(context.Background(), "maria@example.com", "6270000000002")

	require.Equal(t, OutcomeFound, res.Kind)
	assert.Empty(t, res.EmailConflict)
	assert.Equal(t, "6270000000001", res.CardConflict)
	assert.False(t, res.SkipStep)
}

func TestReconcileIgnoresCardsOutsideAcceptedPrograms(t *testing.T) {
	eng, lookup := newEngine(t)
	contact := knownContact()
	contact.Cards = []profile.CardRec{{Folio: "9990000000001", IDPrograma: "999"}}
	lookup.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(foundResp(contact), nil).Times(2)

	res := eng.Reconcile(context.Background(), "maria@example.com", "6270000000002")

	require.Equal(t, OutcomeFound, res.Kind)
	assert.Empty(t, res.CardConflict)
	assert.True(t, res.SkipStep)
}

func TestReconcileNoRegisteredEmailNoConflict(t *testing.T) {
	eng, lookup := newEngine(t)
	contact := knownContact()
	contact.Emails = nil
	lookup.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(foundResp(contact), nil).Times(2)

	res := eng.Reconcile(context.Background(), "cualquiera@example.com", "6270000000001")

	require.Equal(t, OutcomeFound, res.Kind)
	assert.Empty(t, res.EmailConflict)
}

func TestApplyPrefill(t *testing.T) {
	contact := knownContact()
	var form models.FormState

	ApplyPrefill(&form, &contact, "6270000000001")

	assert.Equal(t, "MARIA", form.FirstName)
	assert.Equal(t, "LOPEZ", form.LastName1)
	assert.Equal(t, "SANTOS", form.LastName2)
	assert.Equal(t, "F", form.Gender)
	assert.Equal(t, "maria@example.com", form.Email, "email is case exempt")
	assert.Equal(t, "6270000000001", form.CardNew, "typed card flows into card_new")
	assert.Equal(t, "5512345678", form.Phone)
	assert.Equal(t, "PH-1", form.PhoneID)
	assert.Equal(t, "CX-881", form.IDCX, "id keeps source casing")
	assert.Equal(t, "MEXICO", form.State, "ESTADO DE MEXICO collapses to MEXICO")
	assert.Equal(t, "06000", form.CP)
	assert.Equal(t, "DIR-7", form.AddressOption)
	assert.Equal(t, "19.43", form.Lat)
	assert.Equal(t, "-99.13", form.Lng)
}

func TestApplyPrefillMaleGender(t *testing.T) {
	contact := knownContact()
	contact.DatosGenerales.Sexo = "Masculino"
	var form models.FormState

	ApplyPrefill(&form, &contact, "6270000000001")

	assert.Equal(t, "M", form.Gender)
}

func TestNormalizeState(t *testing.T) {
	assert.Equal(t, "MEXICO", NormalizeState("ESTADO DE MEXICO"))
	assert.Equal(t, "JALISCO", NormalizeState("JALISCO"))
	assert.Equal(t, "", NormalizeState(""))
}
