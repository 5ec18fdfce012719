package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetStringLocksIdentityFields(t *testing.T) {
	var f FormState
	require.NoError(t, f.SetString(FieldFirstName, "MARIA"))

	f.IDCX = "CX-1"

	assert.ErrorIs(t, f.SetString(FieldFirstName, "OTRA"), ErrFieldLocked)
	assert.ErrorIs(t, f.SetString(FieldLastName1, "X"), ErrFieldLocked)
	assert.ErrorIs(t, f.SetString(FieldLastName2, "X"), ErrFieldLocked)
	assert.Equal(t, "MARIA", f.FirstName)

	// Non-identity fields stay writable.
	require.NoError(t, f.SetString(FieldPhone, "5512345678"))
}

func TestForceStringBypassesLock(t *testing.T) {
	f := FormState{IDCX: "CX-1", FirstName: "MARIA"}

	require.NoError(t, f.ForceString(FieldFirstName, "MARIANA"))

	assert.Equal(t, "MARIANA", f.FirstName)
}

func TestSetStringUnknownField(t *testing.T) {
	var f FormState

	assert.ErrorIs(t, f.SetString("nope", "x"), ErrUnknownField)
	assert.ErrorIs(t, f.SetBool("nope", true), ErrUnknownField)
}

func TestSetBoolOnlyDelivery(t *testing.T) {
	var f FormState

	require.NoError(t, f.SetBool(FieldDelivery, true))
	assert.True(t, f.Delivery)

	assert.ErrorIs(t, f.SetBool(FieldStreet, true), ErrUnknownField)
}

func TestValueRoundTrip(t *testing.T) {
	var f FormState
	require.NoError(t, f.SetString(FieldCURP, "LOSM800101MDFPNR03"))

	v, ok := f.Value(FieldCURP)
	require.True(t, ok)
	assert.Equal(t, "LOSM800101MDFPNR03", v)
	assert.Equal(t, "LOSM800101MDFPNR03", f.StringValue(FieldCURP))

	_, ok = f.Value("nope")
	assert.False(t, ok)
}

func TestRemapDelivery(t *testing.T) {
	f := FormState{
		Delivery:         true,
		Street:           "REFORMA",
		ExtNum:           "100",
		CP:               "06000",
		State:            "MEXICO",
		Lat:              "19.43",
		StreetDelivery:   "JUAREZ",
		ExtNumDelivery:   "5",
		CPDelivery:       "50000",
		StateDelivery:    "MEXICO",
		MunicipeDelivery: "TOLUCA",
		LatDelivery:      "19.28",
		AddressOption:    "DIR-7",
	}

	f.RemapDelivery()

	assert.Equal(t, "JUAREZ", f.Street)
	assert.Equal(t, "5", f.ExtNum)
	assert.Equal(t, "50000", f.CP)
	assert.Equal(t, "TOLUCA", f.Municipe)
	assert.Equal(t, "19.28", f.Lat)
	assert.False(t, f.Delivery)
	assert.Empty(t, f.StreetDelivery)
	assert.Empty(t, f.CPDelivery)
	assert.Empty(t, f.AddressOption, "a prefilled address choice no longer applies")
}

func TestRemapDeliveryNoopWithoutFlag(t *testing.T) {
	f := FormState{Street: "REFORMA", StreetDelivery: "JUAREZ"}

	f.RemapDelivery()

	assert.Equal(t, "REFORMA", f.Street)
	assert.Equal(t, "JUAREZ", f.StreetDelivery)
}

func TestReset(t *testing.T) {
	f := FormState{Tarjeta: "6270000000001", FirstName: "MARIA", IDCX: "CX-1", Delivery: true}

	f.Reset()

	assert.Equal(t, FormState{}, f)
}
