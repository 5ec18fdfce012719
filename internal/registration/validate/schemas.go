package validate

import "afilia/internal/registration/models"

// The literal constraint set. Card numbers are 13 digits, CURP is 18
// characters, phones 10 digits, postal codes 5 digits, banking last-4 exactly
// 4. These widths come from the issuing systems and are not configurable.

var searchSchema = NewSchema(
	Rule{Field: models.FieldTarjeta, Required: true, Digits: true, Length: 13,
		RequiredMsg: "Número de tarjeta requerido", LengthMsg: "Debe tener 13 dígitos"},
	Rule{Field: models.FieldEmail, Required: true, Email: true, KeepCase: true,
		RequiredMsg: "Correo electrónico requerido", FormatMsg: "Correo electrónico no válido"},
)

var userDataSchema = NewSchema(
	Rule{Field: models.FieldFirstName, Required: true, RequiredMsg: "Nombre requerido"},
	Rule{Field: models.FieldLastName1, Required: true, RequiredMsg: "Apellido paterno requerido"},
	Rule{Field: models.FieldLastName2, Required: true, RequiredMsg: "Apellido materno requerido"},
	Rule{Field: models.FieldCURP, Required: true, Length: 18,
		RequiredMsg: "CURP requerido", LengthMsg: "Debe tener 18 dígitos"},
	Rule{Field: models.FieldSpecialty, Required: true, RequiredMsg: "Especialidad Médica requerida"},
	Rule{Field: models.FieldGender, Required: true, RequiredMsg: "Genero requerido"},
	Rule{Field: models.FieldEmail, Required: true, Email: true, KeepCase: true,
		RequiredMsg: "Correo electrónico requerido", FormatMsg: "Correo electrónico no válido"},
	Rule{Field: models.FieldPhone, Required: true, Digits: true, KeepCase: true, Length: 10,
		RequiredMsg: "Télefono requerido", LengthMsg: "Debe tener 10 dígitos"},
	Rule{Field: models.FieldCardNew, Required: true, Digits: true, KeepCase: true, Length: 13,
		RequiredMsg: "Nueva tarjeta requerida", LengthMsg: "Debe tener 13 dígitos"},
)

var addressSchema = NewSchema(
	Rule{Field: models.FieldStreet, Required: true, RequiredMsg: "Calle requerida"},
	Rule{Field: models.FieldExtNum, Required: true, RequiredMsg: "Número Ext requerido"},
	Rule{Field: models.FieldIntNum},
	Rule{Field: models.FieldColony, Required: true, RequiredMsg: "Colonia requerida"},
	Rule{Field: models.FieldCP, Required: true, Digits: true, KeepCase: true, Length: 5,
		RequiredMsg: "C.P requerido", LengthMsg: "Debe tener 5 dígitos"},
	Rule{Field: models.FieldMunicipe, Required: true, RequiredMsg: "Alcaldia / Municipio requerido"},
	Rule{Field: models.FieldState, Required: true, RequiredMsg: "Estado requerido"},
	Rule{Field: models.FieldCity, Required: true, RequiredMsg: "Ciudad requerida"},
	Rule{Field: models.FieldStreetDistance},
	Rule{Field: models.FieldStreetDistance1},
	Rule{Field: models.FieldPerson},
	Rule{Field: models.FieldAddressOption},
	Rule{Field: models.FieldLat, Required: true, RequiredMsg: "Ubicación requerida"},
	Rule{Field: models.FieldLng, Required: true, RequiredMsg: "Ubicación requerida"},
	// Delivery block: required only while the delivery flag is on.
	Rule{Field: models.FieldPersonDelivery},
	Rule{Field: models.FieldStreetDelivery, RequiredWhen: models.FieldDelivery, RequiredMsg: "Calle requerida"},
	Rule{Field: models.FieldExtNumDelivery, RequiredWhen: models.FieldDelivery, RequiredMsg: "Número Ext requerido"},
	Rule{Field: models.FieldIntNumDelivery},
	Rule{Field: models.FieldColonyDelivery, RequiredWhen: models.FieldDelivery, RequiredMsg: "Colonia requerida"},
	Rule{Field: models.FieldCPDelivery, RequiredWhen: models.FieldDelivery, Digits: true, Length: 5,
		RequiredMsg: "C.P requerido", LengthMsg: "Debe tener 5 dígitos"},
	Rule{Field: models.FieldMunicipeDelivery, RequiredWhen: models.FieldDelivery, RequiredMsg: "Alcaldia / Municipio requerido"},
	Rule{Field: models.FieldStateDelivery},
	Rule{Field: models.FieldCityDelivery, RequiredWhen: models.FieldDelivery, RequiredMsg: "Ciudad requerida"},
	Rule{Field: models.FieldStreetDistanceDelivery},
	Rule{Field: models.FieldStreetDistance1Delivery},
	Rule{Field: models.FieldLatDelivery, RequiredWhen: models.FieldDelivery, RequiredMsg: "Ubicación requerida"},
	Rule{Field: models.FieldLngDelivery, RequiredWhen: models.FieldDelivery, RequiredMsg: "Ubicación requerida"},
)

var medicalProductSchema = NewSchema(
	Rule{Field: models.FieldProductID, Required: true, KeepCase: true, RequiredMsg: "Producto requerido"},
	Rule{Field: models.FieldPlanID, Required: true, KeepCase: true, RequiredMsg: "Plan requerido"},
)

var bankingSchema = NewSchema(
	Rule{Field: models.FieldInstitution, Required: true, RequiredMsg: "Institución Financiera requerida"},
	Rule{Field: models.FieldCardType, Required: true, RequiredMsg: "Tipo de tarjeta requerido"},
	Rule{Field: models.FieldFullName, Required: true, RequiredMsg: "Nombre completo requerido"},
	Rule{Field: models.FieldDigits, Required: true, Digits: true, KeepCase: true, Length: 4,
		RequiredMsg: "Últimos 4 dígitos de la tarjeta requeridos", LengthMsg: "Debe ser de 4 dígitos"},
	Rule{Field: models.FieldCardPhysicalOrDigital, Required: true, RequiredMsg: "Tarjeta física o digital requerida"},
	Rule{Field: models.FieldMaxAmount},
)

var confirmationSchema = NewSchema()

var schemas = map[models.Step]*Schema{
	models.StepSearch:         searchSchema,
	models.StepUserData:       userDataSchema,
	models.StepAddress:        addressSchema,
	models.StepMedicalProduct: medicalProductSchema,
	models.StepBanking:        bankingSchema,
	models.StepConfirmation:   confirmationSchema,
}

// For returns the active schema for a step. Unknown steps get an empty
// schema, which validates vacuously.
func For(step models.Step) *Schema {
	if s, ok := schemas[step]; ok {
		return s
	}
	return confirmationSchema
}

// keepCase is derived from the KeepCase declarations on the step schemas.
// idCX is only ever written by reconciliation prefill, never through a step,
// so it carries its attribute here instead of on a rule.
var keepCase = caseSensitiveFields(models.FieldIDCX)

func caseSensitiveFields(extra ...string) map[string]bool {
	out := make(map[string]bool)
	for _, s := range schemas {
		for _, r := range s.rules {
			if r.KeepCase {
				out[r.Field] = true
			}
		}
	}
	for _, f := range extra {
		out[f] = true
	}
	return out
}
