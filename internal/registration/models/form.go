package models

import "errors"

// ErrUnknownField is returned for writes to field names outside the closed
// set below. The form is intentionally not an open map.
var ErrUnknownField = errors.New("unknown form field")

// ErrFieldLocked is returned for writes to identity fields once the profile
// carries an external id; those values came from the registry and are
// display-only.
var ErrFieldLocked = errors.New("field is locked")

// Field names. These are the wire names the capture flow has always used; they
// appear verbatim in requests, validation errors, and the contract payload.
const (
	FieldTarjeta   = "tarjeta"
	FieldFirstName = "first_name"
	FieldLastName1 = "last_name1"
	FieldLastName2 = "last_name2"
	FieldCURP      = "curp"
	FieldSpecialty = "specialty"
	FieldGender    = "gender"
	FieldType      = "type"
	FieldEmail     = "email"
	FieldPhone     = "phone"
	FieldPhoneID   = "id_phone"
	FieldIDCX      = "idCX"
	FieldCardNew   = "card_new"

	FieldStreet          = "street"
	FieldExtNum          = "ext_num"
	FieldIntNum          = "int_num"
	FieldColony          = "colony"
	FieldCP              = "cp"
	FieldMunicipe        = "municipe"
	FieldState           = "state"
	FieldCity            = "city"
	FieldStreetDistance  = "street_distance"
	FieldStreetDistance1 = "street_distance1"
	FieldPerson          = "person"
	FieldAddressOption   = "addressOption"
	FieldLat             = "lat"
	FieldLng             = "lng"

	FieldDelivery                = "delivery"
	FieldPersonDelivery          = "person_delivery"
	FieldStreetDelivery          = "street_delivery"
	FieldExtNumDelivery          = "ext_num_delivery"
	FieldIntNumDelivery          = "int_num_delivery"
	FieldColonyDelivery          = "colony_delivery"
	FieldCPDelivery              = "cp_delivery"
	FieldMunicipeDelivery        = "municipe_delivery"
	FieldStateDelivery           = "state_delivery"
	FieldCityDelivery            = "city_delivery"
	FieldStreetDistanceDelivery  = "street_distance_delivery"
	FieldStreetDistance1Delivery = "street_distance1_delivery"
	FieldLatDelivery             = "lat_delivery"
	FieldLngDelivery             = "lng_delivery"

	FieldProductID       = "product_id"
	FieldPlanID          = "plan_id"
	FieldProductDuration = "product_duration"

	FieldInstitution           = "institution"
	FieldCardType              = "card_type"
	FieldFullName              = "full_name"
	FieldDigits                = "digits"
	FieldCardPhysicalOrDigital = "card_physical_or_digital"
	FieldMaxAmount             = "max_amount"
)

// FormState is the full wizard form. It is a closed record: every field the
// wizard can hold is declared here, grouped by domain area. The zero value is
// an empty form.
type FormState struct {
	// Identity. Locked once IDCX is set.
	Tarjeta   string `json:"tarjeta,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName1 string `json:"last_name1,omitempty"`
	LastName2 string `json:"last_name2,omitempty"`
	CURP      string `json:"curp,omitempty"`
	Specialty string `json:"specialty,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Type      string `json:"type,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	PhoneID   string `json:"id_phone,omitempty"`
	IDCX      string `json:"idCX,omitempty"`
	CardNew   string `json:"card_new,omitempty"`

	// Primary address.
	Street          string `json:"street,omitempty"`
	ExtNum          string `json:"ext_num,omitempty"`
	IntNum          string `json:"int_num,omitempty"`
	Colony          string `json:"colony,omitempty"`
	CP              string `json:"cp,omitempty"`
	Municipe        string `json:"municipe,omitempty"`
	State           string `json:"state,omitempty"`
	City            string `json:"city,omitempty"`
	StreetDistance  string `json:"street_distance,omitempty"`
	StreetDistance1 string `json:"street_distance1,omitempty"`
	Person          string `json:"person,omitempty"`
	AddressOption   string `json:"addressOption,omitempty"`
	Lat             string `json:"lat,omitempty"`
	Lng             string `json:"lng,omitempty"`

	// Optional delivery address, gated by Delivery.
	Delivery                bool   `json:"delivery"`
	PersonDelivery          string `json:"person_delivery,omitempty"`
	StreetDelivery          string `json:"street_delivery,omitempty"`
	ExtNumDelivery          string `json:"ext_num_delivery,omitempty"`
	IntNumDelivery          string `json:"int_num_delivery,omitempty"`
	ColonyDelivery          string `json:"colony_delivery,omitempty"`
	CPDelivery              string `json:"cp_delivery,omitempty"`
	MunicipeDelivery        string `json:"municipe_delivery,omitempty"`
	StateDelivery           string `json:"state_delivery,omitempty"`
	CityDelivery            string `json:"city_delivery,omitempty"`
	StreetDistanceDelivery  string `json:"street_distance_delivery,omitempty"`
	StreetDistance1Delivery string `json:"street_distance1_delivery,omitempty"`
	LatDelivery             string `json:"lat_delivery,omitempty"`
	LngDelivery             string `json:"lng_delivery,omitempty"`

	// Product selection.
	ProductID       string `json:"product_id,omitempty"`
	PlanID          string `json:"plan_id,omitempty"`
	ProductDuration string `json:"product_duration,omitempty"`

	// Banking.
	Institution           string `json:"institution,omitempty"`
	CardType              string `json:"card_type,omitempty"`
	FullName              string `json:"full_name,omitempty"`
	Digits                string `json:"digits,omitempty"`
	CardPhysicalOrDigital string `json:"card_physical_or_digital,omitempty"`
	MaxAmount             string `json:"max_amount,omitempty"`
}

// identityFields are display-only once IDCX is present.
var identityFields = map[string]bool{
	FieldFirstName: true,
	FieldLastName1: true,
	FieldLastName2: true,
}

// stringFields maps field names to their storage. Kept next to FormState so
// adding a field means touching exactly this file.
func (f *FormState) stringField(name string) *string {
	switch name {
	case FieldTarjeta:
		return &f.Tarjeta
	case FieldFirstName:
		return &f.FirstName
	case FieldLastName1:
		return &f.LastName1
	case FieldLastName2:
		return &f.LastName2
	case FieldCURP:
		return &f.CURP
	case FieldSpecialty:
		return &f.Specialty
	case FieldGender:
		return &f.Gender
	case FieldType:
		return &f.Type
	case FieldEmail:
		return &f.Email
	case FieldPhone:
		return &f.Phone
	case FieldPhoneID:
		return &f.PhoneID
	case FieldIDCX:
		return &f.IDCX
	case FieldCardNew:
		return &f.CardNew
	case FieldStreet:
		return &f.Street
	case FieldExtNum:
		return &f.ExtNum
	case FieldIntNum:
		return &f.IntNum
	case FieldColony:
		return &f.Colony
	case FieldCP:
		return &f.CP
	case FieldMunicipe:
		return &f.Municipe
	case FieldState:
		return &f.State
	case FieldCity:
		return &f.City
	case FieldStreetDistance:
		return &f.StreetDistance
	case FieldStreetDistance1:
		return &f.StreetDistance1
	case FieldPerson:
		return &f.Person
	case FieldAddressOption:
		return &f.AddressOption
	case FieldLat:
		return &f.Lat
	case FieldLng:
		return &f.Lng
	case FieldPersonDelivery:
		return &f.PersonDelivery
	case FieldStreetDelivery:
		return &f.StreetDelivery
	case FieldExtNumDelivery:
		return &f.ExtNumDelivery
	case FieldIntNumDelivery:
		return &f.IntNumDelivery
	case FieldColonyDelivery:
		return &f.ColonyDelivery
	case FieldCPDelivery:
		return &f.CPDelivery
	case FieldMunicipeDelivery:
		return &f.MunicipeDelivery
	case FieldStateDelivery:
		return &f.StateDelivery
	case FieldCityDelivery:
		return &f.CityDelivery
	case FieldStreetDistanceDelivery:
		return &f.StreetDistanceDelivery
	case FieldStreetDistance1Delivery:
		return &f.StreetDistance1Delivery
	case FieldLatDelivery:
		return &f.LatDelivery
	case FieldLngDelivery:
		return &f.LngDelivery
	case FieldProductID:
		return &f.ProductID
	case FieldPlanID:
		return &f.PlanID
	case FieldProductDuration:
		return &f.ProductDuration
	case FieldInstitution:
		return &f.Institution
	case FieldCardType:
		return &f.CardType
	case FieldFullName:
		return &f.FullName
	case FieldDigits:
		return &f.Digits
	case FieldCardPhysicalOrDigital:
		return &f.CardPhysicalOrDigital
	case FieldMaxAmount:
		return &f.MaxAmount
	default:
		return nil
	}
}

// Value returns a field's current value ("" / false for unset known fields).
func (f *FormState) Value(name string) (any, bool) {
	if name == FieldDelivery {
		return f.Delivery, true
	}
	if p := f.stringField(name); p != nil {
		return *p, true
	}
	return nil, false
}

// StringValue returns a string field's value, "" for bool/unknown fields.
func (f *FormState) StringValue(name string) string {
	if p := f.stringField(name); p != nil {
		return *p
	}
	return ""
}

// SetString writes a string field. Identity fields reject writes while IDCX
// is set; profile prefill bypasses this via ForceString.
func (f *FormState) SetString(name, value string) error {
	if f.IDCX != "" && identityFields[name] {
		return ErrFieldLocked
	}
	return f.ForceString(name, value)
}

// ForceString writes a string field without the identity lock. Used by the
// reconciliation prefill, which is the source the lock protects.
func (f *FormState) ForceString(name, value string) error {
	p := f.stringField(name)
	if p == nil {
		return ErrUnknownField
	}
	*p = value
	return nil
}

// SetBool writes a bool field; only the delivery flag exists today.
func (f *FormState) SetBool(name string, value bool) error {
	if name != FieldDelivery {
		return ErrUnknownField
	}
	f.Delivery = value
	return nil
}

// Reset clears the whole form.
func (f *FormState) Reset() {
	*f = FormState{}
}

// RemapDelivery copies the delivery address over the primary address and
// blanks the delivery block, exactly the shape the contract endpoint expects.
// No-op when the delivery flag is off.
func (f *FormState) RemapDelivery() {
	if !f.Delivery {
		return
	}
	f.Person = f.PersonDelivery
	f.Street = f.StreetDelivery
	f.ExtNum = f.ExtNumDelivery
	f.IntNum = f.IntNumDelivery
	f.Colony = f.ColonyDelivery
	f.CP = f.CPDelivery
	f.Municipe = f.MunicipeDelivery
	f.City = f.CityDelivery
	f.State = f.StateDelivery
	f.StreetDistance = f.StreetDistanceDelivery
	f.StreetDistance1 = f.StreetDistance1Delivery
	f.Lat = f.LatDelivery
	f.Lng = f.LngDelivery

	f.PersonDelivery = ""
	f.StreetDelivery = ""
	f.ExtNumDelivery = ""
	f.IntNumDelivery = ""
	f.ColonyDelivery = ""
	f.CPDelivery = ""
	f.MunicipeDelivery = ""
	f.StateDelivery = ""
	f.CityDelivery = ""
	f.StreetDistanceDelivery = ""
	f.StreetDistance1Delivery = ""
	f.LatDelivery = ""
	f.LngDelivery = ""

	f.Delivery = false
	f.AddressOption = ""
}
