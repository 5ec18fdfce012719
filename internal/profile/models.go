// Package profile models the CX customer registry: the external system of
// record for existing patients. Profiles are read-only here; the wizard copies
// values out of them but never writes back.
package profile

// LookupRequest is the CX query body. Either field may be empty; the registry
// matches on whichever is present.
type LookupRequest struct {
	Tarjeta string `json:"tarjeta,omitempty"`
	Email   string `json:"email,omitempty"`
}

// LookupResponse is the CX envelope. Results=false means no contact matched.
type LookupResponse struct {
	Data LookupData `json:"data"`
}

type LookupData struct {
	Results  bool      `json:"results"`
	Contacts []Contact `json:"contacts,omitempty"`
}

// Contact is one registry profile. Field names mirror the CX wire format,
// including its historical misspellings ("correroElectronico", "referncias",
// "delgacionMunicipio") which must not be corrected.
type Contact struct {
	DatosGenerales Generales  `json:"datosGenerales"`
	Emails         []EmailRec `json:"listaCorreoElectronico,omitempty"`
	Phones         []PhoneRec `json:"listaTelefonos,omitempty"`
	Addresses      []Address  `json:"listaDireccion,omitempty"`
	Cards          []CardRec  `json:"listaTarjetas,omitempty"`
	Contracts      []Contract `json:"contratosVigentes,omitempty"`
}

type Generales struct {
	Nombre          string `json:"nombre"`
	ApellidoPaterno string `json:"apellidoPaterno"`
	ApellidoMaterno string `json:"apellidoMaterno"`
	IDExterno       string `json:"idExterno"`
	Sexo            string `json:"sexo"`
	Tipo            string `json:"tipo"`
}

type EmailRec struct {
	Correo string `json:"correroElectronico"`
}

type PhoneRec struct {
	Telefono Phone `json:"telefono"`
}

type Phone struct {
	NumeroTelefonico string `json:"NumeroTelefonico"`
	IDExterno        string `json:"IDExterno"`
}

type Address struct {
	Direccion Direccion `json:"direccion"`
}

type Direccion struct {
	Calle               string `json:"calle"`
	NumeroExterior      string `json:"numeroExterior"`
	NumeroInterior      string `json:"numeroInterior"`
	Colonia             string `json:"colonia"`
	CodigoPostal        string `json:"codigoPostal"`
	DelegacionMunicipio string `json:"delgacionMunicipio"`
	Estado              string `json:"estado"`
	Ciudad              string `json:"ciudad"`
	Referencias         string `json:"referncias"`
	IDExterno           string `json:"id_externo"`
	Latitud             string `json:"latitud"`
	Longitud            string `json:"longitud"`
}

type CardRec struct {
	Folio      string `json:"folio"`
	IDPrograma string `json:"idPrograma"`
}

type Contract struct {
	CodigoProducto string `json:"codigoProducto"`
}

// RegisteredEmails lists all email addresses on the contact, first is primary.
func (c *Contact) RegisteredEmails() []string {
	out := make([]string, 0, len(c.Emails))
	for _, e := range c.Emails {
		out = append(out, e.Correo)
	}
	return out
}

// CardsInPrograms filters the contact's cards to accepted loyalty programs.
func (c *Contact) CardsInPrograms(programs []string) []CardRec {
	accepted := make(map[string]bool, len(programs))
	for _, p := range programs {
		accepted[p] = true
	}
	var out []CardRec
	for _, card := range c.Cards {
		if accepted[card.IDPrograma] {
			out = append(out, card)
		}
	}
	return out
}

// FirstEmail returns the primary registered email, or "".
func (c *Contact) FirstEmail() string {
	if len(c.Emails) == 0 {
		return ""
	}
	return c.Emails[0].Correo
}

// FirstPhone returns the primary phone record, or a zero value.
func (c *Contact) FirstPhone() Phone {
	if len(c.Phones) == 0 {
		return Phone{}
	}
	return c.Phones[0].Telefono
}

// FirstAddress returns the primary address, or a zero value.
func (c *Contact) FirstAddress() Direccion {
	if len(c.Addresses) == 0 {
		return Direccion{}
	}
	return c.Addresses[0].Direccion
}
