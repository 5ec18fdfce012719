package models

// Step is one page of the wizard. Steps are strictly ordered; navigation is
// forward one, backward one (floor at StepUserData), or an explicit
// destructive reset to StepSearch.
type Step int

const (
	StepSearch Step = iota + 1
	StepUserData
	StepAddress
	StepMedicalProduct
	StepBanking
	StepConfirmation
)

// TotalSteps is the number of wizard pages.
const TotalSteps = 6

func (s Step) Valid() bool {
	return s >= StepSearch && s <= StepConfirmation
}

func (s Step) String() string {
	switch s {
	case StepSearch:
		return "search"
	case StepUserData:
		return "user_data"
	case StepAddress:
		return "address"
	case StepMedicalProduct:
		return "medical_product"
	case StepBanking:
		return "banking"
	case StepConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

// Title is the user-facing step description.
func (s Step) Title() string {
	switch s {
	case StepSearch:
		return "Verificación de cuenta"
	case StepUserData:
		return "Datos personales"
	case StepAddress:
		return "Domicilio"
	case StepMedicalProduct:
		return "Médico y Producto"
	case StepBanking:
		return "Datos bancarios"
	case StepConfirmation:
		return "Confirmación y envío"
	default:
		return ""
	}
}
