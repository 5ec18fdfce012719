// Package validate holds the declarative per-step validation schemas. Each
// wizard step owns an independent schema; switching steps swaps the active
// schema via the For lookup table. Field values outside the active schema are
// never validated but keep their values.
package validate

import (
	"regexp"
	"strings"

	"afilia/internal/registration/models"
)

// emailPattern mirrors the permissive check the capture flow always used:
// something, an @, something, a dot, something.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Rule is one field's constraints. Messages are the literal user-facing
// strings; they are part of the contract with the front end.
type Rule struct {
	Field        string
	Required     bool
	RequiredWhen string // bool field gating the requirement (delivery block)
	Length       int    // exact length; for Digits fields, after digit filtering
	Digits       bool
	Email        bool
	KeepCase     bool // value is case-sensitive; skip uppercase normalization
	RequiredMsg  string
	LengthMsg    string
	FormatMsg    string
}

// FieldErrors maps field name to its first violated constraint's message.
type FieldErrors map[string]string

// Schema is the set of rules active for one step.
type Schema struct {
	rules []Rule
	index map[string]int
}

func NewSchema(rules ...Rule) *Schema {
	s := &Schema{rules: rules, index: make(map[string]int, len(rules))}
	for i, r := range rules {
		s.index[r.Field] = i
	}
	return s
}

// Has reports whether the schema validates the given field.
func (s *Schema) Has(field string) bool {
	_, ok := s.index[field]
	return ok
}

// Validate checks the whole form against the schema and returns every
// violation at once. Step advancement requires an empty result.
func (s *Schema) Validate(form *models.FormState) FieldErrors {
	errs := FieldErrors{}
	for _, r := range s.rules {
		if msg := s.check(r, form); msg != "" {
			errs[r.Field] = msg
		}
	}
	return errs
}

// ValidateField checks a single field (immediate mode). Returns "" when the
// field is valid or not part of this schema.
func (s *Schema) ValidateField(form *models.FormState, field string) string {
	i, ok := s.index[field]
	if !ok {
		return ""
	}
	return s.check(s.rules[i], form)
}

func (s *Schema) check(r Rule, form *models.FormState) string {
	value := form.StringValue(r.Field)
	if r.Digits {
		value = digitsOnly(value)
	}

	required := r.Required
	if r.RequiredWhen != "" {
		v, _ := form.Value(r.RequiredWhen)
		gate, _ := v.(bool)
		required = gate
	}

	if value == "" {
		if required {
			return r.RequiredMsg
		}
		return ""
	}
	if r.Length > 0 && len([]rune(value)) != r.Length {
		return r.LengthMsg
	}
	if r.Email && !emailPattern.MatchString(value) {
		return r.FormatMsg
	}
	return ""
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CaseExempt reports whether a field's schema declares it case-sensitive.
func CaseExempt(field string) bool {
	return keepCase[field]
}

// Normalize applies the field's declared case attribute to a value. Fields
// without a KeepCase declaration are uppercased on every write, matching the
// kiosk's capture convention.
func Normalize(field, value string) string {
	if keepCase[field] {
		return value
	}
	return strings.ToUpper(value)
}
