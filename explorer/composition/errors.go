package composition

import (
	"strings"
)

// Reason is a stable symbolic validation code.
type Reason string

const (
	Blank         Reason = "blank"
	Unknown       Reason = "unknown"
	Inclusion     Reason = "inclusion"
	Invalid       Reason = "invalid"
	RangeOrder    Reason = "range_order"
	TypeMismatch  Reason = "type_mismatch"
	Exclusive     Reason = "exclusive"
	NotIncreasing Reason = "not_increasing"
	Duplicate     Reason = "duplicate"
	TooMany       Reason = "too_many"
	TooShort      Reason = "too_short"
	NotWhole      Reason = "not_whole"
	NotNumeric    Reason = "not_numeric"
	Present       Reason = "present"
	Incompatible  Reason = "incompatible"
	Required      Reason = "required"
	NotAuthorized Reason = "not_authorized"
	NotPermitted  Reason = "not_permitted"
	Pinned        Reason = "pinned"

	Caution Reason = "caution"
	Future  Reason = "future"
)

type FieldError struct {
	Field  string `json:"field"`
	Reason Reason `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func (e FieldError) Error() string {
	if e.Detail == "" {
		return e.Field + ": " + string(e.Reason)
	}
	return e.Field + ": " + string(e.Reason) + " (" + e.Detail + ")"
}

// Errors accumulates field errors; it is also used for warnings.
type Errors []FieldError

func (e *Errors) Add(field string, reason Reason, detail ...string) {
	*e = append(*e, FieldError{Field: field, Reason: reason, Detail: strings.Join(detail, " ")})
}

func (e Errors) Has(field string, reason Reason) bool {
	for _, fe := range e {
		if fe.Field == field && fe.Reason == reason {
			return true
		}
	}
	return false
}

// On lists the reasons recorded for a field.
func (e Errors) On(field string) []Reason {
	var res []Reason
	for _, fe := range e {
		if fe.Field == field {
			res = append(res, fe.Reason)
		}
	}
	return res
}

func (e Errors) Empty() bool {
	return len(e) == 0
}

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}
