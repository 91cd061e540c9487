// Package schema validates record field values against the live field
// definitions of a record type.
package schema

import (
	"fmt"

	"github.com/Ramsey-B/laurel/pkg/fields"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult represents the result of validating record field values
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validator validates raw field-value maps against a set of definitions
type Validator struct {
	defs []fields.Definition
}

// NewValidator creates a validator for the given live definition set
func NewValidator(defs []fields.Definition) *Validator {
	return &Validator{defs: defs}
}

// Validate checks the raw map against the definitions. Required fields must
// be present: nil and the empty string fail, while 0 and false pass — the
// check is presence, not truthiness. Keys that match no declared definition
// are rejected.
func (v *Validator) Validate(data map[string]any) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []ValidationError{}}

	values, decodeErrs := fields.Decode(v.defs, data)
	for _, err := range decodeErrs {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{Message: err.Error()})
	}

	for _, def := range v.defs {
		value := values[def.Name]

		if def.Required && !value.IsPresent() {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   def.Name,
				Message: fmt.Sprintf("Required field %q is missing", def.Name),
			})
			continue
		}

		if !value.IsPresent() {
			continue
		}

		if err := validateKind(value); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   def.Name,
				Message: err.Error(),
			})
		}
	}

	return result
}

// ValidateUpdate checks a replacement field-value map. Updates replace the
// map wholesale and may legitimately clear required fields, so only kind
// shapes and undeclared keys are checked here.
func (v *Validator) ValidateUpdate(data map[string]any) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []ValidationError{}}

	values, decodeErrs := fields.Decode(v.defs, data)
	for _, err := range decodeErrs {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{Message: err.Error()})
	}

	for _, def := range v.defs {
		value := values[def.Name]
		if !value.IsPresent() {
			continue
		}

		if err := validateKind(value); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   def.Name,
				Message: err.Error(),
			})
		}
	}

	return result
}

// validateKind checks that a present value has the JSON shape its kind
// expects.
func validateKind(value fields.Value) error {
	if value.Kind.IsReference() {
		if _, ok := value.RefID(); !ok {
			return fmt.Errorf("expected a reference id, got %s", typeName(value.Raw))
		}
		return nil
	}

	switch value.Kind {
	case fields.KindText, fields.KindRichText, fields.KindDate, fields.KindTime, fields.KindDateTime:
		if _, ok := value.Text(); !ok {
			return fmt.Errorf("expected type string, got %s", typeName(value.Raw))
		}
	case fields.KindNumber:
		if _, ok := value.Number(); !ok {
			return fmt.Errorf("expected type number, got %s", typeName(value.Raw))
		}
	case fields.KindYesNo:
		if _, ok := value.Bool(); !ok {
			return fmt.Errorf("expected type boolean, got %s", typeName(value.Raw))
		}
	}

	return nil
}

// typeName returns the JSON type name for a Go value
func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64, float32, int, int64, int32:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", value)
	}
}
