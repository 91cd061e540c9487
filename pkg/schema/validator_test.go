package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/laurel/pkg/fields"
)

func weddingDefs() []fields.Definition {
	return []fields.Definition{
		{Name: "title", Kind: fields.KindText, Required: true},
		{Name: "attendees", Kind: fields.KindNumber},
		{Name: "rehearsal_needed", Kind: fields.KindYesNo, Required: true},
		{Name: "deposit", Kind: fields.KindNumber, Required: true},
		{Name: "celebrant", Kind: fields.KindPerson},
	}
}

func TestValidator_RequiredFields(t *testing.T) {
	validator := NewValidator(weddingDefs())

	t.Run("all required fields present", func(t *testing.T) {
		result := validator.Validate(map[string]any{
			"title":            "Smith Wedding",
			"rehearsal_needed": true,
			"deposit":          float64(500),
		})
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
	})

	t.Run("missing required field", func(t *testing.T) {
		result := validator.Validate(map[string]any{
			"rehearsal_needed": true,
			"deposit":          float64(500),
		})
		assert.False(t, result.Valid)
		assert.Len(t, result.Errors, 1)
		assert.Equal(t, "title", result.Errors[0].Field)
	})

	t.Run("false satisfies a required yes_no field", func(t *testing.T) {
		result := validator.Validate(map[string]any{
			"title":            "Smith Wedding",
			"rehearsal_needed": false,
			"deposit":          float64(500),
		})
		assert.True(t, result.Valid)
	})

	t.Run("zero satisfies a required number field", func(t *testing.T) {
		result := validator.Validate(map[string]any{
			"title":            "Smith Wedding",
			"rehearsal_needed": true,
			"deposit":          float64(0),
		})
		assert.True(t, result.Valid)
	})

	t.Run("empty string fails a required text field", func(t *testing.T) {
		result := validator.Validate(map[string]any{
			"title":            "",
			"rehearsal_needed": true,
			"deposit":          float64(500),
		})
		assert.False(t, result.Valid)
		assert.Equal(t, "title", result.Errors[0].Field)
	})

	t.Run("nil fails a required field", func(t *testing.T) {
		result := validator.Validate(map[string]any{
			"title":            nil,
			"rehearsal_needed": true,
			"deposit":          float64(500),
		})
		assert.False(t, result.Valid)
	})
}

func TestValidator_KindShapes(t *testing.T) {
	validator := NewValidator(weddingDefs())

	valid := map[string]any{
		"title":            "Smith Wedding",
		"rehearsal_needed": true,
		"deposit":          float64(500),
	}

	t.Run("number rejects string", func(t *testing.T) {
		data := cloneMap(valid)
		data["attendees"] = "lots"
		result := validator.Validate(data)
		assert.False(t, result.Valid)
		assert.Equal(t, "attendees", result.Errors[0].Field)
	})

	t.Run("yes_no rejects number", func(t *testing.T) {
		data := cloneMap(valid)
		data["rehearsal_needed"] = float64(1)
		result := validator.Validate(data)
		assert.False(t, result.Valid)
	})

	t.Run("reference rejects non-string", func(t *testing.T) {
		data := cloneMap(valid)
		data["celebrant"] = 42
		result := validator.Validate(data)
		assert.False(t, result.Valid)
		assert.Equal(t, "celebrant", result.Errors[0].Field)
	})

	t.Run("reference accepts id string", func(t *testing.T) {
		data := cloneMap(valid)
		data["celebrant"] = "person-1"
		result := validator.Validate(data)
		assert.True(t, result.Valid)
	})
}

func TestValidator_UnknownKeys(t *testing.T) {
	validator := NewValidator(weddingDefs())

	result := validator.Validate(map[string]any{
		"title":            "Smith Wedding",
		"rehearsal_needed": true,
		"deposit":          float64(500),
		"cake_flavor":      "lemon",
	})
	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "cake_flavor")
}

func TestValidator_ValidateUpdate(t *testing.T) {
	validator := NewValidator(weddingDefs())

	t.Run("missing required fields are allowed", func(t *testing.T) {
		result := validator.ValidateUpdate(map[string]any{
			"attendees": float64(80),
		})
		assert.True(t, result.Valid)
	})

	t.Run("kind shapes are still checked", func(t *testing.T) {
		result := validator.ValidateUpdate(map[string]any{
			"attendees": "eighty",
		})
		assert.False(t, result.Valid)
	})

	t.Run("unknown keys are still rejected", func(t *testing.T) {
		result := validator.ValidateUpdate(map[string]any{
			"cake_flavor": "lemon",
		})
		assert.False(t, result.Valid)
	})
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
