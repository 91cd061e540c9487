package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "Ada Smith", "ada smith"},
		{"strips punctuation", "O'Brien, Patrick", "obrien patrick"},
		{"strips suffix", "Ben Jones Jr.", "ben jones"},
		{"collapses whitespace", "  Ada   Smith ", "ada smith"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Name(tt.input))
		})
	}
}

func TestQueryMatchesNameNormalization(t *testing.T) {
	assert.Equal(t, Name("O'Brien"), Query("o'brien"))
}
