package fingerprint

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(map[string]any{"title": "Smith Wedding", "attendees": float64(120)})
	b := Generate(map[string]any{"attendees": float64(120), "title": "Smith Wedding"})
	assert.Equal(t, a, b)
}

func TestGenerate_DetectsChange(t *testing.T) {
	a := Generate(map[string]any{"title": "Smith Wedding"})
	b := Generate(map[string]any{"title": "Jones Wedding"})
	assert.NotEqual(t, a, b)
}

func TestGenerateFromJSON_MatchesMap(t *testing.T) {
	m := map[string]any{"title": "Smith Wedding", "nested": map[string]any{"a": float64(1)}}
	raw, err := json.Marshal(m)
	require.NoError(t, err)

	fromJSON, err := GenerateFromJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, Generate(m), fromJSON)
}

func TestGenerateFromJSON_InvalidPayload(t *testing.T) {
	_, err := GenerateFromJSON(json.RawMessage(`[1,2,3]`))
	assert.Error(t, err)
}
