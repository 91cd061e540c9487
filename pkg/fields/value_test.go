package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_IsPresent(t *testing.T) {
	t.Run("nil is absent", func(t *testing.T) {
		v := Value{Name: "date", Kind: KindDate, Raw: nil}
		assert.False(t, v.IsPresent())
	})

	t.Run("empty string is absent", func(t *testing.T) {
		v := Value{Name: "notes", Kind: KindText, Raw: ""}
		assert.False(t, v.IsPresent())
	})

	t.Run("zero is present", func(t *testing.T) {
		v := Value{Name: "attendees", Kind: KindNumber, Raw: float64(0)}
		assert.True(t, v.IsPresent())
	})

	t.Run("false is present", func(t *testing.T) {
		v := Value{Name: "confirmed", Kind: KindYesNo, Raw: false}
		assert.True(t, v.IsPresent())
	})

	t.Run("non-empty string is present", func(t *testing.T) {
		v := Value{Name: "notes", Kind: KindText, Raw: "hello"}
		assert.True(t, v.IsPresent())
	})
}

func TestValue_RefID(t *testing.T) {
	t.Run("reference kind with id", func(t *testing.T) {
		v := Value{Name: "celebrant", Kind: KindPerson, Raw: "person-1"}
		id, ok := v.RefID()
		assert.True(t, ok)
		assert.Equal(t, "person-1", id)
	})

	t.Run("scalar kind never yields a ref", func(t *testing.T) {
		v := Value{Name: "notes", Kind: KindText, Raw: "person-1"}
		_, ok := v.RefID()
		assert.False(t, ok)
	})

	t.Run("empty id yields no ref", func(t *testing.T) {
		v := Value{Name: "celebrant", Kind: KindPerson, Raw: ""}
		_, ok := v.RefID()
		assert.False(t, ok)
	})

	t.Run("non-string raw yields no ref", func(t *testing.T) {
		v := Value{Name: "celebrant", Kind: KindPerson, Raw: 42}
		_, ok := v.RefID()
		assert.False(t, ok)
	})
}

func TestDecode(t *testing.T) {
	defs := []Definition{
		{Name: "title", Kind: KindText, Required: true},
		{Name: "attendees", Kind: KindNumber},
		{Name: "celebrant", Kind: KindPerson},
	}

	t.Run("declared keys decode to typed values", func(t *testing.T) {
		values, errs := Decode(defs, map[string]any{
			"title":     "Smith Wedding",
			"attendees": float64(120),
		})
		require.Empty(t, errs)
		require.Len(t, values, 3)
		assert.Equal(t, KindText, values["title"].Kind)
		assert.Equal(t, "Smith Wedding", values["title"].Raw)
	})

	t.Run("absent declared fields decode with nil raw", func(t *testing.T) {
		values, errs := Decode(defs, map[string]any{"title": "x"})
		require.Empty(t, errs)
		assert.False(t, values["celebrant"].IsPresent())
		assert.Nil(t, values["celebrant"].Raw)
	})

	t.Run("undeclared keys are reported", func(t *testing.T) {
		_, errs := Decode(defs, map[string]any{
			"title":   "x",
			"stowed":  "y",
			"another": 1,
		})
		assert.Len(t, errs, 2)
	})
}

func TestKind_Parse(t *testing.T) {
	t.Run("known kind", func(t *testing.T) {
		k, err := Parse("person")
		require.NoError(t, err)
		assert.Equal(t, KindPerson, k)
		assert.True(t, k.IsReference())
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := Parse("telepathy")
		assert.Error(t, err)
	})

	t.Run("scalar kinds are not references", func(t *testing.T) {
		for _, k := range []Kind{KindText, KindRichText, KindNumber, KindDate, KindTime, KindDateTime, KindYesNo} {
			assert.False(t, k.IsReference(), string(k))
		}
	})
}
