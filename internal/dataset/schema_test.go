package dataset_test

import (
	"encoding/json"
	"testing"

	"github.com/chimaridata/joinery/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaInsertionOrder(t *testing.T) {
	s := dataset.NewSchema()
	s.Set("id", dataset.Field{Type: dataset.TypeNumber})
	s.Set("name", dataset.Field{Type: dataset.TypeText})
	s.Set("signup", dataset.Field{Type: dataset.TypeDate, Nullable: true})

	assert.Equal(t, []string{"id", "name", "signup"}, s.Names())
	assert.Equal(t, 3, s.Len())

	// Updating an existing field keeps its position.
	s.Set("name", dataset.Field{Type: dataset.TypeText, Nullable: true})
	assert.Equal(t, []string{"id", "name", "signup"}, s.Names())

	f, ok := s.Get("name")
	require.True(t, ok)
	assert.True(t, f.Nullable)

	assert.True(t, s.Has("id"))
	assert.False(t, s.Has("missing"))
}

func TestSchemaClone(t *testing.T) {
	s := dataset.NewSchema()
	s.Set("id", dataset.Field{Type: dataset.TypeNumber, SampleValues: []string{"1", "2"}})

	clone := s.Clone()
	clone.Set("extra", dataset.Field{Type: dataset.TypeText})
	cloneField, _ := clone.Get("id")
	cloneField.SampleValues[0] = "changed"

	// The original is unaffected by mutations of the clone.
	assert.Equal(t, []string{"id"}, s.Names())
	origField, _ := s.Get("id")
	assert.Equal(t, "1", origField.SampleValues[0])
}

func TestSchemaJSONPreservesOrder(t *testing.T) {
	s := dataset.NewSchema()
	s.Set("zeta", dataset.Field{Type: dataset.TypeText})
	s.Set("alpha", dataset.Field{Type: dataset.TypeNumber, Nullable: true})
	s.Set("mid", dataset.Field{Type: dataset.TypeBool, Description: "flag"})

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded dataset.Schema
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, decoded.Names())
	f, ok := decoded.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, dataset.TypeNumber, f.Type)
	assert.True(t, f.Nullable)
	mid, _ := decoded.Get("mid")
	assert.Equal(t, "flag", mid.Description)
}

func TestFieldTypeRoundTrip(t *testing.T) {
	for _, ft := range []dataset.FieldType{
		dataset.TypeNumber, dataset.TypeText, dataset.TypeDate, dataset.TypeBool,
	} {
		parsed, err := dataset.ParseFieldType(ft.String())
		require.NoError(t, err)
		assert.Equal(t, ft, parsed)
	}

	_, err := dataset.ParseFieldType("varchar")
	assert.Error(t, err)

	assert.Equal(t, "boolean", dataset.TypeBool.String())
}
