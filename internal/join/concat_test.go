//nolint:testpackage // requires internal access to unexported types and functions
package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chimaridata/joinery/internal/dataset"
)

func concatFixture() (*dataset.Dataset, *dataset.Dataset) {
	aSchema := dataset.NewSchema()
	aSchema.Set("x", dataset.Field{Type: dataset.TypeNumber})
	a := dataset.New("ds-a", "A", aSchema, []dataset.Row{
		{"x": dataset.Number(1)},
	})

	bSchema := dataset.NewSchema()
	bSchema.Set("y", dataset.Field{Type: dataset.TypeNumber})
	b := dataset.New("ds-b", "B", bSchema, []dataset.Row{
		{"y": dataset.Number(2)},
	})
	return a, b
}

func TestConcatRowsUnionAndNullFill(t *testing.T) {
	a, b := concatFixture()

	rows := concatRows(a, []*dataset.Dataset{b})

	require.Len(t, rows, 2)
	assert.Equal(t, dataset.Number(1), rows[0]["x"])
	assert.Equal(t, dataset.Number(2), rows[1]["y"])

	// Fields a source never had are explicit nulls, present in the row.
	v, present := rows[0]["y"]
	require.True(t, present)
	assert.True(t, v.IsNull())
	v, present = rows[1]["x"]
	require.True(t, present)
	assert.True(t, v.IsNull())
}

func TestConcatRowsSharedFields(t *testing.T) {
	aSchema := dataset.NewSchema()
	aSchema.Set("id", dataset.Field{Type: dataset.TypeNumber})
	aSchema.Set("city", dataset.Field{Type: dataset.TypeText})
	a := dataset.New("ds-a", "A", aSchema, []dataset.Row{
		{"id": dataset.Number(1), "city": dataset.Text("Tokyo")},
	})

	bSchema := dataset.NewSchema()
	bSchema.Set("id", dataset.Field{Type: dataset.TypeNumber})
	bSchema.Set("country", dataset.Field{Type: dataset.TypeText})
	b := dataset.New("ds-b", "B", bSchema, []dataset.Row{
		{"id": dataset.Number(2), "country": dataset.Text("Japan")},
	})

	rows := concatRows(a, []*dataset.Dataset{b})

	// A shared field name stays a single column; no prefixing happens
	// on concatenation.
	require.Len(t, rows, 2)
	assert.Equal(t, dataset.Number(1), rows[0]["id"])
	assert.Equal(t, dataset.Number(2), rows[1]["id"])
	assert.True(t, rows[1]["city"].IsNull())
	assert.True(t, rows[0]["country"].IsNull())
}

func TestConcatRowsOrderAndNoDedup(t *testing.T) {
	schemaFor := func() *dataset.Schema {
		s := dataset.NewSchema()
		s.Set("v", dataset.Field{Type: dataset.TypeNumber})
		return s
	}
	base := dataset.New("ds-base", "base", schemaFor(), []dataset.Row{
		{"v": dataset.Number(1)},
		{"v": dataset.Number(2)},
	})
	t1 := dataset.New("ds-1", "one", schemaFor(), []dataset.Row{
		{"v": dataset.Number(2)},
	})
	t2 := dataset.New("ds-2", "two", schemaFor(), []dataset.Row{
		{"v": dataset.Number(3)},
	})

	rows := concatRows(base, []*dataset.Dataset{t1, t2})

	// Base rows first, then each target's rows in join order. The
	// duplicate value 2 is kept; concatenation never deduplicates.
	require.Len(t, rows, 4)
	want := []float64{1, 2, 2, 3}
	for i, w := range want {
		got, ok := rows[i]["v"].Num()
		require.True(t, ok)
		assert.Equal(t, w, got)
	}
}

func TestUnionFieldsOrder(t *testing.T) {
	baseSchema := dataset.NewSchema()
	baseSchema.Set("b", dataset.Field{Type: dataset.TypeText})
	baseSchema.Set("a", dataset.Field{Type: dataset.TypeText})
	base := dataset.New("ds-base", "base", baseSchema, nil)

	tSchema := dataset.NewSchema()
	tSchema.Set("a", dataset.Field{Type: dataset.TypeText})
	tSchema.Set("c", dataset.Field{Type: dataset.TypeText})
	target := dataset.New("ds-t", "t", tSchema, nil)

	// Base schema order first, then unseen target fields in their
	// schema order.
	assert.Equal(t, []string{"b", "a", "c"}, unionFields(base, []*dataset.Dataset{target}))
}
