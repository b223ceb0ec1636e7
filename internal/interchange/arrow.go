// Package interchange converts datasets to and from Apache Arrow record
// batches. Downstream analysis runtimes consume join results in Arrow
// form; columns appear in schema order and null cells map to Arrow
// nulls in both directions.
package interchange

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/google/uuid"

	"github.com/chimaridata/joinery/internal/dataset"
)

// timestampType is the Arrow type backing date fields. Nanosecond
// precision round-trips date cells exactly.
var timestampType = &arrow.TimestampType{Unit: arrow.Nanosecond}

// ToRecord converts a dataset into an Arrow record batch. The caller
// owns the returned record and must Release it.
func ToRecord(d *dataset.Dataset) (arrow.Record, error) {
	mem := memory.NewGoAllocator()

	names := d.Schema.Names()
	fields := make([]arrow.Field, 0, len(names))
	columns := make([]arrow.Array, 0, len(names))
	// NewRecord retains the columns it keeps; drop the build references
	// on every exit path.
	defer func() {
		for _, col := range columns {
			col.Release()
		}
	}()

	for _, name := range names {
		field, _ := d.Schema.Get(name)
		arr, err := buildColumn(name, field.Type, d.Rows, mem)
		if err != nil {
			return nil, fmt.Errorf("converting column %s: %w", name, err)
		}
		columns = append(columns, arr)
		fields = append(fields, arrow.Field{Name: name, Type: arr.DataType(), Nullable: field.Nullable})
	}

	schema := arrow.NewSchema(fields, nil)
	return array.NewRecord(schema, columns, int64(len(d.Rows))), nil
}

// buildColumn materializes one schema field as an Arrow array.
func buildColumn(
	field string, ft dataset.FieldType, rows []dataset.Row, mem memory.Allocator,
) (arrow.Array, error) {
	switch ft {
	case dataset.TypeNumber:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		for i, row := range rows {
			v := row.Get(field)
			if v.IsNull() {
				builder.AppendNull()
				continue
			}
			num, ok := v.Num()
			if !ok {
				return nil, fmt.Errorf("row %d: %s is not a number", i, v)
			}
			builder.Append(num)
		}
		return builder.NewArray(), nil

	case dataset.TypeText:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		for _, row := range rows {
			v := row.Get(field)
			if v.IsNull() {
				builder.AppendNull()
				continue
			}
			// Text columns may carry mixed scalar kinds; render them.
			builder.Append(v.String())
		}
		return builder.NewArray(), nil

	case dataset.TypeBool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		for i, row := range rows {
			v := row.Get(field)
			if v.IsNull() {
				builder.AppendNull()
				continue
			}
			b, ok := v.BoolVal()
			if !ok {
				return nil, fmt.Errorf("row %d: %s is not a boolean", i, v)
			}
			builder.Append(b)
		}
		return builder.NewArray(), nil

	case dataset.TypeDate:
		builder := array.NewTimestampBuilder(mem, timestampType)
		defer builder.Release()
		for i, row := range rows {
			v := row.Get(field)
			if v.IsNull() {
				builder.AppendNull()
				continue
			}
			t, ok := v.Time()
			if !ok {
				return nil, fmt.Errorf("row %d: %s is not a date", i, v)
			}
			builder.Append(arrow.Timestamp(t.UnixNano()))
		}
		return builder.NewArray(), nil

	default:
		return nil, fmt.Errorf("unsupported field type: %s", ft)
	}
}

// FromRecord converts an Arrow record batch back into a dataset with a
// fresh ID. Field nullability is taken from the Arrow schema.
func FromRecord(rec arrow.Record, name string) (*dataset.Dataset, error) {
	schema := dataset.NewSchema()
	numCols := int(rec.NumCols())

	rows := make([]dataset.Row, rec.NumRows())
	for i := range rows {
		rows[i] = make(dataset.Row, numCols)
	}

	for c := 0; c < numCols; c++ {
		field := rec.Schema().Field(c)

		ft, err := fieldTypeOf(field.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", field.Name, err)
		}
		schema.Set(field.Name, dataset.Field{Type: ft, Nullable: field.Nullable})

		if err := fillColumn(rows, field.Name, rec.Column(c)); err != nil {
			return nil, fmt.Errorf("column %s: %w", field.Name, err)
		}
	}

	return dataset.New(uuid.NewString(), name, schema, rows), nil
}

// fieldTypeOf maps an Arrow data type onto a dataset field type.
func fieldTypeOf(dt arrow.DataType) (dataset.FieldType, error) {
	//nolint:exhaustive // Only the dataset scalar types are supported.
	switch dt.ID() {
	case arrow.FLOAT64:
		return dataset.TypeNumber, nil
	case arrow.STRING:
		return dataset.TypeText, nil
	case arrow.BOOL:
		return dataset.TypeBool, nil
	case arrow.TIMESTAMP:
		return dataset.TypeDate, nil
	default:
		return 0, fmt.Errorf("unsupported Arrow type: %s", dt)
	}
}

// fillColumn writes one Arrow array into the corresponding row cells.
func fillColumn(rows []dataset.Row, field string, col arrow.Array) error {
	switch arr := col.(type) {
	case *array.Float64:
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				rows[i][field] = dataset.Null
				continue
			}
			rows[i][field] = dataset.Number(arr.Value(i))
		}
	case *array.String:
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				rows[i][field] = dataset.Null
				continue
			}
			rows[i][field] = dataset.Text(arr.Value(i))
		}
	case *array.Boolean:
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				rows[i][field] = dataset.Null
				continue
			}
			rows[i][field] = dataset.Bool(arr.Value(i))
		}
	case *array.Timestamp:
		unit := arr.DataType().(*arrow.TimestampType).Unit
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				rows[i][field] = dataset.Null
				continue
			}
			rows[i][field] = dataset.Date(arr.Value(i).ToTime(unit))
		}
	default:
		return fmt.Errorf("unsupported array type: %T", col)
	}
	return nil
}
