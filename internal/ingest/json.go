package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"

	"github.com/chimaridata/joinery/internal/config"
	"github.com/chimaridata/joinery/internal/dataset"
)

// Read reads JSON data and returns a dataset with an inferred schema.
func (r *JSONReader) Read() (*dataset.Dataset, error) {
	var (
		records []map[string]any
		err     error
	)
	switch r.options.Format {
	case JSONArray:
		records, err = r.readArray()
	case JSONLines:
		records, err = r.readLines()
	default:
		return nil, fmt.Errorf("unsupported JSON format: %d", r.options.Format)
	}
	if err != nil {
		return nil, err
	}

	return r.recordsToDataset(records)
}

func (r *JSONReader) readArray() ([]map[string]any, error) {
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading JSON data: %w", err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshaling JSON array: %w", err)
	}

	if r.options.MaxRecords > 0 && len(records) > r.options.MaxRecords {
		records = records[:r.options.MaxRecords]
	}
	return records, nil
}

func (r *JSONReader) readLines() ([]map[string]any, error) {
	scanner := bufio.NewScanner(r.reader)
	var records []map[string]any

	line := 0
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		line++
		if text == "" {
			continue
		}

		var record map[string]any
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			return nil, fmt.Errorf("unmarshaling JSON line %d: %w", line, err)
		}
		records = append(records, record)

		if r.options.MaxRecords > 0 && len(records) >= r.options.MaxRecords {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning JSON lines: %w", err)
	}
	return records, nil
}

// recordsToDataset aligns the records on the union of their keys. JSON
// objects carry no key order, so fields are sorted by name to keep the
// schema deterministic.
func (r *JSONReader) recordsToDataset(records []map[string]any) (*dataset.Dataset, error) {
	fieldSet := make(map[string]bool)
	for _, record := range records {
		for key := range record {
			fieldSet[key] = true
		}
	}
	fields := maps.Keys(fieldSet)
	sort.Strings(fields)

	sampleLimit := config.GetGlobalConfig().SampleValues

	schema := dataset.NewSchema()
	fieldTypes := make(map[string]dataset.FieldType, len(fields))
	for _, field := range fields {
		ft, nullable, samples := r.profileJSONField(records, field, sampleLimit)
		fieldTypes[field] = ft
		schema.Set(field, dataset.Field{
			Type:         ft,
			Nullable:     nullable,
			SampleValues: samples,
		})
	}

	rows := make([]dataset.Row, len(records))
	for i, record := range records {
		row := make(dataset.Row, len(fields))
		for _, field := range fields {
			cell, err := jsonCell(record[field], fieldTypes[field])
			if err != nil {
				return nil, fmt.Errorf("field %q in record %d: %w", field, i, err)
			}
			row[field] = cell
		}
		rows[i] = row
	}

	return dataset.New(uuid.NewString(), r.name, schema, rows), nil
}

// profileJSONField classifies one field across all records. Decoded
// JSON already separates numbers, booleans and strings; strings narrow
// further to dates when every one parses as a date.
func (r *JSONReader) profileJSONField(
	records []map[string]any, field string, sampleLimit int,
) (dataset.FieldType, bool, []string) {
	if !r.options.TypeInference {
		return dataset.TypeText, true, nil
	}

	canBeNumber := true
	canBeBool := true
	canBeDate := true
	hasValue := false
	nullable := false
	var samples []string

	for _, record := range records {
		raw, present := record[field]
		if !present || raw == nil {
			nullable = true
			continue
		}
		hasValue = true
		if len(samples) < sampleLimit {
			samples = append(samples, fmt.Sprintf("%v", raw))
		}

		switch v := raw.(type) {
		case float64:
			canBeBool = false
			canBeDate = false
		case bool:
			canBeNumber = false
			canBeDate = false
		case string:
			canBeNumber = false
			canBeBool = false
			if canBeDate && !parseableDate(v) {
				canBeDate = false
			}
		default:
			canBeNumber = false
			canBeBool = false
			canBeDate = false
		}
	}

	if !hasValue {
		return dataset.TypeText, nullable, samples
	}
	switch {
	case canBeBool:
		return dataset.TypeBool, nullable, samples
	case canBeNumber:
		return dataset.TypeNumber, nullable, samples
	case canBeDate:
		return dataset.TypeDate, nullable, samples
	default:
		return dataset.TypeText, nullable, samples
	}
}

// jsonCell converts one decoded JSON value into a typed cell. Nested
// objects and arrays are kept as their JSON text.
func jsonCell(raw any, ft dataset.FieldType) (dataset.Value, error) {
	switch v := raw.(type) {
	case nil:
		return dataset.Null, nil
	case float64:
		return dataset.Number(v), nil
	case bool:
		return dataset.Bool(v), nil
	case string:
		return dataset.CoerceToType(dataset.Text(v), ft), nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return dataset.Null, fmt.Errorf("cannot convert %T to a cell: %w", raw, err)
		}
		return dataset.Text(string(encoded)), nil
	}
}
