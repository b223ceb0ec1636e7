package ingest

import (
	"encoding/csv"
	"fmt"

	"github.com/google/uuid"

	"github.com/chimaridata/joinery/internal/dataset"
)

// Read reads CSV data and returns a dataset with an inferred schema.
func (r *CSVReader) Read() (*dataset.Dataset, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment
	csvReader.TrimLeadingSpace = r.options.TrimLeadingSpace
	// Ragged rows are padded below instead of rejected.
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	if len(records) == 0 {
		return dataset.New(uuid.NewString(), r.name, dataset.NewSchema(), nil), nil
	}

	var headers []string
	var dataRows [][]string

	if r.options.Header {
		headers = records[0]
		dataRows = records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
		dataRows = records
	}

	// Transpose to columns so inference sees one field at a time.
	columns := make([][]string, len(headers))
	for i := range headers {
		columns[i] = make([]string, len(dataRows))
		for j, row := range dataRows {
			if i < len(row) {
				columns[i][j] = row[i]
			}
		}
	}

	profiles := profileColumns(columns)

	schema := dataset.NewSchema()
	for i, header := range headers {
		schema.Set(header, dataset.Field{
			Type:         profiles[i].fieldType,
			Nullable:     profiles[i].nullable,
			SampleValues: profiles[i].samples,
		})
	}

	rows := make([]dataset.Row, len(dataRows))
	for j := range dataRows {
		row := make(dataset.Row, len(headers))
		for i, header := range headers {
			row[header] = cellValue(columns[i][j], profiles[i].fieldType)
		}
		rows[j] = row
	}

	return dataset.New(uuid.NewString(), r.name, schema, rows), nil
}

// Write writes the dataset to CSV format. Field order follows the
// schema; null cells become empty strings.
func (w *CSVWriter) Write(ds *dataset.Dataset) error {
	csvWriter := csv.NewWriter(w.writer)
	if w.options.Delimiter != 0 {
		csvWriter.Comma = w.options.Delimiter
	}
	defer csvWriter.Flush()

	names := ds.Schema.Names()
	if w.options.Header {
		if err := csvWriter.Write(names); err != nil {
			return fmt.Errorf("writing headers: %w", err)
		}
	}

	record := make([]string, len(names))
	for i, row := range ds.Rows {
		for j, name := range names {
			record[j] = csvCell(row.Get(name))
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	return csvWriter.Error()
}

func csvCell(v dataset.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.String()
}
