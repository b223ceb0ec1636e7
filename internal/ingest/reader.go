// Package ingest reads external data into datasets.
//
// This package includes readers for CSV and JSON sources with
// automatic schema inference, and a CSV writer for exporting derived
// datasets. Inference classifies each column as number, boolean, date
// or text, records nullability, and captures a handful of sample
// values for the schema.
//
// Key components:
//   - DatasetReader/DatasetWriter interfaces for pluggable backends
//   - CSVReader/CSVWriter for CSV sources and exports
//   - JSONReader for JSON arrays and JSON Lines
//   - Per-column type inference, run in parallel for wide inputs
//
// Wide inputs hand column inference to the worker pool; the
// inference_threshold configuration knob sets the column count at
// which that starts.
package ingest

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chimaridata/joinery/internal/dataset"
)

// DatasetReader defines the interface for reading data from a source.
type DatasetReader interface {
	// Read consumes the source and returns a dataset.
	Read() (*dataset.Dataset, error)
}

// DatasetWriter defines the interface for writing a dataset out.
type DatasetWriter interface {
	// Write writes the dataset to the destination.
	Write(ds *dataset.Dataset) error
}

// CSVOptions contains configuration options for CSV reading.
type CSVOptions struct {
	// Delimiter is the field delimiter (default: comma)
	Delimiter rune
	// Comment is the comment character (default: 0 = disabled)
	Comment rune
	// Header indicates whether the first row contains headers
	Header bool
	// TrimLeadingSpace indicates whether to skip initial whitespace
	TrimLeadingSpace bool
}

// DefaultCSVOptions returns default CSV options.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter: ',',
		Comment:   0,
		Header:    true,
	}
}

// CSVReader reads CSV data and converts it to a dataset.
type CSVReader struct {
	reader  io.Reader
	name    string
	options CSVOptions
}

// NewCSVReader creates a CSV reader. The name becomes the dataset's
// name and the prefix of its joined fields.
func NewCSVReader(reader io.Reader, name string, options CSVOptions) *CSVReader {
	return &CSVReader{
		reader:  reader,
		name:    name,
		options: options,
	}
}

// CSVWriter writes datasets to CSV format.
type CSVWriter struct {
	writer  io.Writer
	options CSVOptions
}

// NewCSVWriter creates a CSV writer with the specified options.
func NewCSVWriter(writer io.Writer, options CSVOptions) *CSVWriter {
	return &CSVWriter{
		writer:  writer,
		options: options,
	}
}

// JSONFormat selects the JSON encoding a reader expects.
type JSONFormat int

const (
	// JSONArray is a single top-level array of objects.
	JSONArray JSONFormat = iota
	// JSONLines is one JSON object per line.
	JSONLines
)

// JSONOptions contains configuration options for JSON reading.
type JSONOptions struct {
	// Format selects array or line-delimited input
	Format JSONFormat
	// MaxRecords limits how many records are read (0 = unlimited)
	MaxRecords int
	// TypeInference enables column type inference; when disabled every
	// field is text
	TypeInference bool
}

// DefaultJSONOptions returns default JSON options.
func DefaultJSONOptions() JSONOptions {
	return JSONOptions{
		Format:        JSONArray,
		TypeInference: true,
	}
}

// JSONReader reads JSON data and converts it to a dataset.
type JSONReader struct {
	reader  io.Reader
	name    string
	options JSONOptions
}

// NewJSONReader creates a JSON reader. The name becomes the dataset's
// name and the prefix of its joined fields.
func NewJSONReader(reader io.Reader, name string, options JSONOptions) *JSONReader {
	return &JSONReader{
		reader:  reader,
		name:    name,
		options: options,
	}
}

// ReadCSVFile reads a CSV file into a dataset named after the file.
func ReadCSVFile(path string, options CSVOptions) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return NewCSVReader(f, datasetNameFromPath(path), options).Read()
}

// ReadJSONFile reads a JSON file into a dataset named after the file.
// Files ending in .jsonl or .ndjson are read as JSON Lines.
func ReadJSONFile(path string, options JSONOptions) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		options.Format = JSONLines
	}
	return NewJSONReader(f, datasetNameFromPath(path), options).Read()
}

func datasetNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
