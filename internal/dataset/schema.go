package dataset

import (
	"encoding/json"
	"fmt"
)

// FieldType classifies a schema field. The string forms ("number",
// "text", "date", "boolean") are the platform's wire vocabulary and are
// used in schema JSON and ingestion output.
type FieldType int

const (
	TypeNumber FieldType = iota + 1
	TypeText
	TypeDate
	TypeBool
)

// String returns the wire name of the field type.
func (t FieldType) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeText:
		return "text"
	case TypeDate:
		return "date"
	case TypeBool:
		return "boolean"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// ParseFieldType converts a wire name back to a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	switch s {
	case "number":
		return TypeNumber, nil
	case "text":
		return TypeText, nil
	case "date":
		return TypeDate, nil
	case "boolean":
		return TypeBool, nil
	default:
		return 0, fmt.Errorf("unknown field type %q", s)
	}
}

// MarshalJSON encodes the type as its wire name.
func (t FieldType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a wire name into a FieldType.
func (t *FieldType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseFieldType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Field describes one dataset column: its type, nullability, a few
// sample values captured at ingestion time, and a free-form description
// that accumulates provenance notes as datasets are joined.
type Field struct {
	Type         FieldType `json:"type"`
	Nullable     bool      `json:"nullable"`
	SampleValues []string  `json:"sampleValues,omitempty"`
	Description  string    `json:"description,omitempty"`
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	if f.SampleValues != nil {
		out.SampleValues = make([]string, len(f.SampleValues))
		copy(out.SampleValues, f.SampleValues)
	}
	return out
}

// Schema is an insertion-ordered mapping of field name to Field. Field
// order is preserved for display; it carries no correctness meaning.
type Schema struct {
	names  []string
	fields map[string]Field
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{fields: make(map[string]Field)}
}

// Set inserts or updates a field. The first insertion of a name fixes
// its position; updating an existing field keeps it in place.
func (s *Schema) Set(name string, f Field) {
	if _, exists := s.fields[name]; !exists {
		s.names = append(s.names, name)
	}
	s.fields[name] = f
}

// Get returns the field for name.
func (s *Schema) Get(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Has reports whether the schema contains name.
func (s *Schema) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// Names returns the field names in schema order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.names)
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	out := NewSchema()
	for _, name := range s.names {
		out.Set(name, s.fields[name].Clone())
	}
	return out
}

// schemaEntry is the JSON shape of one schema field. The schema
// serializes as an array so field order survives the round trip.
type schemaEntry struct {
	Name string `json:"name"`
	Field
}

// MarshalJSON encodes the schema as an ordered array of field entries.
func (s *Schema) MarshalJSON() ([]byte, error) {
	entries := make([]schemaEntry, 0, len(s.names))
	for _, name := range s.names {
		entries = append(entries, schemaEntry{Name: name, Field: s.fields[name]})
	}
	return json.Marshal(entries)
}

// UnmarshalJSON decodes an ordered array of field entries.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var entries []schemaEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	s.names = nil
	s.fields = make(map[string]Field, len(entries))
	for _, e := range entries {
		s.Set(e.Name, e.Field)
	}
	return nil
}
