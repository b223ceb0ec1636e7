package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Kind identifies the scalar kind held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindBool
	KindDate
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is an immutable tagged scalar: a number, text, boolean, date or
// null cell. The zero value is Null. Values of different kinds never
// compare equal, so a numeric 1 and the text "1" cannot silently match
// during a join.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
	t    time.Time
}

// Null is the absent/unknown cell value.
var Null = Value{}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Text returns a text Value.
func Text(s string) Value {
	return Value{kind: KindText, str: s}
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Date returns a date Value. The instant is normalized to UTC so equal
// instants in different locations compare and canonicalize equally.
func Date(t time.Time) Value {
	return Value{kind: KindDate, t: t.UTC()}
}

// Kind returns the scalar kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is the null cell.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Num returns the numeric payload; ok is false for non-number values.
func (v Value) Num() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Str returns the text payload; ok is false for non-text values.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindText
}

// BoolVal returns the boolean payload; ok is false for non-bool values.
func (v Value) BoolVal() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Time returns the date payload; ok is false for non-date values.
func (v Value) Time() (time.Time, bool) {
	return v.t, v.kind == KindDate
}

// Equal reports whether two values hold the same kind and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindNumber:
		return v.num == other.num
	case KindText:
		return v.str == other.str
	case KindBool:
		return v.b == other.b
	case KindDate:
		return v.t.Equal(other.t)
	default:
		return false
	}
}

// String renders the value for display. Null renders as "null".
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindText:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.Format(time.RFC3339)
	default:
		return fmt.Sprintf("invalid(%d)", int(v.kind))
	}
}

// AppendCanonical appends a kind-tagged byte encoding of the value.
// Two values produce the same encoding iff Equal reports true, which
// makes the encoding usable as a hash-index key.
func (v Value) AppendCanonical(dst []byte) []byte {
	switch v.kind {
	case KindNumber:
		dst = append(dst, 'n')
		return strconv.AppendFloat(dst, v.num, 'g', -1, 64)
	case KindText:
		dst = append(dst, 't')
		return append(dst, v.str...)
	case KindBool:
		if v.b {
			return append(dst, 'b', '1')
		}
		return append(dst, 'b', '0')
	case KindDate:
		dst = append(dst, 'd')
		return v.t.AppendFormat(dst, time.RFC3339Nano)
	default:
		return append(dst, 'z')
	}
}

// MarshalJSON encodes the value as its natural JSON scalar. Dates
// encode as RFC3339 strings, matching the platform's wire format.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindNumber:
		return json.Marshal(v.num)
	case KindText:
		return json.Marshal(v.str)
	case KindBool:
		return json.Marshal(v.b)
	case KindDate:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	default:
		return nil, fmt.Errorf("cannot marshal value of kind %d", int(v.kind))
	}
}

// UnmarshalJSON decodes a JSON scalar into a value. JSON strings decode
// as text; callers holding a schema re-type date fields afterwards (see
// CoerceToType), since JSON itself cannot distinguish the two.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case nil:
		*v = Null
	case float64:
		*v = Number(val)
	case string:
		*v = Text(val)
	case bool:
		*v = Bool(val)
	default:
		return fmt.Errorf("unsupported JSON scalar %T for value", raw)
	}
	return nil
}

// CoerceToType re-types a value to match a schema field type where the
// conversion is lossless: text holding an RFC3339 or YYYY-MM-DD date
// becomes a date when the field type is date. All other values are
// returned unchanged.
func CoerceToType(v Value, ft FieldType) Value {
	if ft != TypeDate || v.kind != KindText {
		return v
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v.str); err == nil {
			return Date(t)
		}
	}
	return v
}
