// Package dataset defines the data model the join engine operates on:
// typed cell values, insertion-ordered schemas, row records and the
// Dataset unit itself, plus the join request and result shapes that
// cross the service boundary.
package dataset

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chimaridata/joinery/internal/errors"
)

// Row is one record: a mapping from field name to cell value. A row may
// omit fields present in the schema; an absent field reads as Null.
type Row map[string]Value

// Get returns the value for name, or Null when the field is absent.
func (r Row) Get(name string) Value {
	if v, ok := r[name]; ok {
		return v
	}
	return Null
}

// Clone returns a shallow copy of the row. Values are immutable, so a
// shallow copy is safe to mutate independently.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// SourceRef records one input dataset of a derived dataset, with the
// record count it had at derivation time.
type SourceRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RecordCount int    `json:"recordCount"`
}

// Provenance is the audit metadata attached to a derived dataset: how
// it was produced, from which sources, and when.
type Provenance struct {
	MergeStrategy MergeStrategy     `json:"mergeStrategy"`
	JoinType      JoinType          `json:"joinType"`
	JoinKeys      map[string]string `json:"joinKeys,omitempty"`
	Sources       []SourceRef       `json:"sources"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// Dataset is the unit the engine operates on: a named, schema'd
// collection of rows. Datasets used as join inputs are never mutated;
// derived datasets are fresh values owned by the caller.
type Dataset struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Schema      *Schema     `json:"schema"`
	Rows        []Row       `json:"rows"`
	RecordCount int         `json:"recordCount"`
	Provenance  *Provenance `json:"provenance,omitempty"`
}

// New creates a dataset with RecordCount derived from the rows.
func New(id, name string, schema *Schema, rows []Row) *Dataset {
	return &Dataset{
		ID:          id,
		Name:        name,
		Schema:      schema,
		Rows:        rows,
		RecordCount: len(rows),
	}
}

// Validate checks the dataset's structural invariants: a schema must be
// present, RecordCount must equal the row count, and every row field
// must appear in the schema.
func (d *Dataset) Validate() error {
	if d.Schema == nil {
		return fmt.Errorf("dataset '%s' has no schema", d.Name)
	}
	if d.RecordCount != len(d.Rows) {
		return fmt.Errorf("dataset '%s' record count %d does not match %d rows",
			d.Name, d.RecordCount, len(d.Rows))
	}
	for i, row := range d.Rows {
		for field := range row {
			if !d.Schema.Has(field) {
				return fmt.Errorf("dataset '%s' row %d has field '%s' not present in schema",
					d.Name, i, field)
			}
		}
	}
	return nil
}

// JoinType selects the relational join semantics applied to every
// pairwise join in a merge request.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullOuterJoin
)

// String returns the wire name of the join type.
func (jt JoinType) String() string {
	switch jt {
	case InnerJoin:
		return "inner"
	case LeftJoin:
		return "left"
	case RightJoin:
		return "right"
	case FullOuterJoin:
		return "outer"
	default:
		return fmt.Sprintf("jointype(%d)", int(jt))
	}
}

// ParseJoinType converts a wire name back to a JoinType.
func ParseJoinType(s string) (JoinType, error) {
	switch s {
	case "inner":
		return InnerJoin, nil
	case "left":
		return LeftJoin, nil
	case "right":
		return RightJoin, nil
	case "outer":
		return FullOuterJoin, nil
	default:
		return 0, fmt.Errorf("unknown join type %q", s)
	}
}

// MarshalJSON encodes the join type as its wire name.
func (jt JoinType) MarshalJSON() ([]byte, error) {
	return json.Marshal(jt.String())
}

// UnmarshalJSON decodes a wire name into a JoinType.
func (jt *JoinType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseJoinType(s)
	if err != nil {
		return err
	}
	*jt = parsed
	return nil
}

// MergeStrategy selects between relational joining on keys and vertical
// concatenation with column alignment.
type MergeStrategy int

const (
	StrategyMerge MergeStrategy = iota
	StrategyConcat
)

// String returns the wire name of the strategy.
func (ms MergeStrategy) String() string {
	switch ms {
	case StrategyMerge:
		return "merge"
	case StrategyConcat:
		return "concat"
	default:
		return fmt.Sprintf("strategy(%d)", int(ms))
	}
}

// ParseMergeStrategy converts a wire name back to a MergeStrategy.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch s {
	case "merge":
		return StrategyMerge, nil
	case "concat":
		return StrategyConcat, nil
	default:
		return 0, fmt.Errorf("unknown merge strategy %q", s)
	}
}

// MarshalJSON encodes the strategy as its wire name.
func (ms MergeStrategy) MarshalJSON() ([]byte, error) {
	return json.Marshal(ms.String())
}

// UnmarshalJSON decodes a wire name into a MergeStrategy.
func (ms *MergeStrategy) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMergeStrategy(s)
	if err != nil {
		return err
	}
	*ms = parsed
	return nil
}

// JoinConfig is the join request: which datasets to fold into the base,
// how to join them, and on which keys. JoinKeys maps dataset id to that
// dataset's key field; it is required for every participant in merge
// mode and ignored for concat.
type JoinConfig struct {
	JoinWith      []string          `json:"joinWithProjects"`
	JoinType      JoinType          `json:"joinType"`
	JoinKeys      map[string]string `json:"joinKeys,omitempty"`
	MergeStrategy MergeStrategy     `json:"mergeStrategy"`
}

// JoinResult is the engine's answer. On success ResultDataset holds the
// derived dataset and RecordCount/JoinedFields mirror it; on failure
// Err is set and no dataset is returned.
type JoinResult struct {
	Success       bool
	ResultDataset *Dataset
	RecordCount   int
	JoinedFields  []string
	Err           *errors.JoinError
}

// ErrorMessage returns the user-visible failure message, or "" on
// success. Only this string crosses the service boundary; the
// structured error stays available to callers that branch on kind.
func (r *JoinResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Message
}

// joinResultJSON is the response-contract shape of a JoinResult.
type joinResultJSON struct {
	Success       bool     `json:"success"`
	ResultDataset *Dataset `json:"resultDataset,omitempty"`
	RecordCount   int      `json:"recordCount"`
	JoinedFields  []string `json:"joinedFields"`
	Error         string   `json:"error,omitempty"`
}

// MarshalJSON encodes the result in the service response shape: the
// structured error collapses to its message string.
func (r *JoinResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(joinResultJSON{
		Success:       r.Success,
		ResultDataset: r.ResultDataset,
		RecordCount:   r.RecordCount,
		JoinedFields:  r.JoinedFields,
		Error:         r.ErrorMessage(),
	})
}
