// Package joinery merges uploaded datasets: hash-based relational joins
// with four join types, vertical concatenation with column alignment,
// and schema reconciliation that prefixes incoming field names and
// tracks provenance. Requests are validated up front and execution is
// fail-atomic, so a failed merge never yields a partial dataset.
// This package is the sole public API for the engine.
package joinery

import (
	"time"

	"github.com/chimaridata/joinery/internal/config"
	"github.com/chimaridata/joinery/internal/dataset"
	joinerrors "github.com/chimaridata/joinery/internal/errors"
	"github.com/chimaridata/joinery/internal/join"
)

// Core dataset types.
type (
	// Dataset is a named, schema-described collection of rows.
	Dataset = dataset.Dataset
	// Schema is an insertion-ordered mapping of field name to Field.
	Schema = dataset.Schema
	// Field describes one dataset column.
	Field = dataset.Field
	// FieldType is the scalar type of a column.
	FieldType = dataset.FieldType
	// Value is one immutable cell.
	Value = dataset.Value
	// Row maps field names to cell values.
	Row = dataset.Row
	// Provenance records how a derived dataset was produced.
	Provenance = dataset.Provenance
	// SourceRef identifies one input of a derived dataset.
	SourceRef = dataset.SourceRef
	// JoinType selects the relational join semantics.
	JoinType = dataset.JoinType
	// MergeStrategy selects horizontal join or vertical concat.
	MergeStrategy = dataset.MergeStrategy
	// JoinConfig describes one merge request.
	JoinConfig = dataset.JoinConfig
	// JoinResult is the outcome envelope of a merge request.
	JoinResult = dataset.JoinResult
	// JoinError is the typed error attached to failed results.
	JoinError = joinerrors.JoinError
	// ErrorCode classifies join failures.
	ErrorCode = joinerrors.Code
	// Config holds the engine's tuning knobs.
	Config = config.Config
)

// Join failure codes.
const (
	CodeNoTargetsSpecified = joinerrors.CodeNoTargetsSpecified
	CodeMissingJoinKey     = joinerrors.CodeMissingJoinKey
	CodeJoinKeyNotInSchema = joinerrors.CodeJoinKeyNotInSchema
	CodeDatasetNotFound    = joinerrors.CodeDatasetNotFound
	CodeEmptyBaseDataset   = joinerrors.CodeEmptyBaseDataset
	CodeEmptyJoinDataset   = joinerrors.CodeEmptyJoinDataset
	CodeFieldCollision     = joinerrors.CodeFieldCollision
	CodeInternal           = joinerrors.CodeInternal
)

// Join types.
const (
	InnerJoin     = dataset.InnerJoin
	LeftJoin      = dataset.LeftJoin
	RightJoin     = dataset.RightJoin
	FullOuterJoin = dataset.FullOuterJoin
)

// Merge strategies.
const (
	StrategyMerge  = dataset.StrategyMerge
	StrategyConcat = dataset.StrategyConcat
)

// Field types.
const (
	TypeNumber = dataset.TypeNumber
	TypeText   = dataset.TypeText
	TypeDate   = dataset.TypeDate
	TypeBool   = dataset.TypeBool
)

// Null is the absent/unknown cell value.
var Null = dataset.Null

// Number returns a numeric Value.
func Number(f float64) Value { return dataset.Number(f) }

// Text returns a text Value.
func Text(s string) Value { return dataset.Text(s) }

// Bool returns a boolean Value.
func Bool(b bool) Value { return dataset.Bool(b) }

// Date returns a date Value normalized to UTC.
func Date(t time.Time) Value { return dataset.Date(t) }

// NewDataset creates a dataset with RecordCount derived from the rows.
func NewDataset(id, name string, schema *Schema, rows []Row) *Dataset {
	return dataset.New(id, name, schema, rows)
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return dataset.NewSchema()
}

// ParseJoinType converts a wire name ("inner", "left", "right",
// "full_outer") to a JoinType.
func ParseJoinType(s string) (JoinType, error) {
	return dataset.ParseJoinType(s)
}

// ParseMergeStrategy converts a wire name ("merge", "concat") to a
// MergeStrategy.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	return dataset.ParseMergeStrategy(s)
}

// ParseFieldType converts a wire name ("number", "text", "date",
// "boolean") to a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	return dataset.ParseFieldType(s)
}

// Join executes the configured merge of base with the targets and
// returns its outcome. targets maps dataset id to dataset; cfg.JoinWith
// fixes the processing order. The result is fail-atomic: on any error
// Success is false, Err carries a JoinError and no dataset is attached.
func Join(cfg *JoinConfig, base *Dataset, targets map[string]*Dataset) *JoinResult {
	return join.New().Run(cfg, base, targets)
}

// Validate checks a merge request without executing it. The returned
// error, if any, is a *JoinError.
func Validate(cfg *JoinConfig, base *Dataset, targets map[string]*Dataset) error {
	if jerr := join.New().Validate(cfg, base, targets); jerr != nil {
		return jerr
	}
	return nil
}

// DefaultConfig returns the engine configuration defaults.
func DefaultConfig() Config {
	return config.NewConfig()
}

// LoadConfigFromFile loads engine configuration from a JSON or YAML
// file.
func LoadConfigFromFile(path string) (Config, error) {
	return config.LoadFromFile(path)
}

// SetGlobalConfig installs cfg as the configuration new engine
// instances pick up.
func SetGlobalConfig(cfg Config) {
	config.SetGlobalConfig(cfg)
}

// GetGlobalConfig returns the currently installed configuration.
func GetGlobalConfig() Config {
	return config.GetGlobalConfig()
}
