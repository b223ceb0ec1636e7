// Package errors provides standardized error types for join operations.
// This package defines JoinError for consistent error handling across
// all public APIs, with a closed error-code taxonomy, operation context
// and error wrapping support. Only the Message field is intended to
// cross the service boundary; everything else is structured context for
// callers that branch on error kind.
package errors

import (
	"fmt"
)

// Code identifies the kind of join failure. Codes are stable; callers
// may branch on them instead of string-matching messages.
type Code int

// Request-shape errors are detected by validation before any join
// computation starts. Execution errors are recovered at the
// orchestrator boundary and reported with CodeInternal.
const (
	CodeNoTargetsSpecified Code = iota + 1000
	CodeMissingJoinKey
	CodeJoinKeyNotInSchema
	CodeDatasetNotFound
	CodeEmptyBaseDataset
	CodeEmptyJoinDataset
	CodeFieldCollision
)

const (
	CodeInternal Code = iota + 2000
)

// String returns the symbolic name of the code.
func (c Code) String() string {
	switch c {
	case CodeNoTargetsSpecified:
		return "NoTargetsSpecified"
	case CodeMissingJoinKey:
		return "MissingJoinKey"
	case CodeJoinKeyNotInSchema:
		return "JoinKeyNotInSchema"
	case CodeDatasetNotFound:
		return "DatasetNotFound"
	case CodeEmptyBaseDataset:
		return "EmptyBaseDataset"
	case CodeEmptyJoinDataset:
		return "EmptyJoinDataset"
	case CodeFieldCollision:
		return "FieldCollision"
	case CodeInternal:
		return "Internal"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// JoinError represents standardized errors across all join operations
type JoinError struct {
	Code    Code   // Stable error kind
	Op      string // Operation name (e.g., "validate", "join", "concat")
	Dataset string // Dataset name or id if applicable
	Field   string // Field name if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *JoinError) Error() string {
	if e.Op == "" {
		return e.Message
	}
	if e.Field != "" {
		return fmt.Sprintf("%s failed on field '%s': %s", e.Op, e.Field, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause for error wrapping support
func (e *JoinError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is(). Two JoinErrors
// are considered equal when their codes match, so callers can test
// against a bare &JoinError{Code: ...} target.
func (e *JoinError) Is(target error) bool {
	if je, ok := target.(*JoinError); ok {
		return e.Code == je.Code
	}
	return false
}

// Common error constructors for consistent error creation

// NewNoTargetsError creates the error returned when a join request
// names no target datasets. The message is part of the service
// contract; do not reword it.
func NewNoTargetsError() *JoinError {
	return &JoinError{
		Code:    CodeNoTargetsSpecified,
		Op:      "validate",
		Message: "At least one dataset must be selected for joining",
	}
}

// NewMissingJoinKeyError creates an error for a dataset with no entry
// in the request's join-key mapping.
func NewMissingJoinKeyError(datasetName string) *JoinError {
	return &JoinError{
		Code:    CodeMissingJoinKey,
		Op:      "validate",
		Dataset: datasetName,
		Message: fmt.Sprintf("No join key specified for dataset '%s'", datasetName),
	}
}

// NewKeyNotInSchemaError creates an error for a join key naming a field
// the dataset's schema does not contain.
func NewKeyNotInSchemaError(datasetName, field string) *JoinError {
	return &JoinError{
		Code:    CodeJoinKeyNotInSchema,
		Op:      "validate",
		Dataset: datasetName,
		Field:   field,
		Message: fmt.Sprintf("Join key '%s' does not exist in dataset '%s'", field, datasetName),
	}
}

// NewDatasetNotFoundError creates an error for a requested dataset id
// that was not resolved to a dataset.
func NewDatasetNotFoundError(datasetID string) *JoinError {
	return &JoinError{
		Code:    CodeDatasetNotFound,
		Op:      "validate",
		Dataset: datasetID,
		Message: fmt.Sprintf("Dataset '%s' could not be found", datasetID),
	}
}

// NewEmptyBaseDatasetError creates an error for a base dataset with no rows.
func NewEmptyBaseDatasetError(datasetName string) *JoinError {
	return &JoinError{
		Code:    CodeEmptyBaseDataset,
		Op:      "validate",
		Dataset: datasetName,
		Message: fmt.Sprintf("Base dataset '%s' has no data to join", datasetName),
	}
}

// NewEmptyJoinDatasetError creates an error for a join target with no rows.
func NewEmptyJoinDatasetError(datasetName string) *JoinError {
	return &JoinError{
		Code:    CodeEmptyJoinDataset,
		Op:      "validate",
		Dataset: datasetName,
		Message: fmt.Sprintf("Dataset '%s' has no data to join", datasetName),
	}
}

// NewFieldCollisionError creates an error for two datasets producing
// the same output field name under the error collision policy.
func NewFieldCollisionError(field string) *JoinError {
	return &JoinError{
		Code:    CodeFieldCollision,
		Op:      "validate",
		Field:   field,
		Message: fmt.Sprintf("Field name '%s' is produced by more than one dataset", field),
	}
}

// NewInternalError creates an error for unexpected execution failures
// recovered at the orchestrator boundary.
func NewInternalError(op string, cause error) *JoinError {
	msg := "Join failed due to an internal error"
	if cause != nil {
		msg = fmt.Sprintf("Join failed: %v", cause)
	}
	return &JoinError{
		Code:    CodeInternal,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}
