// Package validation provides input validation for join requests.
// This package implements a reusable validation framework: small
// validators for the individual request conditions (targets present,
// datasets resolved, join keys known, data non-empty) that compose into
// compound validators reporting the first blocking condition found.
package validation

import (
	"github.com/chimaridata/joinery/internal/dataset"
	"github.com/chimaridata/joinery/internal/errors"
)

// Validator interface for request validation
type Validator interface {
	Validate() error
}

// TargetsValidator validates that a join request names at least one
// target dataset.
type TargetsValidator struct {
	config *dataset.JoinConfig
}

// NewTargetsValidator creates a validator for the target list.
func NewTargetsValidator(config *dataset.JoinConfig) *TargetsValidator {
	return &TargetsValidator{config: config}
}

// Validate checks that the target list is non-empty.
func (v *TargetsValidator) Validate() error {
	if len(v.config.JoinWith) == 0 {
		return errors.NewNoTargetsError()
	}
	return nil
}

// ResolutionValidator validates that every requested dataset id was
// resolved to a dataset by the caller.
type ResolutionValidator struct {
	config   *dataset.JoinConfig
	resolved map[string]*dataset.Dataset
}

// NewResolutionValidator creates a validator for dataset resolution.
func NewResolutionValidator(config *dataset.JoinConfig, resolved map[string]*dataset.Dataset) *ResolutionValidator {
	return &ResolutionValidator{config: config, resolved: resolved}
}

// Validate checks each listed id against the resolved datasets.
func (v *ResolutionValidator) Validate() error {
	for _, id := range v.config.JoinWith {
		if ds := v.resolved[id]; ds == nil {
			return errors.NewDatasetNotFoundError(id)
		}
	}
	return nil
}

// JoinKeyValidator validates one dataset's join key: the request must
// name a key for the dataset and the key must exist in its schema.
type JoinKeyValidator struct {
	ds       *dataset.Dataset
	joinKeys map[string]string
}

// NewJoinKeyValidator creates a validator for one dataset's join key.
func NewJoinKeyValidator(ds *dataset.Dataset, joinKeys map[string]string) *JoinKeyValidator {
	return &JoinKeyValidator{ds: ds, joinKeys: joinKeys}
}

// Validate checks the key mapping and the schema.
func (v *JoinKeyValidator) Validate() error {
	key, ok := v.joinKeys[v.ds.ID]
	if !ok || key == "" {
		return errors.NewMissingJoinKeyError(v.ds.Name)
	}
	if !v.ds.Schema.Has(key) {
		return errors.NewKeyNotInSchemaError(v.ds.Name, key)
	}
	return nil
}

// NonEmptyValidator validates that a dataset has rows to join.
type NonEmptyValidator struct {
	ds   *dataset.Dataset
	base bool
}

// NewNonEmptyValidator creates a validator for dataset emptiness. The
// base flag selects which error the empty case reports.
func NewNonEmptyValidator(ds *dataset.Dataset, base bool) *NonEmptyValidator {
	return &NonEmptyValidator{ds: ds, base: base}
}

// Validate checks that the dataset contains at least one row.
func (v *NonEmptyValidator) Validate() error {
	if len(v.ds.Rows) == 0 {
		if v.base {
			return errors.NewEmptyBaseDatasetError(v.ds.Name)
		}
		return errors.NewEmptyJoinDatasetError(v.ds.Name)
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Add appends further validators to the compound.
func (v *CompoundValidator) Add(validators ...Validator) {
	v.validators = append(v.validators, validators...)
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Convenience validation functions

// ValidateTargets is a convenience function for target-list validation
func ValidateTargets(config *dataset.JoinConfig) error {
	return NewTargetsValidator(config).Validate()
}

// ValidateResolution is a convenience function for resolution validation
func ValidateResolution(config *dataset.JoinConfig, resolved map[string]*dataset.Dataset) error {
	return NewResolutionValidator(config, resolved).Validate()
}

// ValidateJoinKey is a convenience function for join-key validation
func ValidateJoinKey(ds *dataset.Dataset, joinKeys map[string]string) error {
	return NewJoinKeyValidator(ds, joinKeys).Validate()
}

// ValidateNonEmpty is a convenience function for emptiness validation
func ValidateNonEmpty(ds *dataset.Dataset, base bool) error {
	return NewNonEmptyValidator(ds, base).Validate()
}
