package validation_test

import (
	"testing"

	"github.com/chimaridata/joinery/internal/dataset"
	joinerrors "github.com/chimaridata/joinery/internal/errors"
	"github.com/chimaridata/joinery/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usersDataset() *dataset.Dataset {
	s := dataset.NewSchema()
	s.Set("id", dataset.Field{Type: dataset.TypeNumber})
	s.Set("name", dataset.Field{Type: dataset.TypeText})
	return dataset.New("ds-users", "users", s, []dataset.Row{
		{"id": dataset.Number(1), "name": dataset.Text("Alice")},
	})
}

func TestTargetsValidator(t *testing.T) {
	t.Run("non-empty target list", func(t *testing.T) {
		cfg := &dataset.JoinConfig{JoinWith: []string{"ds-orders"}}
		require.NoError(t, validation.ValidateTargets(cfg))
	})

	t.Run("empty target list", func(t *testing.T) {
		cfg := &dataset.JoinConfig{}
		err := validation.ValidateTargets(cfg)
		require.Error(t, err)

		var je *joinerrors.JoinError
		require.ErrorAs(t, err, &je)
		assert.Equal(t, joinerrors.CodeNoTargetsSpecified, je.Code)
		assert.Equal(t, "At least one dataset must be selected for joining", je.Message)
	})
}

func TestResolutionValidator(t *testing.T) {
	users := usersDataset()
	cfg := &dataset.JoinConfig{JoinWith: []string{"ds-users", "ds-missing"}}

	err := validation.ValidateResolution(cfg, map[string]*dataset.Dataset{
		"ds-users": users,
	})
	require.Error(t, err)

	var je *joinerrors.JoinError
	require.ErrorAs(t, err, &je)
	assert.Equal(t, joinerrors.CodeDatasetNotFound, je.Code)
	assert.Equal(t, "ds-missing", je.Dataset)

	require.NoError(t, validation.ValidateResolution(cfg, map[string]*dataset.Dataset{
		"ds-users":   users,
		"ds-missing": usersDataset(),
	}))
}

func TestJoinKeyValidator(t *testing.T) {
	users := usersDataset()

	t.Run("valid key", func(t *testing.T) {
		require.NoError(t, validation.ValidateJoinKey(users, map[string]string{"ds-users": "id"}))
	})

	t.Run("no key entry", func(t *testing.T) {
		err := validation.ValidateJoinKey(users, map[string]string{})
		require.Error(t, err)

		var je *joinerrors.JoinError
		require.ErrorAs(t, err, &je)
		assert.Equal(t, joinerrors.CodeMissingJoinKey, je.Code)
		assert.Equal(t, "users", je.Dataset)
	})

	t.Run("empty key entry", func(t *testing.T) {
		err := validation.ValidateJoinKey(users, map[string]string{"ds-users": ""})
		require.Error(t, err)
		var je *joinerrors.JoinError
		require.ErrorAs(t, err, &je)
		assert.Equal(t, joinerrors.CodeMissingJoinKey, je.Code)
	})

	t.Run("key not in schema", func(t *testing.T) {
		err := validation.ValidateJoinKey(users, map[string]string{"ds-users": "email"})
		require.Error(t, err)

		var je *joinerrors.JoinError
		require.ErrorAs(t, err, &je)
		assert.Equal(t, joinerrors.CodeJoinKeyNotInSchema, je.Code)
		assert.Equal(t, "email", je.Field)
	})
}

func TestNonEmptyValidator(t *testing.T) {
	users := usersDataset()
	empty := dataset.New("ds-empty", "empty", dataset.NewSchema(), nil)

	require.NoError(t, validation.ValidateNonEmpty(users, true))

	err := validation.ValidateNonEmpty(empty, true)
	var je *joinerrors.JoinError
	require.ErrorAs(t, err, &je)
	assert.Equal(t, joinerrors.CodeEmptyBaseDataset, je.Code)

	err = validation.ValidateNonEmpty(empty, false)
	require.ErrorAs(t, err, &je)
	assert.Equal(t, joinerrors.CodeEmptyJoinDataset, je.Code)
}

func TestCompoundValidator(t *testing.T) {
	users := usersDataset()
	empty := dataset.New("ds-empty", "empty", dataset.NewSchema(), nil)
	cfg := &dataset.JoinConfig{}

	// The first failing condition wins, in registration order.
	compound := validation.NewCompoundValidator(
		validation.NewTargetsValidator(cfg),
		validation.NewNonEmptyValidator(empty, false),
	)

	err := compound.Validate()
	var je *joinerrors.JoinError
	require.ErrorAs(t, err, &je)
	assert.Equal(t, joinerrors.CodeNoTargetsSpecified, je.Code)

	// All conditions passing yields no error.
	okCompound := validation.NewCompoundValidator(
		validation.NewTargetsValidator(&dataset.JoinConfig{JoinWith: []string{"x"}}),
	)
	okCompound.Add(validation.NewNonEmptyValidator(users, true))
	require.NoError(t, okCompound.Validate())

	// Validation is idempotent: a second run returns the same verdict.
	err2 := compound.Validate()
	require.ErrorAs(t, err2, &je)
	assert.Equal(t, joinerrors.CodeNoTargetsSpecified, je.Code)
}
