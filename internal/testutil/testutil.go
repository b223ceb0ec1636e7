// Package testutil provides shared dataset fixtures and assertion
// helpers for join tests.
//
// The fixtures model the common test scenario across packages: a users
// dataset joined against an orders dataset on the user id, with
// deliberate fan-out (repeat buyers) and misses (orders from unknown
// users) so every join type has something to exercise.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chimaridata/joinery/internal/dataset"
	joinerrors "github.com/chimaridata/joinery/internal/errors"
)

const defaultRowCount = 4

// DatasetOption configures fixture dataset creation.
type DatasetOption func(*datasetConfig)

type datasetConfig struct {
	rowCount     int
	includeNulls bool
}

// WithRowCount sets the number of rows in the fixture.
func WithRowCount(count int) DatasetOption {
	return func(cfg *datasetConfig) {
		cfg.rowCount = count
	}
}

// WithNulls blanks out some nullable cells in the fixture.
func WithNulls() DatasetOption {
	return func(cfg *datasetConfig) {
		cfg.includeNulls = true
	}
}

func applyOptions(opts []DatasetOption) *datasetConfig {
	cfg := &datasetConfig{rowCount: defaultRowCount}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// UsersDataset builds the standard users fixture. Rows carry sequential
// numeric ids starting at 1, cycling names and departments, and one
// signup date per day from 2024-01-15.
func UsersDataset(id string, opts ...DatasetOption) *dataset.Dataset {
	cfg := applyOptions(opts)

	schema := dataset.NewSchema()
	schema.Set("id", dataset.Field{Type: dataset.TypeNumber})
	schema.Set("name", dataset.Field{Type: dataset.TypeText})
	schema.Set("department", dataset.Field{Type: dataset.TypeText})
	schema.Set("signed_up", dataset.Field{Type: dataset.TypeDate, Nullable: cfg.includeNulls})

	names := []string{"Alice", "Bob", "Charlie", "David", "Eve", "Frank", "Grace", "Henry"}
	departments := []string{"Engineering", "Sales", "Engineering", "Marketing", "HR", "Finance", "Engineering", "Sales"}
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	rows := make([]dataset.Row, cfg.rowCount)
	for i := range rows {
		row := dataset.Row{
			"id":         dataset.Number(float64(i + 1)),
			"name":       dataset.Text(names[i%len(names)]),
			"department": dataset.Text(departments[i%len(departments)]),
			"signed_up":  dataset.Date(start.AddDate(0, 0, i)),
		}
		if cfg.includeNulls && i%3 == 2 {
			row["signed_up"] = dataset.Null
		}
		rows[i] = row
	}
	return dataset.New(id, "users", schema, rows)
}

// OrdersDataset builds the orders fixture. user_id cycles through 1..5,
// so against the default four-row users fixture there are repeat buyers
// and one order from an unknown user.
func OrdersDataset(id string, opts ...DatasetOption) *dataset.Dataset {
	cfg := applyOptions(opts)

	schema := dataset.NewSchema()
	schema.Set("order_id", dataset.Field{Type: dataset.TypeNumber})
	schema.Set("user_id", dataset.Field{Type: dataset.TypeNumber})
	schema.Set("amount", dataset.Field{Type: dataset.TypeNumber, Nullable: cfg.includeNulls})
	schema.Set("status", dataset.Field{Type: dataset.TypeText})

	amounts := []float64{250, 100, 75, 300, 125, 90, 40, 500}
	statuses := []string{"shipped", "pending", "shipped", "returned", "shipped", "pending", "shipped", "shipped"}

	rows := make([]dataset.Row, cfg.rowCount)
	for i := range rows {
		row := dataset.Row{
			"order_id": dataset.Number(float64(101 + i)),
			"user_id":  dataset.Number(float64(i%5 + 1)),
			"amount":   dataset.Number(amounts[i%len(amounts)]),
			"status":   dataset.Text(statuses[i%len(statuses)]),
		}
		if cfg.includeNulls && i%4 == 3 {
			row["amount"] = dataset.Null
		}
		rows[i] = row
	}
	return dataset.New(id, "orders", schema, rows)
}

// RequireSuccess asserts that the join succeeded and returns its result
// dataset for further inspection.
func RequireSuccess(tb testing.TB, result *dataset.JoinResult) *dataset.Dataset {
	tb.Helper()

	require.NotNil(tb, result, "join result should not be nil")
	require.True(tb, result.Success, "join failed: %s", result.ErrorMessage())
	require.NotNil(tb, result.ResultDataset)
	require.NoError(tb, result.ResultDataset.Validate())
	require.Equal(tb, result.RecordCount, len(result.ResultDataset.Rows),
		"record count should match materialized rows")
	return result.ResultDataset
}

// RequireFailure asserts that the join failed atomically with the given
// code and returns the error for message checks.
func RequireFailure(tb testing.TB, result *dataset.JoinResult, wantCode joinerrors.Code) *joinerrors.JoinError {
	tb.Helper()

	require.NotNil(tb, result, "join result should not be nil")
	require.False(tb, result.Success, "join should have failed")
	require.Nil(tb, result.ResultDataset, "failed joins must not carry a dataset")
	require.Zero(tb, result.RecordCount)
	require.NotNil(tb, result.Err)
	require.Equal(tb, wantCode, result.Err.Code, "unexpected error: %s", result.Err)
	return result.Err
}

// AssertFieldOrder verifies the dataset schema holds exactly the given
// fields in order.
func AssertFieldOrder(tb testing.TB, ds *dataset.Dataset, fields ...string) {
	tb.Helper()

	require.NotNil(tb, ds, "dataset should not be nil")
	assert.Equal(tb, fields, ds.Schema.Names())
}

// AssertDatasetsEqual performs a deep comparison of two datasets: same
// schema field order and types, same rows cell by cell.
func AssertDatasetsEqual(tb testing.TB, expected, actual *dataset.Dataset) {
	tb.Helper()

	require.NotNil(tb, expected, "expected dataset should not be nil")
	require.NotNil(tb, actual, "actual dataset should not be nil")

	assert.Equal(tb, expected.Schema.Names(), actual.Schema.Names(), "schema fields should match")
	for _, name := range expected.Schema.Names() {
		want, _ := expected.Schema.Get(name)
		got, _ := actual.Schema.Get(name)
		assert.Equal(tb, want.Type, got.Type, "type of field %s should match", name)
	}

	require.Len(tb, actual.Rows, len(expected.Rows), "row counts should match")
	for i, row := range expected.Rows {
		for _, name := range expected.Schema.Names() {
			assert.True(tb, actual.Rows[i].Get(name).Equal(row.Get(name)),
				"row %d field %s: want %s, got %s", i, name, row.Get(name), actual.Rows[i].Get(name))
		}
	}
}
