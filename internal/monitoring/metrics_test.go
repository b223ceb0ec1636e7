//nolint:testpackage // requires internal access to unexported types and functions
package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollector(t *testing.T) {
	t.Run("create disabled collector", func(t *testing.T) {
		collector := NewMetricsCollector(false)
		assert.NotNil(t, collector)
		assert.False(t, collector.IsEnabled())
		assert.Empty(t, collector.GetMetrics())
	})

	t.Run("create enabled collector", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		assert.NotNil(t, collector)
		assert.True(t, collector.IsEnabled())
		assert.Empty(t, collector.GetMetrics())
	})

	t.Run("record operation with disabled collector", func(t *testing.T) {
		collector := NewMetricsCollector(false)

		callCount := 0
		err := collector.RecordOperation("join", func() error {
			callCount++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, callCount)
		assert.Empty(t, collector.GetMetrics())
	})

	t.Run("record operation with enabled collector", func(t *testing.T) {
		collector := NewMetricsCollector(true)

		callCount := 0
		err := collector.RecordOperation("join", func() error {
			callCount++
			time.Sleep(10 * time.Millisecond) // Simulate work
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, callCount)

		metrics := collector.GetMetrics()
		require.Len(t, metrics, 1)

		metric := metrics[0]
		assert.Equal(t, "join", metric.Operation)
		assert.Greater(t, metric.Duration, 5*time.Millisecond)
		assert.False(t, metric.Failed)
		assert.Zero(t, metric.RowsProcessed)
	})

	t.Run("record dataset operation with row count", func(t *testing.T) {
		collector := NewMetricsCollector(true)

		err := collector.RecordDatasetOperation("ingest", func() (int, error) {
			return 1250, nil
		})
		require.NoError(t, err)

		metrics := collector.GetMetrics()
		require.Len(t, metrics, 1)
		assert.Equal(t, "ingest", metrics[0].Operation)
		assert.Equal(t, int64(1250), metrics[0].RowsProcessed)
	})

	t.Run("record multiple operations", func(t *testing.T) {
		collector := NewMetricsCollector(true)

		operations := []string{"ingest", "join", "export"}
		for _, op := range operations {
			err := collector.RecordOperation(op, func() error {
				time.Sleep(1 * time.Millisecond)
				return nil
			})
			require.NoError(t, err)
		}

		metrics := collector.GetMetrics()
		require.Len(t, metrics, 3)

		for i, op := range operations {
			assert.Equal(t, op, metrics[i].Operation)
		}
	})

	t.Run("handle operation error", func(t *testing.T) {
		collector := NewMetricsCollector(true)

		expectedErr := assert.AnError
		err := collector.RecordOperation("join", func() error {
			return expectedErr
		})

		assert.Equal(t, expectedErr, err)

		// Failures are recorded, not dropped.
		metrics := collector.GetMetrics()
		require.Len(t, metrics, 1)
		assert.Equal(t, "join", metrics[0].Operation)
		assert.True(t, metrics[0].Failed)
	})

	t.Run("clear metrics", func(t *testing.T) {
		collector := NewMetricsCollector(true)

		err := collector.RecordOperation("join", func() error {
			return nil
		})
		require.NoError(t, err)
		assert.Len(t, collector.GetMetrics(), 1)

		collector.Clear()
		assert.Empty(t, collector.GetMetrics())
	})

	t.Run("toggle enabled", func(t *testing.T) {
		collector := NewMetricsCollector(false)
		collector.SetEnabled(true)
		assert.True(t, collector.IsEnabled())

		require.NoError(t, collector.RecordOperation("join", func() error { return nil }))
		assert.Len(t, collector.GetMetrics(), 1)
	})
}

func TestMetricsSummary(t *testing.T) {
	t.Run("empty collector", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		summary := collector.GetSummary()
		assert.Zero(t, summary.TotalOperations)
		assert.Zero(t, summary.TotalDuration)
	})

	t.Run("aggregates operations", func(t *testing.T) {
		collector := NewMetricsCollector(true)

		require.NoError(t, collector.RecordDatasetOperation("ingest", func() (int, error) {
			return 100, nil
		}))
		require.NoError(t, collector.RecordDatasetOperation("join", func() (int, error) {
			return 40, nil
		}))
		err := collector.RecordDatasetOperation("join", func() (int, error) {
			return 0, assert.AnError
		})
		require.Error(t, err)

		summary := collector.GetSummary()
		assert.Equal(t, 3, summary.TotalOperations)
		assert.Equal(t, int64(140), summary.TotalRows)
		assert.Equal(t, 1, summary.Failures)
		assert.Equal(t, 2, summary.OperationCounts["join"])
		assert.Equal(t, 1, summary.OperationCounts["ingest"])
		assert.Positive(t, summary.AverageDuration)
	})
}

func TestMetricsCollectorConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping concurrency tests in short mode")
	}

	t.Run("concurrent operations", func(t *testing.T) {
		collector := NewMetricsCollector(true)

		numOps := 10
		done := make(chan bool, numOps)

		for i := 0; i < numOps; i++ {
			go func() {
				defer func() { done <- true }()

				err := collector.RecordOperation("join", func() error {
					time.Sleep(1 * time.Millisecond)
					return nil
				})
				assert.NoError(t, err)
			}()
		}

		for i := 0; i < numOps; i++ {
			<-done
		}

		metrics := collector.GetMetrics()
		assert.Len(t, metrics, numOps)

		for _, metric := range metrics {
			assert.Equal(t, "join", metric.Operation)
		}
	})
}
