package monitoring

import (
	"sync"
)

//nolint:gochecknoglobals // Process-wide collector shared by CLI and server
var (
	globalCollector *MetricsCollector
	globalMutex     sync.RWMutex
)

// SetGlobalCollector installs the process-wide metrics collector.
// Passing nil removes it.
func SetGlobalCollector(collector *MetricsCollector) {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	globalCollector = collector
}

// GetGlobalCollector returns the process-wide metrics collector, or nil
// if none has been set.
func GetGlobalCollector() *MetricsCollector {
	globalMutex.RLock()
	defer globalMutex.RUnlock()
	return globalCollector
}

// RecordGlobalOperation records an operation using the global collector.
// Without a global collector the operation runs unrecorded.
func RecordGlobalOperation(operation string, fn func() error) error {
	collector := GetGlobalCollector()
	if collector == nil {
		return fn()
	}
	return collector.RecordOperation(operation, fn)
}

// RecordGlobalDatasetOperation records an operation together with the
// row count it reports, using the global collector. Without a global
// collector the operation runs unrecorded.
func RecordGlobalDatasetOperation(operation string, fn func() (int, error)) error {
	collector := GetGlobalCollector()
	if collector == nil {
		_, err := fn()
		return err
	}
	return collector.RecordDatasetOperation(operation, fn)
}

// IsGlobalMonitoringEnabled reports whether a global collector is set
// and currently enabled.
func IsGlobalMonitoringEnabled() bool {
	collector := GetGlobalCollector()
	return collector != nil && collector.IsEnabled()
}

// EnableGlobalMonitoring creates and installs an enabled global collector.
func EnableGlobalMonitoring() {
	SetGlobalCollector(NewMetricsCollector(true))
}

// DisableGlobalMonitoring disables the global collector if one is set.
// The collector itself stays installed so its metrics remain readable.
func DisableGlobalMonitoring() {
	collector := GetGlobalCollector()
	if collector != nil {
		collector.SetEnabled(false)
	}
}

// ClearGlobalMetrics clears all metrics from the global collector.
func ClearGlobalMetrics() {
	collector := GetGlobalCollector()
	if collector != nil {
		collector.Clear()
	}
}

// GetGlobalMetrics returns metrics from the global collector.
func GetGlobalMetrics() []OperationMetrics {
	collector := GetGlobalCollector()
	if collector == nil {
		return []OperationMetrics{}
	}
	return collector.GetMetrics()
}

// GetGlobalSummary returns a summary from the global collector.
func GetGlobalSummary() MetricsSummary {
	collector := GetGlobalCollector()
	if collector == nil {
		return MetricsSummary{}
	}
	return collector.GetSummary()
}
