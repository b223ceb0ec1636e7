// Package config provides configuration management for the join engine
// and its surrounding plumbing (ingestion, storage, logging).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Collision policies for prefixed field names produced by a merge.
const (
	CollisionSuffix = "suffix" // disambiguate with _2, _3, ... in first-seen order
	CollisionError  = "error"  // fail validation on the first collision
)

// Log output formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Config represents the global configuration for join operations
type Config struct {
	// Join Engine Configuration
	OptimizedIndexThreshold int    `json:"optimized_index_threshold" yaml:"optimized_index_threshold"` // Right-side rows before the hashed index is used
	MatchNullKeys           bool   `json:"match_null_keys" yaml:"match_null_keys"`                     // Legacy behavior: null join keys match each other literally
	CollisionPolicy         string `json:"collision_policy" yaml:"collision_policy"`                   // Prefixed-name collision handling: suffix or error

	// Ingestion Configuration
	SampleValues       int `json:"sample_values" yaml:"sample_values"`             // Sample values captured per field at ingestion
	InferenceThreshold int `json:"inference_threshold" yaml:"inference_threshold"` // Minimum columns to trigger parallel type inference
	WorkerPoolSize     int `json:"worker_pool_size" yaml:"worker_pool_size"`       // Number of worker goroutines (0 = auto-detect)

	// Store Configuration
	SnapshotRows int `json:"snapshot_rows" yaml:"snapshot_rows"` // Preview rows materialized per stored dataset

	// Logging Configuration
	LogFormat string `json:"log_format" yaml:"log_format"` // console or json
	LogLevel  string `json:"log_level" yaml:"log_level"`   // debug, info, warn or error
}

// SystemInfo contains system information for configuration validation
type SystemInfo struct {
	CPUCount     int
	Architecture string
	OSType       string
}

// Validator validates a configuration and provides recommendations
type Validator struct {
	systemInfo SystemInfo
}

// Global configuration instance
var (
	globalConfig Config
	configMutex  sync.RWMutex
)

// Default configuration values
const (
	DefaultOptimizedIndexThreshold = 5000
	DefaultCollisionPolicy         = CollisionSuffix
	DefaultSampleValues            = 5
	DefaultInferenceThreshold      = 8
	DefaultSnapshotRows            = 10
	DefaultLogFormat               = LogFormatConsole
	DefaultLogLevel                = "info"
)

// Initialize global configuration with defaults
func init() {
	globalConfig = NewConfig()
}

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		// Join Engine defaults
		OptimizedIndexThreshold: DefaultOptimizedIndexThreshold,
		MatchNullKeys:           false, // SQL semantics: NULL never equals NULL
		CollisionPolicy:         DefaultCollisionPolicy,

		// Ingestion defaults
		SampleValues:       DefaultSampleValues,
		InferenceThreshold: DefaultInferenceThreshold,
		WorkerPoolSize:     0, // Auto-detect

		// Store defaults
		SnapshotRows: DefaultSnapshotRows,

		// Logging defaults
		LogFormat: DefaultLogFormat,
		LogLevel:  DefaultLogLevel,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.OptimizedIndexThreshold <= 0 {
		return fmt.Errorf("OptimizedIndexThreshold must be positive, got %d", c.OptimizedIndexThreshold)
	}

	if c.CollisionPolicy != CollisionSuffix && c.CollisionPolicy != CollisionError {
		return fmt.Errorf("CollisionPolicy must be %q or %q, got %q",
			CollisionSuffix, CollisionError, c.CollisionPolicy)
	}

	if c.SampleValues < 0 {
		return fmt.Errorf("SampleValues must be non-negative, got %d", c.SampleValues)
	}

	if c.InferenceThreshold <= 0 {
		return fmt.Errorf("InferenceThreshold must be positive, got %d", c.InferenceThreshold)
	}

	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WorkerPoolSize must be non-negative, got %d", c.WorkerPoolSize)
	}

	if c.SnapshotRows < 0 {
		return fmt.Errorf("SnapshotRows must be non-negative, got %d", c.SnapshotRows)
	}

	if c.LogFormat != LogFormatConsole && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("LogFormat must be %q or %q, got %q",
			LogFormatConsole, LogFormatJSON, c.LogFormat)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LogLevel must be debug, info, warn or error, got %q", c.LogLevel)
	}

	return nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.OptimizedIndexThreshold == 0 {
		c.OptimizedIndexThreshold = defaults.OptimizedIndexThreshold
	}
	if c.CollisionPolicy == "" {
		c.CollisionPolicy = defaults.CollisionPolicy
	}
	if c.SampleValues == 0 {
		c.SampleValues = defaults.SampleValues
	}
	if c.InferenceThreshold == 0 {
		c.InferenceThreshold = defaults.InferenceThreshold
	}
	if c.SnapshotRows == 0 {
		c.SnapshotRows = defaults.SnapshotRows
	}
	if c.LogFormat == "" {
		c.LogFormat = defaults.LogFormat
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}

	// Note: MatchNullKeys is intentionally not defaulted here so an
	// explicitly-set false survives; NewConfig() carries the default.

	return c
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = config
}

// GetGlobalConfig returns the current global configuration
func GetGlobalConfig() Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a JSON or YAML file
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() Config {
	config := NewConfig()

	if val := os.Getenv("JOINERY_OPTIMIZED_INDEX_THRESHOLD"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.OptimizedIndexThreshold = parsed
		}
	}

	if val := os.Getenv("JOINERY_MATCH_NULL_KEYS"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.MatchNullKeys = parsed
		}
	}

	if val := os.Getenv("JOINERY_COLLISION_POLICY"); val != "" {
		config.CollisionPolicy = val
	}

	if val := os.Getenv("JOINERY_SAMPLE_VALUES"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.SampleValues = parsed
		}
	}

	if val := os.Getenv("JOINERY_INFERENCE_THRESHOLD"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.InferenceThreshold = parsed
		}
	}

	if val := os.Getenv("JOINERY_WORKER_POOL_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.WorkerPoolSize = parsed
		}
	}

	if val := os.Getenv("JOINERY_SNAPSHOT_ROWS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.SnapshotRows = parsed
		}
	}

	if val := os.Getenv("JOINERY_LOG_FORMAT"); val != "" {
		config.LogFormat = val
	}

	if val := os.Getenv("JOINERY_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	return config
}

// GetSystemInfo returns system information for configuration validation
func GetSystemInfo() SystemInfo {
	return SystemInfo{
		CPUCount:     runtime.NumCPU(),
		Architecture: runtime.GOARCH,
		OSType:       runtime.GOOS,
	}
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{
		systemInfo: GetSystemInfo(),
	}
}

// Validate validates a configuration and provides recommendations
func (cv *Validator) Validate(config Config) (Config, []string, error) {
	var warnings []string
	validated := config

	if err := config.Validate(); err != nil {
		return Config{}, warnings, err
	}

	if config.WorkerPoolSize > cv.systemInfo.CPUCount*2 {
		warnings = append(warnings,
			fmt.Sprintf("Worker pool size (%d) exceeds 2x CPU count (%d), may cause contention",
				config.WorkerPoolSize, cv.systemInfo.CPUCount))
	}

	if config.WorkerPoolSize == 0 {
		validated.WorkerPoolSize = cv.systemInfo.CPUCount
		warnings = append(warnings,
			fmt.Sprintf("Auto-setting worker pool size to %d (CPU count)",
				validated.WorkerPoolSize))
	}

	return validated, warnings, nil
}
