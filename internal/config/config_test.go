package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chimaridata/joinery/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := config.NewConfig()

	assert.Equal(t, config.DefaultOptimizedIndexThreshold, cfg.OptimizedIndexThreshold)
	assert.False(t, cfg.MatchNullKeys)
	assert.Equal(t, config.CollisionSuffix, cfg.CollisionPolicy)
	assert.Equal(t, config.DefaultSampleValues, cfg.SampleValues)
	assert.Equal(t, config.DefaultSnapshotRows, cfg.SnapshotRows)
	assert.Equal(t, config.LogFormatConsole, cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)

	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		valid  bool
	}{
		{"defaults are valid", func(c *config.Config) {}, true},
		{"zero index threshold", func(c *config.Config) { c.OptimizedIndexThreshold = 0 }, false},
		{"unknown collision policy", func(c *config.Config) { c.CollisionPolicy = "rename" }, false},
		{"error collision policy", func(c *config.Config) { c.CollisionPolicy = config.CollisionError }, true},
		{"negative sample values", func(c *config.Config) { c.SampleValues = -1 }, false},
		{"zero sample values", func(c *config.Config) { c.SampleValues = 0 }, true},
		{"negative worker pool", func(c *config.Config) { c.WorkerPoolSize = -2 }, false},
		{"negative snapshot rows", func(c *config.Config) { c.SnapshotRows = -1 }, false},
		{"unknown log format", func(c *config.Config) { c.LogFormat = "xml" }, false},
		{"unknown log level", func(c *config.Config) { c.LogLevel = "trace" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := config.Config{CollisionPolicy: config.CollisionError}.WithDefaults()

	assert.Equal(t, config.DefaultOptimizedIndexThreshold, cfg.OptimizedIndexThreshold)
	assert.Equal(t, config.CollisionError, cfg.CollisionPolicy)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestGlobalConfig(t *testing.T) {
	original := config.GetGlobalConfig()
	defer config.SetGlobalConfig(original)

	modified := config.NewConfig()
	modified.MatchNullKeys = true
	modified.OptimizedIndexThreshold = 42
	config.SetGlobalConfig(modified)

	got := config.GetGlobalConfig()
	assert.True(t, got.MatchNullKeys)
	assert.Equal(t, 42, got.OptimizedIndexThreshold)
}

func TestLoadFromJSON(t *testing.T) {
	data := []byte(`{"optimized_index_threshold": 100, "collision_policy": "error"}`)

	cfg, err := config.LoadFromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.OptimizedIndexThreshold)
	assert.Equal(t, config.CollisionError, cfg.CollisionPolicy)
	// Unset values pick up defaults.
	assert.Equal(t, config.DefaultSampleValues, cfg.SampleValues)

	_, err = config.LoadFromJSON([]byte(`{not json`))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("YAML file", func(t *testing.T) {
		path := filepath.Join(dir, "joinery.yaml")
		content := "optimized_index_threshold: 250\nmatch_null_keys: true\nlog_format: json\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := config.LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 250, cfg.OptimizedIndexThreshold)
		assert.True(t, cfg.MatchNullKeys)
		assert.Equal(t, config.LogFormatJSON, cfg.LogFormat)
	})

	t.Run("JSON file", func(t *testing.T) {
		path := filepath.Join(dir, "joinery.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"snapshot_rows": 3}`), 0o600))

		cfg, err := config.LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.SnapshotRows)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "joinery.toml")
		require.NoError(t, os.WriteFile(path, []byte("a = 1"), 0o600))

		_, err := config.LoadFromFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadFromFile(filepath.Join(dir, "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JOINERY_OPTIMIZED_INDEX_THRESHOLD", "777")
	t.Setenv("JOINERY_MATCH_NULL_KEYS", "true")
	t.Setenv("JOINERY_COLLISION_POLICY", "error")
	t.Setenv("JOINERY_LOG_LEVEL", "debug")

	cfg := config.LoadFromEnv()

	assert.Equal(t, 777, cfg.OptimizedIndexThreshold)
	assert.True(t, cfg.MatchNullKeys)
	assert.Equal(t, config.CollisionError, cfg.CollisionPolicy)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Malformed numeric values are ignored in favor of defaults.
	t.Setenv("JOINERY_OPTIMIZED_INDEX_THRESHOLD", "not-a-number")
	cfg = config.LoadFromEnv()
	assert.Equal(t, config.DefaultOptimizedIndexThreshold, cfg.OptimizedIndexThreshold)
}

func TestValidatorRecommendations(t *testing.T) {
	cv := config.NewValidator()

	cfg := config.NewConfig()
	cfg.WorkerPoolSize = 0
	validated, warnings, err := cv.Validate(cfg)
	require.NoError(t, err)
	assert.Positive(t, validated.WorkerPoolSize)
	assert.NotEmpty(t, warnings)

	cfg.WorkerPoolSize = 1024
	_, warnings, err = cv.Validate(cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)

	cfg.OptimizedIndexThreshold = -1
	_, _, err = cv.Validate(cfg)
	assert.Error(t, err)
}
