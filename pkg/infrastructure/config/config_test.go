package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lineage/pkg/application/services/matching"
	apperrors "github.com/vsinha/lineage/pkg/domain/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lineage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, matching.StrategyOptimal, cfg.Engine.Matching.Strategy)
	assert.Equal(t, 30, cfg.Engine.Matching.WindowDays)
	assert.Equal(t, 4, cfg.Engine.Agreement.CapacityPerMember)
	assert.Equal(t, "1200", cfg.Engine.Metrics.ReturnPrice.String())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 4, cfg.Batch.Workers)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
agreement:
  skuKeywords: [plan-a]
  capacityPerMember: 2
  warningDays: 30
tracking:
  targetSkus: [P313N00]
matching:
  strategy: greedy
  windowDays: 45
  graceDays: 5
  graceAllHops: true
metrics:
  returnPrice: "950.50"
  asOf: "2024-06-30"
log:
  level: debug
  format: json
batch:
  workers: 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"plan-a"}, cfg.Engine.Agreement.SKUKeywords)
	assert.Equal(t, 2, cfg.Engine.Agreement.CapacityPerMember)
	assert.Equal(t, []string{"P313N00"}, cfg.Engine.Tracking.TargetSKUs)
	assert.Equal(t, matching.StrategyGreedy, cfg.Engine.Matching.Strategy)
	assert.Equal(t, 45, cfg.Engine.Matching.WindowDays)
	assert.True(t, cfg.Engine.Matching.GraceAllHops)
	assert.Equal(t, 400, cfg.Engine.Matching.MaxMatrixSize)
	assert.Equal(t, "950.5", cfg.Engine.Metrics.ReturnPrice.String())
	assert.Equal(t, "2024-06-30", cfg.Engine.Metrics.AsOf)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8, cfg.Batch.Workers)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "matching:\n  windowDays: 45\n")
	t.Setenv(EnvWindowDays, "60")
	t.Setenv(EnvGraceDays, "3")
	t.Setenv(EnvStrategy, "GREEDY")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvHTTPAddr, "127.0.0.1:9000")
	t.Setenv(EnvWorkers, "2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Engine.Matching.WindowDays)
	assert.Equal(t, 3, cfg.Engine.Matching.GraceDays)
	assert.Equal(t, matching.StrategyGreedy, cfg.Engine.Matching.Strategy)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, 2, cfg.Batch.Workers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "zero_window", file: "matching:\n  windowDays: 0\n"},
		{name: "negative_grace", env: map[string]string{EnvGraceDays: "-1"}},
		{name: "unknown_strategy", env: map[string]string{EnvStrategy: "random"}},
		{name: "non_integer_workers", env: map[string]string{EnvWorkers: "many"}},
		{name: "zero_capacity", file: "agreement:\n  capacityPerMember: 0\n"},
		{name: "unknown_log_format", file: "log:\n  format: xml\n"},
		{name: "unknown_field", file: "matching:\n  windowDayz: 10\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeConfigInvalid), "got %v", err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}
