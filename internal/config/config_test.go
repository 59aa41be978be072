package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gocatalog/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalConfig = `
server:
  host: 0.0.0.0
  port: 8060
database:
  host: localhost
  user: catalog
  dbname: gocatalog
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, 3, cfg.Promotion.UsageThreshold)
	assert.InDelta(t, 30.0, cfg.Promotion.ScoreThreshold, 0.001)
	assert.Equal(t, 180, cfg.Promotion.RecencyDays)

	assert.Equal(t, 90, cfg.Decay.FastDays)
	assert.Equal(t, 180, cfg.Decay.MediumDays)
	assert.Equal(t, 365, cfg.Decay.SlowDays)

	assert.Equal(t, 24, cfg.LinkRot.CheckIntervalHours)
	assert.Equal(t, 10*time.Second, cfg.LinkRot.Timeout)
	assert.Equal(t, 50, cfg.LinkRot.MaxChecksPerRun)

	assert.Equal(t, 50, cfg.Enrich.BatchSize)
	assert.Equal(t, 4, cfg.Enrich.Workers)

	assert.Equal(t, "@every 5m", cfg.Jobs.EnrichSchedule)
	assert.Equal(t, "@daily", cfg.Jobs.RecalculateSchedule)
	assert.Equal(t, "@every 24h", cfg.Jobs.LinkRotSchedule)
}

func TestLoadYAMLValues(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, minimalConfig+`
promotion:
  usage_threshold: 5
  score_threshold: 45.5
decay:
  fast_days: 30
link_rot:
  timeout: 3s
`))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Promotion.UsageThreshold)
	assert.InDelta(t, 45.5, cfg.Promotion.ScoreThreshold, 0.001)
	assert.Equal(t, 30, cfg.Decay.FastDays)
	assert.Equal(t, 3*time.Second, cfg.LinkRot.Timeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal.test")
	t.Setenv("PROMOTION_USAGE_THRESHOLD", "7")
	t.Setenv("REDIS_EVENTS_ENABLED", "yes")

	cfg, err := config.Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "db.internal.test", cfg.Database.Host)
	assert.Equal(t, 7, cfg.Promotion.UsageThreshold)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		valid bool
	}{
		{name: "minimal valid", yaml: minimalConfig, valid: true},
		{
			name: "missing database user",
			yaml: `
server:
  host: 0.0.0.0
database:
  host: localhost
  dbname: gocatalog
`,
			valid: false,
		},
		{
			name: "score threshold out of range",
			yaml: minimalConfig + `
promotion:
  score_threshold: 150
`,
			valid: false,
		},
		{
			name: "negative usage threshold",
			yaml: minimalConfig + `
promotion:
  usage_threshold: -2
`,
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.yaml))
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.yml", config.GetConfigPath("config.yml"))

	t.Setenv("CONFIG_PATH", "/etc/gocatalog/config.yml")
	assert.Equal(t, "/etc/gocatalog/config.yml", config.GetConfigPath("config.yml"))
}
