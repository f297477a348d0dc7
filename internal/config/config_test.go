package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	cfgYAML := `
server:
  port: 8080
  timeoutSeconds: 30
  base_url: https://pseudosapiens.com
  rate_limit_rps: 50
  rate_limit_burst: 100
engine:
  retention_count: 50
  timezone: America/Lima
scheduler:
  dispatch_interval: 1h
  lease_ttl: 2m
`
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfgYAML), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://pseudosapiens.com", cfg.Server.BaseURL)
	assert.Equal(t, 50.0, cfg.Server.RateLimitRPS)
	assert.Equal(t, 100, cfg.Server.RateLimitBurst)
	assert.Equal(t, 50, cfg.Engine.RetentionCount)
	assert.Equal(t, "America/Lima", cfg.Engine.Timezone)
	assert.Equal(t, time.Hour, cfg.Scheduler.DispatchInterval)
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.LeaseTTL)
}
