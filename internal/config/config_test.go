package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  port: "9090"
  mode: test
database:
  driver: sqlite
  dbname: quiz.db
jwt:
  secret: test-secret
  expire_hours: 2
quiz:
  improvement_threshold: 65
cors:
  allowed_origins:
    - http://localhost:3000
`

func TestLoadConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(sampleConfig), 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 65.0, cfg.Quiz.ImprovementThreshold)
	assert.Equal(t, 300*time.Second, cfg.Quiz.AnalyticsCacheTTL())
	assert.Equal(t, "@every 30m", cfg.Quiz.AnalyticsRefreshCron)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("QUIZ_IMPROVEMENT_THRESHOLD", "80")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(sampleConfig), 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 80.0, cfg.Quiz.ImprovementThreshold)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Mode: "release"},
			Database: DatabaseConfig{Driver: "mysql"},
			JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
			Quiz:     QuizConfig{ImprovementThreshold: 70},
		}
	}
	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.JWT.Secret = "short"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Database.Driver = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Quiz.ImprovementThreshold = 120
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Server.Mode = "debug"
	cfg.JWT.Secret = "short"
	assert.NoError(t, cfg.Validate())
}
