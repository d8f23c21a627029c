package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Equal(t, "linear", cfg.Predictor.Mode)
	require.Equal(t, "literal", cfg.Scoring.NightWindow)
	require.Equal(t, 50, cfg.History.DefaultLimit)
	require.Equal(t, 500, cfg.History.MaxLimit)
	require.Equal(t, 7, cfg.History.AnalyticsDays)
	require.Equal(t, "Manual Prediction", cfg.Facility.DefaultScenario)
	require.False(t, cfg.Queue.Valkey.Enabled)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  address: ":9090"
  allowedOrigins: ["https://ops.example.com"]
predictor:
  mode: remote
  remote:
    baseUrl: http://model:5000
scoring:
  nightWindow: overnight
auth:
  secret: file-secret
  operators:
    - username: dispatch
      passwordHash: "$2a$10$abcdefghijklmnopqrstuv"
      role: admin
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("ML_SERVICE_URL", "http://ml:5000")
	t.Setenv("HISTORY_POSTGRES_DSN", "postgres://localhost/surgecast")
	t.Setenv("QUEUE_VALKEY_ENABLED", "true")
	t.Setenv("QUEUE_VALKEY_ADDR", "localhost:6379")
	t.Setenv("AUTH_TOKEN_TTL", "15m")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Address)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.HTTP.AllowedOrigins)
	require.Equal(t, "remote", cfg.Predictor.Mode)
	require.Equal(t, "http://ml:5000", cfg.Predictor.Remote.BaseURL)
	require.Equal(t, "overnight", cfg.Scoring.NightWindow)
	require.Equal(t, "postgres://localhost/surgecast", cfg.History.Postgres.DSN)
	require.True(t, cfg.Queue.Valkey.Enabled)
	require.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	require.Len(t, cfg.Auth.Operators, 1)
	require.Equal(t, "dispatch", cfg.Auth.Operators[0].Username)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"bad mode":            func(c *Config) { c.Predictor.Mode = "oracle" },
		"remote without url":  func(c *Config) { c.Predictor.Mode = "remote"; c.Predictor.Remote.BaseURL = "" },
		"bad night window":    func(c *Config) { c.Scoring.NightWindow = "evening" },
		"limit above max":     func(c *Config) { c.History.DefaultLimit = 900 },
		"valkey without addr": func(c *Config) { c.Queue.Valkey.Enabled = true },
		"operators w/o secret": func(c *Config) {
			c.Auth.Operators = []OperatorConfig{{Username: "a", PasswordHash: "h", Role: "admin"}}
		},
		"bad role": func(c *Config) {
			c.Auth.Secret = "s"
			c.Auth.Operators = []OperatorConfig{{Username: "a", PasswordHash: "h", Role: "root"}}
		},
		"object store without key": func(c *Config) {
			c.Predictor.Linear.ObjectStore = ObjectStoreConfig{Enabled: true, Bucket: "models"}
		},
		"rate limit without burst": func(c *Config) { c.HTTP.RateLimit.Burst = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
	require.NoError(t, defaultConfig().Validate())
}
