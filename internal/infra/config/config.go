package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Predictor PredictorConfig `yaml:"predictor"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Facility  FacilityConfig  `yaml:"facility"`
	History   HistoryConfig   `yaml:"history"`
	Queue     QueueConfig     `yaml:"queue"`
	Events    EventsConfig    `yaml:"events"`
	Auth      AuthConfig      `yaml:"auth"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures retries of prediction requests that failed upstream.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Paths       []string      `yaml:"paths"`
}

// PredictorConfig selects and configures the facility model.
type PredictorConfig struct {
	Mode    string        `yaml:"mode"`
	Timeout time.Duration `yaml:"timeout"`
	Remote  RemoteConfig  `yaml:"remote"`
	Linear  LinearConfig  `yaml:"linear"`
}

// RemoteConfig points at an HTTP model server.
type RemoteConfig struct {
	BaseURL string `yaml:"baseUrl"`
}

// LinearConfig locates the in-process model artifact. With neither a path nor
// an enabled object store the built-in coefficients are used.
type LinearConfig struct {
	ModelPath   string            `yaml:"modelPath"`
	Watch       bool              `yaml:"watch"`
	ObjectStore ObjectStoreConfig `yaml:"objectStore"`
}

// ObjectStoreConfig describes an S3-compatible bucket holding the artifact.
type ObjectStoreConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Key       string `yaml:"key"`
}

// ScoringConfig tunes the area risk scorer.
type ScoringConfig struct {
	NightWindow string `yaml:"nightWindow"`
}

// FacilityConfig tunes facility predictions.
type FacilityConfig struct {
	DefaultScenario string `yaml:"defaultScenario"`
}

// HistoryConfig controls prediction history storage and listing.
type HistoryConfig struct {
	DefaultLimit  int            `yaml:"defaultLimit"`
	MaxLimit      int            `yaml:"maxLimit"`
	AnalyticsDays int            `yaml:"analyticsDays"`
	Postgres      PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// QueueConfig selects how history writes are queued.
type QueueConfig struct {
	Valkey ValkeyConfig `yaml:"valkey"`
}

// ValkeyConfig contains connection information for the job queue.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Key     string `yaml:"key"`
}

// EventsConfig controls alert fan-out.
type EventsConfig struct {
	Replay int        `yaml:"replay"`
	NATS   NATSConfig `yaml:"nats"`
}

// NATSConfig configures the optional NATS publisher.
type NATSConfig struct {
	URL           string        `yaml:"url"`
	SubjectPrefix string        `yaml:"subjectPrefix"`
	ReconnectWait time.Duration `yaml:"reconnectWait"`
	MaxReconnects int           `yaml:"maxReconnects"`
	Timeout       time.Duration `yaml:"timeout"`
}

// AuthConfig drives operator authentication.
type AuthConfig struct {
	Secret          string           `yaml:"secret"`
	TokenTTL        time.Duration    `yaml:"tokenTtl"`
	RefreshTokenTTL time.Duration    `yaml:"refreshTokenTtl"`
	Operators       []OperatorConfig `yaml:"operators"`
}

// OperatorConfig declares one console operator.
type OperatorConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"passwordHash"`
	Role         string `yaml:"role"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	setBool(&cfg.HTTP.RateLimit.Enabled, "HTTP_RATE_LIMIT_ENABLED")
	setInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	setInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")
	setBool(&cfg.HTTP.Retry.Enabled, "HTTP_RETRY_ENABLED")
	setInt(&cfg.HTTP.Retry.MaxAttempts, "HTTP_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.HTTP.Retry.BaseBackoff, "HTTP_RETRY_BASE_BACKOFF")

	if v := os.Getenv("PREDICTOR_MODE"); v != "" {
		cfg.Predictor.Mode = v
	}
	setDuration(&cfg.Predictor.Timeout, "PREDICTOR_TIMEOUT")
	if v := firstEnv("PREDICTOR_REMOTE_URL", "ML_SERVICE_URL"); v != "" {
		cfg.Predictor.Remote.BaseURL = v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		cfg.Predictor.Linear.ModelPath = v
	}
	setBool(&cfg.Predictor.Linear.Watch, "MODEL_WATCH")
	store := &cfg.Predictor.Linear.ObjectStore
	setBool(&store.Enabled, "MODEL_S3_ENABLED")
	setString(&store.Endpoint, "MODEL_S3_ENDPOINT")
	setString(&store.AccessKey, "MODEL_S3_ACCESS_KEY")
	setString(&store.SecretKey, "MODEL_S3_SECRET_KEY")
	setString(&store.Bucket, "MODEL_S3_BUCKET")
	setString(&store.Region, "MODEL_S3_REGION")
	setString(&store.Key, "MODEL_S3_KEY")

	setString(&cfg.Scoring.NightWindow, "SCORING_NIGHT_WINDOW")
	setString(&cfg.Facility.DefaultScenario, "FACILITY_DEFAULT_SCENARIO")

	if v := firstEnv("HISTORY_POSTGRES_DSN", "DATABASE_URL"); v != "" {
		cfg.History.Postgres.DSN = v
	}
	if v := os.Getenv("HISTORY_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.History.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("HISTORY_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.History.Postgres.MinConns = int32(parsed)
		}
	}

	setBool(&cfg.Queue.Valkey.Enabled, "QUEUE_VALKEY_ENABLED")
	setString(&cfg.Queue.Valkey.Addr, "QUEUE_VALKEY_ADDR")
	setString(&cfg.Queue.Valkey.Key, "QUEUE_VALKEY_KEY")

	setInt(&cfg.Events.Replay, "EVENTS_REPLAY")
	setString(&cfg.Events.NATS.URL, "EVENTS_NATS_URL")
	setString(&cfg.Events.NATS.SubjectPrefix, "EVENTS_NATS_SUBJECT_PREFIX")

	if v := firstEnv("AUTH_SECRET", "JWT_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	setDuration(&cfg.Auth.TokenTTL, "AUTH_TOKEN_TTL")
	setDuration(&cfg.Auth.RefreshTokenTTL, "AUTH_REFRESH_TOKEN_TTL")
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 2,
				BaseBackoff: 200 * time.Millisecond,
				Paths:       []string{"/predict", "/api/v1/predictions"},
			},
		},
		Predictor: PredictorConfig{
			Mode:    "linear",
			Timeout: 10 * time.Second,
			Remote: RemoteConfig{
				BaseURL: "http://localhost:5000",
			},
		},
		Scoring: ScoringConfig{
			NightWindow: "literal",
		},
		Facility: FacilityConfig{
			DefaultScenario: "Manual Prediction",
		},
		History: HistoryConfig{
			DefaultLimit:  50,
			MaxLimit:      500,
			AnalyticsDays: 7,
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Queue: QueueConfig{
			Valkey: ValkeyConfig{
				Key: "surgecast:jobs",
			},
		},
		Events: EventsConfig{
			Replay: 20,
			NATS: NATSConfig{
				SubjectPrefix: "surgecast.alerts",
				ReconnectWait: 2 * time.Second,
				MaxReconnects: 60,
				Timeout:       5 * time.Second,
			},
		},
		Auth: AuthConfig{
			TokenTTL:        time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff < 0 {
			return errors.New("http.retry.baseBackoff cannot be negative")
		}
	}
	switch c.Predictor.Mode {
	case "linear":
		store := c.Predictor.Linear.ObjectStore
		if store.Enabled && (strings.TrimSpace(store.Bucket) == "" || strings.TrimSpace(store.Key) == "") {
			return errors.New("predictor.linear.objectStore.bucket and key are required when enabled")
		}
		if store.Enabled && strings.TrimSpace(c.Predictor.Linear.ModelPath) != "" {
			return errors.New("predictor.linear.modelPath and objectStore are mutually exclusive")
		}
	case "remote":
		if strings.TrimSpace(c.Predictor.Remote.BaseURL) == "" {
			return errors.New("predictor.remote.baseUrl cannot be empty in remote mode")
		}
	default:
		return fmt.Errorf("predictor.mode must be linear or remote, got %q", c.Predictor.Mode)
	}
	if c.Predictor.Timeout < 0 {
		return errors.New("predictor.timeout cannot be negative")
	}
	if c.Scoring.NightWindow != "literal" && c.Scoring.NightWindow != "overnight" {
		return fmt.Errorf("scoring.nightWindow must be literal or overnight, got %q", c.Scoring.NightWindow)
	}
	if c.History.DefaultLimit <= 0 || c.History.MaxLimit <= 0 {
		return errors.New("history limits must be positive")
	}
	if c.History.DefaultLimit > c.History.MaxLimit {
		return errors.New("history.defaultLimit cannot exceed history.maxLimit")
	}
	if c.History.AnalyticsDays <= 0 {
		return errors.New("history.analyticsDays must be positive")
	}
	if c.Queue.Valkey.Enabled && strings.TrimSpace(c.Queue.Valkey.Addr) == "" {
		return errors.New("queue.valkey.addr cannot be empty when the valkey queue is enabled")
	}
	if c.Events.Replay < 0 {
		return errors.New("events.replay cannot be negative")
	}
	if len(c.Auth.Operators) > 0 && strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("auth.secret is required when operators are configured")
	}
	if c.Auth.TokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("auth token ttls must be positive")
	}
	for i, op := range c.Auth.Operators {
		if strings.TrimSpace(op.Username) == "" || strings.TrimSpace(op.PasswordHash) == "" {
			return fmt.Errorf("auth.operators[%d] requires username and passwordHash", i)
		}
		if op.Role != "admin" && op.Role != "staff" {
			return fmt.Errorf("auth.operators[%d].role must be admin or staff", i)
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
