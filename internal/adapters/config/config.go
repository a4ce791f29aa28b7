package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Telegram      TelegramConfig
	AI            AIConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
	Engine        EngineConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"scribe-engine"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" required:"true"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"scribe-engine"`
}

type TelegramConfig struct {
	BotToken    string  `envconfig:"TELEGRAM_BOT_TOKEN"`
	AdminChatID int64   `envconfig:"TELEGRAM_ADMIN_CHAT_ID"`
	ExtraAdmins []int64 `envconfig:"TELEGRAM_EXTRA_ADMIN_IDS"`
}

type AIConfig struct {
	OpenAIKey    string        `envconfig:"OPENAI_API_KEY"`
	Model        string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	Timeout      time.Duration `envconfig:"OPENAI_TIMEOUT" default:"45s"`
	ReqPerMinute int           `envconfig:"OPENAI_REQ_PER_MINUTE" default:"60"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9091"`
}

// EngineConfig contains tunables for the suggestion engine itself
type EngineConfig struct {
	// Default agent thresholds; individual agents may override via their own config
	ConfidenceThreshold float64 `envconfig:"ENGINE_CONFIDENCE_THRESHOLD" default:"0.7"`
	MaxSuggestions      int     `envconfig:"ENGINE_MAX_SUGGESTIONS" default:"5"`
	MinViews            int     `envconfig:"ENGINE_MIN_VIEWS" default:"10"`

	// Task queue
	QueueConcurrency int `envconfig:"ENGINE_QUEUE_CONCURRENCY" default:"3"`
	QueueMaxRetries  int `envconfig:"ENGINE_QUEUE_MAX_RETRIES" default:"3"`

	// Suggestion expiry applied by agents when creating suggestions
	SuggestionTTL time.Duration `envconfig:"ENGINE_SUGGESTION_TTL" default:"168h"`
}

// WorkerConfig contains intervals for background workers
type WorkerConfig struct {
	SuggestionInterval time.Duration `envconfig:"WORKER_SUGGESTION_INTERVAL" default:"30m"`
	SuggestionEnabled  bool          `envconfig:"WORKER_SUGGESTION_ENABLED" default:"true"`

	ExpiryInterval time.Duration `envconfig:"WORKER_EXPIRY_INTERVAL" default:"1h"`
	ExpiryEnabled  bool          `envconfig:"WORKER_EXPIRY_ENABLED" default:"true"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
