package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is applied to every environment variable recognized by the service.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Password  PasswordConfig
	SendGrid  SendGridConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
	Company   CompanyConfig
	Chatbot   ChatbotConfig
	CORS      CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HRHD_APP_ENV" default:"development"`
	Port         string `envconfig:"HRHD_APP_PORT" default:"3001"`
	LogLevel     string `envconfig:"HRHD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HRHD_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"HRHD_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"HRHD_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"HRHD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HRHD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HRHD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HRHD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HRHD_REDIS_URL" default:"redis://localhost:6379/0"`
	Address      string        `envconfig:"HRHD_REDIS_ADDRESS"`
	Password     string        `envconfig:"HRHD_REDIS_PASSWORD"`
	DB           int           `envconfig:"HRHD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HRHD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HRHD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HRHD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HRHD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HRHD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"HRHD_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"HRHD_JWT_ISSUER" default:"hrhelpdesk"`
	ExpirationMinutes int    `envconfig:"HRHD_JWT_EXPIRATION_MINUTES" default:"480"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"HRHD_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"HRHD_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"HRHD_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"HRHD_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"HRHD_ARGON_KEY_LEN" default:"32"`
}

type SendGridConfig struct {
	APIKey    string `envconfig:"HRHD_SENDGRID_API_KEY"`
	FromEmail string `envconfig:"HRHD_SENDGRID_FROM_EMAIL" default:"no-reply@iscore.com"`
	FromName  string `envconfig:"HRHD_SENDGRID_FROM_NAME" default:"iScore HR HelpDesk"`
}

type EmailConfig struct {
	RetryAttempts int           `envconfig:"HRHD_EMAIL_RETRY_ATTEMPTS" default:"3"`
	RetryDelay    time.Duration `envconfig:"HRHD_EMAIL_RETRY_DELAY" default:"5s"`
	BatchSize     int           `envconfig:"HRHD_EMAIL_BATCH_SIZE" default:"10"`
	BatchDelay    time.Duration `envconfig:"HRHD_EMAIL_BATCH_DELAY" default:"1s"`

	QueueMaxRetries   int           `envconfig:"HRHD_EMAIL_QUEUE_MAX_RETRIES" default:"3"`
	QueuePollInterval time.Duration `envconfig:"HRHD_EMAIL_QUEUE_POLL_INTERVAL" default:"5s"`
}

type RateLimitConfig struct {
	NotificationWindow time.Duration `envconfig:"HRHD_RATE_LIMIT_NOTIFICATION_WINDOW" default:"1m"`
	NotificationLimit  int           `envconfig:"HRHD_RATE_LIMIT_NOTIFICATION_LIMIT" default:"10"`
}

type CompanyConfig struct {
	Name        string `envconfig:"HRHD_COMPANY_NAME" default:"iScore"`
	Website     string `envconfig:"HRHD_COMPANY_WEBSITE" default:"https://iscore.com"`
	FrontendURL string `envconfig:"HRHD_FRONTEND_URL" default:"http://localhost:3000"`
}

type ChatbotConfig struct {
	BaseURL string        `envconfig:"HRHD_CHATBOT_URL" default:"http://localhost:5000"`
	Timeout time.Duration `envconfig:"HRHD_CHATBOT_TIMEOUT" default:"10s"`
}

type CORSConfig struct {
	AllowedOrigin string `envconfig:"HRHD_CORS_ALLOWED_ORIGIN" default:"http://localhost:3000"`
}
