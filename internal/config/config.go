package config

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const devSessionSecret = "flower-shop-dev-secret"

type Config struct {
	Env     string `mapstructure:"APP_ENV"`
	Port    string `mapstructure:"PORT"`
	BaseURL string `mapstructure:"BASE_URL"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	SQLitePath  string `mapstructure:"SQLITE_PATH"`

	SessionSecret string `mapstructure:"SESSION_SECRET"`
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	UploadFolder  string `mapstructure:"UPLOAD_FOLDER"`
	CORSOrigins   string `mapstructure:"CORS_ORIGINS"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`

	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	ElasticURL      string `mapstructure:"ELASTIC_URL"`
	ElasticUser     string `mapstructure:"ELASTIC_USER"`
	ElasticPassword string `mapstructure:"ELASTIC_PASSWORD"`

	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`

	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	KafkaOrderTopic string `mapstructure:"KAFKA_ORDER_TOPIC"`

	SMTPHost        string `mapstructure:"SMTP_HOST"`
	SMTPPort        int    `mapstructure:"SMTP_PORT"`
	SMTPUsername    string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword    string `mapstructure:"SMTP_PASSWORD"`
	MailFrom        string `mapstructure:"MAIL_FROM"`
	ShopNotifyEmail string `mapstructure:"SHOP_NOTIFY_EMAIL"`

	ScyllaHosts    string `mapstructure:"SCYLLA_HOSTS"`
	ScyllaKeyspace string `mapstructure:"SCYLLA_KEYSPACE"`
	ScyllaUsername string `mapstructure:"SCYLLA_USERNAME"`
	ScyllaPassword string `mapstructure:"SCYLLA_PASSWORD"`

	GoogleClientID       string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	FacebookClientID     string `mapstructure:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `mapstructure:"FACEBOOK_CLIENT_SECRET"`
}

var keys = []string{
	"APP_ENV", "PORT", "BASE_URL", "DATABASE_URL", "SQLITE_PATH",
	"SESSION_SECRET", "JWT_SECRET", "UPLOAD_FOLDER", "CORS_ORIGINS", "LOG_LEVEL",
	"REDIS_HOST", "REDIS_PASSWORD",
	"ELASTIC_URL", "ELASTIC_USER", "ELASTIC_PASSWORD",
	"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET", "MINIO_USE_SSL",
	"KAFKA_BROKERS", "KAFKA_ORDER_TOPIC",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "MAIL_FROM", "SHOP_NOTIFY_EMAIL",
	"SCYLLA_HOSTS", "SCYLLA_KEYSPACE", "SCYLLA_USERNAME", "SCYLLA_PASSWORD",
	"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "FACEBOOK_CLIENT_ID", "FACEBOOK_CLIENT_SECRET",
}

// Load reads .env (optional) then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Warn().Msg("⚠️ No .env file found, using system environment variables")
	} else {
		log.Info().Msg("✅ .env file loaded")
	}

	v := viper.New()
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("SQLITE_PATH", "flower_shop.db")
	v.SetDefault("UPLOAD_FOLDER", "static/uploads")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MINIO_BUCKET", "flower-shop")
	v.SetDefault("KAFKA_ORDER_TOPIC", "orders")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_FROM", "noreply@flower-shop.local")
	v.SetDefault("SCYLLA_KEYSPACE", "flower_shop")
	v.AutomaticEnv()
	// AutomaticEnv only answers Get; Unmarshal needs every key bound.
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.DatabaseURL = normalizeDatabaseURL(cfg.DatabaseURL)

	if cfg.SessionSecret == "" {
		if cfg.IsProd() {
			return nil, errors.New("SESSION_SECRET is required in prod")
		}
		cfg.SessionSecret = devSessionSecret
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = cfg.SessionSecret
	}
	return cfg, nil
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

// Origins splits CORS_ORIGINS on commas.
func (c *Config) Origins() []string {
	return splitList(c.CORSOrigins)
}

func (c *Config) KafkaBrokerList() []string {
	return splitList(c.KafkaBrokers)
}

func (c *Config) ScyllaHostList() []string {
	return splitList(c.ScyllaHosts)
}

// Heroku/Render style URLs use the postgres:// scheme.
func normalizeDatabaseURL(uri string) string {
	if strings.HasPrefix(uri, "postgres://") {
		return "postgresql://" + strings.TrimPrefix(uri, "postgres://")
	}
	return uri
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
