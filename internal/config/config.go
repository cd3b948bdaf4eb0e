// 환경변수 기반 설정 로딩
//
// 로딩 순서:
//  1. 작업 디렉터리의 .env (없으면 무시)
//  2. 프로세스 환경변수 (cleanenv 태그의 env-default가 기본값)

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Notify   NotifyConfig
}

type ServerConfig struct {
	Addr            string        `env:"SERVER_ADDR" env-default:":8080"`
	Env             string        `env:"APP_ENV" env-default:"production"`
	CORSOrigins     string        `env:"CORS_ALLOWED_ORIGINS"`
	CORSCredentials bool          `env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type PostgresConfig struct {
	DatabaseURL string `env:"DATABASE_URL"`
	Host        string `env:"PGHOST" env-default:"localhost"`
	Port        string `env:"PGPORT" env-default:"5432"`
	User        string `env:"PGUSER"`
	Password    string `env:"PGPASSWORD"`
	Database    string `env:"PGDATABASE"`
	SSLMode     string `env:"PGSSLMODE" env-default:"disable"`
}

type AuthConfig struct {
	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	BcryptCost         int           `env:"BCRYPT_COST" env-default:"10"`
	CookieDomain       string        `env:"AUTH_COOKIE_DOMAIN"`
	CookiePath         string        `env:"AUTH_COOKIE_PATH" env-default:"/"`
	CookieSameSite     string        `env:"AUTH_COOKIE_SAMESITE" env-default:"lax"`
	// 비어 있으면 APP_ENV로 결정 (local/development 외에는 Secure)
	CookieSecure string `env:"AUTH_COOKIE_SECURE"`
}

type StorageConfig struct {
	Endpoint      string `env:"S3_ENDPOINT"`
	Region        string `env:"S3_REGION" env-default:"us-east-1"`
	Bucket        string `env:"S3_BUCKET" env-default:"media"`
	AccessKey     string `env:"S3_ACCESS_KEY"`
	SecretKey     string `env:"S3_SECRET_KEY"`
	PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
	UsePathStyle  bool   `env:"S3_USE_PATH_STYLE" env-default:"true"`
}

type NotifyConfig struct {
	SlackBotToken  string `env:"SLACK_BOT_TOKEN"`
	SlackChannelID string `env:"SLACK_CHANNEL_ID"`
}

func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read env: %w", err)
	}
	return cfg, nil
}

// IsLocal reports whether the server runs in a developer environment.
func (c ServerConfig) IsLocal() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "local", "development", "dev":
		return true
	default:
		return false
	}
}

func (c ServerConfig) AllowedOrigins() []string {
	if strings.TrimSpace(c.CORSOrigins) == "" {
		return nil
	}
	return strings.Split(c.CORSOrigins, ",")
}
