// Package config はアプリケーション設定を環境変数から読み込みます。
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定値を保持します。
type Config struct {
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`

	// MySQL接続設定
	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASSWORD,required"`
	DBHost     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`
	DBName     string `env:"DB_NAME,required"`

	// Redis（プロフィールキャッシュ用、未設定の場合キャッシュなしで動作）
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// JWT署名鍵と有効期限
	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET,required"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET,required"`
	AccessTokenExpiry  time.Duration `env:"ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	RefreshTokenExpiry time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"168h"`

	// SMTPメール送信設定
	SMTPHost    string        `env:"SMTP_HOST,required"`
	SMTPPort    int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser    string        `env:"SMTP_USER"`
	SMTPPass    string        `env:"SMTP_PASS"`
	FromName    string        `env:"FROM_NAME" envDefault:"Shop Backend"`
	FromEmail   string        `env:"FROM_EMAIL,required"`
	SMTPTimeout time.Duration `env:"SMTP_TIMEOUT" envDefault:"30s"`

	// メール内リンクの生成に使用するフロントエンドURL
	FrontendURL string `env:"FRONTEND_URL,required"`

	// 起動時にAutoMigrateを実行するか
	RunMigrations bool `env:"RUN_MIGRATIONS"`
}

// Load は環境変数（開発時は.envファイルも）から設定を読み込みます。
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// DSN はMySQLの接続文字列を組み立てます。
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}
