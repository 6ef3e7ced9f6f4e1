package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// セッショントークン
	TokenSecret string
	TokenMaxAge time.Duration

	// オリジン設定。Cookieポリシーの判定に使用する。
	ClientOrigin   string
	BackendBaseURL string
	IsProduction   bool

	// 予約公開スイープ
	SweepInterval      time.Duration
	SweepMaxConcurrent int

	// Rate Limit（req/min/user）
	RateLimitGeneral    int
	RateLimitBlogCreate int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、またはオリジンURLが不正な場合はエラーを返す。
// オリジンの検証を起動時に行うことで、リクエスト処理中に不正な設定で
// 安全でないCookieを発行してしまう事態を防ぐ。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	if cfg.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}

	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	if cfg.GoogleClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}

	cfg.GoogleRedirectURL = os.Getenv("GOOGLE_REDIRECT_URL")
	if cfg.GoogleRedirectURL == "" {
		missing = append(missing, "GOOGLE_REDIRECT_URL")
	}

	cfg.TokenSecret = os.Getenv("TOKEN_SECRET")
	if cfg.TokenSecret == "" {
		missing = append(missing, "TOKEN_SECRET")
	}

	cfg.ClientOrigin = os.Getenv("CLIENT_ORIGIN")
	if cfg.ClientOrigin == "" {
		missing = append(missing, "CLIENT_ORIGIN")
	}

	cfg.BackendBaseURL = os.Getenv("BACKEND_BASE_URL")
	if cfg.BackendBaseURL == "" {
		missing = append(missing, "BACKEND_BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if err := validateOrigin(cfg.ClientOrigin); err != nil {
		return nil, fmt.Errorf("invalid CLIENT_ORIGIN: %w", err)
	}
	if err := validateOrigin(cfg.BackendBaseURL); err != nil {
		return nil, fmt.Errorf("invalid BACKEND_BASE_URL: %w", err)
	}

	// Optional fields with defaults
	cfg.TokenMaxAge = getEnvDuration("TOKEN_MAX_AGE", 7*24*time.Hour)
	cfg.IsProduction = os.Getenv("APP_ENV") == "production"
	cfg.SweepInterval = getEnvDuration("SWEEP_INTERVAL", time.Minute)
	cfg.SweepMaxConcurrent = getEnvInt("SWEEP_MAX_CONCURRENT", 10)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitBlogCreate = getEnvInt("RATE_LIMIT_BLOG_CREATE", 30)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", cfg.ClientOrigin)

	return cfg, nil
}

// validateOrigin はオリジンURLがスキームとホストを持つ絶対URLであることを検証する。
func validateOrigin(origin string) error {
	u, err := url.Parse(origin)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("origin must use http or https scheme: %s", origin)
	}
	if u.Host == "" {
		return fmt.Errorf("origin must have a host: %s", origin)
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
