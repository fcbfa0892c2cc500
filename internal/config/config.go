// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// 信頼するプロキシ（カンマ区切り、空なら X-Forwarded-For を信用しない）
	TrustedProxies []string

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// ストレージ/キュー設定
	RedisURL      string // レコード保存用Redis接続URL
	QueueRedisURL string // Asynq用Redis接続URL（未指定時は RedisURL）

	// トークン設定
	JWTSecret   string        // トークン署名用の秘密鍵（必須）
	TokenIssuer string        // iss クレーム
	TokenTTL    time.Duration // トークンの有効期間

	// 認証設定
	BcryptCost       int           // パスワードハッシュのコスト
	LoginMaxAttempts int           // ロックまでのログイン失敗回数
	LoginLockPeriod  time.Duration // ロック期間
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	redisURL := getEnv("REDIS_URL", "redis://127.0.0.1:6379/0")

	config := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		RedisURL:      redisURL,
		QueueRedisURL: getEnv("QUEUE_REDIS_URL", redisURL),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		TokenIssuer: getEnv("TOKEN_ISSUER", "recipe-box"),
		TokenTTL:    time.Duration(getEnvAsInt("TOKEN_TTL_MINUTES", 60)) * time.Minute,

		BcryptCost:       getEnvAsInt("BCRYPT_COST", 10),
		LoginMaxAttempts: getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginLockPeriod:  time.Duration(getEnvAsInt("LOGIN_LOCK_MINUTES", 10)) * time.Minute,
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
// 署名鍵がない状態ではトークンを発行も検証もできないため、モードに関係なく起動を止めます。
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL_MINUTES must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.LoginMaxAttempts <= 0 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.GinMode == "release" && c.QueueRedisURL == "" {
		return fmt.Errorf("QUEUE_REDIS_URL is required in release mode")
	}

	return nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsList はカンマ区切りの環境変数を空要素を除いて返します。
func getEnvAsList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
