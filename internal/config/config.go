// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして各コンポーネントへ渡す。
type Config struct {
	// Server
	ServerPort string

	// Database
	DatabaseURL string

	// Session
	SessionSecret     string
	SessionCookieName string
	SessionTTLDays    int

	// Room
	RoomCodeLength      int
	RoomDefaultTTLHours int
	RoomMaxTTLHours     int

	// Rate Limit
	JoinRateLimitPerMin int

	// Steam
	SteamAPIKey string

	// Cookie
	CookieSecure bool

	// CORS
	CORSAllowedOrigin string
}

// minSessionSecretLen はセッション署名シークレットの最小長。
const minSessionSecretLen = 16

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if len(cfg.SessionSecret) < minSessionSecretLen {
		return nil, fmt.Errorf("SESSION_SECRET must be at least %d characters", minSessionSecretLen)
	}

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", "3000")
	cfg.SessionCookieName = getEnvString("SESSION_COOKIE_NAME", "gs_session")
	cfg.SessionTTLDays = getEnvInt("SESSION_TTL_DAYS", 30)
	cfg.RoomCodeLength = getEnvInt("ROOM_CODE_LENGTH", 6)
	cfg.RoomDefaultTTLHours = getEnvInt("ROOM_DEFAULT_TTL_HOURS", 24)
	cfg.RoomMaxTTLHours = getEnvInt("ROOM_MAX_TTL_HOURS", 168)
	cfg.JoinRateLimitPerMin = getEnvInt("JOIN_RATE_LIMIT_PER_MIN", 30)
	cfg.SteamAPIKey = os.Getenv("STEAM_WEB_API_KEY")
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", false)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	return cfg, nil
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

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
