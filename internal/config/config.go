package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	LogLevel   string
	TrustProxy bool

	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	SecureCookies    bool

	CronSecret    string
	OwnerUsername string

	GeminiAPIKeys       []string
	GeminiModel         string
	GeminiFallbackModel string
	GeminiTimeout       time.Duration

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	RedisURL        string
	RateLimit       int
	RateLimitWindow time.Duration

	TelegramBotToken string
	TelegramChatID   int64
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	keys := CSV(os.Getenv("GEMINI_API_KEYS"))
	if len(keys) == 0 {
		keys = CSV(os.Getenv("GEMINI_API_KEY"))
	}

	return Config{
		ServerAddr: EnvDefault("SERVER_ADDR", ":8080"),
		LogLevel:   EnvDefault("LOG_LEVEL", "info"),
		TrustProxy: EnvBoolDefault("TRUST_PROXY", false),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		SecureCookies:    EnvBoolDefault("SECURE_COOKIES", true),

		CronSecret:    os.Getenv("CRON_SECRET"),
		OwnerUsername: strings.ToLower(strings.TrimSpace(os.Getenv("OWNER_USERNAME"))),

		GeminiAPIKeys:       keys,
		GeminiModel:         EnvDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiFallbackModel: EnvDefault("GEMINI_FALLBACK_MODEL", "gemini-pro"),
		GeminiTimeout:       EnvDurationDefault("GEMINI_TIMEOUT", 20*time.Second),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "movies"),

		RedisURL:        os.Getenv("REDIS_URL"),
		RateLimit:       EnvIntDefault("RATE_LIMIT", 100),
		RateLimitWindow: EnvDurationDefault("RATE_LIMIT_WINDOW", 15*time.Minute),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   int64(EnvIntDefault("TELEGRAM_CHAT_ID", 0)),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
